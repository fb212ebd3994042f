// Package com holds small concurrency primitives shared across the runtime:
// async waiters, a batching channel transform (Bulk) grounded for rpage's
// batched writes, a reporting Counter and a broadcast Cond, grounded on the
// teacher's com package of the same shape.
package com

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rbatis-go/rbatis/types"
)

// WaiterFunc is an adapter allowing ordinary functions returning an error to
// be run by WaitAsync.
type WaiterFunc func() error

// WaitAsync calls w in a new goroutine and sends its first non-nil error (if
// any) to the returned channel. The returned channel is always closed once w
// returns.
func WaitAsync(w WaiterFunc) <-chan error {
	errs := make(chan error, 1)

	go func() {
		defer close(errs)

		if e := w(); e != nil {
			errs <- e
		}
	}()

	return errs
}

// ErrgroupReceive adds a goroutine to the specified group that
// returns the first non-nil error (if any) from the specified channel.
// If the channel is closed, it will return nil.
func ErrgroupReceive(ctx context.Context, g *errgroup.Group, err <-chan error) {
	g.Go(func() error {
		select {
		case e, more := <-err:
			if !more {
				return nil
			}

			return e
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// CopyFirst asynchronously forwards all items from input to forward and synchronously returns the first item.
func CopyFirst[T any](ctx context.Context, input <-chan T) (T, <-chan T, error) {
	select {
	case first, ok := <-input:
		if !ok {
			return types.Zero[T](), nil, errors.New("can't read from closed channel")
		}

		// Buffer of one because we receive an entity and send it back immediately.
		forward := make(chan T, 1)
		forward <- first

		go func() {
			defer close(forward)

			for {
				select {
				case e, ok := <-input:
					if !ok {
						return
					}

					select {
					case forward <- e:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		return first, forward, nil
	case <-ctx.Done():
		return types.Zero[T](), nil, ctx.Err()
	}
}

// Counter is a goroutine-safe monotonic counter that also tracks its
// lifetime total, for the periodic "processed N rows" progress reports the
// rpage/rsync bulk operations emit via logging.Logger.Interval.
type Counter struct {
	val   atomic.Uint64
	total atomic.Uint64
}

// Add adds delta to both the resettable value and the lifetime total,
// returning the new value.
func (c *Counter) Add(delta uint64) uint64 {
	c.total.Add(delta)
	return c.val.Add(delta)
}

// Val returns the counter's current (resettable) value.
func (c *Counter) Val() uint64 {
	return c.val.Load()
}

// Total returns the counter's lifetime total, unaffected by Reset.
func (c *Counter) Total() uint64 {
	return c.total.Load()
}

// Reset zeroes Val and returns its value from just before the reset.
func (c *Counter) Reset() uint64 {
	return c.val.Swap(0)
}

// Cond is a broadcast condition variable built on channels rather than
// sync.Cond's lock-coupled Wait, so a waiter can select across it alongside
// a context or a timeout.
type Cond struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	wait chan struct{}
}

// NewCond returns a Cond tied to ctx's lifetime: Done() closes when ctx is
// canceled or Close is called.
func NewCond(ctx context.Context) *Cond {
	ctx, cancel := context.WithCancel(ctx)
	return &Cond{ctx: ctx, cancel: cancel, wait: make(chan struct{})}
}

// Done returns a channel that closes when the Cond itself is closed.
func (c *Cond) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Wait returns a channel that closes on the next call to Broadcast. Each
// call to Wait after a Broadcast gets a channel for the new generation.
func (c *Cond) Wait() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wait
}

// Broadcast wakes every current waiter and starts a new generation.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	close(c.wait)
	c.wait = make(chan struct{})
}

// Close ends the Cond's lifetime; Done() is closed and further Broadcasts
// are harmless but pointless since nothing can observe them.
func (c *Cond) Close() error {
	c.cancel()
	return nil
}

// BulkChunkSplitPolicy decides, for each item appended to the current chunk,
// whether the chunk must be flushed immediately after it regardless of the
// configured count.
type BulkChunkSplitPolicy[T any] func(T) (split bool)

// BulkChunkSplitPolicyFactory builds a fresh BulkChunkSplitPolicy for each
// chunk Bulk starts accumulating, so stateful policies (e.g. "split when the
// primary key changes") don't leak state across chunks.
type BulkChunkSplitPolicyFactory[T any] func() BulkChunkSplitPolicy[T]

// NeverSplit is a BulkChunkSplitPolicyFactory that never forces an early
// flush; count and channel idle time are the only flush triggers.
func NeverSplit[T any]() BulkChunkSplitPolicy[T] {
	return func(T) bool { return false }
}

// bulkFlushInterval bounds how long a partially filled chunk waits for more
// input before Bulk flushes it anyway, so a slow/bursty producer doesn't
// stall downstream batched inserts indefinitely.
const bulkFlushInterval = 100 * time.Millisecond

// Bulk reads from ch and emits chunks of at most count items on the returned
// channel. A chunk is flushed early when splitPolicy (freshly built per
// chunk via splitPolicyFactory) reports true for the item just appended, or
// when no new item arrives within bulkFlushInterval. The returned channel is
// closed once ch is closed (after a final flush of any partial chunk) or ctx
// is done.
func Bulk[T any](ctx context.Context, ch <-chan T, count int, splitPolicyFactory BulkChunkSplitPolicyFactory[T]) <-chan []T {
	if count <= 0 {
		count = 1
	}

	out := make(chan []T)

	go func() {
		defer close(out)

		splitPolicy := splitPolicyFactory()
		buf := make([]T, 0, count)

		timer := time.NewTimer(bulkFlushInterval)
		defer timer.Stop()

		stopTimer := func() {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		flush := func() bool {
			if len(buf) == 0 {
				return true
			}
			select {
			case out <- buf:
			case <-ctx.Done():
				return false
			}
			buf = make([]T, 0, count)
			splitPolicy = splitPolicyFactory()
			return true
		}

		for {
			select {
			case v, ok := <-ch:
				if !ok {
					flush()
					return
				}

				buf = append(buf, v)
				stopTimer()

				if len(buf) >= count || splitPolicy(v) {
					if !flush() {
						return
					}
				}

				timer.Reset(bulkFlushInterval)

			case <-timer.C:
				if !flush() {
					return
				}
				timer.Reset(bulkFlushInterval)

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
