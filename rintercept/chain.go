// Package rintercept is the ordered before/after hook pipeline every
// statement runs through on its way to and from the driver - the
// Interceptor Pipeline (C5) of the runtime.
package rintercept

import (
	"context"

	"github.com/rbatis-go/rbatis/rvalue"
)

// Op names which kind of statement an interceptor is observing.
type Op int

const (
	OpQuery Op = iota
	OpExec
)

func (o Op) String() string {
	if o == OpExec {
		return "exec"
	}
	return "query"
}

// Interceptor observes (and may rewrite or short-circuit) one statement.
// Before runs prior to dispatch to the driver; returning skip=true stops the
// statement from running at all, and the executor then returns an empty
// result (no rows, a zero ExecResult) without running any After hook. After
// runs once a dispatched query/exec has returned, whether it succeeded or
// failed - inspect err to tell which - and sees the Before-rewritten sql.
type Interceptor interface {
	// Name identifies the interceptor; nothing in the module scopes interceptors by it.
	Name() string
	// Before may rewrite sql/args and signal skip to short-circuit the call
	// entirely (no driver round-trip, no further Before hooks).
	Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (newSQL string, newArgs []rvalue.Value, skip bool, err error)
	// After observes the outcome; rows is nil for Exec. Returning a non-nil
	// error replaces the statement's error (or introduces one on success);
	// returning rewritten rows lets an interceptor mutate the result set.
	After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error)
}

// Chain runs an ordered list of Interceptors, short-circuiting Before in
// registration order (first skip=true wins) and running every After hook in
// the same order regardless of outcome, each seeing the previous hook's
// (possibly rewritten) result.
type Chain struct {
	interceptors []Interceptor
}

// NewChain builds a Chain from interceptors in the order they should run.
func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: interceptors}
}

// Before runs every interceptor's Before hook in order. The first one to
// return skip=true stops the chain immediately; its sql/args/skip are
// returned as final.
func (c *Chain) Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (string, []rvalue.Value, bool, error) {
	if c == nil {
		return sql, args, false, nil
	}

	for _, ic := range c.interceptors {
		newSQL, newArgs, skip, err := ic.Before(ctx, op, sql, args)
		if err != nil {
			return sql, args, false, err
		}

		sql, args = newSQL, newArgs

		if skip {
			return sql, args, true, nil
		}
	}

	return sql, args, false, nil
}

// After runs every interceptor's After hook in order, threading rows/err
// through so a later interceptor sees an earlier one's rewrite.
func (c *Chain) After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error) {
	if c == nil {
		return rows, err
	}

	for _, ic := range c.interceptors {
		rows, err = ic.After(ctx, op, sql, rows, err)
	}

	return rows, err
}

// AfterErr is a convenience for the common case of running After purely to
// observe/transform a driver error, discarding any row rewrite.
func (c *Chain) AfterErr(ctx context.Context, op Op, sql string, err error) error {
	_, err = c.After(ctx, op, sql, nil, err)
	return err
}
