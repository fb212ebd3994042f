// Package rcache is the per-connection prepared-statement cache (C6 of the
// pipeline): an LRU keyed by the driver-rewritten SQL text, sized by the
// caller, with eviction closing the handle it displaces.
package rcache

import (
	"context"
	"database/sql"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rbatis-go/rbatis/rerror"
)

// Preparer is the subset of *sql.DB / *sql.Tx / *sql.Conn needed to prepare a
// statement against one physical connection.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// PreparedCache caches *sql.Stmt handles for one connection, keyed by their
// exact (already dialect-rewritten) SQL text. A size of 0 disables caching:
// every call prepares a fresh statement and hands it to the caller to close,
// for callers that don't want a connection accumulating handles at all.
type PreparedCache struct {
	size  int
	cache *lru.Cache[string, *sql.Stmt]
}

// NewPreparedCache builds a cache holding at most size prepared statements.
// Evicted statements are closed, so a caller never leaks a handle by simply
// letting it fall out of the LRU.
func NewPreparedCache(size int) (*PreparedCache, error) {
	if size <= 0 {
		return &PreparedCache{size: 0}, nil
	}

	cache, err := lru.NewWithEvict(size, func(_ string, stmt *sql.Stmt) {
		_ = stmt.Close()
	})
	if err != nil {
		return nil, rerror.Wrap(rerror.KindPool, err, "can't build prepared statement cache")
	}

	return &PreparedCache{size: size, cache: cache}, nil
}

// Get returns the cached statement for sql, preparing and storing it via
// prep on a miss. When the cache is disabled (size 0) it always prepares
// fresh and the caller is responsible for closing the returned statement
// once it's done with it.
func (c *PreparedCache) Get(ctx context.Context, prep Preparer, sql string) (stmt *sql.Stmt, cached bool, err error) {
	if c.size == 0 {
		stmt, err = prep.PrepareContext(ctx, sql)
		return stmt, false, err
	}

	if existing, ok := c.cache.Get(sql); ok {
		return existing, true, nil
	}

	stmt, err = prep.PrepareContext(ctx, sql)
	if err != nil {
		return nil, false, err
	}

	c.cache.Add(sql, stmt)
	return stmt, false, nil
}

// Len reports how many statements are currently cached.
func (c *PreparedCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Purge closes and evicts every cached statement.
func (c *PreparedCache) Purge() {
	if c.cache == nil {
		return
	}
	c.cache.Purge()
}

// Remove evicts (and closes) the statement cached for sql, if any.
func (c *PreparedCache) Remove(sql string) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(sql)
}
