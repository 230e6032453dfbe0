package query

import (
	"context"
	"sync"

	"github.com/roach88/deferq/internal/ir"
)

// resultCache memoizes the materialized rows of one Query value.
//
// load holds mu for the whole execution, so concurrent first-time callers
// wait for the running execution instead of issuing their own.
type resultCache struct {
	mu     sync.Mutex
	rows   []ir.Row
	loaded bool
}

// load returns the cached rows, executing fetch under the lock on a miss.
// A failed fetch leaves the slot empty.
func (c *resultCache) load(ctx context.Context, fetch func(context.Context) ([]ir.Row, error)) ([]ir.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.rows, nil
	}
	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.rows = rows
	c.loaded = true
	return rows, nil
}

// peek returns the cached rows without executing.
func (c *resultCache) peek() ([]ir.Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows, c.loaded
}
