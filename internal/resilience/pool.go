package resilience

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool caps the number of in-flight calls to a slow dependency. Callers wait
// for a slot until their context ends.
type Pool struct {
	sem   *semaphore.Weighted
	limit int
}

// NewPool creates a Pool with limit slots, at least one.
func NewPool(limit int) *Pool {
	limit = max(limit, 1)
	return &Pool{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Run executes fn in a slot. A nil Pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for slot (limit %d): %w", p.limit, err)
	}
	defer p.sem.Release(1)
	return fn()
}
