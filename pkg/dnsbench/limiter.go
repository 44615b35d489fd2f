package dnsbench

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of probes in flight. The slot is acquired right before a probe
// is executed and released right after it finishes.
type Limiter interface {
	// Acquire blocks until a slot is available or the context is done.
	Acquire(ctx context.Context) error
	// Release returns previously acquired slot.
	Release()
}

type weightedLimiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a Limiter admitting at most n probes at once.
func NewLimiter(n int) Limiter {
	if n < 1 {
		n = 1
	}
	return &weightedLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *weightedLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *weightedLimiter) Release() {
	l.sem.Release(1)
}
