// Package async runs best-effort background work on a bounded pool.
package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

const (
	DefaultLimit   = 8
	DefaultTimeout = 10 * time.Second
)

// Runner executes fire-and-forget tasks. Task failures are logged and never
// reach the caller. Go never blocks: a task that finds the pool full is dropped.
type Runner struct {
	g       errgroup.Group
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewRunner(limit int, timeout time.Duration, baseLog *logger.Logger) *Runner {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Runner{log: baseLog.With("component", "AsyncRunner"), timeout: timeout}
	r.g.SetLimit(limit)
	return r
}

// Go schedules fn with its own timeout, detached from any request context.
// It returns false when the runner has been shut down or every slot is busy.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("Background task dropped after shutdown", "task", name)
		return false
	}
	accepted := r.g.TryGo(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		started := time.Now()
		if err := r.run(ctx, fn); err != nil {
			r.log.Warn("Background task failed", "task", name, "duration", time.Since(started), "error", err)
			return nil
		}
		r.log.Debug("Background task done", "task", name, "duration", time.Since(started))
		return nil
	})
	if !accepted {
		r.log.Warn("Background task dropped, pool is full", "task", name)
	}
	return accepted
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting tasks and waits for in-flight ones until ctx ends.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = r.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("async runner drain: %w", ctx.Err())
	}
}
