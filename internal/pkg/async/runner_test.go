package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

func TestRunnerDrainsOnShutdown(t *testing.T) {
	r := NewRunner(5, time.Second, logger.Nop())
	var done atomic.Int32
	for i := 0; i < 5; i++ {
		r.Go("count", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if done.Load() != 5 {
		t.Fatalf("expected 5 tasks, got %d", done.Load())
	}
	if r.Go("late", func(context.Context) error { return nil }) {
		t.Fatalf("Go after shutdown should be rejected")
	}
}

func TestRunnerSwallowsFailures(t *testing.T) {
	r := NewRunner(3, time.Second, logger.Nop())
	var ran atomic.Int32
	r.Go("fails", func(context.Context) error { return errors.New("boom") })
	r.Go("panics", func(context.Context) error { panic("bad") })
	r.Go("ok", func(context.Context) error { ran.Add(1); return nil })
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if ran.Load() != 1 {
		t.Fatalf("later tasks must still run")
	}
}

func TestRunnerTaskTimeout(t *testing.T) {
	r := NewRunner(1, 10*time.Millisecond, logger.Nop())
	got := make(chan error, 1)
	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	})
	_ = r.Shutdown(context.Background())
	if err := <-got; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestShutdownHonoursContext(t *testing.T) {
	r := NewRunner(1, time.Second, logger.Nop())
	release := make(chan struct{})
	r.Go("blocked", func(context.Context) error { <-release; return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected drain timeout, got %v", err)
	}
	close(release)
}

func TestGoDropsWhenPoolIsFull(t *testing.T) {
	r := NewRunner(1, time.Second, logger.Nop())
	release := make(chan struct{})
	if !r.Go("busy", func(context.Context) error { <-release; return nil }) {
		t.Fatalf("first task should be accepted")
	}
	start := time.Now()
	if r.Go("overflow", func(context.Context) error { return nil }) {
		t.Fatalf("task should be dropped while the pool is full")
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Fatalf("Go blocked for %s", d)
	}
	close(release)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
