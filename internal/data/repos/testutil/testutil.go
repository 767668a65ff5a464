package testutil

import (
	"sync"
	"testing"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("nop")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// QueryCounter records the queries a memory store receives.
type QueryCounter struct {
	mu      sync.Mutex
	queries []docstore.Query
}

func (c *QueryCounter) Observe(q docstore.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)
}

func (c *QueryCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func (c *QueryCounter) Queries() []docstore.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]docstore.Query, len(c.queries))
	copy(out, c.queries)
	return out
}

func (c *QueryCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = nil
}

// Store returns a memory store with the default indexes unless opts
// override them.
func Store(tb testing.TB, opts ...docstore.MemoryOption) *docstore.MemoryStore {
	tb.Helper()
	return docstore.NewMemoryStore(opts...)
}

// NoIndexes forces every composite query onto the fallback path.
func NoIndexes() docstore.MemoryOption {
	return docstore.WithIndexes(docstore.NewIndexRegistry())
}
