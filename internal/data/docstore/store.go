package docstore

import (
	"context"
	"time"
)

// Data is the field map of a document.
type Data map[string]any

type Document struct {
	Collection string
	ID         string
	Data       Data
	CreateTime time.Time
	UpdateTime time.Time
}

// Reader and Writer are the per-document operations shared by a Store and a
// transaction.
type Reader interface {
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
}

type Writer interface {
	// Create stores data under a store-assigned id.
	Create(ctx context.Context, collection string, data Data) (string, error)
	// Set creates or replaces the document with the caller's id.
	Set(ctx context.Context, collection, id string, data Data) error
	// Update merges data into an existing document. Values may be transforms.
	Update(ctx context.Context, collection, id string, data Data) error
	// Delete is idempotent.
	Delete(ctx context.Context, collection, id string) error
}

type Tx interface {
	Reader
	Writer
}

type Store interface {
	Reader
	Writer
	Query(ctx context.Context, q Query) (*QueryResult, error)
	Close(ctx context.Context) error
}

// Transactor is implemented by backends that can commit several writes
// atomically. fn must use tx, not the store, for its reads and writes.
type Transactor interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type transactionSupport interface {
	SupportsTransactions() bool
}

// AsTransactor reports whether s can run transactions, looking through
// decorators that forward them.
func AsTransactor(s Store) (Transactor, bool) {
	if ts, ok := s.(transactionSupport); ok && !ts.SupportsTransactions() {
		return nil, false
	}
	t, ok := s.(Transactor)
	return t, ok
}
