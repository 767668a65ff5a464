package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// FaultFunc is consulted before every operation; a non-nil error is returned
// to the caller instead of running it. op is one of get, create, set, update,
// delete, query.
type FaultFunc func(op, collection string, q *Query) error

type MemoryOption func(*MemoryStore)

func WithIndexes(r *IndexRegistry) MemoryOption {
	return func(s *MemoryStore) { s.indexes = r }
}

// WithQueryObserver registers fn to see every query issued, including
// queries that later fail.
func WithQueryObserver(fn func(Query)) MemoryOption {
	return func(s *MemoryStore) { s.observer = fn }
}

func WithFault(fn FaultFunc) MemoryOption {
	return func(s *MemoryStore) { s.fault = fn }
}

// MemoryStore is a map-backed Store. It applies the same index rules as the
// hosted database so the fallback paths can be exercised without one.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]map[string]*Document
	clock clock

	hookMu   sync.RWMutex
	indexes  *IndexRegistry
	observer func(Query)
	fault    FaultFunc
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:    map[string]map[string]*Document{},
		indexes: DefaultIndexes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFault replaces the fault hook; nil clears it.
func (s *MemoryStore) SetFault(fn FaultFunc) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.fault = fn
}

func (s *MemoryStore) SetIndexes(r *IndexRegistry) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.indexes = r
}

func (s *MemoryStore) injected(op, collection string, q *Query) error {
	s.hookMu.RLock()
	fn := s.fault
	s.hookMu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(op, collection, q)
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := s.injected("get", collection, nil); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(CodeUnavailable, "docstore.get", "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).get(collection, id)
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data Data) (string, error) {
	var id string
	err := s.write(ctx, "create", collection, func(tx *memTx) error {
		var err error
		id, err = tx.create(collection, data)
		return err
	})
	return id, err
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data Data) error {
	return s.write(ctx, "set", collection, func(tx *memTx) error { return tx.set(collection, id, data) })
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data Data) error {
	return s.write(ctx, "update", collection, func(tx *memTx) error { return tx.update(collection, id, data) })
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return s.write(ctx, "delete", collection, func(tx *memTx) error { return tx.delete(collection, id) })
}

func (s *MemoryStore) write(ctx context.Context, op, collection string, fn func(*memTx) error) error {
	if err := s.injected(op, collection, nil); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return newError(CodeUnavailable, "docstore."+op, "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// RunTransaction holds the store lock for the duration of fn and applies its
// writes only when fn returns nil.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return newError(CodeUnavailable, "docstore.transaction", "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := newMemTx(s)
	tx.faults = true
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) (*QueryResult, error) {
	s.hookMu.RLock()
	observer, indexes := s.observer, s.indexes
	s.hookMu.RUnlock()
	if observer != nil {
		observer(q)
	}
	if err := s.injected("query", q.Collection, &q); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := indexes.Check(q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(CodeUnavailable, "docstore.query", "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]*Document, 0)
	for _, d := range s.data[q.Collection] {
		if matches(d, q.Filters) {
			docs = append(docs, d)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool { return compareDocs(docs[i], docs[j], q.Orders) < 0 })

	if q.StartAfter != "" {
		id, err := DecodeCursor(q.Collection, q.StartAfter)
		if err != nil {
			return nil, err
		}
		anchor, ok := s.data[q.Collection][id]
		if !ok {
			return nil, invalidArgument("docstore.query", "cursor document %s no longer exists", id)
		}
		start := sort.Search(len(docs), func(i int) bool { return compareDocs(docs[i], anchor, q.Orders) > 0 })
		docs = docs[start:]
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	out := make([]*Document, len(docs))
	for i, d := range docs {
		out[i] = copyDoc(d)
	}
	return resultFor(out), nil
}

func copyDoc(d *Document) *Document {
	c := *d
	c.Data = cloneData(d.Data)
	return &c
}

// memTx stages writes over the store state. The caller holds s.mu.
type memTx struct {
	s       *MemoryStore
	staged  map[string]map[string]*Document
	deleted map[string]map[string]bool
	// faults routes transactional calls through the fault hook.
	faults bool
}

func newMemTx(s *MemoryStore) *memTx {
	return &memTx{s: s, staged: map[string]map[string]*Document{}, deleted: map[string]map[string]bool{}}
}

func (tx *memTx) lookup(collection, id string) (*Document, bool) {
	if tx.deleted != nil && tx.deleted[collection][id] {
		return nil, false
	}
	if tx.staged != nil {
		if d, ok := tx.staged[collection][id]; ok {
			return d, true
		}
	}
	d, ok := tx.s.data[collection][id]
	return d, ok
}

func (tx *memTx) stage(d *Document) {
	if tx.staged[d.Collection] == nil {
		tx.staged[d.Collection] = map[string]*Document{}
	}
	tx.staged[d.Collection][d.ID] = d
	delete(tx.deleted[d.Collection], d.ID)
}

func (tx *memTx) get(collection, id string) (*Document, error) {
	d, ok := tx.lookup(collection, id)
	if !ok {
		return nil, notFound("docstore.get", collection, id)
	}
	return copyDoc(d), nil
}

func (tx *memTx) create(collection string, data Data) (string, error) {
	id := uuid.NewString()
	now := tx.s.clock.Now()
	tx.stage(&Document{Collection: collection, ID: id, Data: applyCreate(data, now), CreateTime: now, UpdateTime: now})
	return id, nil
}

func (tx *memTx) set(collection, id string, data Data) error {
	if id == "" {
		return invalidArgument("docstore.set", "document id is required")
	}
	now := tx.s.clock.Now()
	created := now
	if prev, ok := tx.lookup(collection, id); ok {
		created = prev.CreateTime
	}
	tx.stage(&Document{Collection: collection, ID: id, Data: applyCreate(data, now), CreateTime: created, UpdateTime: now})
	return nil
}

func (tx *memTx) update(collection, id string, data Data) error {
	prev, ok := tx.lookup(collection, id)
	if !ok {
		return notFound("docstore.update", collection, id)
	}
	for k := range data {
		if !validField(k) {
			return invalidArgument("docstore.update", "invalid field %q", k)
		}
	}
	now := tx.s.clock.Now()
	tx.stage(&Document{Collection: collection, ID: id, Data: applyUpdate(prev.Data, data, now), CreateTime: prev.CreateTime, UpdateTime: now})
	return nil
}

func (tx *memTx) delete(collection, id string) error {
	if tx.deleted[collection] == nil {
		tx.deleted[collection] = map[string]bool{}
	}
	tx.deleted[collection][id] = true
	delete(tx.staged[collection], id)
	return nil
}

func (tx *memTx) commit() {
	for col, ids := range tx.deleted {
		for id := range ids {
			delete(tx.s.data[col], id)
		}
	}
	for col, docs := range tx.staged {
		if tx.s.data[col] == nil {
			tx.s.data[col] = map[string]*Document{}
		}
		for id, d := range docs {
			tx.s.data[col][id] = d
		}
	}
}

func (tx *memTx) Get(_ context.Context, collection, id string) (*Document, error) {
	if err := tx.fault("get", collection); err != nil {
		return nil, err
	}
	return tx.get(collection, id)
}

func (tx *memTx) Create(_ context.Context, collection string, data Data) (string, error) {
	if err := tx.fault("create", collection); err != nil {
		return "", err
	}
	return tx.create(collection, data)
}

func (tx *memTx) Set(_ context.Context, collection, id string, data Data) error {
	if err := tx.fault("set", collection); err != nil {
		return err
	}
	return tx.set(collection, id, data)
}

func (tx *memTx) Update(_ context.Context, collection, id string, data Data) error {
	if err := tx.fault("update", collection); err != nil {
		return err
	}
	return tx.update(collection, id, data)
}

func (tx *memTx) Delete(_ context.Context, collection, id string) error {
	if err := tx.fault("delete", collection); err != nil {
		return err
	}
	return tx.delete(collection, id)
}

func (tx *memTx) fault(op, collection string) error {
	if !tx.faults {
		return nil
	}
	return tx.s.injected(op, collection, nil)
}
