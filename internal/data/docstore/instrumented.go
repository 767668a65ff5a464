package docstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

const tracerName = "github.com/yungbote/coursehall-backend/internal/data/docstore"

// SlowCallThreshold marks store calls logged at warn level.
const SlowCallThreshold = 500 * time.Millisecond

type instrumentedStore struct {
	backend string
	inner   Store
	tracer  trace.Tracer
	log     *logger.Logger
}

// Instrument wraps s so that every call opens a span and slow or failing
// calls are logged. Transactions are forwarded when s supports them.
func Instrument(backend string, s Store, baseLog *logger.Logger) Store {
	if s == nil {
		return nil
	}
	return &instrumentedStore{
		backend: backend,
		inner:   s,
		tracer:  otel.Tracer(tracerName),
		log:     baseLog.With("store", "instrumented", "backend", backend),
	}
}

func (s *instrumentedStore) start(ctx context.Context, op, collection string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "docstore."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.backend),
			attribute.String("db.operation", op),
			attribute.String("db.collection", collection),
		))
	return ctx, span, time.Now()
}

func (s *instrumentedStore) finish(span trace.Span, op, collection string, started time.Time, err error) {
	dur := time.Since(started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("docstore.code", string(CodeOf(err))))
		if CodeOf(err) != CodeNotFound {
			s.log.Debug("Document store call failed", "op", op, "collection", collection, "code", CodeOf(err), "error", err)
		}
	} else if dur > SlowCallThreshold {
		s.log.Warn("Slow document store call", "op", op, "collection", collection, "duration", dur)
	}
	span.End()
}

func (s *instrumentedStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	ctx, span, t0 := s.start(ctx, "get", collection)
	doc, err := s.inner.Get(ctx, collection, id)
	s.finish(span, "get", collection, t0, err)
	return doc, err
}

func (s *instrumentedStore) Create(ctx context.Context, collection string, data Data) (string, error) {
	ctx, span, t0 := s.start(ctx, "create", collection)
	id, err := s.inner.Create(ctx, collection, data)
	s.finish(span, "create", collection, t0, err)
	return id, err
}

func (s *instrumentedStore) Set(ctx context.Context, collection, id string, data Data) error {
	ctx, span, t0 := s.start(ctx, "set", collection)
	err := s.inner.Set(ctx, collection, id, data)
	s.finish(span, "set", collection, t0, err)
	return err
}

func (s *instrumentedStore) Update(ctx context.Context, collection, id string, data Data) error {
	ctx, span, t0 := s.start(ctx, "update", collection)
	err := s.inner.Update(ctx, collection, id, data)
	s.finish(span, "update", collection, t0, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) error {
	ctx, span, t0 := s.start(ctx, "delete", collection)
	err := s.inner.Delete(ctx, collection, id)
	s.finish(span, "delete", collection, t0, err)
	return err
}

func (s *instrumentedStore) Query(ctx context.Context, q Query) (*QueryResult, error) {
	ctx, span, t0 := s.start(ctx, "query", q.Collection)
	span.SetAttributes(
		attribute.Int("docstore.filters", len(q.Filters)),
		attribute.Int("docstore.orders", len(q.Orders)),
		attribute.Int("docstore.limit", q.Limit),
	)
	res, err := s.inner.Query(ctx, q)
	if res != nil {
		span.SetAttributes(attribute.Int("docstore.results", len(res.Docs)))
	}
	s.finish(span, "query", q.Collection, t0, err)
	return res, err
}

func (s *instrumentedStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

func (s *instrumentedStore) SupportsTransactions() bool {
	_, ok := AsTransactor(s.inner)
	return ok
}

func (s *instrumentedStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	t, ok := AsTransactor(s.inner)
	if !ok {
		return newError(CodeFailedPrecondition, "docstore.transaction", backendNoTx(s.backend), nil)
	}
	ctx, span, t0 := s.start(ctx, "transaction", "")
	err := t.RunTransaction(ctx, fn)
	s.finish(span, "transaction", "", t0, err)
	return err
}

func backendNoTx(backend string) string {
	return "backend " + backend + " does not support transactions"
}
