package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type documentRow struct {
	Collection string         `gorm:"column:collection;primaryKey;size:128"`
	ID         string         `gorm:"column:id;primaryKey;size:128"`
	Data       datatypes.JSON `gorm:"column:data;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;not null"`
}

func (documentRow) TableName() string { return "documents" }

// storedTimeLayout is fixed width so that lexical order equals time order
// inside JSON columns.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

var storedTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{9}Z$`)

// GormStore keeps every collection in one documents table on Postgres or
// SQLite and emulates composite-index requirements with an IndexRegistry.
type GormStore struct {
	db       *gorm.DB
	log      *logger.Logger
	indexes  *IndexRegistry
	clock    *clock
	postgres bool
	inTx     bool
}

func NewGormStore(db *gorm.DB, indexes *IndexRegistry, baseLog *logger.Logger) *GormStore {
	return &GormStore{
		db:       db,
		log:      baseLog.With("store", "GormStore"),
		indexes:  indexes,
		clock:    &clock{},
		postgres: db.Dialector.Name() == "postgres",
	}
}

func (s *GormStore) withDB(db *gorm.DB) *GormStore {
	cp := *s
	cp.db = db
	cp.inTx = true
	return &cp
}

// Migrate creates the documents table and one expression index per declared
// composite index.
func (s *GormStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	for _, ix := range s.indexes.Indexes() {
		cols := []string{"collection"}
		for _, f := range ix.Fields {
			col := "(" + s.fieldExpr(f.Field) + ")"
			if f.Order == Descending {
				col += " DESC"
			}
			cols = append(cols, col)
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON documents (%s) WHERE collection = '%s'",
			indexName(ix), strings.Join(cols, ", "), ix.Collection)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", ix, err)
		}
	}
	return nil
}

func indexName(ix Index) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ix.String()))
	name := strings.ToLower(fmt.Sprintf("idx_documents_%s", ix.Collection))
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("%s_%08x", name, h.Sum32())
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	const op = "docstore.get"
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, collection, id)
	}
	if err != nil {
		return nil, s.mapErr(op, err)
	}
	return rowToDoc(row)
}

func (s *GormStore) Create(ctx context.Context, collection string, data Data) (string, error) {
	const op = "docstore.create"
	now := s.clock.Now()
	raw, err := encodeData(applyCreate(data, now))
	if err != nil {
		return "", invalidArgument(op, "encode document: %v", err)
	}
	row := documentRow{Collection: collection, ID: uuid.NewString(), Data: raw, CreatedAt: now, UpdatedAt: now}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", s.mapErr(op, err)
	}
	return row.ID, nil
}

func (s *GormStore) Set(ctx context.Context, collection, id string, data Data) error {
	const op = "docstore.set"
	if id == "" {
		return invalidArgument(op, "document id is required")
	}
	now := s.clock.Now()
	raw, err := encodeData(applyCreate(data, now))
	if err != nil {
		return invalidArgument(op, "encode document: %v", err)
	}
	row := documentRow{Collection: collection, ID: id, Data: raw, CreatedAt: now, UpdatedAt: now}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return s.mapErr(op, err)
	}
	return nil
}

// Update reads, merges and writes back the document inside a transaction,
// locking the row on Postgres.
func (s *GormStore) Update(ctx context.Context, collection, id string, data Data) error {
	const op = "docstore.update"
	for k := range data {
		if !validField(k) {
			return invalidArgument(op, "invalid field %q", k)
		}
	}
	apply := func(tx *gorm.DB) error {
		q := tx.WithContext(ctx)
		if s.postgres {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row documentRow
		err := q.Where("collection = ? AND id = ?", collection, id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(op, collection, id)
		}
		if err != nil {
			return err
		}
		current, err := decodeData(row.Data)
		if err != nil {
			return newError(CodeInternal, op, "decode stored document", err)
		}
		now := s.clock.Now()
		raw, err := encodeData(applyUpdate(current, data, now))
		if err != nil {
			return invalidArgument(op, "encode document: %v", err)
		}
		return tx.WithContext(ctx).Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": raw, "updated_at": now}).Error
	}
	var err error
	if s.inTx {
		err = apply(s.db)
	} else {
		err = s.db.WithContext(ctx).Transaction(apply)
	}
	if err != nil {
		return s.mapErr(op, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{}).Error
	if err != nil {
		return s.mapErr("docstore.delete", err)
	}
	return nil
}

func (s *GormStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, s.withDB(tx))
	})
	if err != nil {
		return s.mapErr("docstore.transaction", err)
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, q Query) (*QueryResult, error) {
	const op = "docstore.query"
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		expr := s.fieldExpr(f.Field)
		switch f.Op {
		case OpEq:
			db = db.Where(expr+" = "+s.placeholder(), s.param(f.Value))
		case OpIn:
			vals := inValues(f)
			holders := make([]string, len(vals))
			params := make([]any, len(vals))
			for i, v := range vals {
				holders[i] = s.placeholder()
				params[i] = s.param(v)
			}
			db = db.Where(expr+" IN ("+strings.Join(holders, ", ")+")", params...)
		}
	}

	if q.StartAfter != "" {
		id, err := DecodeCursor(q.Collection, q.StartAfter)
		if err != nil {
			return nil, err
		}
		anchor, err := s.Get(ctx, q.Collection, id)
		if errors.Is(err, ErrNotFound) {
			return nil, invalidArgument(op, "cursor document %s no longer exists", id)
		}
		if err != nil {
			return nil, err
		}
		cond, params := s.keyset(q.Orders, anchor)
		db = db.Where(cond, params...)
	}

	for _, o := range q.Orders {
		dir := "ASC"
		if o.Dir == Descending {
			dir = "DESC"
		}
		db = db.Order(s.fieldExpr(o.Field) + " " + dir)
	}
	db = db.Order("id ASC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var rows []documentRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, s.mapErr(op, err)
	}
	docs := make([]*Document, 0, len(rows))
	for _, r := range rows {
		d, err := rowToDoc(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return resultFor(docs), nil
}

// keyset builds the "strictly after anchor" predicate for the query order
// plus the id tie-break.
func (s *GormStore) keyset(orders []Order, anchor *Document) (string, []any) {
	var (
		disjuncts []string
		params    []any
		prefix    []string
		prefixP   []any
	)
	for _, o := range orders {
		expr := s.fieldExpr(o.Field)
		cmp := ">"
		if o.Dir == Descending {
			cmp = "<"
		}
		val := s.param(anchor.Data[o.Field])
		terms := append(append([]string{}, prefix...), expr+" "+cmp+" "+s.placeholder())
		disjuncts = append(disjuncts, "("+strings.Join(terms, " AND ")+")")
		params = append(params, prefixP...)
		params = append(params, val)

		prefix = append(prefix, expr+" = "+s.placeholder())
		prefixP = append(prefixP, val)
	}
	terms := append(append([]string{}, prefix...), "id > ?")
	disjuncts = append(disjuncts, "("+strings.Join(terms, " AND ")+")")
	params = append(params, prefixP...)
	params = append(params, anchor.ID)
	return "(" + strings.Join(disjuncts, " OR ") + ")", params
}

// fieldExpr expects a name already checked by validField.
func (s *GormStore) fieldExpr(field string) string {
	if s.postgres {
		return "data -> '" + field + "'"
	}
	return "json_extract(data, '$." + field + "')"
}

func (s *GormStore) placeholder() string {
	if s.postgres {
		return "CAST(? AS jsonb)"
	}
	return "?"
}

// param renders a filter value for comparison with fieldExpr.
func (s *GormStore) param(v any) any {
	v = encodeValue(v)
	if s.postgres {
		b, err := json.Marshal(v)
		if err != nil {
			return "null"
		}
		return string(b)
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func (s *GormStore) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeUnavailable, op, "request cancelled", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case strings.HasPrefix(code, "08"), code == "40001", code == "40P01", code == "55P03", code == "57P03":
			return newError(CodeUnavailable, op, "database unavailable", err)
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") {
		return newError(CodeUnavailable, op, "database unavailable", err)
	}
	s.log.Error("Document store call failed", "op", op, "error", err)
	return newError(CodeInternal, op, "database error", err)
}

func rowToDoc(r documentRow) (*Document, error) {
	data, err := decodeData(r.Data)
	if err != nil {
		return nil, newError(CodeInternal, "docstore.decode", "decode stored document", err)
	}
	return &Document{
		Collection: r.Collection,
		ID:         r.ID,
		Data:       data,
		CreateTime: r.CreatedAt.UTC(),
		UpdateTime: r.UpdatedAt.UTC(),
	}, nil
}

func encodeData(d Data) (datatypes.JSON, error) {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = encodeValue(v)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(storedTimeLayout)
	case Data:
		return encodeValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = encodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeValue(e)
		}
		return out
	}
	return v
}

func decodeData(raw datatypes.JSON) (Data, error) {
	var m map[string]any
	if len(raw) == 0 {
		return Data{}, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(Data, len(m))
	for k, v := range m {
		out[k] = decodeValue(v)
	}
	return out, nil
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case string:
		if storedTimeRe.MatchString(t) {
			if ts, err := time.Parse(storedTimeLayout, t); err == nil {
				return ts
			}
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = decodeValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = decodeValue(e)
		}
		return t
	}
	return v
}
