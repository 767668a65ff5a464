package docstore

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// MaxInValues is the largest value list accepted by an In filter.
const MaxInValues = 10

type Operator string

const (
	OpEq Operator = "=="
	OpIn Operator = "in"
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...any) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type Order struct {
	Field string
	Dir   Direction
}

func Asc(field string) Order  { return Order{Field: field, Dir: Ascending} }
func Desc(field string) Order { return Order{Field: field, Dir: Descending} }

type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      int
	// StartAfter is a cursor returned by a previous QueryResult.
	StartAfter string
}

type QueryResult struct {
	Docs []*Document
	// Cursor points at the last document, empty when Docs is empty.
	Cursor string
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func validField(name string) bool { return fieldNameRe.MatchString(name) }

// Validate checks the query shape shared by every backend.
func (q Query) Validate() error {
	const op = "docstore.query"
	if strings.TrimSpace(q.Collection) == "" {
		return invalidArgument(op, "collection is required")
	}
	ins := 0
	for _, f := range q.Filters {
		if !validField(f.Field) {
			return invalidArgument(op, "invalid filter field %q", f.Field)
		}
		switch f.Op {
		case OpEq:
		case OpIn:
			ins++
			vals := inValues(f)
			if len(vals) == 0 {
				return invalidArgument(op, "in filter on %q needs at least one value", f.Field)
			}
			if len(vals) > MaxInValues {
				return invalidArgument(op, "in filter on %q has %d values, max is %d", f.Field, len(vals), MaxInValues)
			}
		default:
			return invalidArgument(op, "unsupported operator %q", f.Op)
		}
	}
	if ins > 1 {
		return invalidArgument(op, "at most one in filter per query")
	}
	for _, o := range q.Orders {
		if !validField(o.Field) {
			return invalidArgument(op, "invalid order field %q", o.Field)
		}
		if o.Dir != Ascending && o.Dir != Descending {
			return invalidArgument(op, "invalid direction %q", o.Dir)
		}
	}
	if q.Limit < 0 {
		return invalidArgument(op, "negative limit")
	}
	return nil
}

func inValues(f Filter) []any {
	switch v := f.Value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}
	return nil
}

// EncodeCursor builds the opaque cursor for a document.
func EncodeCursor(collection, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(collection + "/" + id))
}

// DecodeCursor validates that cursor belongs to collection and returns the id.
func DecodeCursor(collection, cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", invalidArgument("docstore.cursor", "malformed cursor")
	}
	col, id, ok := strings.Cut(string(raw), "/")
	if !ok || id == "" {
		return "", invalidArgument("docstore.cursor", "malformed cursor")
	}
	if col != collection {
		return "", invalidArgument("docstore.cursor", "cursor belongs to %q, not %q", col, collection)
	}
	return id, nil
}

func resultFor(docs []*Document) *QueryResult {
	res := &QueryResult{Docs: docs}
	if n := len(docs); n > 0 {
		res.Cursor = EncodeCursor(docs[n-1].Collection, docs[n-1].ID)
	}
	return res
}
