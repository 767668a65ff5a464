package docstore

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultIndexHintBase prefixes the creation hint attached to missing-index
// errors.
const DefaultIndexHintBase = "docstore://indexes/create"

type IndexField struct {
	Field string    `yaml:"field"`
	Order Direction `yaml:"order"`
}

// Index is a composite index declaration.
type Index struct {
	Collection string       `yaml:"collection"`
	Fields     []IndexField `yaml:"fields"`
}

func (ix Index) String() string {
	parts := make([]string, 0, len(ix.Fields))
	for _, f := range ix.Fields {
		parts = append(parts, f.Field+":"+string(f.Order))
	}
	return ix.Collection + "(" + strings.Join(parts, ",") + ")"
}

type indexFile struct {
	Indexes []Index `yaml:"indexes"`
}

// IndexRegistry holds the declared composite indexes and decides which
// queries need one.
type IndexRegistry struct {
	indexes  []Index
	hintBase string
}

func NewIndexRegistry(indexes ...Index) *IndexRegistry {
	r := &IndexRegistry{hintBase: DefaultIndexHintBase}
	for _, ix := range indexes {
		r.indexes = append(r.indexes, normalizeIndex(ix))
	}
	return r
}

// DefaultIndexes declares the composite indexes the forum queries rely on.
func DefaultIndexes() *IndexRegistry {
	return NewIndexRegistry(
		Index{Collection: "forumPosts", Fields: []IndexField{{"courseId", Ascending}, {"createdAt", Descending}}},
		Index{Collection: "forumPosts", Fields: []IndexField{{"lessonId", Ascending}, {"createdAt", Descending}}},
		Index{Collection: "forumPosts", Fields: []IndexField{{"authorId", Ascending}, {"createdAt", Descending}}},
		Index{Collection: "forumPosts", Fields: []IndexField{{"replyCount", Descending}, {"updatedAt", Descending}}},
		Index{Collection: "postReplies", Fields: []IndexField{{"postId", Ascending}, {"createdAt", Ascending}}},
	)
}

// LoadIndexFile reads a YAML index declaration:
//
//	indexes:
//	  - collection: forumPosts
//	    fields:
//	      - {field: courseId, order: asc}
//	      - {field: createdAt, order: desc}
func LoadIndexFile(path string) (*IndexRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	var f indexFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse index file %s: %w", path, err)
	}
	for i, ix := range f.Indexes {
		if strings.TrimSpace(ix.Collection) == "" || len(ix.Fields) == 0 {
			return nil, fmt.Errorf("index %d in %s: collection and fields are required", i, path)
		}
		for _, fld := range ix.Fields {
			if !validField(fld.Field) {
				return nil, fmt.Errorf("index %d in %s: invalid field %q", i, path, fld.Field)
			}
		}
	}
	return NewIndexRegistry(f.Indexes...), nil
}

// WithHintBase overrides the prefix of creation hints.
func (r *IndexRegistry) WithHintBase(base string) *IndexRegistry {
	if strings.TrimSpace(base) != "" {
		r.hintBase = strings.TrimSpace(base)
	}
	return r
}

func (r *IndexRegistry) Indexes() []Index {
	if r == nil {
		return nil
	}
	out := make([]Index, len(r.indexes))
	copy(out, r.indexes)
	return out
}

func normalizeIndex(ix Index) Index {
	out := Index{Collection: ix.Collection, Fields: make([]IndexField, len(ix.Fields))}
	for i, f := range ix.Fields {
		dir := Direction(strings.ToLower(string(f.Order)))
		if dir != Descending {
			dir = Ascending
		}
		out.Fields[i] = IndexField{Field: f.Field, Order: dir}
	}
	return out
}

// NeedsComposite reports whether q orders by more than one field, or mixes
// filters with ordering on a field not fixed by an equality filter.
func NeedsComposite(q Query) bool {
	if len(q.Orders) > 1 {
		return true
	}
	if len(q.Orders) == 0 || len(q.Filters) == 0 {
		return false
	}
	o := q.Orders[0]
	for _, f := range q.Filters {
		if f.Op == OpEq && f.Field == o.Field {
			continue
		}
		return true
	}
	return false
}

// Required returns the composite index q would need: filter fields
// (ascending, sorted by name) followed by the order fields.
func Required(q Query) Index {
	filterFields := make([]string, 0, len(q.Filters))
	seen := map[string]bool{}
	for _, f := range q.Filters {
		if !seen[f.Field] {
			seen[f.Field] = true
			filterFields = append(filterFields, f.Field)
		}
	}
	sort.Strings(filterFields)
	ix := Index{Collection: q.Collection}
	for _, f := range filterFields {
		ix.Fields = append(ix.Fields, IndexField{Field: f, Order: Ascending})
	}
	for _, o := range q.Orders {
		ix.Fields = append(ix.Fields, IndexField{Field: o.Field, Order: o.Dir})
	}
	return ix
}

// Has reports whether a declared index serves q. Filter fields match as a
// set, order fields match exactly including direction.
func (r *IndexRegistry) Has(q Query) bool {
	if r == nil {
		return false
	}
	want := Required(q)
	nFilter := len(want.Fields) - len(q.Orders)
	for _, ix := range r.indexes {
		if ix.Collection != want.Collection || len(ix.Fields) != len(want.Fields) {
			continue
		}
		if sameFieldSet(ix.Fields[:nFilter], want.Fields[:nFilter]) && sameFields(ix.Fields[nFilter:], want.Fields[nFilter:]) {
			return true
		}
	}
	return false
}

func sameFieldSet(a, b []IndexField) bool {
	names := make(map[string]bool, len(a))
	for _, f := range a {
		names[f.Field] = true
	}
	for _, f := range b {
		if !names[f.Field] {
			return false
		}
	}
	return len(a) == len(b)
}

func sameFields(a, b []IndexField) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Check returns a failed-precondition error when q needs an undeclared index.
func (r *IndexRegistry) Check(q Query) error {
	if !NeedsComposite(q) || r.Has(q) {
		return nil
	}
	want := Required(q)
	return newError(CodeFailedPrecondition, "docstore.query",
		fmt.Sprintf("the query requires an index %s. You can create it here: %s", want, r.hint(want)), nil)
}

func (r *IndexRegistry) hint(ix Index) string {
	base := DefaultIndexHintBase
	if r != nil && r.hintBase != "" {
		base = r.hintBase
	}
	parts := make([]string, 0, len(ix.Fields))
	for _, f := range ix.Fields {
		parts = append(parts, f.Field+":"+string(f.Order))
	}
	v := url.Values{}
	v.Set("collection", ix.Collection)
	v.Set("fields", strings.Join(parts, ","))
	return base + "?" + v.Encode()
}
