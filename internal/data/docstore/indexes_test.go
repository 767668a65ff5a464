package docstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNeedsComposite(t *testing.T) {
	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"no order", Query{Collection: "c", Filters: []Filter{Eq("a", 1)}}, false},
		{"single order", Query{Collection: "c", Orders: []Order{Desc("createdAt")}}, false},
		{"order fixed by equality", Query{Collection: "c", Filters: []Filter{Eq("a", 1)}, Orders: []Order{Asc("a")}}, false},
		{"filter plus other order", Query{Collection: "c", Filters: []Filter{Eq("a", 1)}, Orders: []Order{Desc("createdAt")}}, true},
		{"in plus order", Query{Collection: "c", Filters: []Filter{In("a", "x")}, Orders: []Order{Desc("createdAt")}}, true},
		{"compound order", Query{Collection: "c", Orders: []Order{Desc("replyCount"), Desc("updatedAt")}}, true},
	}
	for _, tc := range cases {
		if got := NeedsComposite(tc.q); got != tc.want {
			t.Fatalf("%s: NeedsComposite = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRegistryMatchesDirection(t *testing.T) {
	r := DefaultIndexes()
	asc := Query{Collection: "forumPosts", Filters: []Filter{Eq("courseId", "c")}, Orders: []Order{Asc("createdAt")}}
	desc := Query{Collection: "forumPosts", Filters: []Filter{In("courseId", "c", "d")}, Orders: []Order{Desc("createdAt")}}
	if r.Has(asc) {
		t.Fatalf("ascending order must not match a descending index")
	}
	if !r.Has(desc) {
		t.Fatalf("expected declared index to serve %v", desc)
	}
	err := r.Check(asc)
	if !IsMissingIndex(err) || !strings.Contains(err.Error(), DefaultIndexHintBase) {
		t.Fatalf("expected missing index error with hint, got %v", err)
	}
}

func TestLoadIndexFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexes.yaml")
	content := `indexes:
  - collection: forumPosts
    fields:
      - {field: courseId, order: asc}
      - {field: createdAt, order: desc}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := LoadIndexFile(path)
	if err != nil {
		t.Fatalf("LoadIndexFile: %v", err)
	}
	if len(r.Indexes()) != 1 {
		t.Fatalf("expected 1 index, got %d", len(r.Indexes()))
	}
	if !r.Has(Query{Collection: "forumPosts", Filters: []Filter{Eq("courseId", "x")}, Orders: []Order{Desc("createdAt")}}) {
		t.Fatalf("loaded index does not serve course query")
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("indexes:\n  - collection: x\n    fields:\n      - {field: \"a.b\", order: asc}\n"), 0o600)
	if _, err := LoadIndexFile(bad); err == nil {
		t.Fatalf("expected error for invalid field name")
	}
}
