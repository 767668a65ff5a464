// Package docmap converts between store documents and domain records and
// maps store failures onto domain error codes.
package docmap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/domain"
)

// Decode fills out from doc, taking the id from the document key.
func Decode[T any](doc *docstore.Document, out *T) error {
	fields := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		fields[k] = v
	}
	fields["id"] = doc.ID
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}

// DecodeAll decodes docs in order, failing on the first bad document.
func DecodeAll[T any](docs []*docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// StoreError maps a store failure to the domain taxonomy, keeping the cause.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.CodeOf(err) != "" {
		return err
	}
	switch docstore.CodeOf(err) {
	case docstore.CodeNotFound:
		return domain.Wrap(domain.CodeNotFound, op, err)
	case docstore.CodeFailedPrecondition:
		return domain.Wrap(domain.CodeQueryPrecondition, op, err)
	case docstore.CodeInvalidArgument:
		return domain.Wrap(domain.CodeValidation, op, err)
	case docstore.CodeUnavailable:
		return domain.Wrap(domain.CodeStoreUnavailable, op, err)
	}
	return domain.Wrap(domain.CodeInternal, op, err)
}

// SortByTime orders items by the timestamp key, newest first when desc.
// Ties keep their relative order.
func SortByTime[T any](items []T, key func(T) domain.Timestamp, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})
}

// Strings converts a string slice for use in In filters and array transforms.
func Strings(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Encode converts a domain value into plain store values (maps, slices,
// strings, numbers) using its JSON field names.
func Encode(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}
