package docstore

import (
	"fmt"
	"sync"
	"time"
)

type transformKind int

const (
	transformServerTimestamp transformKind = iota + 1
	transformIncrement
	transformArrayUnion
	transformArrayRemove
)

// Transform is a field value resolved by the store at write time.
type Transform struct {
	kind   transformKind
	delta  int64
	values []any
}

// ServerTimestamp resolves to the store's clock when the write is applied.
func ServerTimestamp() Transform { return Transform{kind: transformServerTimestamp} }

// Increment adds n to a numeric field, treating a missing field as 0.
func Increment(n int64) Transform { return Transform{kind: transformIncrement, delta: n} }

// ArrayUnion appends the values not already present.
func ArrayUnion(values ...any) Transform {
	return Transform{kind: transformArrayUnion, values: values}
}

// ArrayRemove drops every occurrence of the values.
func ArrayRemove(values ...any) Transform {
	return Transform{kind: transformArrayRemove, values: values}
}

func (t Transform) String() string {
	switch t.kind {
	case transformServerTimestamp:
		return "serverTimestamp()"
	case transformIncrement:
		return fmt.Sprintf("increment(%d)", t.delta)
	case transformArrayUnion:
		return fmt.Sprintf("arrayUnion(%v)", t.values)
	case transformArrayRemove:
		return fmt.Sprintf("arrayRemove(%v)", t.values)
	}
	return "transform(?)"
}

// clock hands out strictly increasing UTC times so that documents written
// back to back keep their write order.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// applyCreate resolves transforms for a new document.
func applyCreate(data Data, now time.Time) Data {
	out := make(Data, len(data))
	for k, v := range data {
		out[k] = resolve(nil, false, v, now)
	}
	return out
}

// applyUpdate merges patch into a copy of current.
func applyUpdate(current, patch Data, now time.Time) Data {
	out := cloneData(current)
	if out == nil {
		out = Data{}
	}
	for k, v := range patch {
		cur, exists := out[k]
		out[k] = resolve(cur, exists, v, now)
	}
	return out
}

func resolve(cur any, exists bool, v any, now time.Time) any {
	t, ok := v.(Transform)
	if !ok {
		return cloneValue(v)
	}
	switch t.kind {
	case transformServerTimestamp:
		return now
	case transformIncrement:
		if !exists {
			return t.delta
		}
		return addNumber(cur, t.delta)
	case transformArrayUnion:
		arr := toSlice(cur)
		for _, nv := range t.values {
			if !containsValue(arr, nv) {
				arr = append(arr, cloneValue(nv))
			}
		}
		return arr
	case transformArrayRemove:
		arr := toSlice(cur)
		out := make([]any, 0, len(arr))
		for _, ev := range arr {
			if !containsValue(t.values, ev) {
				out = append(out, ev)
			}
		}
		return out
	}
	return cloneValue(v)
}

func addNumber(cur any, delta int64) any {
	switch n := cur.(type) {
	case int:
		return int64(n) + delta
	case int32:
		return int64(n) + delta
	case int64:
		return n + delta
	case float64:
		return n + float64(delta)
	case float32:
		return float64(n) + float64(delta)
	}
	// Non-numeric values are replaced, as the hosted store does.
	return delta
}

func toSlice(v any) []any {
	switch a := v.(type) {
	case []any:
		out := make([]any, len(a))
		copy(out, a)
		return out
	case []string:
		out := make([]any, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out
	}
	return []any{}
}

func containsValue(arr []any, v any) bool {
	for _, e := range arr {
		if valuesEqual(e, v) {
			return true
		}
	}
	return false
}
