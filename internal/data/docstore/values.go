package docstore

import (
	"reflect"
	"strings"
	"time"
)

func cloneData(d Data) Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Data:
		return cloneData(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case time.Time:
		return t.UTC()
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(cloneValue(a), cloneValue(b))
}

// typeRank orders values of different types the way the hosted store does:
// null < bool < number < timestamp < string < others.
func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	if _, ok := v.(time.Time); ok {
		return 3
	}
	if _, ok := v.(string); ok {
		return 4
	}
	return 5
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	case 4:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

// compareDocs orders documents by the query orders, then by id.
func compareDocs(a, b *Document, orders []Order) int {
	for _, o := range orders {
		c := compareValues(a.Data[o.Field], b.Data[o.Field])
		if o.Dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}

func matches(d *Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := d.Data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if !valuesEqual(v, f.Value) {
				return false
			}
		case OpIn:
			if !containsValue(inValues(f), v) {
				return false
			}
		}
	}
	return true
}
