// Package form marshals request parameters into query strings and
// application/x-www-form-urlencoded bodies.
//
// A [Form] is an ordered mapping whose values are either scalar leaves or
// nested collections. Plain Go maps are accepted everywhere a Form is, but
// since they carry no order they are walked in sorted key order.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// ErrUnsupportedType is returned when a value can't be represented as a
// form leaf or collection.
var ErrUnsupportedType = errors.New("unsupported form value type")

// Pair is a single key/value entry of a [Form].
type Pair struct {
	Key   string
	Value any
}

// Form is an ordered key/value mapping.
type Form []Pair

// Set replaces the value of key in place, or appends it when absent.
func (f *Form) Set(key string, value any) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Pair{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (f Form) Get(key string) (any, bool) {
	for _, p := range f {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Normalize converts v into a Form whose values are only string or Form.
// Entries holding a nil value are dropped.
func Normalize(v any) (Form, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Form:
		return normalizePairs(val)
	case []Pair:
		return normalizePairs(val)
	case map[string]string:
		out := make(Form, 0, len(val))
		for _, k := range sortedKeys(val) {
			out = append(out, Pair{Key: k, Value: val[k]})
		}
		return out, nil
	case map[string]any:
		pairs := make(Form, 0, len(val))
		for _, k := range sortedKeys(val) {
			pairs = append(pairs, Pair{Key: k, Value: val[k]})
		}
		return normalizePairs(pairs)
	case url.Values:
		return normalizeMulti(val), nil
	case map[string][]string:
		return normalizeMulti(val), nil
	case []string:
		out := make(Form, 0, len(val))
		for i, s := range val {
			out = append(out, Pair{Key: strconv.Itoa(i), Value: s})
		}
		return out, nil
	case []any:
		pairs := make(Form, 0, len(val))
		for i, item := range val {
			pairs = append(pairs, Pair{Key: strconv.Itoa(i), Value: item})
		}
		return normalizePairs(pairs)
	default:
		return nil, fmt.Errorf("%w: %T is not a collection", ErrUnsupportedType, v)
	}
}

func normalizePairs(in []Pair) (Form, error) {
	out := make(Form, 0, len(in))
	for _, p := range in {
		// Nil values are dropped.
		if p.Value == nil {
			continue
		}
		if s, ok, err := leaf(p.Value); err != nil {
			return nil, fmt.Errorf("key %q: %w", p.Key, err)
		} else if ok {
			out = append(out, Pair{Key: p.Key, Value: s})
			continue
		}

		nested, err := Normalize(p.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", p.Key, err)
		}
		if nested == nil {
			nested = Form{}
		}
		out = append(out, Pair{Key: p.Key, Value: nested})
	}

	return out, nil
}

// normalizeMulti keeps single values as leaves and turns repeated values
// into a list collection.
func normalizeMulti(m map[string][]string) Form {
	out := make(Form, 0, len(m))
	for _, k := range sortedKeys(m) {
		vs := m[k]
		if len(vs) == 1 {
			out = append(out, Pair{Key: k, Value: vs[0]})
			continue
		}

		list := make(Form, 0, len(vs))
		for i, s := range vs {
			list = append(list, Pair{Key: strconv.Itoa(i), Value: s})
		}
		out = append(out, Pair{Key: k, Value: list})
	}

	return out
}

// leaf reports whether v is a scalar and renders it.
func leaf(v any) (string, bool, error) {
	switch val := v.(type) {
	case string:
		return val, true, nil
	case []byte:
		return string(val), true, nil
	case fmt.Stringer:
		return val.String(), true, nil
	case bool:
		if val {
			return "1", true, nil
		}
		return "0", true, nil
	case int:
		return strconv.Itoa(val), true, nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true, nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true, nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case Form, []Pair, map[string]string, map[string]any, url.Values, map[string][]string, []string, []any:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
