// FILE: lixenwraith/blueprint/helper.go
package blueprint

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is the ordered string-keyed mapping exchanged with readers, writers and the path functions.
// Branch values are *Map; leaves are scalars or []any.
type Map = orderedmap.OrderedMap[string, any]

// NewMap creates an empty ordered mapping.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// MapOf builds an ordered mapping from alternating key/value arguments.
// It panics on an odd argument count or a non-string key.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("blueprint: MapOf requires key/value pairs")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("blueprint: MapOf key %v is %T, not string", kv[i], kv[i]))
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// mapKeys returns the keys of m in insertion order.
func mapKeys(m *Map) []string {
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// asBranch reports whether v is a branch node and returns it as an ordered mapping.
// Plain Go maps have no order; their keys are taken sorted.
func asBranch(v any) (*Map, bool) {
	switch b := v.(type) {
	case *Map:
		return b, b != nil
	case *Tree:
		if b == nil {
			return nil, false
		}
		return b.fields, true
	case map[string]any:
		return mapFromGo(b), true
	}
	return nil, false
}

// mapFromGo converts a plain map into an ordered mapping with sorted keys (shallow).
func mapFromGo(m map[string]any) *Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := NewMap()
	for _, k := range keys {
		out.Set(k, m[k])
	}
	return out
}

// cloneValue deep-copies trees, ordered mappings, plain maps and []any.
// Other values, including live objects, are shared.
func cloneValue(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.Clone()
	case *Map:
		return cloneMap(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// cloneMap deep-copies an ordered mapping.
func cloneMap(m *Map) *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, cloneValue(pair.Value))
	}
	return out
}

// toMapValue deep-copies v, turning every branch (tree, ordered or plain map) into a *Map.
func toMapValue(v any) any {
	if branch, ok := asBranch(v); ok {
		out := NewMap()
		for pair := branch.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, toMapValue(pair.Value))
		}
		return out
	}
	if seq, ok := v.([]any); ok && seq != nil {
		out := make([]any, len(seq))
		for i, e := range seq {
			out[i] = toMapValue(e)
		}
		return out
	}
	return v
}

// normalizeNumber folds the integer kinds produced by decoders into int.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
	case int32:
		return int(n)
	case uint64:
		if n <= math.MaxInt {
			return int(n)
		}
	case uint:
		if uint64(n) <= math.MaxInt {
			return int(n)
		}
	case float32:
		return float64(n)
	}
	return v
}

// typeName returns the short name used in usage text for a leaf default.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	}
	return reflect.TypeOf(v).String()
}

// isValidKeySegment checks that a segment is a bare key: letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'
		isDash := r == '-'

		if !(isLetter || isDigit || isUnderscore || isDash) {
			return false
		}
	}
	return true
}

// isReservedKey reports whether key is one of the type-directive keys.
func isReservedKey(key string) bool {
	return key == KeyModule || key == KeyType || key == KeyArgs
}

// validateSegment rejects empty segments and unknown names carrying the reserved prefix.
func validateSegment(segment, path string) error {
	if segment == "" {
		return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
	}
	if strings.HasPrefix(segment, ReservedPrefix) && !isReservedKey(segment) {
		return fmt.Errorf("%w: segment %q uses reserved prefix %q", ErrInvalidPath, segment, ReservedPrefix)
	}
	return nil
}
