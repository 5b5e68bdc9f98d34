// FILE: lixenwraith/blueprint/equal.go
package blueprint

import (
	"reflect"
	"time"
)

// Equal compares the tree with another tree or a mapping (*Map or map[string]any).
// Between two trees every branch must match in both directions. Against a mapping only
// the tree's keys are checked, at every depth, so the mapping may carry extra keys.
func (t *Tree) Equal(other any) bool {
	switch o := other.(type) {
	case *Tree:
		if o == nil {
			return false
		}
		return valuesMatch(t, o, true)
	case *Map:
		if o == nil {
			return false
		}
		return containedIn(t.fields, o, false)
	case map[string]any:
		if o == nil {
			return false
		}
		return containedIn(t.fields, mapFromGo(o), false)
	}
	return false
}

// containedIn reports whether every entry of left exists in right with a matching value.
func containedIn(left, right *Map, strict bool) bool {
	for pair := left.Oldest(); pair != nil; pair = pair.Next() {
		value, ok := right.Get(pair.Key)
		if !ok || !valuesMatch(pair.Value, value, strict) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values structurally, branches in both directions.
func valuesEqual(a, b any) bool {
	return valuesMatch(a, b, true)
}

// valuesMatch compares two values. Strict branches must hold the same keys; otherwise the
// keys of a need only be present in b. Numbers compare by value across integer and float
// kinds, timestamps by instant.
func valuesMatch(a, b any, strict bool) bool {
	if left, ok := asBranch(a); ok {
		right, ok := asBranch(b)
		if !ok {
			return false
		}
		if strict {
			return left.Len() == right.Len() && containedIn(left, right, true) && containedIn(right, left, true)
		}
		return containedIn(left, right, false)
	}
	if _, ok := asBranch(b); ok {
		return false
	}

	if x, ok := a.(time.Time); ok {
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}

	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if isSequence(av) && isSequence(bv) {
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !valuesMatch(av.Index(i).Interface(), bv.Index(i).Interface(), strict) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
func isSequence(v reflect.Value) bool {
	return v.IsValid() && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array)
}

// toFloat converts numeric kinds for cross-kind comparison.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
