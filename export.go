// FILE: lixenwraith/blueprint/export.go
package blueprint

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// namerFunc resolves the module and type name written for a live value
type namerFunc func(v any) (module, name string, ok bool)

// AsMapping converts the tree to a nested ordered mapping.
// Live struct values are written as type directives ($module and $classname first, then their
// exported fields), so the result can be saved and loaded again. Plain Go maps become
// mappings with sorted keys.
func (t *Tree) AsMapping() *Map {
	return exportTree(t, nil)
}

// AsFlatMap flattens the mapping form completely: sequence indices become path segments.
func (t *Tree) AsFlatMap() *Map {
	flat := NewMap()
	deepFlatten(flat, t.AsMapping(), nil)
	return flat
}

// AsMap converts the mapping form into plain Go maps. Key order is lost.
func (t *Tree) AsMap() map[string]any {
	return plainValue(t.AsMapping()).(map[string]any)
}

func deepFlatten(flat *Map, v any, stack []string) {
	switch val := v.(type) {
	case *Map:
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			deepFlatten(flat, pair.Value, append(stack, pair.Key))
		}
	case []any:
		for i, e := range val {
			deepFlatten(flat, e, append(stack, strconv.Itoa(i)))
		}
	default:
		flat.Set(strings.Join(stack, DefaultDelimiter), val)
	}
}

func plainValue(v any) any {
	switch val := v.(type) {
	case *Map:
		out := make(map[string]any, val.Len())
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = plainValue(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}

// rawMap converts the tree to plain maps keeping live values untouched, for decoding.
func (t *Tree) rawMap() map[string]any {
	out := make(map[string]any, t.fields.Len())
	for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = rawValue(pair.Value)
	}
	return out
}

func rawValue(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.rawMap()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = rawValue(e)
		}
		return out
	}
	return v
}

func exportTree(t *Tree, namer namerFunc) *Map {
	out := NewMap()
	for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, exportValue(pair.Value, namer))
	}
	return out
}

func exportValue(v any, namer namerFunc) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *Tree:
		return exportTree(val, namer)
	case *Map:
		out := NewMap()
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, exportValue(pair.Value, namer))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = exportValue(e, namer)
		}
		return out
	case string, bool, int, int64, float64:
		return val
	case time.Duration:
		return val.String()
	case time.Time:
		return val
	case encoding.TextMarshaler:
		text, err := val.MarshalText()
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(text)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return exportStruct(v, rv.Elem(), namer)
		}
		return exportValue(rv.Elem().Interface(), namer)
	case reflect.Struct:
		return exportStruct(v, rv, namer)
	case reflect.Map:
		m := exportGoMap(rv, namer)
		if module, name, ok := liveName(v, namer); ok {
			return withDirective(module, name, m)
		}
		return m
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = exportValue(rv.Index(i).Interface(), namer)
		}
		return out
	}
	return normalizeNumber(v)
}

func exportGoMap(rv reflect.Value, namer namerFunc) *Map {
	keys := make([]string, 0, rv.Len())
	values := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		keys = append(keys, key)
		values[key] = iter.Value().Interface()
	}
	sort.Strings(keys)

	out := NewMap()
	for _, key := range keys {
		out.Set(key, exportValue(values[key], namer))
	}
	return out
}

func exportStruct(orig any, sv reflect.Value, namer namerFunc) *Map {
	module, name := structName(orig, sv, namer)

	out := NewMap()
	out.Set(KeyModule, module)
	out.Set(KeyType, name)

	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}

		key := field.Name
		if tag := field.Tag.Get("yaml"); tag != "" {
			if tag == "-" {
				continue
			}
			if parts := strings.Split(tag, ","); parts[0] != "" {
				key = parts[0]
			}
		}
		out.Set(key, exportValue(sv.Field(i).Interface(), namer))
	}
	return out
}

// structName resolves the directive tags for a live struct, falling back to the Go
// package path and type name.
func structName(orig any, sv reflect.Value, namer namerFunc) (string, string) {
	if module, name, ok := liveName(orig, namer); ok {
		return module, name
	}
	st := sv.Type()
	return st.PkgPath(), st.Name()
}

// liveName looks up registry names first, then the Named interface.
func liveName(v any, namer namerFunc) (string, string, bool) {
	if namer != nil {
		if module, name, ok := namer(v); ok {
			return module, name, true
		}
	}
	if named, ok := v.(Named); ok {
		module, name := named.BlueprintType()
		return module, name, true
	}
	return "", "", false
}

// withDirective prefixes an exported mapping with the directive tags.
func withDirective(module, name string, fields *Map) *Map {
	out := NewMap()
	out.Set(KeyModule, module)
	out.Set(KeyType, name)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}
