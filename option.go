// FILE: lixenwraith/blueprint/option.go
package blueprint

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// leafKind selects how a command-line token is coerced for a configuration leaf.
type leafKind int

const (
	kindLiteral leafKind = iota // null and anything without a dedicated reading
	kindBool
	kindInt
	kindFloat
	kindString
	kindSequence
)

func kindOf(v any) leafKind {
	switch v.(type) {
	case bool:
		return kindBool
	case int, int64:
		return kindInt
	case float64:
		return kindFloat
	case string:
		return kindString
	case []any:
		return kindSequence
	}
	return kindLiteral
}

// coerce converts a token to the kind of the leaf's default value.
func coerce(kind leafKind, s string) (any, error) {
	switch kind {
	case kindBool:
		return parseBool(s), nil
	case kindInt:
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrTypeCoercion, s)
		}
		return i, nil
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrTypeCoercion, s)
		}
		return f, nil
	case kindString:
		return s, nil
	case kindSequence:
		seq, ok := parseLiteral(s).([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a list", ErrTypeCoercion, s)
		}
		return seq, nil
	}
	return parseLiteral(s), nil
}

// optionValue is the pflag.Value behind one configuration leaf.
// In grid mode every occurrence appends a candidate instead of replacing the value.
type optionValue struct {
	kind       leafKind
	typeName   string
	value      any
	candidates []any
	grid       bool
	set        bool
	err        error // last coercion failure; pflag flattens wrapped errors
}

var _ pflag.Value = (*optionValue)(nil)

func newOptionValue(def any, grid bool) *optionValue {
	return &optionValue{
		kind:     kindOf(def),
		typeName: typeName(def),
		value:    def,
		grid:     grid,
	}
}

func (o *optionValue) Set(s string) error {
	v, err := coerce(o.kind, s)
	if err != nil {
		o.err = err
		return err
	}
	if o.grid {
		if o.kind == kindString {
			v = parseLiteral(s)
		}
		o.candidates = append(o.candidates, v)
	} else {
		o.value = v
	}
	o.set = true
	return nil
}

func (o *optionValue) String() string {
	return formatValue(o.value)
}

func (o *optionValue) Type() string {
	return o.typeName
}

// isAxis reports whether the supplied candidates sweep anything beyond the base value.
func (o *optionValue) isAxis() bool {
	if !o.grid || len(o.candidates) == 0 {
		return false
	}
	return len(o.candidates) != 1 || !valuesEqual(o.candidates[0], o.value)
}

// formatValue renders a leaf the way it would be typed on the command line.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []any, *Map, *Tree:
		if data, err := json.Marshal(plainValue(toMapValue(val))); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

// flagValue reads a typed value out of a primary pflag option.
func flagValue(f *pflag.Flag) any {
	if ov, ok := f.Value.(*optionValue); ok {
		return ov.value
	}

	if sv, ok := f.Value.(pflag.SliceValue); ok {
		items := sv.GetSlice()
		out := make([]any, len(items))
		for i, item := range items {
			if f.Value.Type() == "stringSlice" || f.Value.Type() == "stringArray" {
				out[i] = item
			} else {
				out[i] = parseLiteral(item)
			}
		}
		return out
	}

	s := f.Value.String()
	switch f.Value.Type() {
	case "bool":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "count":
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return normalizeNumber(i)
		}
	case "float32", "float64":
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return fl
		}
	}
	// Strings, durations, IPs and custom values keep their text form
	return s
}
