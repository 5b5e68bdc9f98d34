// FILE: lixenwraith/blueprint/access.go
package blueprint

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// GetString retrieves a string value at path.
// Attempts conversion from common scalar types if the stored value isn't already a string.
func (t *Tree) GetString(path string) (string, error) {
	val, err := t.Get(path)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case *Tree:
		return "", fmt.Errorf("%w: %s is a branch", ErrTypeCoercion, path)
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: cannot convert %T to string at %s", ErrTypeCoercion, val, path)
	}
}

// GetInt retrieves an int value at path.
func (t *Tree) GetInt(path string) (int, error) {
	i, err := t.GetInt64(path)
	return int(i), err
}

// GetInt64 retrieves an int64 value at path.
// Floats are truncated; strings are parsed with base prefix detection ("0xFF").
func (t *Tree) GetInt64(path string) (int64, error) {
	val, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("%w: value at %s is null", ErrTypeCoercion, path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > uint64(int64(^uint64(0)>>1)) {
			return 0, fmt.Errorf("%w: %d overflows int64 at %s", ErrTypeCoercion, u, path)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("%w: cannot convert %q to int64 at %s", ErrTypeCoercion, s, path)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("%w: cannot convert %T to int64 at %s", ErrTypeCoercion, val, path)
}

// GetFloat64 retrieves a float64 value at path.
func (t *Tree) GetFloat64(path string) (float64, error) {
	val, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("%w: value at %s is null", ErrTypeCoercion, path)
	}

	if f, ok := toFloat(val); ok {
		return f, nil
	}
	switch v := val.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot convert %q to float64 at %s", ErrTypeCoercion, v, path)
		}
		return f, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("%w: cannot convert %T to float64 at %s", ErrTypeCoercion, val, path)
}

// GetBool retrieves a boolean value at path.
// Strings use the same lenient reading as command-line flags; numbers are true when non-zero.
func (t *Tree) GetBool(path string) (bool, error) {
	val, err := t.Get(path)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, fmt.Errorf("%w: value at %s is null", ErrTypeCoercion, path)
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v), nil
	}
	if f, ok := toFloat(val); ok {
		return f != 0, nil
	}

	return false, fmt.Errorf("%w: cannot convert %T to bool at %s", ErrTypeCoercion, val, path)
}

// GetStrings retrieves a sequence of strings at path. A single string is split on commas.
func (t *Tree) GetStrings(path string) ([]string, error) {
	val, err := t.Get(path)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			switch ev := e.(type) {
			case string:
				out[i] = ev
			case *Tree, *Map:
				return nil, fmt.Errorf("%w: element %d at %s is a mapping", ErrTypeCoercion, i, path)
			default:
				out[i] = fmt.Sprint(ev)
			}
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: cannot convert %T to []string at %s", ErrTypeCoercion, val, path)
}

// parseBool is the lenient boolean reading used for flags: true, 1 and yes (any case) are true,
// everything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
