// FILE: lixenwraith/blueprint/path.go
package blueprint

import (
	"fmt"
	"strings"
)

// DefaultDelimiter joins path segments.
const DefaultDelimiter = "."

// SplitPath splits a dotted path into validated segments.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	segments := strings.Split(path, DefaultDelimiter)
	for _, segment := range segments {
		if err := validateSegment(segment, path); err != nil {
			return nil, err
		}
	}
	return segments, nil
}

// JoinPath joins segments with the default delimiter.
func JoinPath(segments ...string) string {
	return strings.Join(segments, DefaultDelimiter)
}

// Flatten converts a nested mapping into a flat mapping keyed by delimiter-joined paths.
// A branch's expanded children take the branch's position, so sibling order is kept.
// Sequences are leaves and are not expanded. The input is not modified.
func Flatten(m *Map, delim string) *Map {
	flat := NewMap()
	if m == nil {
		return flat
	}
	if delim == "" {
		delim = DefaultDelimiter
	}
	flattenInto(flat, m, "", false, delim)
	return flat
}

func flattenInto(flat, m *Map, prefix string, nested bool, delim string) {
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		key := pair.Key
		if nested {
			key = prefix + delim + key
		}

		if branch, ok := asBranch(pair.Value); ok {
			flattenInto(flat, branch, key, true, delim)
			continue
		}
		flat.Set(key, pair.Value)
	}
}

// Unflatten converts a flat mapping keyed by delimiter-joined paths back into a nested mapping.
// Keys without the delimiter pass through; branches already present in the input are reused
// and merged with path keys addressing them. The input is not modified.
func Unflatten(m *Map, delim string) *Map {
	nested := NewMap()
	if m == nil {
		return nested
	}
	if delim == "" {
		delim = DefaultDelimiter
	}

	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		value := toMapValue(pair.Value)
		if !strings.Contains(pair.Key, delim) {
			mergeInto(nested, pair.Key, value)
			continue
		}

		segments := strings.Split(pair.Key, delim)
		level := nested
		for _, segment := range segments[:len(segments)-1] {
			level = childMap(level, segment)
		}
		mergeInto(level, segments[len(segments)-1], value)
	}
	return nested
}

// childMap returns the branch stored under key, creating it when absent.
// A leaf in the way is replaced; callers must not build colliding paths.
func childMap(level *Map, key string) *Map {
	if existing, ok := level.Get(key); ok {
		if branch, isMap := existing.(*Map); isMap {
			return branch
		}
	}
	child := NewMap()
	level.Set(key, child)
	return child
}

// mergeInto sets key to value, merging when both the existing and the new value are branches.
func mergeInto(level *Map, key string, value any) {
	incoming, isBranch := value.(*Map)
	if !isBranch {
		level.Set(key, value)
		return
	}
	existing, ok := level.Get(key)
	if !ok {
		level.Set(key, incoming)
		return
	}
	current, ok := existing.(*Map)
	if !ok {
		level.Set(key, incoming)
		return
	}
	for pair := incoming.Oldest(); pair != nil; pair = pair.Next() {
		mergeInto(current, pair.Key, pair.Value)
	}
}
