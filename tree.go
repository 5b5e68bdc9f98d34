// FILE: lixenwraith/blueprint/tree.go
package blueprint

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Tree is an ordered configuration tree addressed by dotted paths.
// Branch children are *Tree; leaves are scalars, []any sequences or live objects produced by Build.
// A Tree is not safe for concurrent mutation; Clone it before branching work.
type Tree struct {
	fields *Map
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{fields: NewMap()}
}

// FromMapping wraps a nested ordered mapping into a tree.
// With copy the mapping is deep-copied first; without it m becomes the tree's backing storage,
// nested branches are wrapped in place and unrelated values (such as slices) keep their identity.
func FromMapping(m *Map, copy bool) *Tree {
	if m == nil {
		return New()
	}
	if copy {
		m = cloneMap(m)
	}
	return wrapMap(m)
}

// FromMap builds a tree from plain Go maps. Keys are ordered lexically since Go maps carry no order.
func FromMap(m map[string]any) *Tree {
	if m == nil {
		return New()
	}
	return wrapMap(mapFromGo(cloneValue(m).(map[string]any)))
}

// wrapMap converts the branches of m into trees in place.
func wrapMap(m *Map) *Tree {
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		m.Set(pair.Key, wrapValue(pair.Value))
	}
	return &Tree{fields: m}
}

// wrapValue turns branch values into trees and normalizes decoded numbers.
func wrapValue(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val
	case *Map:
		return wrapMap(val)
	case map[string]any:
		return wrapMap(mapFromGo(val))
	case []any:
		for i, e := range val {
			val[i] = wrapValue(e)
		}
		return val
	}
	return normalizeNumber(v)
}

// Get resolves a dotted path. Segments following a sequence are decimal indices.
func (t *Tree) Get(path string) (any, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	return t.lookup(segments)
}

// GetOr returns the value at path, or def when the path cannot be resolved.
func (t *Tree) GetOr(path string, def any) any {
	v, err := t.Get(path)
	if err != nil {
		return def
	}
	return v
}

// Has reports whether path resolves to a value.
func (t *Tree) Has(path string) bool {
	_, err := t.Get(path)
	return err == nil
}

// Sub returns the branch at path.
func (t *Tree) Sub(path string) (*Tree, error) {
	v, err := t.Get(path)
	if err != nil {
		return nil, err
	}
	sub, ok := v.(*Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, not a branch", ErrPathConflict, path, v)
	}
	return sub, nil
}

// Field returns the direct child named name; the name is not split on the delimiter.
func (t *Tree) Field(name string) (any, error) {
	v, ok := t.fields.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, name)
	}
	return v, nil
}

// SetField assigns the direct child named name, copying branch values like Set.
func (t *Tree) SetField(name string, value any) error {
	if err := validateSegment(name, name); err != nil {
		return err
	}
	t.fields.Set(name, wrapValue(cloneValue(value)))
	return nil
}

func (t *Tree) lookup(segments []string) (any, error) {
	var current any = t
	for i, segment := range segments {
		next, ok := child(current, segment)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, JoinPath(segments[:i+1]...))
		}
		current = next
	}
	return current, nil
}

// child resolves one segment against a tree or a sequence.
func child(node any, segment string) (any, bool) {
	switch n := node.(type) {
	case *Tree:
		return n.fields.Get(segment)
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, false
		}
		return n[idx], true
	}
	return nil, false
}

// Set assigns value at path, creating intermediate branches as needed.
// Branches and sequences in value are copied, so the tree never shares nodes with the caller.
// Sequence elements can be replaced by index but sequences are never extended.
func (t *Tree) Set(path string, value any) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}
	value = wrapValue(cloneValue(value))

	var current any = t
	for i, segment := range segments[:len(segments)-1] {
		next, ok := child(current, segment)
		if !ok {
			node, isTree := current.(*Tree)
			if !isTree {
				return fmt.Errorf("%w: index %s", ErrPathNotFound, JoinPath(segments[:i+1]...))
			}
			created := New()
			node.fields.Set(segment, created)
			current = created
			continue
		}
		switch next.(type) {
		case *Tree, []any:
			current = next
		default:
			return fmt.Errorf("%w: %s holds %T", ErrPathConflict, JoinPath(segments[:i+1]...), next)
		}
	}

	last := segments[len(segments)-1]
	switch node := current.(type) {
	case *Tree:
		node.fields.Set(last, value)
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(node) {
			return fmt.Errorf("%w: index %s", ErrPathNotFound, path)
		}
		node[idx] = value
	}
	return nil
}

// Delete removes the value at path.
func (t *Tree) Delete(path string) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}
	parent, err := t.lookup(segments[:len(segments)-1])
	if err != nil {
		return err
	}
	node, ok := parent.(*Tree)
	if !ok {
		return fmt.Errorf("%w: cannot delete %q from %T", ErrInvalidPath, path, parent)
	}
	if _, present := node.fields.Delete(segments[len(segments)-1]); !present {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return nil
}

// Keys returns the direct child names in insertion order.
func (t *Tree) Keys() []string {
	return mapKeys(t.fields)
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	return t.fields.Len()
}

// All iterates direct children in insertion order.
func (t *Tree) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the tree. Live objects are shared, not copied.
func (t *Tree) Clone() *Tree {
	out := NewMap()
	for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, cloneValue(pair.Value))
	}
	return &Tree{fields: out}
}

// Flatten returns the tree as a flat mapping keyed by delim-joined paths; sequences stay leaves.
func (t *Tree) Flatten(delim string) *Map {
	return Flatten(t.fields, delim)
}

// Merge overlays every leaf of other onto t, path by path.
func (t *Tree) Merge(other *Tree) error {
	for pair := other.Flatten(DefaultDelimiter).Oldest(); pair != nil; pair = pair.Next() {
		if err := t.Set(pair.Key, pair.Value); err != nil {
			return fmt.Errorf("failed to merge %q: %w", pair.Key, err)
		}
	}
	return nil
}

// String renders the tree as indented YAML.
func (t *Tree) String() string {
	data, err := Encode(t.AsMapping(), FormatYAML)
	if err != nil {
		return fmt.Sprintf("Blueprint: <%v>", err)
	}
	contents := strings.ReplaceAll(string(data), "\n", "\n  ")
	return "Blueprint:\n  " + strings.TrimRight(contents, " \n")
}
