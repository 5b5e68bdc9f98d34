// FILE: lixenwraith/blueprint/build.go
package blueprint

import (
	"fmt"
	"strconv"
)

// Build materializes every type directive in t, children before parents.
// With copy the tree is cloned first and left untouched; otherwise typed children are
// replaced by their instances in place. The result is the (possibly rewritten) tree,
// or the instance itself when t is a directive.
func (r *Registry) Build(t *Tree, copy bool) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot build a nil tree")
	}
	if copy {
		t = t.Clone()
	}
	return r.buildTree(t, "")
}

// Build materializes a copy of the tree with the given registry.
func (t *Tree) Build(r *Registry) (any, error) {
	return r.Build(t, true)
}

// BuildInPlace materializes the tree's directives in place.
func (t *Tree) BuildInPlace(r *Registry) (any, error) {
	return r.Build(t, false)
}

func (r *Registry) buildValue(v any, path string) (any, error) {
	switch val := v.(type) {
	case *Tree:
		return r.buildTree(val, path)
	case []any:
		for i, e := range val {
			built, err := r.buildValue(e, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			val[i] = built
		}
		return val, nil
	}
	return v, nil
}

func (r *Registry) buildTree(t *Tree, path string) (any, error) {
	directive, err := t.Directive()
	if err != nil {
		return nil, fmt.Errorf("at %q: %w", displayPath(path), err)
	}

	// Constructor arguments must be live before the parent is constructed
	for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == KeyModule || pair.Key == KeyType {
			continue
		}
		built, err := r.buildValue(pair.Value, childPath(path, pair.Key))
		if err != nil {
			return nil, err
		}
		t.fields.Set(pair.Key, built)
	}

	if directive == nil {
		return t, nil
	}

	// Re-read so the view carries the built children
	directive, err = t.Directive()
	if err != nil {
		return nil, fmt.Errorf("at %q: %w", displayPath(path), err)
	}

	factory, err := r.Lookup(directive.Module, directive.Type)
	if err != nil {
		return nil, fmt.Errorf("at %q: %w", displayPath(path), err)
	}

	r.logger.Debug().
		Str("path", displayPath(path)).
		Str("module", directive.Module).
		Str("type", directive.Type).
		Int("args", len(directive.Args)).
		Strs("fields", directive.Fields.Keys()).
		Msg("Creating instance")

	instance, err := factory(directive.Args, directive.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s.%s at %q: %w", directive.Module, directive.Type, displayPath(path), err)
	}
	return instance, nil
}

func childPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + DefaultDelimiter + segment
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
