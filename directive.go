// FILE: lixenwraith/blueprint/directive.go
package blueprint

import "fmt"

// Reserved keys marking a branch as a type directive.
// The prefix is not allowed at the start of ordinary field names.
const (
	ReservedPrefix = "$"
	KeyModule      = ReservedPrefix + "module"
	KeyType        = ReservedPrefix + "classname"
	KeyArgs        = ReservedPrefix + "pos_args"
)

// Directive is the typed view of a branch carrying a module reference and a type name.
type Directive struct {
	Module string
	Type   string
	Args   []any // positional constructor arguments, in order
	Fields *Tree // remaining keys; values are shared with the source tree
}

// Named lets live values choose the module and type name written by AsMapping.
type Named interface {
	BlueprintType() (module, name string)
}

// IsTyped reports whether the tree carries both a module reference and a type name.
func (t *Tree) IsTyped() bool {
	_, hasModule := t.fields.Get(KeyModule)
	_, hasType := t.fields.Get(KeyType)
	return hasModule && hasType
}

// Directive returns the typed view of the tree, or nil for a plain branch.
// A branch carrying only one of the two tags, or tags of the wrong type, is malformed.
func (t *Tree) Directive() (*Directive, error) {
	moduleVal, hasModule := t.fields.Get(KeyModule)
	typeVal, hasType := t.fields.Get(KeyType)
	argsVal, hasArgs := t.fields.Get(KeyArgs)

	if !hasModule && !hasType {
		if hasArgs {
			return nil, fmt.Errorf("%w: %s without %s and %s", ErrMalformedDirective, KeyArgs, KeyModule, KeyType)
		}
		return nil, nil
	}
	if hasModule != hasType {
		return nil, fmt.Errorf("%w: %s and %s must appear together", ErrMalformedDirective, KeyModule, KeyType)
	}

	module, ok := moduleVal.(string)
	if !ok || module == "" {
		return nil, fmt.Errorf("%w: %s must be a non-empty string, got %T", ErrMalformedDirective, KeyModule, moduleVal)
	}
	name, ok := typeVal.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %s must be a non-empty string, got %T", ErrMalformedDirective, KeyType, typeVal)
	}

	d := &Directive{Module: module, Type: name, Fields: New()}
	if hasArgs && argsVal != nil {
		args, ok := argsVal.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a sequence, got %T", ErrMalformedDirective, KeyArgs, argsVal)
		}
		d.Args = args
	}

	for pair := t.fields.Oldest(); pair != nil; pair = pair.Next() {
		if isReservedKey(pair.Key) {
			continue
		}
		d.Fields.fields.Set(pair.Key, pair.Value)
	}
	return d, nil
}

// Tree converts the directive back into a tagged branch.
func (d *Directive) Tree() *Tree {
	t := New()
	t.fields.Set(KeyModule, d.Module)
	t.fields.Set(KeyType, d.Type)
	if d.Fields != nil {
		for pair := d.Fields.fields.Oldest(); pair != nil; pair = pair.Next() {
			t.fields.Set(pair.Key, pair.Value)
		}
	}
	if len(d.Args) > 0 {
		t.fields.Set(KeyArgs, d.Args)
	}
	return t
}
