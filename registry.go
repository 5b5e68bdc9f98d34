// FILE: lixenwraith/blueprint/registry.go
package blueprint

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/rs/zerolog"
)

// Factory constructs a live value from built positional arguments and built fields.
type Factory func(args []any, fields *Tree) (any, error)

// typeKey identifies a registered type by module reference and type name
type typeKey struct {
	module string
	name   string
}

func (k typeKey) String() string {
	return k.module + "." + k.name
}

// Registry maps (module, type name) pairs to factories used by Build.
// It is populated by the caller; nothing is resolved by reflection on names.
type Registry struct {
	factories map[typeKey]Factory
	names     map[reflect.Type]typeKey // reverse lookup for export
	logger    zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger receiving build traces at debug level.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[typeKey]Factory),
		names:     make(map[reflect.Type]typeKey),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a factory to a module reference and type name.
func (r *Registry) Register(module, name string, factory Factory) error {
	return r.register(module, name, nil, factory)
}

func (r *Registry) register(module, name string, typ reflect.Type, factory Factory) error {
	if module == "" || name == "" {
		return fmt.Errorf("module and type name cannot be empty (got %q, %q)", module, name)
	}
	if factory == nil {
		return fmt.Errorf("factory for %s.%s cannot be nil", module, name)
	}

	key := typeKey{module: module, name: name}
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, key)
	}
	r.factories[key] = factory
	if typ != nil {
		r.names[typ] = key
	}
	return nil
}

// RegisterType registers a factory that decodes the node's fields into a new *T.
// Fields map onto struct fields through `yaml` tags with weak typing; positional arguments are rejected.
func RegisterType[T any](r *Registry, module, name string) error {
	typ := reflect.TypeFor[T]()
	factory := func(args []any, fields *Tree) (any, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s.%s takes no positional arguments, got %d", module, name, len(args))
		}
		target := new(T)
		if err := decodeMap(fields.rawMap(), target); err != nil {
			return nil, err
		}
		return target, nil
	}
	if err := r.register(module, name, typ, factory); err != nil {
		return err
	}
	// Built values are pointers; export resolves either form.
	r.names[reflect.PointerTo(typ)] = typeKey{module: module, name: name}
	return nil
}

// Lookup returns the factory registered for module and name.
func (r *Registry) Lookup(module, name string) (Factory, error) {
	factory, ok := r.factories[typeKey{module: module, name: name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnresolvableType, module, name)
	}
	return factory, nil
}

// Types lists the registered "module.name" identifiers, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for key := range r.factories {
		types = append(types, key.String())
	}
	sort.Strings(types)
	return types
}

// nameOf resolves the module and type name recorded for a registered Go type.
func (r *Registry) nameOf(v any) (string, string, bool) {
	key, ok := r.names[reflect.TypeOf(v)]
	if !ok {
		return "", "", false
	}
	return key.module, key.name, true
}

// Export converts a tree to its mapping form, naming live values of registered types
// with their registered module and type name so the result builds again with this registry.
func (r *Registry) Export(t *Tree) *Map {
	return exportTree(t, r.nameOf)
}
