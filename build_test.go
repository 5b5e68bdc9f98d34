// FILE: lixenwraith/blueprint/build_test.go
package blueprint

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleYAML = `threshold: 3
foo:
  counter:
    $module: collections
    $classname: Counter
    a: 5
    b: 3
  boolstuff:
    a: true
    b: true
    c: false
    d: false
`

// counter tallies named counts, built from a node's fields
type counter map[string]int

func newCounter(args []any, fields *Tree) (any, error) {
	c := counter{}
	for k, v := range fields.All() {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("count %q is %T, not int", k, v)
		}
		c[k] = n
	}
	return c, nil
}

// pair holds two positional values
type pair struct {
	First, Second any
}

func newPair(args []any, fields *Tree) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("pair takes 2 arguments, got %d", len(args))
	}
	return pair{First: args[0], Second: args[1]}, nil
}

type optimizer struct {
	Name   string        `yaml:"name"`
	LR     float64       `yaml:"lr"`
	Warmup time.Duration `yaml:"warmup"`
}

func testRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	r := NewRegistry(opts...)
	require.NoError(t, r.Register("collections", "Counter", newCounter))
	require.NoError(t, r.Register("pairs", "Pair", newPair))
	require.NoError(t, RegisterType[optimizer](r, "optim", "Optimizer"))
	return r
}

func TestBuild(t *testing.T) {
	t.Run("PreBuildIsTree", func(t *testing.T) {
		tree, err := Parse([]byte(exampleYAML), FormatYAML)
		require.NoError(t, err)

		node, err := tree.Get("foo.counter")
		require.NoError(t, err)
		assert.IsType(t, &Tree{}, node)

		sub := node.(*Tree)
		assert.True(t, sub.IsTyped())
		assert.Equal(t, []string{KeyModule, KeyType, "a", "b"}, sub.Keys())
	})

	t.Run("CopyLeavesSourceUntouched", func(t *testing.T) {
		tree, err := Parse([]byte(exampleYAML), FormatYAML)
		require.NoError(t, err)

		built, err := tree.Build(testRegistry(t))
		require.NoError(t, err)

		result := built.(*Tree)
		c, err := result.Get("foo.counter")
		require.NoError(t, err)
		assert.Equal(t, counter{"a": 5, "b": 3}, c)

		// Plain siblings stay trees
		plain, err := result.Get("foo.boolstuff")
		require.NoError(t, err)
		assert.IsType(t, &Tree{}, plain)

		original, err := tree.Get("foo.counter")
		require.NoError(t, err)
		assert.IsType(t, &Tree{}, original)
	})

	t.Run("InPlace", func(t *testing.T) {
		tree, err := Parse([]byte(exampleYAML), FormatYAML)
		require.NoError(t, err)

		_, err = tree.BuildInPlace(testRegistry(t))
		require.NoError(t, err)

		c, err := tree.Get("foo.counter")
		require.NoError(t, err)
		assert.IsType(t, counter{}, c)
	})

	t.Run("TypedRootReturnsInstance", func(t *testing.T) {
		tree := FromMapping(MapOf(KeyModule, "collections", KeyType, "Counter", "x", 1), false)
		built, err := testRegistry(t).Build(tree, true)
		require.NoError(t, err)
		assert.Equal(t, counter{"x": 1}, built)
	})

	t.Run("PositionalArgumentsBuiltFirst", func(t *testing.T) {
		tree := FromMapping(MapOf(
			"p", MapOf(
				KeyModule, "pairs",
				KeyType, "Pair",
				KeyArgs, []any{
					MapOf(KeyModule, "collections", KeyType, "Counter", "a", 1),
					2,
				},
			),
		), false)

		built, err := tree.Build(testRegistry(t))
		require.NoError(t, err)

		p, err := built.(*Tree).Get("p")
		require.NoError(t, err)
		assert.Equal(t, pair{First: counter{"a": 1}, Second: 2}, p)
	})

	t.Run("NestedDirectivesInFields", func(t *testing.T) {
		tree := FromMapping(MapOf(
			"outer", MapOf(
				KeyModule, "pairs",
				KeyType, "Pair",
				KeyArgs, []any{
					MapOf("plain", MapOf(KeyModule, "collections", KeyType, "Counter", "z", 9)),
					nil,
				},
			),
		), false)

		built, err := tree.Build(testRegistry(t))
		require.NoError(t, err)

		p, _ := built.(*Tree).Get("outer")
		first := p.(pair).First.(*Tree)
		inner, err := first.Get("plain")
		require.NoError(t, err)
		assert.Equal(t, counter{"z": 9}, inner)
	})

	t.Run("RegisterTypeDecodesFields", func(t *testing.T) {
		tree := FromMapping(MapOf(
			"opt", MapOf(KeyModule, "optim", KeyType, "Optimizer", "name", "adam", "lr", "0.01", "warmup", "5s"),
		), false)

		built, err := tree.Build(testRegistry(t))
		require.NoError(t, err)

		opt, err := built.(*Tree).Get("opt")
		require.NoError(t, err)
		assert.Equal(t, &optimizer{Name: "adam", LR: 0.01, Warmup: 5 * time.Second}, opt)
	})

	t.Run("UnresolvableType", func(t *testing.T) {
		tree := FromMapping(MapOf("foo", MapOf("bar", MapOf(KeyModule, "nowhere", KeyType, "Thing"))), false)
		_, err := tree.Build(testRegistry(t))
		assert.ErrorIs(t, err, ErrUnresolvableType)
		assert.Contains(t, err.Error(), "foo.bar")
		assert.Contains(t, err.Error(), "nowhere.Thing")
	})

	t.Run("MalformedDirective", func(t *testing.T) {
		tree := FromMapping(MapOf("x", MapOf(KeyModule, "collections", "a", 1)), false)
		_, err := tree.Build(testRegistry(t))
		assert.ErrorIs(t, err, ErrMalformedDirective)

		tree = FromMapping(MapOf("x", MapOf(KeyArgs, []any{1})), false)
		_, err = tree.Build(testRegistry(t))
		assert.ErrorIs(t, err, ErrMalformedDirective)
	})

	t.Run("FactoryError", func(t *testing.T) {
		tree := FromMapping(MapOf("c", MapOf(KeyModule, "collections", KeyType, "Counter", "a", "five")), false)
		_, err := tree.Build(testRegistry(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collections.Counter")
	})

	t.Run("LogsConstruction", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

		tree, err := Parse([]byte(exampleYAML), FormatYAML)
		require.NoError(t, err)
		_, err = tree.Build(testRegistry(t, WithLogger(logger)))
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "Creating instance")
		assert.Contains(t, buf.String(), `"path":"foo.counter"`)
	})
}

func TestRegistry(t *testing.T) {
	r := testRegistry(t)

	t.Run("Duplicate", func(t *testing.T) {
		err := r.Register("collections", "Counter", newCounter)
		assert.ErrorIs(t, err, ErrDuplicateType)
	})

	t.Run("InvalidRegistration", func(t *testing.T) {
		assert.Error(t, r.Register("", "X", newCounter))
		assert.Error(t, r.Register("m", "X", nil))
	})

	t.Run("Lookup", func(t *testing.T) {
		_, err := r.Lookup("collections", "Counter")
		assert.NoError(t, err)
		_, err = r.Lookup("collections", "Missing")
		assert.ErrorIs(t, err, ErrUnresolvableType)
	})

	t.Run("Types", func(t *testing.T) {
		assert.Equal(t, []string{"collections.Counter", "optim.Optimizer", "pairs.Pair"}, r.Types())
	})

	t.Run("RegisterTypeRejectsArgs", func(t *testing.T) {
		factory, err := r.Lookup("optim", "Optimizer")
		require.NoError(t, err)
		_, err = factory([]any{1}, New())
		assert.Error(t, err)
	})
}

// labeled names itself for export
type labeled struct {
	Label string `yaml:"label"`
	skip  int
}

func (labeled) BlueprintType() (string, string) { return "labels", "Labeled" }

// tally is a map-based live value naming itself for export
type tally map[string]int

func (tally) BlueprintType() (string, string) { return "collections", "Tally" }

func TestExportLiveValues(t *testing.T) {
	t.Run("RegisteredNames", func(t *testing.T) {
		r := testRegistry(t)
		tree := New()
		require.NoError(t, tree.Set("opt", &optimizer{Name: "sgd", LR: 0.1, Warmup: time.Second}))

		m := r.Export(tree)
		opt, _ := m.Get("opt")
		assert.Equal(t, pairs(MapOf(
			KeyModule, "optim",
			KeyType, "Optimizer",
			"name", "sgd",
			"lr", 0.1,
			"warmup", "1s",
		)), pairs(opt.(*Map)))

		// The exported form builds again
		rebuilt, err := FromMapping(m, false).Build(r)
		require.NoError(t, err)
		v, _ := rebuilt.(*Tree).Get("opt")
		assert.Equal(t, &optimizer{Name: "sgd", LR: 0.1, Warmup: time.Second}, v)
	})

	t.Run("NamedInterface", func(t *testing.T) {
		tree := New()
		require.NoError(t, tree.Set("l", labeled{Label: "x", skip: 1}))

		l, _ := tree.AsMapping().Get("l")
		assert.Equal(t, pairs(MapOf(KeyModule, "labels", KeyType, "Labeled", "label", "x")), pairs(l.(*Map)))
	})

	t.Run("NamedMap", func(t *testing.T) {
		tree := New()
		require.NoError(t, tree.Set("t", tally{"b": 2, "a": 1}))

		m, _ := tree.AsMapping().Get("t")
		assert.Equal(t, pairs(MapOf(KeyModule, "collections", KeyType, "Tally", "a", 1, "b", 2)), pairs(m.(*Map)))
	})

	t.Run("GoMapsSorted", func(t *testing.T) {
		tree := New()
		require.NoError(t, tree.Set("c", counter{"b": 2, "a": 1}))

		c, _ := tree.AsMapping().Get("c")
		assert.Equal(t, []string{"a", "b"}, mapKeys(c.(*Map)))
	})
}

func TestDirective(t *testing.T) {
	tree := FromMapping(MapOf(KeyModule, "m", KeyType, "T", KeyArgs, []any{1, 2}, "k", "v"), false)
	d, err := tree.Directive()
	require.NoError(t, err)
	assert.Equal(t, "m", d.Module)
	assert.Equal(t, "T", d.Type)
	assert.Equal(t, []any{1, 2}, d.Args)
	assert.Equal(t, []string{"k"}, d.Fields.Keys())

	back := d.Tree()
	assert.True(t, back.IsTyped())
	assert.True(t, back.Equal(tree))

	plain, err := New().Directive()
	assert.NoError(t, err)
	assert.Nil(t, plain)

	_, err = FromMapping(MapOf(KeyModule, 3, KeyType, "T"), false).Directive()
	assert.ErrorIs(t, err, ErrMalformedDirective)
}
