// FILE: lixenwraith/blueprint/env.go
package blueprint

import (
	"fmt"
	"os"
	"strings"
)

// EnvTransformFunc converts a configuration path to an environment variable name.
type EnvTransformFunc func(path string) string

// DefaultEnvTransform maps "foo.counter.b" to PREFIX + "FOO_COUNTER_B".
func DefaultEnvTransform(prefix, delim string) EnvTransformFunc {
	if delim == "" {
		delim = DefaultDelimiter
	}
	return func(path string) string {
		env := strings.ReplaceAll(path, delim, "_")
		env = strings.ToUpper(env)
		return prefix + env
	}
}

// applyEnv replaces leaf defaults with values found in the environment, coerced like
// command-line tokens. It returns the number of leaves overridden.
func applyEnv(names []string, values []*optionValue, transform EnvTransformFunc) (int, error) {
	applied := 0
	for i, name := range names {
		envName := transform(name)
		raw, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}

		v, err := coerce(values[i].kind, raw)
		if err != nil {
			return applied, fmt.Errorf("environment variable %s: %w", envName, err)
		}
		values[i].value = v
		applied++
	}
	return applied, nil
}

// ApplyEnv overlays environment variables onto every leaf of t that already exists,
// converting each value to the leaf's current type.
func (t *Tree) ApplyEnv(prefix string) error {
	transform := DefaultEnvTransform(prefix, DefaultDelimiter)
	for pair := t.Flatten(DefaultDelimiter).Oldest(); pair != nil; pair = pair.Next() {
		raw, ok := os.LookupEnv(transform(pair.Key))
		if !ok {
			continue
		}
		v, err := coerce(kindOf(pair.Value), raw)
		if err != nil {
			return fmt.Errorf("environment variable %s: %w", transform(pair.Key), err)
		}
		if err := t.Set(pair.Key, v); err != nil {
			return err
		}
	}
	return nil
}
