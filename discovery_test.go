// FILE: lixenwraith/blueprint/discovery_test.go
package blueprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	t.Run("PathsAndExtensionsInOrder", func(t *testing.T) {
		writeFile(t, second, "app.json", `{"a": 1}`)
		writeFile(t, second, "app.yaml", "a: 1\n")

		opts := DiscoveryOptions{Name: "app", Extensions: []string{".yaml", ".json"}, Paths: []string{first, second}}
		assert.Equal(t, filepath.Join(second, "app.yaml"), opts.Discover())

		writeFile(t, first, "app.json", `{"a": 2}`)
		assert.Equal(t, filepath.Join(first, "app.json"), opts.Discover())
	})

	t.Run("DirectoriesSkipped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "app.yaml"), 0755))

		opts := DiscoveryOptions{Name: "app", Extensions: []string{".yaml"}, Paths: []string{dir}}
		assert.Equal(t, "", opts.Discover())
	})

	t.Run("EnvVarWinsEvenIfMissing", func(t *testing.T) {
		t.Setenv("APP_BLUEPRINT", "/nowhere/app.yaml")
		opts := DiscoveryOptions{Name: "app", Extensions: []string{".yaml"}, Paths: []string{second}, EnvVar: "APP_BLUEPRINT"}
		assert.Equal(t, "/nowhere/app.yaml", opts.Discover())
	})

	t.Run("XDG", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		t.Setenv("XDG_CONFIG_DIRS", "")
		require.NoError(t, os.MkdirAll(filepath.Join(home, "app"), 0755))
		writeFile(t, filepath.Join(home, "app"), "app.toml", "a = 1\n")

		opts := DiscoveryOptions{Name: "app", Extensions: []string{".toml"}, UseXDG: true}
		assert.Equal(t, filepath.Join(home, "app", "app.toml"), opts.Discover())
	})

	t.Run("NoName", func(t *testing.T) {
		assert.Equal(t, "", DiscoveryOptions{Paths: []string{second}}.Discover())
	})
}

func TestDefaultDiscoveryOptions(t *testing.T) {
	opts := DefaultDiscoveryOptions("my-app")
	assert.Equal(t, "my-app", opts.Name)
	assert.Equal(t, "MY_APP_BLUEPRINT", opts.EnvVar)
	assert.Equal(t, []string{".yaml", ".yml", ".json", ".toml"}, opts.Extensions)
	assert.True(t, opts.UseXDG)
	assert.True(t, opts.UseCurrentDir)
}

func TestXDGConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/u/.config")
	t.Setenv("XDG_CONFIG_DIRS", "/etc/xdg:/opt/conf")

	assert.Equal(t, []string{
		"/home/u/.config/app",
		"/etc/xdg/app",
		"/opt/conf/app",
	}, xdgConfigPaths("app"))
}
