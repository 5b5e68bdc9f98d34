// FILE: lixenwraith/blueprint/cmd/blueprint/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainYAML = `name: base
layers: 2
opt:
  lr: 0.1
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadSettings(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		s, err := loadSettings()
		require.NoError(t, err)
		assert.Equal(t, "warn", s.LogLevel)
		assert.Equal(t, "yaml", s.Format)
		assert.Equal(t, "", s.EnvPrefix)
	})

	t.Run("FromEnvironment", func(t *testing.T) {
		t.Setenv("BLUEPRINT_LOG_LEVEL", "debug")
		t.Setenv("BLUEPRINT_FORMAT", "json")
		t.Setenv("BLUEPRINT_ENV_PREFIX", "TRAIN_")

		s, err := loadSettings()
		require.NoError(t, err)
		assert.Equal(t, settings{LogLevel: "debug", Format: "json", EnvPrefix: "TRAIN_"}, s)
	})

	t.Run("BadFormat", func(t *testing.T) {
		t.Setenv("BLUEPRINT_FORMAT", "ini")
		_, err := loadSettings()
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("INFO")
	assert.NoError(t, err)
	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestLoadArgs(t *testing.T) {
	argv, err := loadArgs([]string{"conf.yaml", "--a", "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--load_blueprint", "conf.yaml", "--a", "1"}, argv)

	_, err = loadArgs(nil)
	assert.Error(t, err)
	_, err = loadArgs([]string{"--a", "1"})
	assert.Error(t, err)
}

func TestDiffLines(t *testing.T) {
	assert.Equal(t, "-b = 2\n+b = 3\n", diffLines("a = 1\nb = 2\n", "a = 1\nb = 3\n"))
	assert.Equal(t, "+c = 4\n", diffLines("a = 1\n", "a = 1\nc = 4\n"))
	assert.Equal(t, "", diffLines("a = 1\n", "a = 1\n"))
}

func TestCommands(t *testing.T) {
	path := writeConfig(t, "train.yaml", trainYAML)

	t.Run("Show", func(t *testing.T) {
		out, err := execute(t, "show", path, "--opt.lr", "0.5")
		require.NoError(t, err)
		assert.Equal(t, "name: base\nlayers: 2\nopt:\n  lr: 0.5\n", out)
	})

	t.Run("ShowJSON", func(t *testing.T) {
		t.Setenv("BLUEPRINT_FORMAT", "json")
		out, err := execute(t, "show", path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "base", "layers": 2, "opt": {"lr": 0.1}}`, out)
	})

	t.Run("ShowEnvPrefix", func(t *testing.T) {
		t.Setenv("BLUEPRINT_ENV_PREFIX", "TRAIN_")
		t.Setenv("TRAIN_LAYERS", "6")
		out, err := execute(t, "show", path)
		require.NoError(t, err)
		assert.Contains(t, out, "layers: 6")
	})

	t.Run("ShowUnknownOption", func(t *testing.T) {
		_, err := execute(t, "show", path, "--depth", "3")
		assert.Error(t, err)
	})

	t.Run("Flatten", func(t *testing.T) {
		out, err := execute(t, "flatten", path)
		require.NoError(t, err)
		assert.Equal(t, "name = \"base\"\nlayers = 2\nopt.lr = 0.1\n", out)
	})

	t.Run("Grid", func(t *testing.T) {
		out, err := execute(t, "grid", path, "--layers", "2", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "# variant 1/2\n")
		assert.Contains(t, out, "# variant 2/2\n")
		assert.Contains(t, out, "layers: 3")
	})

	t.Run("Diff", func(t *testing.T) {
		other := writeConfig(t, "other.yaml", "name: base\nlayers: 4\nopt:\n  lr: 0.1\n")
		out, err := execute(t, "diff", path, other)
		require.NoError(t, err)
		assert.Equal(t, "-layers = 2\n+layers = 4\n", out)

		out, err = execute(t, "diff", path, path)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
