// FILE: lixenwraith/blueprint/convenience_test.go
package blueprint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuick(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "quick.toml", `
host = "quickhost"
port = 7777

[tls]
enabled = false
`)

	t.Run("FileEnvAndArgs", func(t *testing.T) {
		t.Setenv("QUICK_PORT", "8888")

		tree, err := Quick(path, "QUICK_", []string{"--tls.enabled", "true"})
		require.NoError(t, err)
		assert.Equal(t, "quickhost", tree.GetOr("host", nil))
		assert.Equal(t, 8888, tree.GetOr("port", nil))
		assert.Equal(t, true, tree.GetOr("tls.enabled", nil))
	})

	t.Run("UnknownOverride", func(t *testing.T) {
		_, err := Quick(path, "", []string{"--tls.cert", "x"})
		assert.ErrorIs(t, err, ErrUnknownOption)
	})

	t.Run("MustQuickPanics", func(t *testing.T) {
		assert.Panics(t, func() { MustQuick(tmpDir+"/absent.toml", "", nil) })
		assert.NotPanics(t, func() { MustQuick(path, "", nil) })
	})
}

func TestDump(t *testing.T) {
	tree := FromMapping(MapOf("name", "run", "model", MapOf("layers", 3)), false)

	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf, FormatYAML))
	assert.Equal(t, "name: run\nmodel:\n  layers: 3\n", buf.String())

	buf.Reset()
	require.NoError(t, tree.Dump(&buf, FormatJSON))
	assert.JSONEq(t, `{"name": "run", "model": {"layers": 3}}`, buf.String())

	buf.Reset()
	require.NoError(t, tree.Dump(&buf, FormatTOML))
	assert.Equal(t, "name = \"run\"\n\n[model]\nlayers = 3\n", buf.String())

	assert.ErrorIs(t, tree.Dump(&buf, Format("ini")), ErrUnsupportedFormat)
}
