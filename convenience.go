// FILE: lixenwraith/blueprint/convenience.go
package blueprint

import (
	"fmt"
	"io"
	"os"
)

// Quick loads configFile, overlays environment variables carrying envPrefix (when not
// empty) and applies overrides of the form --path value from args.
// Overrides must name leaves present in the file and are typed by them.
func Quick(configFile, envPrefix string, args []string) (*Tree, error) {
	p := NewArgumentParser("blueprint").
		WithEnvPrefix(envPrefix).
		WithOutput(io.Discard)

	argv := make([]string, 0, len(args)+2)
	argv = append(argv, "--"+DefaultLoadOption, configFile)
	argv = append(argv, args...)
	return p.Parse(argv)
}

// MustQuick is like Quick but panics on error
func MustQuick(configFile, envPrefix string, args []string) *Tree {
	t, err := Quick(configFile, envPrefix, args)
	if err != nil {
		panic(fmt.Sprintf("blueprint initialization failed: %v", err))
	}
	return t
}

// Dump writes the tree to w in the given format; nil w means stdout.
func (t *Tree) Dump(w io.Writer, format Format) error {
	if w == nil {
		w = os.Stdout
	}
	data, err := t.Marshal(format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
