// FILE: lixenwraith/blueprint/grid.go
package blueprint

import (
	"fmt"
	"strings"
)

// Axis is one swept option of a grid search: a path and its candidate values.
type Axis struct {
	Path       string
	Candidates []any
}

// ParseGrid parses a grid-search command line. After the load option every file leaf
// accepts one or more values (--lr 0.1 0.01). Candidates for string leaves are read as
// literals, so "--name 5 abc" sweeps the int 5 and the string "abc". Options whose
// candidates differ from their base value are sweep axes, ordered by first appearance. The result is the Cartesian
// product of the axes, last axis varying fastest; each variant is an independent tree.
// Without axes the result holds a single copy of the base configuration.
func (p *ArgumentParser) ParseGrid(args []string) ([]*Tree, error) {
	ov, err := p.run(args, true)
	if err != nil {
		return nil, err
	}

	axes := ov.axes()
	variants := Product(ov.flat, axes, p.delimiter)
	p.logger.Debug().Int("axes", len(axes)).Int("variants", len(variants)).Msg("Expanded grid")
	return variants, nil
}

// ParseGridOrExit is ParseGrid with the exit behavior of ParseOrExit.
func (p *ArgumentParser) ParseGridOrExit(args []string) []*Tree {
	variants, err := p.ParseGrid(args)
	if err != nil {
		p.fail(err)
		return nil
	}
	return variants
}

// axes collects the swept options in command-line order.
func (ov *overlay) axes() []Axis {
	index := make(map[string]int, len(ov.names))
	for i, name := range ov.names {
		index[name] = i
	}

	var axes []Axis
	seen := make(map[string]bool)
	for _, tok := range ov.tokens {
		name, ok := strings.CutPrefix(tok, "--")
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		i, known := index[name]
		if !known || seen[name] {
			continue
		}
		seen[name] = true

		if v := ov.values[i]; v.isAxis() {
			axes = append(axes, Axis{Path: name, Candidates: v.candidates})
		}
	}
	return axes
}

// Product expands a flat base configuration over the axes into one tree per combination.
// The last axis varies fastest. The base is never modified.
func Product(base *Map, axes []Axis, delim string) []*Tree {
	for _, axis := range axes {
		if len(axis.Candidates) == 0 {
			return nil
		}
	}

	var variants []*Tree
	choice := make([]int, len(axes))
	for {
		flat := cloneMap(base)
		for i, axis := range axes {
			flat.Set(axis.Path, cloneValue(axis.Candidates[choice[i]]))
		}
		variants = append(variants, FromMapping(Unflatten(flat, delim), false))

		// Advance like an odometer
		i := len(axes) - 1
		for ; i >= 0; i-- {
			choice[i]++
			if choice[i] < len(axes[i].Candidates) {
				break
			}
			choice[i] = 0
		}
		if i < 0 {
			return variants
		}
	}
}

// expandGridTokens rewrites "--name v1 v2" as "--name=v1 --name=v2" so each candidate
// reaches the option once. An option followed directly by another option has no candidates.
func expandGridTokens(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") || tok == "--" || strings.Contains(tok, "=") {
			out = append(out, tok)
			continue
		}

		j := i + 1
		for ; j < len(tokens) && !strings.HasPrefix(tokens[j], "--"); j++ {
			out = append(out, tok+"="+tokens[j])
		}
		if j == i+1 {
			return nil, fmt.Errorf("%w: option %s needs at least one value", ErrCLIParse, tok)
		}
		i = j - 1
	}
	return out, nil
}
