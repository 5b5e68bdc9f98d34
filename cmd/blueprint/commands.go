// FILE: lixenwraith/blueprint/cmd/blueprint/commands.go
package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/blueprint"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "show FILE [--path value ...]",
		Short:              "Print a configuration file with overrides applied",
		Long:               `Loads FILE, applies environment overrides (BLUEPRINT_ENV_PREFIX) and any --path value pairs, then prints the result in BLUEPRINT_FORMAT.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv, err := loadArgs(args)
			if err != nil {
				return err
			}
			t, err := a.parser("blueprint show").Parse(argv)
			if errors.Is(err, blueprint.ErrHelp) {
				return nil
			}
			if err != nil {
				return err
			}
			return t.Dump(cmd.OutOrStdout(), blueprint.Format(a.settings.Format))
		},
	}
}

func newFlattenCmd(a *app) *cobra.Command {
	var deep bool
	cmd := &cobra.Command{
		Use:   "flatten FILE",
		Short: "Print every leaf of a configuration file as path = value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := blueprint.Load(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug().Str("path", args[0]).Bool("deep", deep).Msg("Flattening")
			writeFlat(cmd.OutOrStdout(), flatten(t, deep))
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "expand sequences into indexed paths")
	return cmd
}

func newGridCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "grid FILE [--path v1 v2 ...]",
		Short:              "Print every configuration of a grid search",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv, err := loadArgs(args)
			if err != nil {
				return err
			}
			variants, err := a.parser("blueprint grid").ParseGrid(argv)
			if errors.Is(err, blueprint.ErrHelp) {
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, variant := range variants {
				fmt.Fprintf(out, "# variant %d/%d\n", i+1, len(variants))
				if err := variant.Dump(out, blueprint.Format(a.settings.Format)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff A B",
		Short: "Show leaves that differ between two configuration files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := blueprint.Load(args[0])
			if err != nil {
				return err
			}
			right, err := blueprint.Load(args[1])
			if err != nil {
				return err
			}
			if left.Equal(right) {
				a.logger.Info().Msg("Configurations are equal")
				return nil
			}

			var lb, rb strings.Builder
			writeFlat(&lb, flatten(left, true))
			writeFlat(&rb, flatten(right, true))
			fmt.Fprint(cmd.OutOrStdout(), diffLines(lb.String(), rb.String()))
			return nil
		},
	}
}

func flatten(t *blueprint.Tree, deep bool) *blueprint.Map {
	if deep {
		return t.AsFlatMap()
	}
	return t.Flatten(blueprint.DefaultDelimiter)
}

func writeFlat(w io.Writer, flat *blueprint.Map) {
	for pair := flat.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(w, "%s = %s\n", pair.Key, render(pair.Value))
	}
}

func render(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

// diffLines renders a line diff with "-" for lines only in a and "+" for lines only in b.
func diffLines(a, b string) string {
	dmp := diffmatchpatch.New()
	ra, rb, lines := dmp.DiffLinesToRunes(a, b)
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(ra, rb, false))

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			continue
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, r := range d.Text {
			idx := int(r)
			if idx >= 0 && idx < len(lines) {
				out.WriteString(prefix + lines[idx])
			}
		}
	}
	return out.String()
}
