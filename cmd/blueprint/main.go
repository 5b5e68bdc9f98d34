// FILE: lixenwraith/blueprint/cmd/blueprint/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/blueprint"
)

// settings configures the tool itself, separate from the files it inspects.
type settings struct {
	LogLevel  string `env:"BLUEPRINT_LOG_LEVEL"`
	Format    string `env:"BLUEPRINT_FORMAT"`
	EnvPrefix string `env:"BLUEPRINT_ENV_PREFIX"`
}

var defaultSettings = settings{
	LogLevel: "warn",
	Format:   string(blueprint.FormatYAML),
}

// loadSettings reads BLUEPRINT_* variables and fills what they leave empty from the defaults.
func loadSettings() (settings, error) {
	var s settings
	if err := env.Parse(&s); err != nil {
		return settings{}, fmt.Errorf("error getting env configs: %w", err)
	}
	if err := mergo.Merge(&s, defaultSettings); err != nil {
		return settings{}, fmt.Errorf("error merging configs: %w", err)
	}

	switch blueprint.Format(s.Format) {
	case blueprint.FormatYAML, blueprint.FormatJSON, blueprint.FormatTOML:
	default:
		return settings{}, fmt.Errorf("BLUEPRINT_FORMAT must be yaml, json or toml, got %q", s.Format)
	}
	return s, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// app carries state shared by the subcommands once the root command has run.
type app struct {
	settings settings
	logger   zerolog.Logger
}

func (a *app) parser(prog string) *blueprint.ArgumentParser {
	p := blueprint.NewArgumentParser(prog).
		WithLogger(a.logger).
		WithOutput(os.Stderr)
	if a.settings.EnvPrefix != "" {
		p.WithEnvPrefix(a.settings.EnvPrefix)
	}
	return p
}

// loadArgs turns "FILE --path value ..." into a parser command line.
func loadArgs(args []string) ([]string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil, fmt.Errorf("expected a configuration file as first argument")
	}
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, "--"+blueprint.DefaultLoadOption, args[0])
	return append(argv, args[1:]...), nil
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "blueprint",
		Short:         "Inspect, override and expand configuration files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			logger, err := newLogger(s.LogLevel)
			if err != nil {
				return err
			}
			a.settings = s
			a.logger = logger
			return nil
		},
	}

	cmd.AddCommand(newShowCmd(a), newFlattenCmd(a), newGridCmd(a), newDiffCmd(a))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
