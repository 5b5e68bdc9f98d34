// FILE: lixenwraith/blueprint/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/blueprint"
)

// Scheduler decays a learning rate every Step epochs.
type Scheduler struct {
	Gamma float64       `yaml:"gamma"`
	Step  int           `yaml:"step"`
	Every time.Duration `yaml:"every"`
}

// Model is built from positional arguments: a layer count and a scheduler.
type Model struct {
	Layers    int
	Scheduler *Scheduler
	Dropout   float64
}

func newModel(args []any, fields *blueprint.Tree) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("model takes layers and scheduler, got %d arguments", len(args))
	}
	layers, ok := args[0].(int)
	if !ok {
		return nil, fmt.Errorf("layers must be an int, got %T", args[0])
	}
	sched, ok := args[1].(*Scheduler)
	if !ok {
		return nil, fmt.Errorf("second argument must be a scheduler, got %T", args[1])
	}
	dropout, err := fields.GetFloat64("dropout")
	if err != nil {
		return nil, err
	}
	return &Model{Layers: layers, Scheduler: sched, Dropout: dropout}, nil
}

const configYAML = `seed: 1
model:
  $module: nets
  $classname: Model
  $pos_args:
    - 4
    - $module: sched
      $classname: StepLR
      gamma: 0.5
      step: 10
      every: 1m
  dropout: 0.1
data:
  path: /data/train
  batch: 32
`

func main() {
	dir, err := os.MkdirTemp("", "blueprint-example")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "train.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)

	// Primary options first, file overrides after the load option
	parser := blueprint.NewArgumentParser("train").WithLogger(logger)
	parser.Flags().Bool("dry_run", false, "print the configuration and exit")
	bp := parser.ParseOrExit([]string{"--dry_run", "--load_blueprint", path, "--data.batch", "64", "--model.dropout", "0.2"})

	fmt.Println(bp)

	registry := blueprint.NewRegistry(blueprint.WithLogger(logger))
	if err := registry.Register("nets", "Model", newModel); err != nil {
		log.Fatal(err)
	}
	if err := blueprint.RegisterType[Scheduler](registry, "sched", "StepLR"); err != nil {
		log.Fatal(err)
	}

	built, err := bp.Build(registry)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	model, _ := built.(*blueprint.Tree).Get("model")
	m := model.(*Model)
	fmt.Printf("model: %d layers, dropout %.1f, gamma %.2f every %s\n",
		m.Layers, m.Dropout, m.Scheduler.Gamma, m.Scheduler.Every)

	// Live objects export back to directives
	exported := blueprint.FromMapping(registry.Export(built.(*blueprint.Tree)), false)
	if err := exported.Dump(os.Stdout, blueprint.FormatYAML); err != nil {
		log.Fatal(err)
	}

	// Sweep two options
	variants := blueprint.NewArgumentParser("train").
		ParseGridOrExit([]string{"--load_blueprint", path, "--data.batch", "16", "32", "--model.dropout", "0.1", "0.3"})
	for i, v := range variants {
		fmt.Printf("variant %d: batch=%v dropout=%v\n", i, v.GetOr("data.batch", nil), v.GetOr("model.dropout", nil))
	}
}
