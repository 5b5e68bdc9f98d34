// FILE: lixenwraith/blueprint/doc.go

// Package blueprint provides hierarchical configuration for experiment-style programs:
// ordered configuration trees loaded from YAML, JSON or TOML files, dotted-path access,
// command-line overrides typed by the file's own values, grid-search expansion, and
// materialization of type-tagged subtrees into live Go values through a factory registry.
//
// Features:
//   - Key order preserved through load, flatten, unflatten, merge and save
//   - Dotted-path access with typed getters and struct decoding (Scan)
//   - Two-phase command line: program options, then --load_blueprint FILE, then
//     overrides for any file leaf (--foo.counter.b 63)
//   - Grid search over candidate lists (--lr 0.1 0.01) as a Cartesian product
//   - Environment overlay and configuration file discovery
//   - Type directives ($module, $classname, $pos_args) built through a Registry
//
// Quick Start:
//
//	parser := blueprint.NewArgumentParser("train")
//	parser.Flags().StringP("input_file", "i", "README.md", "input text")
//	conf := parser.ParseOrExit(os.Args[1:])
//
//	threshold, _ := conf.GetInt("threshold")
//
// A file node becomes a live value when it carries a type directive:
//
//	foo:
//	  counter:
//	    $module: collections
//	    $classname: Counter
//	    a: 5
//	    b: 3
//
//	reg := blueprint.NewRegistry()
//	reg.Register("collections", "Counter", newCounter)
//	built, err := conf.Build(reg) // conf itself is left untouched
//
// Precedence (highest to lowest):
//  1. Overrides after the load option (--threshold 9)
//  2. Environment variables, when a prefix is set (TRAIN_THRESHOLD=9)
//  3. Configuration file
//  4. Defaults of program options
//
// Trees and registries are not safe for concurrent mutation; Clone before sharing.
package blueprint
