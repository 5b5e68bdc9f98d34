// FILE: lixenwraith/blueprint/parser.go
package blueprint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// DefaultLoadOption is the option naming the configuration file on the command line.
const DefaultLoadOption = "load_blueprint"

// State tracks how far an ArgumentParser got through a command line.
type State int

const (
	StateInit State = iota
	StatePrimaryParsed
	StateConfigLoaded
	StateOverridesApplied
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePrimaryParsed:
		return "primary-parsed"
	case StateConfigLoaded:
		return "config-loaded"
	case StateOverridesApplied:
		return "overrides-applied"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ArgumentParser parses a command line in two phases. Options defined on Flags() are
// accepted before the load option; the load option names a configuration file whose
// leaves become options accepted after it, typed by their file values:
//
//	prog --value 5 --load_blueprint conf.yaml --foo.counter.b 63
//
// An ArgumentParser parses one command line.
type ArgumentParser struct {
	prog        string
	description string
	loadOption  string
	delimiter   string
	envPrefix   string
	envTrans    EnvTransformFunc
	discovery   *DiscoveryOptions
	optional    bool
	output      io.Writer
	exit        func(int)
	logger      zerolog.Logger

	flags     *pflag.FlagSet
	overrides *pflag.FlagSet // set once the file is loaded, for usage

	state      State
	configPath string
}

// NewArgumentParser creates a parser for the named program.
func NewArgumentParser(prog string) *ArgumentParser {
	return &ArgumentParser{
		prog:       prog,
		loadOption: DefaultLoadOption,
		delimiter:  DefaultDelimiter,
		output:     os.Stderr,
		exit:       os.Exit,
		logger:     zerolog.Nop(),
		flags:      newFlagSet(prog),
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	return fs
}

// WithLoadOption renames the load option (without leading dashes).
func (p *ArgumentParser) WithLoadOption(name string) *ArgumentParser {
	p.loadOption = strings.TrimLeft(name, "-")
	return p
}

// WithDescription sets the text printed under the usage line.
func (p *ArgumentParser) WithDescription(description string) *ArgumentParser {
	p.description = description
	return p
}

// WithOutput sets where usage and error messages are written. Defaults to stderr.
func (p *ArgumentParser) WithOutput(w io.Writer) *ArgumentParser {
	p.output = w
	return p
}

// WithEnvPrefix enables environment overrides of file leaves: PREFIX + upper-cased path
// with delimiters replaced by underscores.
func (p *ArgumentParser) WithEnvPrefix(prefix string) *ArgumentParser {
	p.envPrefix = prefix
	return p
}

// WithEnvTransform sets a custom path to environment variable mapping. It enables the
// environment overlay even without a prefix.
func (p *ArgumentParser) WithEnvTransform(fn EnvTransformFunc) *ArgumentParser {
	p.envTrans = fn
	return p
}

// WithDiscovery searches for a configuration file when the load option is absent.
func (p *ArgumentParser) WithDiscovery(opts DiscoveryOptions) *ArgumentParser {
	p.discovery = &opts
	return p
}

// WithLogger sets the logger receiving phase transitions at debug level.
func (p *ArgumentParser) WithLogger(logger zerolog.Logger) *ArgumentParser {
	p.logger = logger
	return p
}

// WithDelimiter sets the path delimiter used in override option names.
func (p *ArgumentParser) WithDelimiter(delim string) *ArgumentParser {
	if delim != "" {
		p.delimiter = delim
	}
	return p
}

// WithExitFunc replaces os.Exit in ParseOrExit and ParseGridOrExit.
func (p *ArgumentParser) WithExitFunc(fn func(int)) *ArgumentParser {
	if fn != nil {
		p.exit = fn
	}
	return p
}

// Optional allows command lines without a configuration file.
func (p *ArgumentParser) Optional() *ArgumentParser {
	p.optional = true
	return p
}

// Flags returns the primary option set. Options are listed in definition order.
func (p *ArgumentParser) Flags() *pflag.FlagSet {
	return p.flags
}

// State reports the phase reached by the last parse.
func (p *ArgumentParser) State() State {
	return p.state
}

// ConfigPath returns the configuration file used by the last parse, if any.
func (p *ArgumentParser) ConfigPath() string {
	return p.configPath
}

// Parse runs both phases and returns the merged tree.
func (p *ArgumentParser) Parse(args []string) (*Tree, error) {
	ov, err := p.run(args, false)
	if err != nil {
		return nil, err
	}
	return FromMapping(Unflatten(ov.flat, p.delimiter), false), nil
}

// ParseOrExit is Parse for main functions: help exits with status 0, any other failure
// prints the error with the usage text and exits with status 2.
func (p *ArgumentParser) ParseOrExit(args []string) *Tree {
	t, err := p.Parse(args)
	if err != nil {
		p.fail(err)
		return nil
	}
	return t
}

func (p *ArgumentParser) fail(err error) {
	if errors.Is(err, ErrHelp) {
		p.exit(0)
		return
	}
	fmt.Fprint(p.output, p.Usage())
	fmt.Fprintf(p.output, "%s: error: %v\n", p.prog, err)
	p.exit(2)
}

// overlay is the outcome of a successful parse: merged flat leaves plus the override
// values they came from.
type overlay struct {
	flat   *Map
	names  []string
	values []*optionValue
	tokens []string // override tokens as parsed
}

func (p *ArgumentParser) run(args []string, grid bool) (*overlay, error) {
	p.state = StateInit
	p.configPath = ""
	p.overrides = nil

	ov, err := p.phases(args, grid)
	if err != nil {
		p.transition(StateFailed)
		p.logger.Debug().Err(err).Msg("Argument parsing failed")
		return nil, err
	}
	return ov, nil
}

func (p *ArgumentParser) transition(s State) {
	p.logger.Debug().Str("from", p.state.String()).Str("to", s.String()).Msg("Parser state")
	p.state = s
}

func (p *ArgumentParser) phases(args []string, grid bool) (*overlay, error) {
	primary, path, rest, loaded := p.splitArgs(args)

	if p.helpRequested(p.flags, primary) {
		fmt.Fprint(p.output, p.Usage())
		return nil, ErrHelp
	}
	if err := checkOptions(p.flags, primary); err != nil {
		return nil, err
	}
	if err := p.flags.Parse(primary); err != nil {
		return nil, classify(err, nil, nil)
	}
	if extra := p.flags.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", ErrUnknownOption, extra)
	}
	p.transition(StatePrimaryParsed)

	if loaded && path == "" {
		return nil, fmt.Errorf("%w: --%s requires a file path", ErrMissingOption, p.loadOption)
	}
	if !loaded && p.discovery != nil {
		path = p.discovery.Discover()
		if path != "" {
			p.logger.Debug().Str("path", path).Msg("Discovered configuration file")
		}
	}
	if path == "" {
		if !p.optional {
			return nil, fmt.Errorf("%w: --%s", ErrMissingOption, p.loadOption)
		}
		ov := &overlay{flat: p.merge(nil, nil)}
		p.transition(StateOverridesApplied)
		return ov, nil
	}

	m, err := LoadMapping(path)
	if err != nil {
		return nil, err
	}
	p.configPath = path
	leaves := Flatten(m, p.delimiter)
	p.logger.Debug().Str("path", path).Int("leaves", leaves.Len()).Msg("Loaded configuration file")
	p.transition(StateConfigLoaded)

	names := make([]string, 0, leaves.Len())
	values := make([]*optionValue, 0, leaves.Len())
	for pair := leaves.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
		values = append(values, newOptionValue(pair.Value, grid))
	}

	if transform := p.envTransform(); transform != nil {
		applied, err := applyEnv(names, values, transform)
		if err != nil {
			return nil, err
		}
		p.logger.Debug().Int("applied", applied).Msg("Applied environment overrides")
	}

	p.overrides = newFlagSet(p.prog + " --" + p.loadOption)
	for i, name := range names {
		p.overrides.Var(values[i], name, "")
	}

	if p.helpRequested(p.overrides, rest) {
		fmt.Fprint(p.output, p.Usage())
		return nil, ErrHelp
	}

	tokens := rest
	if grid {
		if tokens, err = expandGridTokens(rest); err != nil {
			return nil, err
		}
	}
	if err := checkOptions(p.overrides, tokens); err != nil {
		return nil, fmt.Errorf("%w (options for the program itself belong before --%s)", err, p.loadOption)
	}
	if err := p.overrides.Parse(tokens); err != nil {
		return nil, classify(err, names, values)
	}
	if extra := p.overrides.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", ErrUnknownOption, extra)
	}

	ov := &overlay{
		flat:   p.merge(names, values),
		names:  names,
		values: values,
		tokens: tokens,
	}
	p.transition(StateOverridesApplied)
	return ov, nil
}

func (p *ArgumentParser) envTransform() EnvTransformFunc {
	if p.envTrans != nil {
		return p.envTrans
	}
	if p.envPrefix != "" {
		return DefaultEnvTransform(p.envPrefix, p.delimiter)
	}
	return nil
}

// splitArgs cuts the command line at the load option.
func (p *ArgumentParser) splitArgs(args []string) (primary []string, path string, rest []string, loaded bool) {
	option := "--" + p.loadOption
	for i, arg := range args {
		if arg == option {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				return args[:i], args[i+1], args[i+2:], true
			}
			return args[:i], "", args[i+1:], true
		}
		if value, ok := strings.CutPrefix(arg, option+"="); ok {
			return args[:i], value, args[i+1:], true
		}
	}
	return args, "", nil, false
}

func (p *ArgumentParser) helpRequested(fs *pflag.FlagSet, tokens []string) bool {
	if fs.Lookup("help") != nil {
		return false
	}
	for _, tok := range tokens {
		if tok == "--" {
			return false
		}
		if tok == "--help" || (tok == "-h" && fs.ShorthandLookup("h") == nil) {
			return true
		}
	}
	return false
}

// checkOptions rejects option tokens the set does not define, before pflag sees them.
func checkOptions(fs *pflag.FlagSet, tokens []string) error {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			return nil
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			continue
		}

		var flag *pflag.Flag
		inline := false
		if name, ok := strings.CutPrefix(tok, "--"); ok {
			name, _, inline = strings.Cut(name, "=")
			flag = fs.Lookup(name)
		} else {
			flag = fs.ShorthandLookup(tok[1:2])
			inline = len(tok) > 2
		}

		if flag == nil {
			return fmt.Errorf("%w: %s", ErrUnknownOption, tok)
		}
		if !inline && flag.NoOptDefVal == "" {
			i++ // value token
		}
	}
	return nil
}

// classify maps pflag failures onto the package errors. Coercion failures are recovered
// from the option values since pflag does not wrap them.
func classify(err error, names []string, values []*optionValue) error {
	for i, v := range values {
		if v.err != nil {
			return fmt.Errorf("--%s: %w", names[i], v.err)
		}
	}
	if errors.Is(err, pflag.ErrHelp) {
		return ErrHelp
	}
	if strings.HasPrefix(err.Error(), "invalid argument") {
		return fmt.Errorf("%w: %s", ErrTypeCoercion, err)
	}
	return fmt.Errorf("%w: %w", ErrCLIParse, err)
}

// merge combines primary options (definition order) with file leaves (file order).
// A primary option given on the command line beats a file leaf of the same name unless
// that leaf was also overridden after the load option.
func (p *ArgumentParser) merge(names []string, values []*optionValue) *Map {
	flat := NewMap()
	p.flags.VisitAll(func(f *pflag.Flag) {
		flat.Set(f.Name, flagValue(f))
	})

	for i, name := range names {
		if primary := p.flags.Lookup(name); primary != nil && primary.Changed && !values[i].set {
			continue
		}
		flat.Set(name, values[i].value)
	}
	return flat
}

// Usage renders the help text: primary options, the load option, and the file options
// once a file has been loaded. Every option shows its default.
func (p *ArgumentParser) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "usage: %s [options] --%s FILE [--opt value ...]\n", p.prog, p.loadOption)
	if p.description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.description)
	}

	b.WriteString("\noptions:\n")
	if p.flags.Lookup("help") == nil {
		writeOption(&b, "-h, --help", "show this help message and exit")
	}
	p.flags.VisitAll(func(f *pflag.Flag) {
		writeOption(&b, invocation(f), f.Usage)
	})
	writeOption(&b, fmt.Sprintf("--%s FILE [--opt1 val1] [--opt2 val2]", p.loadOption),
		"file with default settings; its leaves become options after it")

	if p.overrides != nil {
		fmt.Fprintf(&b, "\noptions from %s (pass after --%s):\n", p.configPath, p.loadOption)
		p.overrides.VisitAll(func(f *pflag.Flag) {
			writeOption(&b, invocation(f), f.Usage)
		})
	}
	return b.String()
}

func invocation(f *pflag.Flag) string {
	s := "--" + f.Name
	if f.Shorthand != "" {
		s = "-" + f.Shorthand + ", " + s
	}
	if f.NoOptDefVal == "" {
		s += fmt.Sprintf(" %s (default: %s)", f.Value.Type(), f.DefValue)
	}
	return s
}

func writeOption(b *strings.Builder, inv, usage string) {
	if usage == "" {
		fmt.Fprintf(b, "  %s\n", inv)
		return
	}
	fmt.Fprintf(b, "  %s\n        %s\n", inv, usage)
}
