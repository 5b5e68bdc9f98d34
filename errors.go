// FILE: lixenwraith/blueprint/errors.go
package blueprint

import "errors"

// Path errors
var (
	// ErrPathNotFound is returned when a path segment is absent from the tree
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidPath is returned for empty segments or unknown reserved names
	ErrInvalidPath = errors.New("invalid path")
	// ErrPathConflict is returned when a path walks through a leaf
	ErrPathConflict = errors.New("path conflicts with existing leaf")
)

// File errors
var (
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrUnreadableFile    = errors.New("configuration file cannot be read")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	ErrParse             = errors.New("configuration parse error")
)

// Command-line errors
var (
	ErrCLIParse      = errors.New("failed to parse command-line arguments")
	ErrTypeCoercion  = errors.New("value does not match option type")
	ErrUnknownOption = errors.New("unknown or misplaced option")
	ErrMissingOption = errors.New("required option missing")
	// ErrHelp is returned when -h or --help was requested
	ErrHelp = errors.New("help requested")
)

// Build errors
var (
	ErrUnresolvableType   = errors.New("type not registered")
	ErrDuplicateType      = errors.New("type already registered")
	ErrMalformedDirective = errors.New("malformed type directive")
)
