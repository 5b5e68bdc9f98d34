// FILE: lixenwraith/blueprint/file.go
package blueprint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads a configuration file into a tree. The format follows the file extension,
// falling back to content detection.
func Load(path string) (*Tree, error) {
	m, err := LoadMapping(path)
	if err != nil {
		return nil, err
	}
	return FromMapping(m, false), nil
}

// FromFile is an alias of Load.
func FromFile(path string) (*Tree, error) {
	return Load(path)
}

// LoadMapping reads a configuration file into an ordered nested mapping.
func LoadMapping(path string) (*Map, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	m, err := Decode(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load '%s': %w", path, err)
	}
	return m, nil
}

// readFile separates a missing file from one that exists but cannot be read.
func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadableFile, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	return data, nil
}

// Save writes the tree's mapping form to path atomically. The format follows the
// extension; unknown extensions are written as YAML.
func (t *Tree) Save(path string) error {
	format := DetectFormat(path)
	if format == "" {
		format = FormatYAML
	}

	data, err := t.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to encode '%s': %w", path, err)
	}
	return atomicWriteFile(path, data)
}

// ToFile is an alias of Save.
func (t *Tree) ToFile(path string) error {
	return t.Save(path)
}

// atomicWriteFile writes through a temporary file in the target directory and renames it into place
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // no-op after a successful rename

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
