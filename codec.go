// FILE: lixenwraith/blueprint/codec.go
package blueprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a structured-data file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// DetectFormat determines the format from a file extension; empty when unknown.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml", ".tml":
		return FormatTOML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) Format {
	// JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// YAML is a superset of JSON, so check after JSON.
	// Decoding into a map keeps bare TOML lines from passing as YAML scalars.
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	return ""
}

// Decode parses data into an ordered nested mapping. An empty format triggers content detection.
// The top-level value must be a mapping; an empty document yields an empty mapping.
func Decode(data []byte, format Format) (*Map, error) {
	if format == "" {
		format = detectFormatFromContent(data)
	}

	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatTOML:
		return decodeTOML(data)
	case "":
		return nil, fmt.Errorf("%w: unable to determine format", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode serializes an ordered nested mapping, keeping key order.
func Encode(m *Map, format Format) ([]byte, error) {
	switch format {
	case FormatYAML, "":
		return encodeYAML(m)
	case FormatJSON:
		return encodeJSON(m)
	case FormatTOML:
		return encodeTOML(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Parse decodes data into a tree.
func Parse(data []byte, format Format) (*Tree, error) {
	m, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return FromMapping(m, false), nil
}

// Marshal encodes the tree's mapping form.
func (t *Tree) Marshal(format Format) ([]byte, error) {
	return Encode(t.AsMapping(), format)
}

// -- YAML

func decodeYAML(data []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrParse, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMap(), nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return NewMap(), nil
	}
	value, err := yamlValue(root)
	if err != nil {
		return nil, err
	}
	m, ok := value.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: yaml: top-level value must be a mapping, got %T", ErrParse, value)
	}
	return m, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])

	case yaml.AliasNode:
		return yamlValue(n.Alias)

	case yaml.MappingNode:
		m := NewMap()
		var merges []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: yaml: line %d: mapping keys must be scalars", ErrParse, keyNode.Line)
			}
			if keyNode.Tag == "!!merge" {
				merges = append(merges, valueNode)
				continue
			}
			value, err := yamlValue(valueNode)
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, value)
		}
		// Merged keys never override explicit ones
		for _, merge := range merges {
			if err := yamlMerge(m, merge); err != nil {
				return nil, err
			}
		}
		return m, nil

	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, value)
		}
		return seq, nil

	case yaml.ScalarNode:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: yaml: line %d: %w", ErrParse, n.Line, err)
		}
		return normalizeNumber(value), nil
	}
	return nil, fmt.Errorf("%w: yaml: line %d: unexpected node kind %d", ErrParse, n.Line, n.Kind)
}

func yamlMerge(m *Map, n *yaml.Node) error {
	value, err := yamlValue(n)
	if err != nil {
		return err
	}
	sources := []any{value}
	if seq, ok := value.([]any); ok {
		sources = seq
	}
	for _, source := range sources {
		sm, ok := source.(*Map)
		if !ok {
			return fmt.Errorf("%w: yaml: line %d: merge value must be a mapping", ErrParse, n.Line)
		}
		for pair := sm.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := m.Get(pair.Key); !exists {
				m.Set(pair.Key, pair.Value)
			}
		}
	}
	return nil
}

func encodeYAML(m *Map) ([]byte, error) {
	root, err := yamlNode(m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			child, err := yamlNode(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", pair.Key, err)
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}
			n.Content = append(n.Content, key, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return n, nil
}

// parseLiteral reads a command-line token as a YAML flow value ("[1, 2]", "3.5", "null").
// Tokens that fail to parse stay strings.
func parseLiteral(s string) any {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(s), &n); err != nil || len(n.Content) == 0 {
		return s
	}
	value, err := yamlValue(n.Content[0])
	if err != nil {
		return s
	}
	return wrapValue(value)
}

// -- JSON

func decodeJSON(data []byte) (*Map, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Preserve number precision

	tok, err := decoder.Token()
	if errors.Is(err, io.EOF) {
		return NewMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
	}

	value, err := jsonValue(decoder, tok)
	if err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: json: trailing data after top-level value", ErrParse)
	}

	m, ok := value.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: json: top-level value must be an object, got %T", ErrParse, value)
	}
	return m, nil
}

func jsonValue(decoder *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for decoder.More() {
				keyTok, err := decoder.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("%w: json: object key is %T", ErrParse, keyTok)
				}
				valueTok, err := decoder.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
				}
				value, err := jsonValue(decoder, valueTok)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := decoder.Token(); err != nil { // closing '}'
				return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
			}
			return m, nil
		case '[':
			seq := make([]any, 0)
			for decoder.More() {
				itemTok, err := decoder.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
				}
				item, err := jsonValue(decoder, itemTok)
				if err != nil {
					return nil, err
				}
				seq = append(seq, item)
			}
			if _, err := decoder.Token(); err != nil { // closing ']'
				return nil, fmt.Errorf("%w: json: %w", ErrParse, err)
			}
			return seq, nil
		}
		return nil, fmt.Errorf("%w: json: unexpected delimiter %q", ErrParse, t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return normalizeNumber(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: json: invalid number %q", ErrParse, t)
		}
		return f, nil
	}
	// string, bool or nil
	return tok, nil
}

func encodeJSON(m *Map) ([]byte, error) {
	var compact bytes.Buffer
	if err := writeJSON(&compact, m); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent JSON: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *Map:
		buf.WriteByte('{')
		first := true
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, _ := json.Marshal(pair.Key)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, pair.Value); err != nil {
				return fmt.Errorf("key %q: %w", pair.Key, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON value %T: %w", v, err)
	}
	buf.Write(data)
	return nil
}

// -- TOML

// decodeTOML keeps the definition order reported by the decoder's metadata.
// Keys the metadata cannot place (inside arrays of tables) follow in sorted order.
func decodeTOML(data []byte) (*Map, error) {
	raw := make(map[string]any)
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: toml: %w", ErrParse, err)
	}

	m := NewMap()
	for _, key := range md.Keys() {
		placeTOMLKey(m, raw, key)
	}
	fillTOML(m, raw)
	return m, nil
}

func placeTOMLKey(m *Map, raw map[string]any, key toml.Key) {
	level, rawLevel := m, raw
	for i, segment := range key {
		rv, ok := rawLevel[segment]
		if !ok {
			return
		}

		sub, isTable := rv.(map[string]any)
		existing, present := level.Get(segment)
		if i == len(key)-1 {
			if present {
				return
			}
			if isTable {
				level.Set(segment, NewMap())
			} else {
				level.Set(segment, tomlValue(rv))
			}
			return
		}

		if !isTable {
			return
		}
		next, ok := existing.(*Map)
		if !present || !ok {
			next = NewMap()
			level.Set(segment, next)
		}
		level, rawLevel = next, sub
	}
}

func fillTOML(m *Map, raw map[string]any) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		existing, present := m.Get(k)
		if !present {
			m.Set(k, tomlValue(raw[k]))
			continue
		}
		if sub, ok := raw[k].(map[string]any); ok {
			if branch, ok := existing.(*Map); ok {
				fillTOML(branch, sub)
			}
		}
	}
}

func tomlValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := NewMap()
		fillTOML(out, val)
		return out
	case []map[string]any:
		seq := make([]any, len(val))
		for i, item := range val {
			seq[i] = tomlValue(item)
		}
		return seq
	case []any:
		seq := make([]any, len(val))
		for i, item := range val {
			seq[i] = tomlValue(item)
		}
		return seq
	}
	return normalizeNumber(v)
}

// encodeTOML writes tables in order. Within each table, plain keys come before sub-tables
// as the TOML grammar requires; TOML has no null, so nil leaves are omitted.
func encodeTOML(m *Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTOMLTable(&buf, m, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTOMLTable(buf *bytes.Buffer, m *Map, path []string) error {
	var tables []*orderedPair
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			continue
		}
		if isTOMLTable(pair.Value) {
			tables = append(tables, &orderedPair{key: pair.Key, value: pair.Value})
			continue
		}
		line, err := toml.Marshal(map[string]any{pair.Key: plainValue(pair.Value)})
		if err != nil {
			return fmt.Errorf("failed to marshal TOML key %q: %w", pair.Key, err)
		}
		buf.Write(line)
	}

	for _, table := range tables {
		childPath := append(append([]string(nil), path...), table.key)
		header := tomlHeader(childPath)

		switch val := table.value.(type) {
		case *Map:
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString("[" + header + "]\n")
			if err := writeTOMLTable(buf, val, childPath); err != nil {
				return err
			}
		case []any:
			for _, item := range val {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString("[[" + header + "]]\n")
				if err := writeTOMLTable(buf, item.(*Map), childPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type orderedPair struct {
	key   string
	value any
}

// isTOMLTable reports whether v is written as a [table] or an [[array of tables]].
func isTOMLTable(v any) bool {
	switch val := v.(type) {
	case *Map:
		return true
	case []any:
		if len(val) == 0 {
			return false
		}
		for _, item := range val {
			if _, ok := item.(*Map); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func tomlHeader(path []string) string {
	parts := make([]string, len(path))
	for i, segment := range path {
		if isValidKeySegment(segment) {
			parts[i] = segment
		} else {
			parts[i] = strconv.Quote(segment)
		}
	}
	return strings.Join(parts, ".")
}
