package mdxld

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the header syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Marker returns the delimiter line of the format.
func (f Format) Marker() string {
	if f == FormatTOML {
		return "+++"
	}
	return "---"
}

func (f Format) String() string {
	if f == FormatTOML {
		return "toml"
	}
	return "yaml"
}

// ParseFormat maps "yaml"/"yml"/"toml" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return FormatYAML, fmt.Errorf("unknown header format %q", s)
}

// Header is the framing of a document: the raw header text and the body.
type Header struct {
	Present bool
	Format  Format
	Raw     string
	Content string
}

// SplitHeader separates the header block from the body without decoding it.
// A header starts with a marker line at the very start of text and ends at the
// next line consisting exactly of the same marker.
func SplitHeader(text string) (Header, error) {
	format, ok := openingMarker(text)
	if !ok {
		return Header{Content: text}, nil
	}
	marker := format.Marker()

	start := strings.IndexByte(text, '\n') + 1
	pos := start
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		line := text[pos:]
		if end >= 0 {
			line = text[pos : pos+end]
			next = pos + end + 1
		}
		if strings.TrimSuffix(line, "\r") == marker {
			return Header{
				Present: true,
				Format:  format,
				Raw:     text[start:pos],
				Content: text[next:],
			}, nil
		}
		pos = next
	}

	return Header{}, &ParseError{Reason: fmt.Sprintf("header opened with %q but never closed", marker)}
}

func openingMarker(text string) (Format, bool) {
	for _, f := range []Format{FormatYAML, FormatTOML} {
		m := f.Marker()
		if strings.HasPrefix(text, m+"\n") || strings.HasPrefix(text, m+"\r\n") {
			return f, true
		}
	}
	return FormatYAML, false
}

// Fields decodes the header into its top-level entries.
// YAML entries keep document order; TOML entries are sorted by key.
// A header that is not a top-level mapping yields a *ParseError.
func (h Header) Fields() ([]Field, error) {
	if !h.Present {
		return nil, nil
	}
	if h.Format == FormatTOML {
		return decodeTOML(h.Raw)
	}
	return decodeYAML(h.Raw)
}

// Map decodes the header into a map.
func (h Header) Map() (map[string]any, error) {
	fields, err := h.Fields()
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m, nil
}

func decodeYAML(raw string) ([]Field, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, &ParseError{Reason: "invalid yaml", Err: err}
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Reason: "header is not a key/value mapping"}
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, &ParseError{Reason: fmt.Sprintf("non-scalar key at line %d", k.Line)}
		}
		var value any
		if err := v.Decode(&value); err != nil {
			return nil, &ParseError{Key: k.Value, Reason: "invalid value", Err: err}
		}
		fields = append(fields, Field{Key: k.Value, Value: value})
	}
	return fields, nil
}

func decodeTOML(raw string) ([]Field, error) {
	var m map[string]any
	if err := toml.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &ParseError{Reason: "invalid toml", Err: err}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: tomlValue(m[k])})
	}
	return fields, nil
}

// EncodeHeader writes fields as a fenced header followed by content.
// The header is always written, even when fields is empty.
func EncodeHeader(format Format, fields []Field, content string) (string, error) {
	var body []byte
	var err error
	if format == FormatTOML {
		body, err = encodeTOML(fields)
	} else {
		body, err = encodeYAML(fields)
	}
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	marker := format.Marker()
	buf.WriteString(marker + "\n")
	buf.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(marker + "\n")
	buf.WriteString(content)
	return buf.String(), nil
}

// EncodeMap writes data as a header with keys in lexical order.
func EncodeMap(format Format, data map[string]any, content string) (string, error) {
	return EncodeHeader(format, sortedFields(data), content)
}

func sortedFields(data map[string]any) []Field {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: data[k]})
	}
	return fields
}

func encodeYAML(fields []Field) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		k := new(yaml.Node)
		if err := k.Encode(f.Key); err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", f.Key, err)
		}
		v := new(yaml.Node)
		if err := v.Encode(yamlValue(f.Value)); err != nil {
			return nil, fmt.Errorf("failed to encode value of %q: %w", f.Key, err)
		}
		mapping.Content = append(mapping.Content, k, v)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(mapping); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeTOML ignores field order: TOML tables must follow plain keys, so the
// encoder's own lexical ordering is kept.
func encodeTOML(fields []Field) ([]byte, error) {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return toml.Marshal(m)
}
