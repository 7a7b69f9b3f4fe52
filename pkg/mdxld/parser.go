package mdxld

import (
	"encoding/json"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

type parseOptions struct {
	allowEmptyHeader bool
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

// AllowEmptyHeader accepts a header block that decodes to zero keys.
func AllowEmptyHeader() ParseOption {
	return func(o *parseOptions) {
		o.allowEmptyHeader = true
	}
}

type stringifyOptions struct {
	useAtPrefix bool
	forceHeader bool
	format      Format
}

// StringifyOption configures Stringify.
type StringifyOption func(*stringifyOptions)

// UseAtPrefix writes metadata keys with "@" instead of "$".
func UseAtPrefix() StringifyOption {
	return func(o *stringifyOptions) {
		o.useAtPrefix = true
	}
}

// ForceHeader writes the header block even when there is nothing to put in it.
func ForceHeader() StringifyOption {
	return func(o *stringifyOptions) {
		o.forceHeader = true
	}
}

// WithFormat selects the header syntax. Defaults to FormatYAML.
func WithFormat(f Format) StringifyOption {
	return func(o *stringifyOptions) {
		o.format = f
	}
}

// Parse splits text into metadata, data and content.
// A document without a header is valid and yields empty Data.
func Parse(text string, opts ...ParseOption) (Document, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	h, err := SplitHeader(text)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Data:    make(map[string]any),
		Content: h.Content,
	}
	if !h.Present {
		return doc, nil
	}

	fields, err := h.Fields()
	if err != nil {
		return Document{}, err
	}
	if len(fields) == 0 && !o.allowEmptyHeader {
		// Stringify writes an empty header in front of a body that starts
		// with a marker line.
		if _, ok := openingMarker(h.Content); !ok {
			return Document{}, &ParseError{Reason: "header has no keys"}
		}
	}

	for _, f := range fields {
		prop, ok := ReservedName(f.Key)
		if !ok {
			doc.Data[f.Key] = f.Value
			continue
		}
		if err := doc.Metadata.set(prop, f.Value); err != nil {
			return Document{}, &ParseError{Key: f.Key, Reason: err.Error()}
		}
	}

	return doc, nil
}

// set assigns a decoded header value to the reserved property p.
func (m *Metadata) set(p Property, v any) error {
	switch p {
	case PropContext:
		m.Context = v
	case PropList:
		m.List = coerceList(v)
	case PropSet:
		m.Set = coerceSet(v)
	case PropReverse:
		if v == nil {
			m.Reverse = false
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("reverse must be a boolean, got %T", v)
		}
		m.Reverse = b
	default:
		s, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		switch p {
		case PropType:
			m.Type = s
		case PropID:
			m.ID = s
		case PropLanguage:
			m.Language = s
		case PropBase:
			m.Base = s
		case PropVocab:
			m.Vocab = s
		}
	}
	return nil
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), nil
	}
	return "", fmt.Errorf("expected a scalar, got %T", v)
}

func coerceList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	}
	return []any{v}
}

// coerceSet wraps scalars and drops repeated members, keeping the first
// occurrence. Members are compared by their JSON encoding so that maps and
// slices can be members too.
func coerceSet(v any) []any {
	items := coerceList(v)
	if items == nil {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]any, 0, len(items))
	for _, item := range items {
		key, err := json.Marshal(item)
		if err != nil {
			key = []byte(fmt.Sprintf("%T:%v", item, item))
		}
		if !seen.Add(fmt.Sprintf("%T:%s", item, key)) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Stringify renders doc back to text: metadata keys first in reserved order,
// then data keys in lexical order, then the body verbatim.
func Stringify(doc Document, opts ...StringifyOption) (string, error) {
	var o stringifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	sigil := SigilDollar
	if o.useAtPrefix {
		sigil = SigilAt
	}

	fields := doc.Metadata.fields()
	for i := range fields {
		fields[i].Key = sigil + fields[i].Key
	}

	for _, f := range sortedFields(doc.Data) {
		if _, reserved := ReservedName(f.Key); reserved {
			return "", fmt.Errorf("%w: %q", ErrReservedKey, f.Key)
		}
		fields = append(fields, f)
	}

	if len(fields) == 0 && !o.forceHeader {
		// A body that opens with a marker line would be read back as a header.
		if _, ok := openingMarker(doc.Content); !ok {
			return doc.Content, nil
		}
	}
	return EncodeHeader(o.format, fields, doc.Content)
}
