package mdxld

// Property names a reserved metadata property.
type Property string

const (
	PropType     Property = "type"
	PropContext  Property = "context"
	PropID       Property = "id"
	PropLanguage Property = "language"
	PropBase     Property = "base"
	PropVocab    Property = "vocab"
	PropList     Property = "list"
	PropSet      Property = "set"
	PropReverse  Property = "reverse"
)

// Properties lists the reserved properties in serialization order.
var Properties = []Property{
	PropType, PropContext, PropID, PropLanguage, PropBase, PropVocab, PropList, PropSet, PropReverse,
}

// Sigils that mark a header key as a candidate metadata property.
const (
	SigilAt     = "@"
	SigilDollar = "$"
)

// IsReserved reports whether name (without sigil) is a reserved property.
func IsReserved(name string) bool {
	for _, p := range Properties {
		if string(p) == name {
			return true
		}
	}
	return false
}

// ReservedName returns the property named by key when key carries a sigil
// and names a reserved property.
func ReservedName(key string) (Property, bool) {
	if len(key) < 2 || (key[:1] != SigilAt && key[:1] != SigilDollar) {
		return "", false
	}
	name := key[1:]
	if !IsReserved(name) {
		return "", false
	}
	return Property(name), true
}

// Metadata holds the reserved properties of a document.
// Zero values mean "absent".
type Metadata struct {
	Type     string `json:"type,omitempty"`
	Context  any    `json:"context,omitempty"` // URI string or inline object
	ID       string `json:"id,omitempty"`
	Language string `json:"language,omitempty"`
	Base     string `json:"base,omitempty"`
	Vocab    string `json:"vocab,omitempty"`
	List     []any  `json:"list,omitempty"`
	Set      []any  `json:"set,omitempty"` // uniqued, first occurrence order
	Reverse  bool   `json:"reverse,omitempty"`
}

// IsZero reports whether no property is set.
func (m Metadata) IsZero() bool {
	return m.Type == "" && m.Context == nil && m.ID == "" && m.Language == "" &&
		m.Base == "" && m.Vocab == "" && m.List == nil && m.Set == nil && !m.Reverse
}

// fields returns the set properties in serialization order.
func (m Metadata) fields() []Field {
	var out []Field
	add := func(p Property, v any) {
		out = append(out, Field{Key: string(p), Value: v})
	}
	if m.Type != "" {
		add(PropType, m.Type)
	}
	if m.Context != nil {
		add(PropContext, m.Context)
	}
	if m.ID != "" {
		add(PropID, m.ID)
	}
	if m.Language != "" {
		add(PropLanguage, m.Language)
	}
	if m.Base != "" {
		add(PropBase, m.Base)
	}
	if m.Vocab != "" {
		add(PropVocab, m.Vocab)
	}
	if m.List != nil {
		add(PropList, m.List)
	}
	if m.Set != nil {
		add(PropSet, m.Set)
	}
	if m.Reverse {
		add(PropReverse, true)
	}
	return out
}

// Document is a parsed text document.
type Document struct {
	Metadata
	Data    map[string]any `json:"data"`
	Content string         `json:"content"`
}

// Field is a single header entry, in document order.
type Field struct {
	Key   string
	Value any
}
