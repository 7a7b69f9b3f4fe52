// Package core holds the storage-agnostic domain of mdxdb: document data,
// path identity, the backend contract and the error taxonomy shared by every
// adapter.
package core

import (
	"maps"
	"strings"
)

// IDKey is the field under which a listed document exposes its identifier.
const IDKey = "id"

// DeletedKey marks a tombstoned document.
const DeletedKey = "_deleted"

// Data is the structured content of a document: the decoded header fields.
type Data map[string]any

// Clone returns a shallow copy of d. A nil Data clones to nil.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// DeepClone copies d and every nested map and slice, so the result shares
// no mutable state with d.
func (d Data) DeepClone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case Data:
		return x.DeepClone()
	case map[string]any:
		if x == nil {
			return x
		}
		return map[string]any(Data(x).DeepClone())
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	}
	return v
}

// WithID returns {id, ...d}. A stored "id" field wins over the given id.
func (d Data) WithID(id string) Data {
	out := make(Data, len(d)+1)
	out[IDKey] = id
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ID returns the "id" field when it is a string.
func (d Data) ID() string {
	if s, ok := d[IDKey].(string); ok {
		return s
	}
	return ""
}

// Deleted reports whether d is a tombstone.
func (d Data) Deleted() bool {
	v, _ := d[DeletedKey].(bool)
	return v
}

// Merge returns a shallow merge of patch over d.
func (d Data) Merge(patch Data) Data {
	out := make(Data, len(d)+len(patch))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Path addresses a document or a collection as an ordered list of segments.
// For a document path the last segment is the identifier and the preceding
// segments form its collection.
type Path []string

// NewPath splits a slash separated string into a Path.
// Leading, trailing and repeated slashes are ignored.
func NewPath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// ID returns the last segment.
func (p Path) ID() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Collection returns every segment but the last.
func (p Path) Collection() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Child returns a new path with segs appended. p is never modified.
func (p Path) Child(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// String joins the segments with slashes.
func (p Path) String() string {
	return strings.Join(p, "/")
}

// Validate rejects paths that could escape their namespace.
func (p Path) Validate() error {
	if len(p) == 0 {
		return &PathError{Path: p, Reason: "empty path"}
	}
	for _, seg := range p {
		switch {
		case seg == "":
			return &PathError{Path: p, Reason: "empty segment"}
		case seg == "." || seg == "..":
			return &PathError{Path: p, Reason: "relative segment " + seg}
		case strings.ContainsAny(seg, `/\`):
			return &PathError{Path: p, Reason: "segment contains a separator"}
		}
	}
	return nil
}

// EventType is the kind of change observed on a collection.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event is a change notification emitted by a Watchable backend.
type Event struct {
	Type      EventType
	Path      Path
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Path.String()
}
