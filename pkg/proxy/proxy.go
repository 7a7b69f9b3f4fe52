// Package proxy addresses documents by chaining path segments:
//
//	node := proxy.New(backend).At("blog", "categories", "tech", "articles")
//	node.Set(ctx, "nested-article", core.Data{"title": "Nested"})
//
// A Node holds only its backend and its accumulated path; At never mutates
// the receiver.
package proxy

import (
	"context"
	"slices"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// Node is a position in the path tree of a backend.
type Node struct {
	backend core.Backend
	path    core.Path
}

// New returns the root node of backend.
func New(backend core.Backend) *Node {
	return &Node{backend: backend}
}

// At returns the node reached by appending segs. Segments containing slashes
// are split, so At("a/b") is At("a", "b").
func (n *Node) At(segs ...string) *Node {
	path := slices.Clone(n.path)
	for _, s := range segs {
		path = append(path, core.NewPath(s)...)
	}
	return &Node{backend: n.backend, path: path}
}

// Path returns a copy of the accumulated segments.
func (n *Node) Path() core.Path {
	return slices.Clone(n.path)
}

// Get reads the document id under this node; nil when absent.
func (n *Node) Get(ctx context.Context, id string) (core.Data, error) {
	return n.backend.Read(ctx, n.path.Child(id))
}

// Set writes data as the document id under this node.
func (n *Node) Set(ctx context.Context, id string, data core.Data) (core.Data, error) {
	return n.backend.Write(ctx, n.path.Child(id), data)
}

// List returns the documents directly under this node.
func (n *Node) List(ctx context.Context) ([]core.Data, error) {
	return n.backend.List(ctx, n.path)
}
