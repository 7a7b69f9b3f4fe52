// Package typed offers a type-safe view over a collection: document data is
// converted to and from T through its JSON representation.
package typed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mdxdb/mdxdb/pkg/collection"
	"github.com/mdxdb/mdxdb/pkg/core"
)

// Document is a typed view of a stored document.
type Document[T any] struct {
	ID   string
	Data T
	coll *Collection[T]
}

// Save writes the document back through the collection it came from.
func (d *Document[T]) Save(ctx context.Context) error {
	if d.coll == nil {
		return fmt.Errorf("document %q is detached", d.ID)
	}
	saved, err := d.coll.Save(ctx, d.ID, d.Data)
	if err != nil {
		return err
	}
	*d = *saved
	return nil
}

// Page is a typed ListResponse.
type Page[T any] struct {
	Data []*Document[T] `json:"data"`
	Meta core.Meta      `json:"meta"`
}

// Collection wraps a collection.Handler.
type Collection[T any] struct {
	h *collection.Handler
}

// NewCollection creates a typed wrapper around h.
func NewCollection[T any](h *collection.Handler) *Collection[T] {
	return &Collection[T]{h: h}
}

// Handler returns the underlying untyped handler.
func (c *Collection[T]) Handler() *collection.Handler {
	return c.h
}

func (c *Collection[T]) Find(ctx context.Context, opts core.QueryOptions) (*Page[T], error) {
	res, err := c.h.Find(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c.page(res)
}

func (c *Collection[T]) Search(ctx context.Context, q string, opts core.QueryOptions) (*Page[T], error) {
	res, err := c.h.Search(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	return c.page(res)
}

func (c *Collection[T]) FindOne(ctx context.Context, id string) (*Document[T], error) {
	data, err := c.h.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.fromData(id, data)
}

// Create stores v under id, or under a generated id when id is empty.
func (c *Collection[T]) Create(ctx context.Context, id string, v T) (*Document[T], error) {
	data, err := toData(v)
	if err != nil {
		return nil, err
	}
	if id != "" {
		data = data.WithID(id)
	}
	created, err := c.h.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	return c.fromData(created.ID(), created)
}

// Update merges the JSON fields of v over the stored document; fields tagged
// omitempty are left untouched when zero.
func (c *Collection[T]) Update(ctx context.Context, id string, v T) (*Document[T], error) {
	data, err := toData(v)
	if err != nil {
		return nil, err
	}
	updated, err := c.h.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	return c.fromData(id, updated)
}

// Save creates the document when absent and merges over it otherwise.
func (c *Collection[T]) Save(ctx context.Context, id string, v T) (*Document[T], error) {
	doc, err := c.Update(ctx, id, v)
	if err == nil || !errors.Is(err, core.ErrNotFound) {
		return doc, err
	}
	return c.Create(ctx, id, v)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) (*Document[T], error) {
	deleted, err := c.h.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.fromData(id, deleted)
}

func (c *Collection[T]) page(res core.ListResponse) (*Page[T], error) {
	out := &Page[T]{Data: make([]*Document[T], 0, len(res.Data)), Meta: res.Meta}
	for _, d := range res.Data {
		doc, err := c.fromData(d.ID(), d)
		if err != nil {
			return nil, fmt.Errorf("failed to process document %s: %w", d.ID(), err)
		}
		out.Data = append(out.Data, doc)
	}
	return out, nil
}

func (c *Collection[T]) fromData(id string, data core.Data) (*Document[T], error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("data marshal failed: %w", err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return &Document[T]{ID: id, Data: v, coll: c}, nil
}

func toData(v any) (core.Data, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	var data core.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}
	return data, nil
}
