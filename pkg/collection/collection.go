// Package collection binds a backend to a named collection and exposes the
// document CRUD, search and pagination operations.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/query"
)

// Option configures a Handler.
type Option func(*Handler)

// WithIDGenerator sets the function used by Create when data carries no id.
func WithIDGenerator(gen func() string) Option {
	return func(h *Handler) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handler runs collection operations against a backend.
// Tombstoned documents are invisible to every operation of the handler.
type Handler struct {
	backend core.Backend
	name    string
	path    core.Path
	newID   func() string
	logger  *slog.Logger
}

// New binds backend to the collection called name. Nested collections use
// slash separated names, e.g. "blog/posts".
func New(backend core.Backend, name string, opts ...Option) *Handler {
	h := &Handler{
		backend: backend,
		name:    name,
		path:    core.NewPath(name),
		newID:   GenerateID,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the collection name.
func (h *Handler) Name() string {
	return h.name
}

func (h *Handler) notFound(id string) error {
	return &core.NotFoundError{Collection: h.name, ID: id}
}

// live lists the collection without tombstones.
func (h *Handler) live(ctx context.Context) ([]core.Data, error) {
	docs, err := h.backend.List(ctx, h.path)
	if err != nil {
		return nil, err
	}
	out := make([]core.Data, 0, len(docs))
	for _, d := range docs {
		if !d.Deleted() {
			out = append(out, d)
		}
	}
	return out, nil
}

// get reads id, treating a tombstone like a missing document.
func (h *Handler) get(ctx context.Context, id string) (core.Data, error) {
	data, err := h.backend.Read(ctx, h.path.Child(id))
	if err != nil {
		return nil, err
	}
	if data == nil || data.Deleted() {
		return nil, h.notFound(id)
	}
	return data, nil
}

// Find lists the collection, then filters, sorts and paginates it.
func (h *Handler) Find(ctx context.Context, opts core.QueryOptions) (core.ListResponse, error) {
	docs, err := h.live(ctx)
	if err != nil {
		return core.ListResponse{}, fmt.Errorf("find in %s: %w", h.name, err)
	}
	return query.Apply(docs, opts), nil
}

// FindOne returns {id, ...data} for id.
func (h *Handler) FindOne(ctx context.Context, id string) (core.Data, error) {
	data, err := h.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return data.WithID(id), nil
}

// Create writes data under data["id"] when it is a non-empty string, or under
// a generated id otherwise.
func (h *Handler) Create(ctx context.Context, data core.Data) (core.Data, error) {
	id := data.ID()
	if id == "" {
		id = h.newID()
	}

	written, err := h.backend.Write(ctx, h.path.Child(id), data)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("document created", "collection", h.name, "id", id)
	return written.WithID(id), nil
}

// Update shallow-merges data over the stored document.
func (h *Handler) Update(ctx context.Context, id string, data core.Data) (core.Data, error) {
	existing, err := h.get(ctx, id)
	if err != nil {
		return nil, err
	}

	written, err := h.backend.Write(ctx, h.path.Child(id), existing.Merge(data))
	if err != nil {
		return nil, err
	}
	h.logger.Debug("document updated", "collection", h.name, "id", id)
	return written.WithID(id), nil
}

// Delete replaces the document with a tombstone and returns what was there.
func (h *Handler) Delete(ctx context.Context, id string) (core.Data, error) {
	existing, err := h.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := h.backend.Write(ctx, h.path.Child(id), core.Data{core.DeletedKey: true}); err != nil {
		return nil, err
	}
	h.logger.Debug("document deleted", "collection", h.name, "id", id)
	return existing.WithID(id), nil
}

// Search keeps documents with a string field containing q, then filters,
// sorts and paginates them.
func (h *Handler) Search(ctx context.Context, q string, opts core.QueryOptions) (core.ListResponse, error) {
	docs, err := h.live(ctx)
	if err != nil {
		return core.ListResponse{}, fmt.Errorf("search in %s: %w", h.name, err)
	}
	return query.Apply(query.Search(docs, q), opts), nil
}

// Purge physically removes id, tombstoned or not.
// It returns core.ErrUnsupported when the backend cannot remove documents.
func (h *Handler) Purge(ctx context.Context, id string) error {
	r, ok := h.backend.(core.Remover)
	if !ok {
		return fmt.Errorf("purge: %w", core.ErrUnsupported)
	}
	if err := r.Remove(ctx, h.path.Child(id)); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return h.notFound(id)
		}
		return err
	}
	h.logger.Debug("document purged", "collection", h.name, "id", id)
	return nil
}

// Watch observes changes in the collection if the backend supports it.
func (h *Handler) Watch(ctx context.Context) (<-chan core.Event, error) {
	w, ok := h.backend.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("watch: %w", core.ErrUnsupported)
	}
	return w.Watch(ctx, h.path)
}
