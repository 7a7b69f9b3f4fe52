// Package external maps the backend contract onto a document store reached
// through an injected Client. The segments before a document's id name its
// collection; the id is the store's primary key.
package external

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/introspection"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// PageSize is the number of documents requested per Find call while listing.
const PageSize = 1000

// Config holds the dependencies for the external backend.
type Config struct {
	Client Client
	// MaxDocs caps List. Zero means no cap.
	MaxDocs int
	Logger  *slog.Logger
}

// Backend implements core.Backend and core.Remover over a Client.
type Backend struct {
	client  Client
	maxDocs int
	logger  *slog.Logger
}

// New creates an external backend. It panics if config.Client is nil.
func New(config Config) *Backend {
	if config.Client == nil {
		panic("external: nil Client")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{client: config.Client, maxDocs: config.MaxDocs, logger: logger}
}

func split(p core.Path) (collection, id string) {
	return p.Collection().String(), p.ID()
}

// Write updates the document when it exists and creates it otherwise.
// The existence check and the write are not atomic: a concurrent create of the
// same id surfaces as ErrConflict from the client.
func (b *Backend) Write(ctx context.Context, path core.Path, data core.Data) (core.Data, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, &core.PathError{Path: path, Reason: "missing collection"}
	}
	collection, id := split(path)

	_, err := b.client.FindByID(ctx, collection, id)
	switch {
	case err == nil:
		if _, err := b.client.Update(ctx, collection, id, data); err != nil {
			return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		b.logger.Debug("document updated", "collection", collection, "id", id)
	case IsNotFound(err):
		if _, err := b.client.Create(ctx, collection, data.WithID(id)); err != nil {
			return nil, fmt.Errorf("create %s/%s: %w", collection, id, err)
		}
		b.logger.Debug("document created", "collection", collection, "id", id)
	default:
		return nil, fmt.Errorf("lookup %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Read returns the stored document, or nil when the client reports it missing.
func (b *Backend) Read(ctx context.Context, path core.Path) (core.Data, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	collection, id := split(path)

	doc, err := b.client.FindByID(ctx, collection, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// List pages through the whole collection named by path.
// When MaxDocs is set and exceeded, the first MaxDocs items are returned
// together with an error wrapping core.ErrTruncated.
func (b *Backend) List(ctx context.Context, path core.Path) ([]core.Data, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	collection := path.String()

	items := []core.Data{}
	for page := 1; ; page++ {
		res, err := b.client.Find(ctx, collection, FindQuery{Limit: PageSize, Page: page})
		if err != nil {
			if IsNotFound(err) {
				return []core.Data{}, nil
			}
			return nil, err
		}
		for _, doc := range res.Docs {
			items = append(items, doc.WithID(doc.ID()))
		}

		if b.maxDocs > 0 && len(items) > b.maxDocs {
			total := max(res.TotalDocs, len(items))
			b.logger.Warn("listing truncated", "collection", collection, "max", b.maxDocs, "total", total)
			return items[:b.maxDocs], fmt.Errorf("%w: %s returned %d of %d documents", core.ErrTruncated, collection, b.maxDocs, total)
		}
		if !res.HasNextPage || len(res.Docs) == 0 {
			return items, nil
		}
	}
}

// Remove deletes the document through the client.
func (b *Backend) Remove(ctx context.Context, path core.Path) error {
	if err := path.Validate(); err != nil {
		return err
	}
	collection, id := split(path)

	if err := b.client.Delete(ctx, collection, id); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return err
	}
	return nil
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Client   string `json:"client"`
	PageSize int    `json:"page_size"`
	MaxDocs  int    `json:"max_docs"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	return BackendState{
		Client:   fmt.Sprintf("%T", b.client),
		PageSize: PageSize,
		MaxDocs:  b.maxDocs,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "external-backend"
}

var _ core.Backend = (*Backend)(nil)
var _ core.Remover = (*Backend)(nil)
var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
