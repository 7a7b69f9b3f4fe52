package external

import (
	"context"
	"errors"

	"github.com/mdxdb/mdxdb/pkg/core"
)

var (
	// ErrNotFound is returned by a Client when the document or collection does not exist.
	ErrNotFound = errors.New("external: not found")
	// ErrConflict is returned by Client.Create when the id is already taken.
	ErrConflict = errors.New("external: document already exists")
)

// FindQuery selects one page of a collection. Page is 1-based.
type FindQuery struct {
	Limit int
	Page  int
}

// FindResult is one page of documents as returned by the store.
type FindResult struct {
	Docs        []core.Data
	TotalDocs   int
	HasNextPage bool
}

// Client is the minimal surface of a document store that can host collections.
// Implementations must report missing documents with ErrNotFound (or an error
// exposing StatusCode() == 404).
type Client interface {
	FindByID(ctx context.Context, collection, id string) (core.Data, error)
	Create(ctx context.Context, collection string, data core.Data) (core.Data, error)
	Update(ctx context.Context, collection, id string, data core.Data) (core.Data, error)
	Find(ctx context.Context, collection string, q FindQuery) (FindResult, error)
	Delete(ctx context.Context, collection, id string) error
}

type statusCoder interface {
	StatusCode() int
}

// IsNotFound reports whether err means the addressed resource does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, core.ErrNotFound) {
		return true
	}
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == 404
}
