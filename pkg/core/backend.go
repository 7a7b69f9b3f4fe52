package core

import "context"

// Backend is the contract every storage adapter fulfils.
// Adapters normalize missing resources into sentinel values: Read returns a nil
// Data and a nil error, List returns an empty slice. Every other failure is
// returned unchanged.
type Backend interface {
	// Write persists data at path, replacing any previous content, and returns
	// the data written.
	Write(ctx context.Context, path Path, data Data) (Data, error)

	// Read returns the data stored at path, or nil if nothing is stored there.
	Read(ctx context.Context, path Path) (Data, error)

	// List returns {id, ...data} for every document directly under path.
	List(ctx context.Context, path Path) ([]Data, error)
}

// Remover is implemented by backends able to physically delete a document.
type Remover interface {
	// Remove deletes the document at path. It returns ErrNotFound when absent.
	Remove(ctx context.Context, path Path) error
}

// Watchable is implemented by backends that can stream change notifications.
type Watchable interface {
	Watch(ctx context.Context, path Path) (<-chan Event, error)
}

// QueryOptions drive Find and Search.
type QueryOptions struct {
	Limit int            `json:"limit,omitempty"`
	Page  int            `json:"page,omitempty"`
	Sort  []string       `json:"sort,omitempty"`
	Where map[string]any `json:"where,omitempty"`
}

// Meta describes the page returned in a ListResponse.
type Meta struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	HasNextPage bool `json:"hasNextPage"`
}

// ListResponse is a page of documents plus pagination metadata.
type ListResponse struct {
	Data []Data `json:"data"`
	Meta Meta   `json:"meta"`
}
