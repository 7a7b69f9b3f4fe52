package platform

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/mdxdb/mdxdb/pkg/collection"
	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/proxy"
)

// DB ties a backend to the collection handlers and path proxies built on it.
type DB struct {
	backend core.Backend
	closeFn func() error
	logger  *slog.Logger
	idGen   func() string
	adapter string

	mu          sync.Mutex
	collections map[string]*collection.Handler
	closed      bool
}

// New opens a database.
//
//	db, err := mdxdb.Open(ctx, ".db", mdxdb.WithFileExtension(".md"))
//
// The uri argument is adapter-specific (see Init).
func New(ctx context.Context, uri string, opts ...Option) (*DB, error) {
	o := resolve(opts)
	backend, closeFn, err := initBackend(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	adapter := o.adapter
	if o.backend != nil {
		adapter = fmt.Sprintf("%T", o.backend)
	}
	o.logger.Debug("database opened", "adapter", adapter, "uri", uri)

	return &DB{
		backend:     backend,
		closeFn:     closeFn,
		logger:      o.logger,
		idGen:       o.idGen,
		adapter:     adapter,
		collections: make(map[string]*collection.Handler),
	}, nil
}

// Backend returns the storage backend.
func (db *DB) Backend() core.Backend {
	return db.backend
}

// Collection returns the handler for name, creating it on first use.
// Nested collections use slash separated names.
func (db *DB) Collection(name string) *collection.Handler {
	db.mu.Lock()
	defer db.mu.Unlock()

	if h, ok := db.collections[name]; ok {
		return h
	}
	opts := []collection.Option{collection.WithLogger(db.logger)}
	if db.idGen != nil {
		opts = append(opts, collection.WithIDGenerator(db.idGen))
	}
	h := collection.New(db.backend, name, opts...)
	db.collections[name] = h
	return h
}

// At returns a path proxy positioned at segs.
func (db *DB) At(segs ...string) *proxy.Node {
	return proxy.New(db.backend).At(segs...)
}

// Close releases the connections held by the backend. It is safe to call twice.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.closeFn()
}

// DBState exposes internal state for observability.
type DBState struct {
	Adapter     string   `json:"adapter"`
	Collections []string `json:"collections"`
	Backend     any      `json:"backend,omitempty"`
	Closed      bool     `json:"closed"`
}

// State implements introspection.Introspectable.
func (db *DB) State() any {
	db.mu.Lock()
	defer db.mu.Unlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	slices.Sort(names)

	state := DBState{Adapter: db.adapter, Collections: names, Closed: db.closed}
	if in, ok := db.backend.(introspection.Introspectable); ok {
		state.Backend = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (db *DB) ComponentType() string {
	return "database"
}

var _ introspection.Introspectable = (*DB)(nil)
var _ introspection.Component = (*DB)(nil)
