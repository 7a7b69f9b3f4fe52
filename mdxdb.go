package mdxdb

import (
	"context"
	"log/slog"

	"github.com/mdxdb/mdxdb/internal/platform"
	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/collection"
	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/mdxld"
	"github.com/mdxdb/mdxdb/pkg/typed"
)

// --- Types ---

// DB is an open database: a backend plus the collection handlers built on it.
type DB = platform.DB

// Data is the in-memory form of a document.
type Data = core.Data

// QueryOptions drive Find and Search.
type QueryOptions = core.QueryOptions

// Collection is a public alias for the collection handler.
type Collection = collection.Handler

// TypedCollection is a public alias for the generic typed view.
type TypedCollection[T any] = typed.Collection[T]

// --- Adapters ---

const (
	AdapterFS       = platform.AdapterFS
	AdapterSQLite   = platform.AdapterSQLite
	AdapterRedis    = platform.AdapterRedis
	AdapterExternal = platform.AdapterExternal
)

// --- Configuration ---

// Option defines a functional option for configuring a database.
type Option = platform.Option

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a custom storage backend.
func WithBackend(b core.Backend) Option {
	return platform.WithBackend(b)
}

// WithClient injects an external store client.
func WithClient(c external.Client) Option {
	return platform.WithClient(c)
}

// WithLogger sets the logger for the database.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithIDGenerator replaces the generator used for documents created without an id.
func WithIDGenerator(gen func() string) Option {
	return platform.WithIDGenerator(gen)
}

// WithFileExtension sets the document file extension of the filesystem adapter.
func WithFileExtension(ext string) Option {
	return platform.WithFileExtension(ext)
}

// WithCreateDirectories controls whether the filesystem adapter creates missing directories.
func WithCreateDirectories(enabled bool) Option {
	return platform.WithCreateDirectories(enabled)
}

// WithFormat selects the header format written by the filesystem adapter.
func WithFormat(f mdxld.Format) Option {
	return platform.WithFormat(f)
}

// WithListPolicy sets how listings treat unparsable files.
func WithListPolicy(p fs.ListPolicy) Option {
	return platform.WithListPolicy(p)
}

// WithEventBuffer sets the buffer size of watch channels.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler receives errors raised by watch loops.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithMaxDocs caps the number of documents an external listing returns.
func WithMaxDocs(n int) Option {
	return platform.WithMaxDocs(n)
}

// WithRedisAuth sets the password and database index of the redis adapter.
func WithRedisAuth(password string, db int) Option {
	return platform.WithRedisAuth(password, db)
}

// WithRedisPrefix sets the key prefix of the redis adapter.
func WithRedisPrefix(prefix string) Option {
	return platform.WithRedisPrefix(prefix)
}

// --- Factory ---

// Open opens a database. For the filesystem adapter uri is the base
// directory, for sqlite the database file and for redis the server address.
func Open(ctx context.Context, uri string, opts ...Option) (*DB, error) {
	return platform.New(ctx, uri, opts...)
}

// NewTyped returns a typed view of the named collection.
func NewTyped[T any](db *DB, name string) *TypedCollection[T] {
	return typed.NewCollection[T](db.Collection(name))
}

// --- Utils ---

// ConfigFileName marks the root of an mdxdb project.
const ConfigFileName = platform.ConfigFileName

// FindRoot looks upwards from startDir for a directory holding ConfigFileName.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// Document is a parsed structured text document.
type Document = mdxld.Document

// Parse splits text into reserved metadata, data and content.
func Parse(text string) (Document, error) {
	return mdxld.Parse(text)
}

// Stringify renders doc back to text.
func Stringify(doc Document) (string, error) {
	return mdxld.Stringify(doc)
}
