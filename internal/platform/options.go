package platform

import (
	"log/slog"

	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

// Backend names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterRedis  = "redis"
	// AdapterExternal uses the client injected with WithClient.
	AdapterExternal = "external"
	// AdapterFilesystem is the long name of AdapterFS.
	AdapterFilesystem = "filesystem"
)

// CanonicalAdapter maps adapter aliases to the names used internally.
func CanonicalAdapter(name string) string {
	if name == AdapterFilesystem {
		return AdapterFS
	}
	return name
}

// options holds the internal configuration for a database.
type options struct {
	backend core.Backend
	client  external.Client
	adapter string
	logger  *slog.Logger
	idGen   func() string

	// filesystem
	extension         string
	createDirectories *bool
	format            mdxld.Format
	listPolicy        fs.ListPolicy
	eventBuffer       int
	errorHandler      func(error)

	// external stores
	maxDocs       int
	redisPassword string
	redisDB       int
	redisPrefix   string
}

// Option defines a functional option for configuring a database.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
	}
}

// WithBackend injects a ready backend; the adapter and its settings are ignored.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithClient injects an external store client and selects the external adapter.
func WithClient(c external.Client) Option {
	return func(o *options) {
		o.client = c
		o.adapter = AdapterExternal
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = CanonicalAdapter(name)
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIDGenerator sets the generator used by collections for documents without an id.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.idGen = gen
	}
}

// WithFileExtension sets the document file extension. Defaults to ".mdx".
func WithFileExtension(ext string) Option {
	return func(o *options) {
		o.extension = ext
	}
}

// WithCreateDirectories controls whether missing directories are created on write.
// Enabled by default.
func WithCreateDirectories(enabled bool) Option {
	return func(o *options) {
		o.createDirectories = &enabled
	}
}

// WithFormat selects the header syntax of written files.
func WithFormat(f mdxld.Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithListPolicy decides how listings treat documents that fail to parse.
func WithListPolicy(p fs.ListPolicy) Option {
	return func(o *options) {
		o.listPolicy = p
	}
}

// WithEventBuffer sets the buffer size of watch channels. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithWatcherErrorHandler registers a callback for errors raised inside watch loops.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithMaxDocs caps listings of external stores. Zero means no cap.
func WithMaxDocs(n int) Option {
	return func(o *options) {
		o.maxDocs = n
	}
}

// WithRedisAuth sets the password and database index for the redis adapter.
func WithRedisAuth(password string, db int) Option {
	return func(o *options) {
		o.redisPassword = password
		o.redisDB = db
	}
}

// WithRedisPrefix namespaces the keys written by the redis adapter.
func WithRedisPrefix(prefix string) Option {
	return func(o *options) {
		o.redisPrefix = prefix
	}
}
