package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/adapters/external/redis"
	"github.com/mdxdb/mdxdb/pkg/adapters/external/sqlite"
	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/core"
)

func resolve(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

func noopClose() error { return nil }

// Init builds the backend selected by the options.
// The uri argument is adapter-specific: the base directory for "fs", the
// database file for "sqlite", the server address for "redis". It is ignored
// when a backend or client is injected.
//
// The returned close function releases connections opened by Init.
func Init(ctx context.Context, uri string, opts ...Option) (core.Backend, func() error, error) {
	return initBackend(ctx, uri, resolve(opts))
}

func initBackend(ctx context.Context, uri string, o *options) (core.Backend, func() error, error) {
	if o.backend != nil {
		return o.backend, noopClose, nil
	}

	switch o.adapter {
	case AdapterFS, "":
		return initFS(uri, o), noopClose, nil

	case AdapterExternal:
		if o.client == nil {
			return nil, nil, fmt.Errorf("adapter %q requires a client", AdapterExternal)
		}
		return newExternal(o.client, o), noopClose, nil

	case AdapterSQLite:
		if uri == "" {
			uri = "mdxdb.sqlite"
		}
		client, err := sqlite.Open(uri)
		if err != nil {
			return nil, nil, err
		}
		o.logger.Debug("sqlite store opened", "path", client.Path())
		return newExternal(client, o), client.Close, nil

	case AdapterRedis:
		client, err := redis.New(ctx, redis.Options{
			Addr:     uri,
			Password: o.redisPassword,
			DB:       o.redisDB,
			Prefix:   o.redisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		o.logger.Debug("redis store connected", "addr", uri)
		return newExternal(client, o), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown adapter: %s", o.adapter)
}

// initFS handles the configuration of the filesystem adapter.
func initFS(basePath string, o *options) *fs.Backend {
	return fs.New(fs.Config{
		BasePath:          basePath,
		Extension:         o.extension,
		CreateDirectories: o.createDirectories,
		Format:            o.format,
		ListPolicy:        o.listPolicy,
		EventBuffer:       o.eventBuffer,
		Logger:            o.logger,
		ErrorHandler:      o.errorHandler,
	})
}

func newExternal(c external.Client, o *options) *external.Backend {
	return external.New(external.Config{
		Client:  c,
		MaxDocs: o.maxDocs,
		Logger:  o.logger,
	})
}
