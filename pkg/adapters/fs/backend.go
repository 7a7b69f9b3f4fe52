// Package fs stores documents as header-only files on the local filesystem.
//
// A document at path [a b c] lives in <base>/a/b/c<ext>; its data is the
// decoded header and its body is left empty.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

var errMissingHeader = errors.New("missing header")

// Backend implements core.Backend, core.Remover and core.Watchable on a directory tree.
type Backend struct {
	config  Config
	cache   *cache
	mu      sync.RWMutex
	watches int
}

// New creates a filesystem backend. Zero config fields take their defaults.
func New(config Config) *Backend {
	return &Backend{
		config: config.withDefaults(),
		cache:  newCache(),
	}
}

// BasePath returns the root directory of the store.
func (b *Backend) BasePath() string {
	return b.config.BasePath
}

func (b *Backend) filePath(p core.Path) string {
	return filepath.Join(b.config.BasePath, filepath.Join(p...)) + b.config.Extension
}

func (b *Backend) dirPath(p core.Path) string {
	return filepath.Join(b.config.BasePath, filepath.Join(p...))
}

// Write replaces the document at path with a header holding data.
func (b *Backend) Write(ctx context.Context, path core.Path, data core.Data) (core.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := path.Validate(); err != nil {
		return nil, err
	}

	target := b.filePath(path)
	if b.config.createDirectories() {
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	text, err := mdxld.EncodeMap(b.config.Format, data, "")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := atomic.WriteFile(target, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	// atomic.WriteFile creates the temp file with 0600.
	if err := os.Chmod(target, 0644); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	b.cache.Delete(target)
	b.config.Logger.Debug("document written", "path", path.String(), "file", target)
	return data, nil
}

// Read returns the data at path, or nil when no such file exists.
func (b *Backend) Read(ctx context.Context, path core.Path) (core.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return b.readFile(b.filePath(path))
}

func (b *Backend) readFile(file string) (core.Data, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	h, err := mdxld.SplitHeader(string(raw))
	if err != nil {
		return nil, &core.FormatError{Path: file, Err: err}
	}
	if !h.Present {
		return nil, &core.FormatError{Path: file, Err: errMissingHeader}
	}
	m, err := h.Map()
	if err != nil {
		return nil, &core.FormatError{Path: file, Err: err}
	}
	return core.Data(m), nil
}

// List returns {id, ...data} for every document file directly under path.
// An empty path lists the base directory.
func (b *Backend) List(ctx context.Context, path core.Path) ([]core.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(path) > 0 {
		if err := path.Validate(); err != nil {
			return nil, err
		}
	}

	dir := b.dirPath(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []core.Data{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	items := make([]core.Data, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := b.idFromName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}

		file := filepath.Join(dir, entry.Name())
		seen[file] = true

		data, err := b.loadCached(file, entry)
		if err != nil {
			var fe *core.FormatError
			if errors.As(err, &fe) && b.config.ListPolicy == ListSkipInvalid {
				b.config.Logger.Warn("skipping invalid document", "file", file, "error", err)
				continue
			}
			return nil, err
		}
		if data == nil {
			continue
		}
		items = append(items, data.WithID(id))
	}

	b.cache.Prune(dir, seen)
	return items, nil
}

func (b *Backend) loadCached(file string, entry os.DirEntry) (core.Data, error) {
	info, err := entry.Info()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if data, ok := b.cache.Get(file, info.ModTime(), info.Size()); ok {
		return data, nil
	}

	data, err := b.readFile(file)
	if err != nil || data == nil {
		return data, err
	}
	b.cache.Set(file, info.ModTime(), info.Size(), data)
	return data, nil
}

// idFromName strips the configured extension; names without it are not documents.
func (b *Backend) idFromName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, b.config.Extension)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Remove deletes the file at path.
func (b *Backend) Remove(ctx context.Context, path core.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := path.Validate(); err != nil {
		return err
	}

	target := b.filePath(path)
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	b.cache.Delete(target)
	b.config.Logger.Debug("document removed", "path", path.String())
	return nil
}

var (
	_ core.Backend   = (*Backend)(nil)
	_ core.Remover   = (*Backend)(nil)
	_ core.Watchable = (*Backend)(nil)
)
