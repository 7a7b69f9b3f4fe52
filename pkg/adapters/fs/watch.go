package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// Watch streams changes to the documents directly under path. The channel is
// closed when ctx is cancelled.
func (b *Backend) Watch(ctx context.Context, path core.Path) (<-chan core.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(path) > 0 {
		if err := path.Validate(); err != nil {
			return nil, err
		}
	}

	dir := b.dirPath(path)
	if b.config.createDirectories() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	known := make(map[string]bool)
	if entries, err := os.ReadDir(dir); err == nil {
		for _, entry := range entries {
			if id, ok := b.idFromName(entry.Name()); ok && !entry.IsDir() {
				known[id] = true
			}
		}
	}

	w := &collectionWatch{
		backend: b,
		path:    path,
		watcher: watcher,
		known:   known,
		events:  make(chan core.Event, b.config.EventBuffer),
	}

	b.setWatching(1)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if b.config.ErrorHandler != nil {
			b.config.ErrorHandler(fmt.Errorf("watch %s: %w", path, err))
		} else {
			b.config.Logger.Error("watch loop failed", "path", path.String(), "error", err)
		}
	}))

	b.config.Logger.Debug("watching collection", "path", path.String(), "dir", dir)
	return w.events, nil
}

type collectionWatch struct {
	backend *Backend
	path    core.Path
	watcher *fsnotify.Watcher
	known   map[string]bool
	events  chan core.Event
}

func (w *collectionWatch) run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
		close(w.events)
		w.backend.setWatching(-1)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			e, ok := w.translate(event)
			if !ok {
				continue
			}
			select {
			case w.events <- e:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.backend.config.Logger.Error("fsnotify error", "error", err)
			if w.backend.config.ErrorHandler != nil {
				w.backend.config.ErrorHandler(err)
			}
		}
	}
}

// translate maps a raw filesystem event to a document event.
// A create for a file already seen is reported as a modification, which is
// what an atomic replace looks like.
func (w *collectionWatch) translate(event fsnotify.Event) (core.Event, bool) {
	id, ok := w.backend.idFromName(filepath.Base(event.Name))
	if !ok {
		return core.Event{}, false
	}
	w.backend.cache.Delete(event.Name)

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, err := os.Stat(event.Name); err == nil {
			// replaced again before the event was handled
			typ = core.EventModify
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return core.Event{}, false
		}
		typ = core.EventDelete
		delete(w.known, id)
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
		if w.known[id] {
			typ = core.EventModify
		}
		w.known[id] = true
	case event.Has(fsnotify.Write):
		typ = core.EventModify
		w.known[id] = true
	default:
		return core.Event{}, false
	}

	return core.Event{
		Type:      typ,
		Path:      w.path.Child(id),
		Timestamp: time.Now().Unix(),
	}, true
}

func (b *Backend) setWatching(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watches += delta
}
