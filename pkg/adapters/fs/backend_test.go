package fs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/core"
	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

func setupBackend(t *testing.T, mutate ...func(*fs.Config)) (*fs.Backend, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), ".db")
	cfg := fs.Config{
		BasePath: base,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return fs.New(cfg), base
}

func writeRaw(t *testing.T, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()

	t.Run("Round Trip", func(t *testing.T) {
		b, base := setupBackend(t)
		data := core.Data{"title": "Hello", "tags": []any{"a", "b"}, "$custom": "kept"}

		written, err := b.Write(ctx, core.Path{"posts", "hello"}, data)
		require.NoError(t, err)
		assert.Equal(t, data, written)

		info, err := os.Stat(filepath.Join(base, "posts", "hello.mdx"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

		got, err := b.Read(ctx, core.Path{"posts", "hello"})
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Numbers Keep Their Kind", func(t *testing.T) {
		b, _ := setupBackend(t)
		data := core.Data{
			"n":    float64(3),
			"half": 0.5,
			"i":    4,
			"m":    map[string]any{"a": float64(1), "list": []any{float64(2), "x"}},
		}

		_, err := b.Write(ctx, core.Path{"nums", "a"}, data)
		require.NoError(t, err)

		got, err := b.Read(ctx, core.Path{"nums", "a"})
		require.NoError(t, err)
		if diff := cmp.Diff(data, got); diff != "" {
			t.Errorf("write-then-read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nested Path", func(t *testing.T) {
		b, base := setupBackend(t)
		p := core.NewPath("blog/categories/tech/articles/nested-article")
		_, err := b.Write(ctx, p, core.Data{"title": "Nested"})
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(base, "blog", "categories", "tech", "articles", "nested-article.mdx"))
		assert.NoError(t, err)
	})

	t.Run("Empty Data Still Writes Header", func(t *testing.T) {
		b, base := setupBackend(t)
		_, err := b.Write(ctx, core.Path{"c", "empty"}, core.Data{})
		require.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(base, "c", "empty.mdx"))
		require.NoError(t, err)
		assert.Equal(t, "---\n{}\n---\n", string(raw))

		got, err := b.Read(ctx, core.Path{"c", "empty"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Overwrite Replaces", func(t *testing.T) {
		b, _ := setupBackend(t)
		p := core.Path{"c", "x"}
		_, err := b.Write(ctx, p, core.Data{"a": 1, "b": 2})
		require.NoError(t, err)
		_, err = b.Write(ctx, p, core.Data{"a": 3})
		require.NoError(t, err)

		got, err := b.Read(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, core.Data{"a": 3}, got)
	})

	t.Run("TOML Headers", func(t *testing.T) {
		b, base := setupBackend(t, func(c *fs.Config) { c.Format = mdxld.FormatTOML })
		_, err := b.Write(ctx, core.Path{"c", "t"}, core.Data{"title": "T"})
		require.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(base, "c", "t.mdx"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), "+++\n")

		got, err := b.Read(ctx, core.Path{"c", "t"})
		require.NoError(t, err)
		assert.Equal(t, "T", got["title"])
	})

	t.Run("Directories Not Created When Disabled", func(t *testing.T) {
		off := false
		b, _ := setupBackend(t, func(c *fs.Config) { c.CreateDirectories = &off })
		_, err := b.Write(ctx, core.Path{"missing", "doc"}, core.Data{"a": 1})
		assert.Error(t, err)
	})

	t.Run("Invalid Path", func(t *testing.T) {
		b, _ := setupBackend(t)
		_, err := b.Write(ctx, core.Path{"..", "escape"}, core.Data{})
		assert.True(t, errors.Is(err, core.ErrInvalidPath))
		_, err = b.Read(ctx, core.Path{})
		assert.True(t, errors.Is(err, core.ErrInvalidPath))
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		b, _ := setupBackend(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := b.Write(cctx, core.Path{"c", "x"}, core.Data{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Is Nil", func(t *testing.T) {
		b, _ := setupBackend(t)
		got, err := b.Read(ctx, core.Path{"nothing", "here"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("No Header Is Format Error", func(t *testing.T) {
		b, base := setupBackend(t)
		writeRaw(t, filepath.Join(base, "c", "plain.mdx"), "# just a body\n")

		_, err := b.Read(ctx, core.Path{"c", "plain"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrFormat))

		var fe *core.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe.Path, "plain.mdx")
	})

	t.Run("Malformed Header Is Format Error", func(t *testing.T) {
		b, base := setupBackend(t)
		writeRaw(t, filepath.Join(base, "c", "bad.mdx"), "---\ntitle: [oops\n---\n")

		_, err := b.Read(ctx, core.Path{"c", "bad"})
		assert.True(t, errors.Is(err, core.ErrFormat))
		assert.True(t, errors.Is(err, mdxld.ErrMalformedHeader))
	})

	t.Run("Body Is Ignored", func(t *testing.T) {
		b, base := setupBackend(t)
		writeRaw(t, filepath.Join(base, "c", "body.mdx"), "---\ntitle: Hi\n---\n# Hi\n\ntext\n")

		got, err := b.Read(ctx, core.Path{"c", "body"})
		require.NoError(t, err)
		assert.Equal(t, core.Data{"title": "Hi"}, got)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Directory Is Empty", func(t *testing.T) {
		b, _ := setupBackend(t)
		items, err := b.List(ctx, core.Path{"nope"})
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("Items Carry ID", func(t *testing.T) {
		b, base := setupBackend(t)
		for _, id := range []string{"a", "b"} {
			_, err := b.Write(ctx, core.Path{"posts", id}, core.Data{"title": "T " + id})
			require.NoError(t, err)
		}
		writeRaw(t, filepath.Join(base, "posts", "notes.txt"), "ignored")
		require.NoError(t, os.MkdirAll(filepath.Join(base, "posts", "dir.mdx"), 0755))

		items, err := b.List(ctx, core.Path{"posts"})
		require.NoError(t, err)
		assert.Equal(t, []core.Data{
			{"id": "a", "title": "T a"},
			{"id": "b", "title": "T b"},
		}, items)
	})

	t.Run("Stored ID Wins", func(t *testing.T) {
		b, _ := setupBackend(t)
		_, err := b.Write(ctx, core.Path{"c", "file"}, core.Data{"id": "custom"})
		require.NoError(t, err)

		items, err := b.List(ctx, core.Path{"c"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "custom", items[0].ID())
	})

	t.Run("Fail Fast On Invalid Document", func(t *testing.T) {
		b, base := setupBackend(t)
		_, err := b.Write(ctx, core.Path{"c", "ok"}, core.Data{"a": 1})
		require.NoError(t, err)
		writeRaw(t, filepath.Join(base, "c", "broken.mdx"), "no header")

		_, err = b.List(ctx, core.Path{"c"})
		assert.True(t, errors.Is(err, core.ErrFormat))
	})

	t.Run("Skip Invalid Document", func(t *testing.T) {
		b, base := setupBackend(t, func(c *fs.Config) { c.ListPolicy = fs.ListSkipInvalid })
		_, err := b.Write(ctx, core.Path{"c", "ok"}, core.Data{"a": 1})
		require.NoError(t, err)
		writeRaw(t, filepath.Join(base, "c", "broken.mdx"), "no header")

		items, err := b.List(ctx, core.Path{"c"})
		require.NoError(t, err)
		assert.Equal(t, []core.Data{{"id": "ok", "a": 1}}, items)
	})

	t.Run("Custom Extension", func(t *testing.T) {
		b, base := setupBackend(t, func(c *fs.Config) { c.Extension = "md" })
		_, err := b.Write(ctx, core.Path{"c", "x"}, core.Data{"a": 1})
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(base, "c", "x.md"))
		require.NoError(t, err)

		items, err := b.List(ctx, core.Path{"c"})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestListCache(t *testing.T) {
	ctx := context.Background()
	b, base := setupBackend(t)

	_, err := b.Write(ctx, core.Path{"c", "x"}, core.Data{"v": 1})
	require.NoError(t, err)

	_, err = b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	state := b.State().(fs.BackendState)
	assert.Equal(t, 1, state.CacheSize)

	// Edit behind the backend's back with a different size so the entry is stale.
	writeRaw(t, filepath.Join(base, "c", "x.mdx"), "---\nv: 22\n---\n")
	items, err := b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	assert.Equal(t, []core.Data{{"id": "x", "v": 22}}, items)

	// Returned items are copies.
	items[0]["v"] = "mutated"
	again, err := b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	assert.Equal(t, 22, again[0]["v"])

	require.NoError(t, os.Remove(filepath.Join(base, "c", "x.mdx")))
	_, err = b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	assert.Equal(t, 0, b.State().(fs.BackendState).CacheSize)
}

func TestListCacheNestedValues(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)

	_, err := b.Write(ctx, core.Path{"c", "x"}, core.Data{
		"meta": map[string]any{"tags": []any{"a", "b"}},
	})
	require.NoError(t, err)

	items, err := b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	meta := items[0]["meta"].(map[string]any)
	meta["tags"].([]any)[0] = "mutated"
	meta["extra"] = true

	again, err := b.List(ctx, core.Path{"c"})
	require.NoError(t, err)
	want := []core.Data{{"id": "x", "meta": map[string]any{"tags": []any{"a", "b"}}}}
	if diff := cmp.Diff(want, again); diff != "" {
		t.Errorf("cached List mismatch (-want +got):\n%s", diff)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	b, _ := setupBackend(t)
	p := core.Path{"c", "gone"}

	_, err := b.Write(ctx, p, core.Data{"a": 1})
	require.NoError(t, err)
	require.NoError(t, b.Remove(ctx, p))

	got, err := b.Read(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, errors.Is(b.Remove(ctx, p), core.ErrNotFound))
}

func TestGlob(t *testing.T) {
	ctx := context.Background()
	b, base := setupBackend(t)

	for _, p := range []string{"blog/a", "blog/2024/b", "docs/c"} {
		_, err := b.Write(ctx, core.NewPath(p), core.Data{"p": p})
		require.NoError(t, err)
	}
	writeRaw(t, filepath.Join(base, "blog", "readme.txt"), "x")

	items, err := b.Glob(ctx, "blog/**")
	require.NoError(t, err)
	assert.Equal(t, []core.Data{
		{"id": "blog/2024/b", "p": "blog/2024/b"},
		{"id": "blog/a", "p": "blog/a"},
	}, items)

	items, err = b.Glob(ctx, "*/c.mdx")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "docs/c", items[0].ID())

	_, err = b.Glob(ctx, "blog/[")
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	b, _ := setupBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := b.Write(ctx, core.Path{"c", "existing"}, core.Data{"v": 1})
	require.NoError(t, err)

	events, err := b.Watch(ctx, core.Path{"c"})
	require.NoError(t, err)

	next := func(want core.EventType, id string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case e, ok := <-events:
				require.True(t, ok, "events channel closed")
				if e.Type == want && e.Path.String() == "c/"+id {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s c/%s", want, id)
			}
		}
	}

	_, err = b.Write(ctx, core.Path{"c", "fresh"}, core.Data{"v": 1})
	require.NoError(t, err)
	next(core.EventCreate, "fresh")

	_, err = b.Write(ctx, core.Path{"c", "existing"}, core.Data{"v": 2})
	require.NoError(t, err)
	next(core.EventModify, "existing")

	require.NoError(t, b.Remove(ctx, core.Path{"c", "fresh"}))
	next(core.EventDelete, "fresh")

	assert.Equal(t, 1, b.State().(fs.BackendState).ActiveWatchers)

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}
