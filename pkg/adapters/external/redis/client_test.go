package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/adapters/external/redis"
	"github.com/mdxdb/mdxdb/pkg/core"
)

// openClient starts an in-process server for the test and connects to it.
func openClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := redis.New(context.Background(), redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	c, _ := openClient(t)

	_, err := c.FindByID(ctx, "posts", "p1")
	assert.True(t, external.IsNotFound(err))

	_, err = c.Create(ctx, "posts", core.Data{"id": "p1", "title": "One"})
	require.NoError(t, err)
	_, err = c.Create(ctx, "posts", core.Data{"id": "p1"})
	assert.True(t, errors.Is(err, external.ErrConflict))

	_, err = c.Update(ctx, "posts", "p1", core.Data{"title": "Uno"})
	require.NoError(t, err)
	got, err := c.FindByID(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.Equal(t, core.Data{"id": "p1", "title": "Uno"}, got)

	for _, id := range []string{"p2", "p3"} {
		_, err := c.Create(ctx, "posts", core.Data{"id": id})
		require.NoError(t, err)
	}
	res, err := c.Find(ctx, "posts", external.FindQuery{Limit: 2, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalDocs)
	assert.True(t, res.HasNextPage)
	require.Len(t, res.Docs, 2)
	assert.Equal(t, "p1", res.Docs[0].ID())

	require.NoError(t, c.Delete(ctx, "posts", "p1"))
	assert.True(t, external.IsNotFound(c.Delete(ctx, "posts", "p1")))

	_, err = c.Find(ctx, "empty", external.FindQuery{Limit: 10, Page: 1})
	assert.True(t, external.IsNotFound(err))
}

func TestBackendOverRedis(t *testing.T) {
	ctx := context.Background()
	c, _ := openClient(t)
	b := external.New(external.Config{Client: c})

	_, err := b.Write(ctx, core.Path{"notes", "n1"}, core.Data{"body": "x"})
	require.NoError(t, err)

	items, err := b.List(ctx, core.Path{"notes"})
	require.NoError(t, err)
	assert.Equal(t, []core.Data{{"id": "n1", "body": "x"}}, items)
}

func TestCreateConflictLeavesOrder(t *testing.T) {
	ctx := context.Background()
	c, mr := openClient(t)

	_, err := c.Create(ctx, "posts", core.Data{"id": "p1"})
	require.NoError(t, err)
	_, err = c.Create(ctx, "posts", core.Data{"id": "p1", "title": "again"})
	require.ErrorIs(t, err, external.ErrConflict)

	seq, err := mr.Get("mdxdb:seq:posts")
	require.NoError(t, err)
	assert.Equal(t, "1", seq)
	members, err := mr.ZMembers("mdxdb:order:posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, members)
}

func TestConcurrentCreateSameID(t *testing.T) {
	ctx := context.Background()
	c, mr := openClient(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Create(ctx, "posts", core.Data{"id": "same", "n": i})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, external.ErrConflict)
		}
	}
	assert.Equal(t, 1, created)
	members, err := mr.ZMembers("mdxdb:order:posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"same"}, members)
}

func TestUpdateMissingWritesNothing(t *testing.T) {
	ctx := context.Background()
	c, mr := openClient(t)

	_, err := c.Update(ctx, "posts", "ghost", core.Data{"title": "x"})
	assert.True(t, external.IsNotFound(err))
	assert.False(t, mr.Exists("mdxdb:docs:posts"))
}

func TestCollectionNamesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	c, _ := openClient(t)

	for _, coll := range []string{"a", "a:order", "a:seq", "order:a"} {
		_, err := c.Create(ctx, coll, core.Data{"id": "x", "from": coll})
		require.NoError(t, err, coll)
	}
	for _, coll := range []string{"a", "a:order", "a:seq", "order:a"} {
		res, err := c.Find(ctx, coll, external.FindQuery{Limit: 10, Page: 1})
		require.NoError(t, err, coll)
		assert.Equal(t, []core.Data{{"id": "x", "from": coll}}, res.Docs, coll)
	}
}
