// Package mdxdb is the composition root of the mdxdb document store.
//
// It connects the collection handler and path proxy (pkg/collection,
// pkg/proxy) with the storage adapters (pkg/adapters) behind the core.Backend
// port, so callers choose where documents live without changing how they
// query them.
//
// Documents are plain maps. The filesystem adapter stores each one as a text
// file with a YAML or TOML header (see pkg/mdxld); the external adapter hands
// them to a headless store through an injected client, with SQLite and Redis
// clients included.
//
// Usage:
//
//	db, err := mdxdb.Open(ctx, ".db", mdxdb.WithFileExtension(".md"))
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	posts := db.Collection("posts")
//	post, err := posts.Create(ctx, mdxdb.Data{"title": "Hello", "published": true})
//
//	res, err := posts.Find(ctx, mdxdb.QueryOptions{
//		Where: map[string]any{"published": true},
//		Sort:  []string{"-date"},
//		Limit: 10,
//	})
//
//	// Path addressing
//	article, err := db.At("articles", "tech").Get(ctx, "intro")
package mdxdb
