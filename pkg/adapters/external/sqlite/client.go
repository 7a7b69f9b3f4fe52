// Package sqlite provides an external.Client that keeps collections in a
// single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

// Client stores documents as JSON rows keyed by (collection, id).
type Client struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Client, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Client{db: db, path: path}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) FindByID(ctx context.Context, collection, id string) (core.Data, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return decode(raw)
}

// Create inserts data under data["id"]. An existing row yields external.ErrConflict.
func (c *Client) Create(ctx context.Context, collection string, data core.Data) (core.Data, error) {
	id := data.ID()
	if id == "" {
		return nil, errors.New("sqlite: create requires a string id")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	now := time.Now().UnixNano()
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, string(raw), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrConflict, collection, id)
	}
	return data, nil
}

// Update replaces the stored row. The id is kept in the stored data.
func (c *Client) Update(ctx context.Context, collection, id string, data core.Data) (core.Data, error) {
	stored := data.Clone()
	if stored == nil {
		stored = core.Data{}
	}
	stored[core.IDKey] = id
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(raw), time.Now().UnixNano(), collection, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrNotFound, collection, id)
	}
	return data, nil
}

// Find returns one page in insertion order. A collection without rows is
// reported as not found.
func (c *Client) Find(ctx context.Context, collection string, q external.FindQuery) (external.FindResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = external.PageSize
	}
	page := max(q.Page, 1)

	var total int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection,
	).Scan(&total); err != nil {
		return external.FindResult{}, fmt.Errorf("counting documents: %w", err)
	}
	if total == 0 {
		return external.FindResult{}, fmt.Errorf("%w: collection %s", external.ErrNotFound, collection)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = ? ORDER BY rowid LIMIT ? OFFSET ?`,
		collection, limit, (page-1)*limit,
	)
	if err != nil {
		return external.FindResult{}, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	res := external.FindResult{TotalDocs: total, HasNextPage: page*limit < total}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return external.FindResult{}, fmt.Errorf("scanning document: %w", err)
		}
		doc, err := decode(raw)
		if err != nil {
			return external.FindResult{}, err
		}
		res.Docs = append(res.Docs, doc)
	}
	return res, rows.Err()
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", external.ErrNotFound, collection, id)
	}
	return nil
}

func decode(raw string) (core.Data, error) {
	var data core.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return data, nil
}

var _ external.Client = (*Client)(nil)
