// Package redis provides an external.Client backed by Redis hashes.
//
// Each collection is a hash <prefix>:docs:<collection> mapping id to the JSON
// document, a sorted set <prefix>:order:<collection> that keeps insertion
// order for paging, and a counter <prefix>:seq:<collection>. The key kind
// comes before the collection name, so no collection name can produce another
// collection's key. Writes that touch more than one key run as Lua scripts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/mdxdb/mdxdb/pkg/adapters/external"
	"github.com/mdxdb/mdxdb/pkg/core"
)

// DefaultPrefix namespaces every key written by the client.
const DefaultPrefix = "mdxdb"

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Client implements external.Client.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New connects to Redis and checks the connection with PING.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		Protocol: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return NewFromClient(rdb, opts.Prefix), nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) docsKey(collection string) string {
	return c.prefix + ":docs:" + collection
}

func (c *Client) orderKey(collection string) string {
	return c.prefix + ":order:" + collection
}

func (c *Client) seqKey(collection string) string {
	return c.prefix + ":seq:" + collection
}

// KEYS: docs, order, seq. ARGV: id, document.
var createScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return 0
end
local seq = redis.call('INCR', KEYS[3])
redis.call('ZADD', KEYS[2], seq, ARGV[1])
return 1
`)

// KEYS: docs. ARGV: id, document.
var updateScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// KEYS: docs, order. ARGV: id.
var deleteScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

func (c *Client) FindByID(ctx context.Context, collection, id string) (core.Data, error) {
	raw, err := c.rdb.HGet(ctx, c.docsKey(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// Create stores data under data["id"] and appends the id to the order set
// in one script. A taken id yields external.ErrConflict without overwriting.
func (c *Client) Create(ctx context.Context, collection string, data core.Data) (core.Data, error) {
	id := data.ID()
	if id == "" {
		return nil, errors.New("redis: create requires a string id")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	keys := []string{c.docsKey(collection), c.orderKey(collection), c.seqKey(collection)}
	ok, err := createScript.Run(ctx, c.rdb, keys, id, raw).Int()
	if err != nil {
		return nil, err
	}
	if ok == 0 {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrConflict, collection, id)
	}
	return data, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, data core.Data) (core.Data, error) {
	raw, err := json.Marshal(data.Merge(core.Data{core.IDKey: id}))
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	ok, err := updateScript.Run(ctx, c.rdb, []string{c.docsKey(collection)}, id, raw).Int()
	if err != nil {
		return nil, err
	}
	if ok == 0 {
		return nil, fmt.Errorf("%w: %s/%s", external.ErrNotFound, collection, id)
	}
	return data, nil
}

// Find returns one page in insertion order. An empty collection is reported
// as not found.
func (c *Client) Find(ctx context.Context, collection string, q external.FindQuery) (external.FindResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = external.PageSize
	}
	page := max(q.Page, 1)

	start := int64(page-1) * int64(limit)
	var card *redis.IntCmd
	var rng *redis.StringSliceCmd
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		card = p.ZCard(ctx, c.orderKey(collection))
		rng = p.ZRange(ctx, c.orderKey(collection), start, start+int64(limit)-1)
		return nil
	})
	if err != nil {
		return external.FindResult{}, err
	}
	total, ids := card.Val(), rng.Val()
	if total == 0 {
		return external.FindResult{}, fmt.Errorf("%w: collection %s", external.ErrNotFound, collection)
	}

	res := external.FindResult{
		TotalDocs:   int(total),
		HasNextPage: start+int64(limit) < total,
	}
	if len(ids) == 0 {
		return res, nil
	}

	values, err := c.rdb.HMGet(ctx, c.docsKey(collection), ids...).Result()
	if err != nil {
		return external.FindResult{}, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // removed between ZRANGE and HMGET
		}
		doc, err := decode(raw)
		if err != nil {
			return external.FindResult{}, err
		}
		res.Docs = append(res.Docs, doc)
	}
	return res, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	keys := []string{c.docsKey(collection), c.orderKey(collection)}
	ok, err := deleteScript.Run(ctx, c.rdb, keys, id).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
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
