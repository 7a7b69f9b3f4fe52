// Package query implements the pure post-processing applied to listed
// documents: exact-match filtering, multi-key sorting, substring search and
// page slicing. None of the functions mutate their input.
package query

import (
	"slices"
	"strings"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// Default page settings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Filter keeps the documents whose fields equal every entry of where.
// An empty where keeps everything.
func Filter(docs []core.Data, where map[string]any) []core.Data {
	if len(where) == 0 {
		return docs
	}
	out := make([]core.Data, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, where) {
			out = append(out, doc)
		}
	}
	return out
}

func matches(doc core.Data, where map[string]any) bool {
	for k, want := range where {
		got, ok := doc[k]
		if !ok {
			// A missing field only matches an explicit nil.
			if want != nil {
				return false
			}
			continue
		}
		if !Equal(got, want) {
			return false
		}
	}
	return true
}

// Sort orders documents by keys, evaluated left to right. A key prefixed
// with "-" sorts descending. The sort is stable, so documents that tie on
// every key keep their original order.
func Sort(docs []core.Data, keys []string) []core.Data {
	if len(keys) == 0 {
		return docs
	}

	type sortKey struct {
		field string
		desc  bool
	}
	parsed := make([]sortKey, 0, len(keys))
	for _, k := range keys {
		if k == "" || k == "-" {
			continue
		}
		if name, ok := strings.CutPrefix(k, "-"); ok {
			parsed = append(parsed, sortKey{field: name, desc: true})
		} else {
			parsed = append(parsed, sortKey{field: k})
		}
	}

	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b core.Data) int {
		for _, k := range parsed {
			c := Compare(a[k.field], b[k.field])
			if c == 0 {
				continue
			}
			if k.desc {
				return -c
			}
			return c
		}
		return 0
	})
	return out
}

// Search keeps documents with at least one string field containing q,
// ignoring case. Non-string fields are never scanned. An empty q keeps
// everything.
func Search(docs []core.Data, q string) []core.Data {
	if q == "" {
		return docs
	}
	needle := strings.ToLower(q)
	out := make([]core.Data, 0, len(docs))
	for _, doc := range docs {
		for _, v := range doc {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
				out = append(out, doc)
				break
			}
		}
	}
	return out
}

// Paginate slices docs to the requested 1-based page. Non-positive values
// fall back to DefaultPage and DefaultLimit.
func Paginate(docs []core.Data, page, limit int) core.ListResponse {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	// Bounds are compared before multiplying so huge page or limit values
	// cannot overflow.
	total := len(docs)
	start := total
	if page-1 <= total/limit {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)

	data := make([]core.Data, end-start)
	copy(data, docs[start:end])

	return core.ListResponse{
		Data: data,
		Meta: core.Meta{
			Total:       total,
			Page:        page,
			PageSize:    limit,
			HasNextPage: total > 0 && page-1 < (total-1)/limit,
		},
	}
}

// Apply runs filter, sort and paginate in that order so that Meta.Total
// counts the filtered set.
func Apply(docs []core.Data, opts core.QueryOptions) core.ListResponse {
	filtered := Filter(docs, opts.Where)
	sorted := Sort(filtered, opts.Sort)
	return Paginate(sorted, opts.Page, opts.Limit)
}
