package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mdxdb/mdxdb"
)

// parseValue reads a flag value as a JSON literal, falling back to a string.
// "true", "3" and "null" become typed values; "hello" stays a string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// parsePairs turns key=value flags into a map.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid pair %q (want key=value)", p)
		}
		out[k] = parseValue(v)
	}
	return out, nil
}

// readData builds a document from a JSON object (or "-" for stdin) plus
// key=value overrides.
func readData(stdin io.Reader, raw string, sets []string) (mdxdb.Data, error) {
	data := mdxdb.Data{}
	if raw == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("invalid --data JSON: %w", err)
		}
	}

	pairs, err := parsePairs(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range pairs {
		data[k] = v
	}
	return data, nil
}

func readSource(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(name)
	return string(b), err
}
