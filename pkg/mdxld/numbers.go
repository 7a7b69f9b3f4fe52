package mdxld

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header numbers follow one rule in both formats: integer kinds decode as
// int and float kinds as float64, whatever Go type was encoded.

// yamlValue prepares v for the YAML encoder. Floats are written so that they
// resolve back to float64 ("3.0" rather than "3"); maps and slices are
// rebuilt with their elements prepared the same way.
func yamlValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return floatNode(x)
	case float32:
		return floatNode(float64(x))
	case *yaml.Node, yaml.Node, []byte:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = yamlValue(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = yamlValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func floatNode(f float64) *yaml.Node {
	var s string
	switch {
	case math.IsInf(f, 1):
		s = ".inf"
	case math.IsInf(f, -1):
		s = "-.inf"
	case math.IsNaN(f):
		s = ".nan"
	default:
		s = strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}

// tomlValue maps go-toml's int64 integers to int, matching the YAML decoder.
func tomlValue(v any) any {
	switch x := v.(type) {
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return int(x)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = tomlValue(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = tomlValue(e)
		}
		return x
	}
	return v
}
