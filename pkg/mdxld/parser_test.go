package mdxld_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

func TestParse(t *testing.T) {
	t.Run("No Header", func(t *testing.T) {
		doc, err := mdxld.Parse("# Title\n\nbody")
		require.NoError(t, err)
		assert.Empty(t, doc.Data)
		assert.True(t, doc.Metadata.IsZero())
		assert.Equal(t, "# Title\n\nbody", doc.Content)
	})

	t.Run("Separates Metadata from Data", func(t *testing.T) {
		text := "---\n" +
			"$type: BlogPosting\n" +
			"'@context': https://schema.org\n" +
			"$id: https://example.com/post\n" +
			"title: Hello\n" +
			"$custom: kept\n" +
			"count: 3\n" +
			"---\n" +
			"# Hello\n"

		doc, err := mdxld.Parse(text)
		require.NoError(t, err)

		assert.Equal(t, "BlogPosting", doc.Type)
		assert.Equal(t, "https://schema.org", doc.Context)
		assert.Equal(t, "https://example.com/post", doc.ID)
		assert.Equal(t, map[string]any{"title": "Hello", "$custom": "kept", "count": 3}, doc.Data)
		assert.Equal(t, "# Hello\n", doc.Content)
	})

	t.Run("Coerces Set and List", func(t *testing.T) {
		text := "---\n$set: [go, mdx, go, {a: 1}, {a: 1}]\n'@list': single\nname: x\n---\n"
		doc, err := mdxld.Parse(text)
		require.NoError(t, err)

		assert.Equal(t, []any{"go", "mdx", map[string]any{"a": 1}}, doc.Set)
		assert.Equal(t, []any{"single"}, doc.List)
	})

	t.Run("Scalar Set Is Wrapped", func(t *testing.T) {
		doc, err := mdxld.Parse("---\n$set: 1\n---\n")
		require.NoError(t, err)
		assert.Equal(t, []any{1}, doc.Set)
	})

	t.Run("Later Duplicate Property Wins", func(t *testing.T) {
		doc, err := mdxld.Parse("---\n$type: A\n'@type': B\n---\n")
		require.NoError(t, err)
		assert.Equal(t, "B", doc.Type)
	})

	t.Run("CRLF Line Endings", func(t *testing.T) {
		doc, err := mdxld.Parse("---\r\ntitle: Win\r\n---\r\nbody\r\n")
		require.NoError(t, err)
		assert.Equal(t, "Win", doc.Data["title"])
		assert.Equal(t, "body\r\n", doc.Content)
	})

	t.Run("Closing Marker At End Of Text", func(t *testing.T) {
		doc, err := mdxld.Parse("---\ntitle: x\n---")
		require.NoError(t, err)
		assert.Equal(t, "", doc.Content)
	})

	t.Run("TOML Header", func(t *testing.T) {
		doc, err := mdxld.Parse("+++\n\"$type\" = \"Article\"\ntitle = \"T\"\n+++\nbody")
		require.NoError(t, err)
		assert.Equal(t, "Article", doc.Type)
		assert.Equal(t, map[string]any{"title": "T"}, doc.Data)
		assert.Equal(t, "body", doc.Content)
	})
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated":      "---\ntitle: x\nbody without end\n",
		"not a mapping":     "---\n- a\n- b\n---\n",
		"scalar header":     "---\njust text\n---\n",
		"invalid yaml":      "---\ntitle: [unclosed\n---\n",
		"zero keys":         "---\n---\nbody",
		"empty mapping":     "---\n{}\n---\n",
		"reverse not bool":  "---\n$reverse: maybe\n---\n",
		"type not a scalar": "---\n$type: {a: 1}\n---\n",
		"invalid toml":      "+++\n= broken\n+++\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mdxld.Parse(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, mdxld.ErrMalformedHeader), "got %v", err)

			var pe *mdxld.ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}

	t.Run("Empty Header Allowed On Request", func(t *testing.T) {
		doc, err := mdxld.Parse("---\n{}\n---\n", mdxld.AllowEmptyHeader())
		require.NoError(t, err)
		assert.Empty(t, doc.Data)
	})
}

func TestStringify(t *testing.T) {
	doc := mdxld.Document{
		Metadata: mdxld.Metadata{
			Type:    "BlogPosting",
			Context: "https://schema.org",
			Set:     []any{"a", "b"},
			Reverse: true,
		},
		Data:    map[string]any{"title": "Hello", "author": "me"},
		Content: "# Body\n",
	}

	t.Run("Orders Metadata Then Data", func(t *testing.T) {
		simple := mdxld.Document{
			Metadata: mdxld.Metadata{Type: "BlogPosting", ID: "post-1", Reverse: true},
			Data:     map[string]any{"title": "Hello", "author": "me"},
			Content:  "# Body\n",
		}
		out, err := mdxld.Stringify(simple)
		require.NoError(t, err)

		want := "---\n" +
			"$type: BlogPosting\n" +
			"$id: post-1\n" +
			"$reverse: true\n" +
			"author: me\n" +
			"title: Hello\n" +
			"---\n" +
			"# Body\n"
		if diff := cmp.Diff(want, out); diff != "" {
			t.Errorf("Stringify mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("At Prefix", func(t *testing.T) {
		out, err := mdxld.Stringify(doc, mdxld.UseAtPrefix())
		require.NoError(t, err)
		assert.Contains(t, out, "@type")
		assert.NotContains(t, out, "$type")

		back, err := mdxld.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, doc.Metadata, back.Metadata)
	})

	t.Run("Content Only", func(t *testing.T) {
		out, err := mdxld.Stringify(mdxld.Document{Content: "plain"})
		require.NoError(t, err)
		assert.Equal(t, "plain", out)

		out, err = mdxld.Stringify(mdxld.Document{Content: "plain"}, mdxld.ForceHeader())
		require.NoError(t, err)
		assert.Equal(t, "---\n{}\n---\nplain", out)
	})

	t.Run("Content Starting With A Marker", func(t *testing.T) {
		for _, body := range []string{"---\ntitle: x\n---\nbody\n", "+++\ntitle = 'x'\n+++\n"} {
			out, err := mdxld.Stringify(mdxld.Document{Content: body})
			require.NoError(t, err)
			assert.NotEqual(t, body, out)

			back, err := mdxld.Parse(out)
			require.NoError(t, err, out)
			assert.Equal(t, body, back.Content)
			assert.Empty(t, back.Data)
			assert.True(t, back.Metadata.IsZero())
		}
	})

	t.Run("Rejects Reserved Data Keys", func(t *testing.T) {
		_, err := mdxld.Stringify(mdxld.Document{Data: map[string]any{"@id": "x"}})
		assert.True(t, errors.Is(err, mdxld.ErrReservedKey))
	})

	t.Run("TOML", func(t *testing.T) {
		out, err := mdxld.Stringify(doc, mdxld.WithFormat(mdxld.FormatTOML))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "+++\n"))
		assert.True(t, strings.HasSuffix(out, "+++\n# Body\n"))
	})
}

func TestRoundTrip(t *testing.T) {
	docs := []mdxld.Document{
		{Data: map[string]any{}, Content: "only body"},
		{
			Metadata: mdxld.Metadata{
				Type:     "Person",
				ID:       "https://example.com/me",
				Language: "en-US",
				Base:     "https://example.com/",
				Vocab:    "https://schema.org/",
				Context:  map[string]any{"name": "https://schema.org/name"},
				List:     []any{"first", 2, true},
				Set:      []any{"x", "y"},
				Reverse:  true,
			},
			Data: map[string]any{
				"name":    "Ada",
				"tags":    []any{"math", "code"},
				"nested":  map[string]any{"deep": map[string]any{"n": 1}},
				"ratio":   0.5,
				"empty":   "",
				"nothing": nil,
				"$custom": "sigil kept",
				"yes":     "true",
			},
			Content: "# Ada\n\nText with --- inside.\n",
		},
	}

	for i, doc := range docs {
		for _, opts := range [][]mdxld.StringifyOption{nil, {mdxld.UseAtPrefix()}} {
			text, err := mdxld.Stringify(doc, opts...)
			require.NoError(t, err)

			got, err := mdxld.Parse(text)
			require.NoError(t, err, "doc %d:\n%s", i, text)
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Errorf("doc %d round trip mismatch (-want +got):\n%s", i, diff)
			}
		}
	}
}

func TestRoundTripTOML(t *testing.T) {
	doc := mdxld.Document{
		Metadata: mdxld.Metadata{Type: "Note", List: []any{"a"}},
		Data:     map[string]any{"title": "T", "count": 2, "meta": map[string]any{"k": "v"}},
		Content:  "body",
	}
	text, err := mdxld.Stringify(doc, mdxld.WithFormat(mdxld.FormatTOML))
	require.NoError(t, err)

	got, err := mdxld.Parse(text)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderNumbers(t *testing.T) {
	data := map[string]any{
		"whole":  float64(3),
		"half":   0.5,
		"huge":   1e21,
		"small":  float32(0.25),
		"count":  2,
		"wide":   int64(7),
		"nested": map[string]any{"a": float64(1), "list": []any{float64(2), 3}},
	}
	want := map[string]any{
		"whole":  float64(3),
		"half":   0.5,
		"huge":   1e21,
		"small":  0.25,
		"count":  2,
		"wide":   7,
		"nested": map[string]any{"a": float64(1), "list": []any{float64(2), 3}},
	}

	for _, format := range []mdxld.Format{mdxld.FormatYAML, mdxld.FormatTOML} {
		t.Run(format.String(), func(t *testing.T) {
			text, err := mdxld.EncodeMap(format, data, "")
			require.NoError(t, err)

			h, err := mdxld.SplitHeader(text)
			require.NoError(t, err)
			got, err := h.Map()
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("number mismatch (-want +got):\n%s\n%s", diff, text)
			}
		})
	}

	t.Run("Float Spelling", func(t *testing.T) {
		text, err := mdxld.EncodeMap(mdxld.FormatYAML, map[string]any{"n": float64(3)}, "")
		require.NoError(t, err)
		assert.Equal(t, "---\nn: 3.0\n---\n", text)
	})
}

func TestValidate(t *testing.T) {
	ok := mdxld.Document{Metadata: mdxld.Metadata{
		Base: "https://example.com/", Vocab: "https://schema.org/", Language: "pt-BR", Context: "https://schema.org",
	}}
	assert.NoError(t, mdxld.Validate(ok))

	bad := mdxld.Document{Metadata: mdxld.Metadata{Base: "relative/path", Language: "not a tag", Context: 12}}
	err := mdxld.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base")
	assert.Contains(t, err.Error(), "language")
	assert.Contains(t, err.Error(), "context")
}

func TestValidateLanguage(t *testing.T) {
	for _, tag := range []string{"en", "en-US", "pt-BR", "zh-Hant-TW", "de-CH-1996", "sr-Latn"} {
		doc := mdxld.Document{Metadata: mdxld.Metadata{Language: tag}}
		assert.NoError(t, mdxld.Validate(doc), tag)
	}
	for _, tag := range []string{"not a tag", "en--US", "123456789", "en-US-"} {
		doc := mdxld.Document{Metadata: mdxld.Metadata{Language: tag}}
		assert.Error(t, mdxld.Validate(doc), tag)
	}
}
