package mdxld_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

const sample = "import { Chart } from './chart'\n" +
	"\n" +
	"export const meta = { draft: true }\n" +
	"\n" +
	"# Intro\n" +
	"\n" +
	"Some text with <Badge label=\"new\" /> inline.\n" +
	"\n" +
	"<Chart type=\"bar\" data={[1,2]} />\n" +
	"\n" +
	"```js\n" +
	"console.log(1)\n" +
	"```\n" +
	"\n" +
	"```python\n" +
	"print(1)\n" +
	"```\n" +
	"\n" +
	"```tsx\n" +
	"const x = <Hidden />\n" +
	"```\n"

func TestExtractCode(t *testing.T) {
	want := []string{
		"import { Chart } from './chart'",
		"export const meta = { draft: true }",
		"console.log(1)",
		"const x = <Hidden />",
	}
	if diff := cmp.Diff(want, mdxld.ExtractCode(sample)); diff != "" {
		t.Errorf("ExtractCode mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, mdxld.ExtractCode("# Only prose\n\nimporting nothing here\n"))
}

func TestExtractComponents(t *testing.T) {
	want := []string{
		`<Chart type="bar" data={...}>`,
		`<Badge label="new">`,
	}
	if diff := cmp.Diff(want, mdxld.ExtractComponents(sample)); diff != "" {
		t.Errorf("ExtractComponents mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, mdxld.ExtractComponents("plain *markdown*\n"))
}

const outline = "- top item\n" +
	"\n" +
	"# Intro\n" +
	"\n" +
	"- a\n" +
	"- b [docs](https://example.com/docs)\n" +
	"\n" +
	"## Details\n" +
	"\n" +
	"- c\n" +
	"\n" +
	"# Intro\n"

func TestTransform(t *testing.T) {
	links := map[string]any{"docs": "https://example.com/docs"}

	t.Run("Flat", func(t *testing.T) {
		want := map[string]any{
			"lists":     []any{[]any{"top item"}},
			"Intro":     map[string]any{"lists": []any{[]any{"a", "b docs"}}, "links": links},
			"Details":   map[string]any{"lists": []any{[]any{"c"}}, "links": links},
			"Intro (2)": map[string]any{"links": links},
		}
		if diff := cmp.Diff(want, mdxld.Transform(outline)); diff != "" {
			t.Errorf("Transform mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nested Headers", func(t *testing.T) {
		want := map[string]any{
			"lists": []any{[]any{"top item"}},
			"Intro": map[string]any{
				"lists":   []any{[]any{"a", "b docs"}},
				"Details": map[string]any{"lists": []any{[]any{"c"}}},
				"links":   links,
			},
			"Intro (2)": map[string]any{"links": links},
		}
		if diff := cmp.Diff(want, mdxld.Transform(outline, mdxld.NestedHeaders())); diff != "" {
			t.Errorf("Transform mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("No Headings", func(t *testing.T) {
		got := mdxld.Transform("see <https://go.dev>\n")
		assert.Equal(t, map[string]any{"links": map[string]any{"https://go.dev": "https://go.dev"}}, got)
	})
}
