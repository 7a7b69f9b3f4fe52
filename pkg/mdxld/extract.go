package mdxld

import (
	"bytes"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Languages whose fenced blocks ExtractCode returns.
var executableLanguages = []string{"js", "javascript", "jsx", "ts", "typescript", "tsx"}

func parseMarkdown(content string) (ast.Node, []byte) {
	src := []byte(content)
	return markdown.Parser().Parse(text.NewReader(src)), src
}

// ExtractCode returns the executable code in content: top-level import and
// export statements first, then fenced blocks tagged with a JavaScript or
// TypeScript language, each in document order.
func ExtractCode(content string) []string {
	root, src := parseMarkdown(content)

	var esm, code []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if p, ok := n.(*ast.Paragraph); ok {
			v := strings.TrimSpace(string(rawLines(p, src)))
			if strings.HasPrefix(v, "import ") || strings.HasPrefix(v, "export ") {
				esm = append(esm, v)
			}
		}
	}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fc, ok := n.(*ast.FencedCodeBlock); ok {
			if slices.Contains(executableLanguages, string(fc.Language(src))) {
				code = append(code, strings.TrimSuffix(string(rawLines(fc, src)), "\n"))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return append(esm, code...)
}

// ExtractComponents returns the opening tag of every component element in
// content, block elements first and then inline ones. Attribute values that
// are not plain strings are shown as {...}.
func ExtractComponents(content string) []string {
	root, src := parseMarkdown(content)

	var block, inline []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch x := n.(type) {
		case *ast.HTMLBlock:
			raw := rawLines(x, src)
			if x.HasClosure() {
				raw = append(raw, x.ClosureLine.Value(src)...)
			}
			block = append(block, openingTags(string(raw))...)
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < x.Segments.Len(); i++ {
				seg := x.Segments.At(i)
				buf.Write(seg.Value(src))
			}
			inline = append(inline, openingTags(buf.String())...)
		}
		return ast.WalkContinue, nil
	})
	return append(block, inline...)
}

var (
	tagPattern  = regexp.MustCompile(`<([A-Za-z][\w.:-]*)((?:\s+[^\s=/>]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|\{(?:[^{}]|\{[^{}]*\})*\}|[^\s"'=<>` + "`" + `]+))?)*)\s*/?>`)
	attrPattern = regexp.MustCompile(`([^\s=/>]+)(?:\s*=\s*("[^"]*"|'[^']*'|\{(?:[^{}]|\{[^{}]*\})*\}|[^\s"'=<>` + "`" + `]+))?`)
)

func openingTags(raw string) []string {
	var out []string
	for _, m := range tagPattern.FindAllStringSubmatch(raw, -1) {
		var b strings.Builder
		b.WriteString("<")
		b.WriteString(m[1])
		for _, a := range attrPattern.FindAllStringSubmatch(m[2], -1) {
			b.WriteString(" ")
			b.WriteString(a[1])
			b.WriteString("=")
			b.WriteString(attrValue(a[2]))
		}
		b.WriteString(">")
		out = append(out, b.String())
	}
	return out
}

func attrValue(v string) string {
	switch {
	case len(v) >= 2 && (v[0] == '"' || v[0] == '\''):
		return `"` + v[1:len(v)-1] + `"`
	case v != "" && v[0] != '{':
		return `"` + v + `"`
	}
	return "{...}"
}

// TransformOption configures Transform.
type TransformOption func(*transformOptions)

type transformOptions struct {
	nestedHeaders bool
}

// NestedHeaders places each level-2 section inside the level-1 section
// preceding it.
func NestedHeaders() TransformOption {
	return func(o *transformOptions) { o.nestedHeaders = true }
}

// Transform turns the markdown in content into an outline keyed by heading
// text. Each section holds its lists under "lists"; lists before the first
// heading go to the top level. Repeated headings get a " (n)" suffix. Every
// link is collected into a text to URL map and attached as "links" to each
// top-level section, or to the outline itself when there are no headings.
func Transform(content string, opts ...TransformOption) map[string]any {
	var o transformOptions
	for _, opt := range opts {
		opt(&o)
	}
	root, src := parseMarkdown(content)

	result := map[string]any{}
	var topKeys []string
	setTop := func(k string, v any) {
		if _, ok := result[k]; !ok {
			topKeys = append(topKeys, k)
		}
		result[k] = v
	}

	links := map[string]any{}
	counts := map[string]int{}
	current := result
	currentHeader := ""

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch x := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(plainText(x, src))
			key := title
			if counts[title] > 0 {
				counts[title]++
				key = title + " (" + strconv.Itoa(counts[title]) + ")"
			} else {
				counts[title] = 1
			}

			current = result
			nested := false
			if o.nestedHeaders && x.Level == 2 {
				var parents []string
				for _, k := range topKeys {
					if !strings.Contains(k, "lists") && !strings.Contains(k, "links") {
						parents = append(parents, k)
					}
				}
				if len(parents) > 0 {
					if sec, ok := result[parents[len(parents)-1]].(map[string]any); ok {
						current, nested = sec, true
					}
				}
			}
			if nested {
				current[key] = map[string]any{}
			} else {
				setTop(key, map[string]any{})
			}
			currentHeader = key

		case *ast.List:
			var items []any
			for item := x.FirstChild(); item != nil; item = item.NextSibling() {
				items = append(items, strings.TrimSpace(plainText(item, src)))
			}
			if sec, ok := current[currentHeader].(map[string]any); ok && currentHeader != "" {
				sec["lists"] = append(asList(sec["lists"]), items)
			} else {
				lists := append(asList(result["lists"]), items)
				setTop("lists", lists)
			}

		case *ast.Link:
			links[strings.TrimSpace(plainText(x, src))] = string(x.Destination)
		case *ast.AutoLink:
			links[string(x.Label(src))] = string(x.URL(src))
		}
		return ast.WalkContinue, nil
	})

	if len(links) > 0 {
		attached := false
		for _, k := range topKeys {
			if k == "links" || k == "lists" {
				continue
			}
			if sec, ok := result[k].(map[string]any); ok {
				sec["links"] = links
				attached = true
			}
		}
		if !attached {
			result["links"] = links
		}
	}
	return result
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func rawLines(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

// plainText concatenates the text under n, keeping soft line breaks.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch x := c.(type) {
		case *ast.Text:
			b.Write(x.Segment.Value(src))
			if x.SoftLineBreak() || x.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(x.Value)
		case *ast.AutoLink:
			b.Write(x.Label(src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.Write(rawLines(c, src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
