/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package mdx implements the MDX/Markdown backend of the transform
// backend: YAML frontmatter plus a goldmark-rendered
// body, compiled to a JS module exporting a render function and a
// table of contents. The real MDX-to-JSX compiler is out of scope
// this is a deliberately simple stand-in for the richer MDX component
// prose describes.
package mdx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"esfuse.dev/esfuse/locator"
)

var md = goldmark.New(goldmark.WithExtensions(
	extension.GFM,
	highlighting.NewHighlighting(
		highlighting.WithStyle("github"),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
		),
	),
))

// TOCEntry is one table-of-contents entry, one per heading.
type TOCEntry struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Result is the MDX backend's output: JS source ready for re-entry
// through the JS/TS AST pass, same as the CSS backend's generated JS.
type Result struct {
	Code string
}

// Transform compiles MDX/Markdown source into a JS module. When meta is
// true, only the frontmatter and table of contents are compiled, plus a
// dynamic import of fullContentURL standing in for "the full content"
// fullContentURL is the same locator without the `meta`
// param.
func Transform(source []byte, meta bool, fullContentURL string) (Result, error) {
	frontmatter, body := splitFrontmatter(source)

	data := map[string]any{}
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &data); err != nil {
			return Result{}, fmt.Errorf("mdx: invalid frontmatter: %w", err)
		}
	}
	if data == nil {
		data = map[string]any{}
	}
	metaJSON, err := json.Marshal(data)
	if err != nil {
		return Result{}, fmt.Errorf("mdx: encoding frontmatter: %w", err)
	}

	toc := buildTOC(body)
	tocJSON, err := json.Marshal(toc)
	if err != nil {
		return Result{}, fmt.Errorf("mdx: encoding toc: %w", err)
	}

	if meta {
		urlJSON, _ := json.Marshal(fullContentURL)
		code := fmt.Sprintf(
			"export const meta = %s;\nexport const toc = %s;\nexport function content() { return import(%s); }\n",
			metaJSON, tocJSON, urlJSON,
		)
		return Result{Code: code}, nil
	}

	html, err := renderHTML(body)
	if err != nil {
		return Result{}, fmt.Errorf("mdx: render failed: %w", err)
	}
	htmlJSON, _ := json.Marshal(html)
	code := fmt.Sprintf(
		"export const meta = %s;\nexport const toc = %s;\nexport default function Content() { return %s; }\n",
		metaJSON, tocJSON, htmlJSON,
	)
	return Result{Code: code}, nil
}

// FullContentLocator derives the "without meta" locator URL for a
// `meta=1` request, used by callers building Transform's fullContentURL
// argument from the fetched module's own Locator.
func FullContentLocator(l locator.Locator) locator.Locator {
	params := make([]locator.Param, 0, len(l.Params()))
	for _, p := range l.Params() {
		if p.Name != "meta" {
			params = append(params, p)
		}
	}
	return locator.New(l.Kind(), l.Specifier(), params)
}

func splitFrontmatter(source []byte) (frontmatter string, body []byte) {
	const delim = "---"
	s := string(source)
	if !strings.HasPrefix(s, delim) {
		return "", source
	}
	rest := s[len(delim):]
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+delim)
	if end < 0 {
		return "", source
	}
	frontmatter = rest[:end]
	afterDelim := rest[end+1+len(delim):]
	afterDelim = strings.TrimPrefix(afterDelim, "\n")
	return frontmatter, []byte(afterDelim)
}

func renderHTML(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildTOC walks the parsed document for heading nodes and assigns each
// a unique slug, suffixing duplicates -1, -2, ... in encounter order.
func buildTOC(body []byte) []TOCEntry {
	reader := text.NewReader(body)
	doc := md.Parser().Parse(reader)

	seen := make(map[string]int)
	var toc []TOCEntry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		heading := n.(*ast.Heading)
		headingText := headingPlainText(heading, body)
		base := slug.Make(headingText)
		if base == "" {
			base = "section"
		}
		id := base
		if count, exists := seen[base]; exists {
			count++
			seen[base] = count
			id = fmt.Sprintf("%s-%d", base, count)
		} else {
			seen[base] = 0
		}
		toc = append(toc, TOCEntry{ID: id, Level: heading.Level, Text: headingText})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// headingPlainText concatenates a heading's text-segment children,
// skipping inline markup nodes (emphasis, links, code spans) down to
// their leaf *ast.Text/*ast.String content — the same walk goldmark's
// own (now-deprecated) Node.Text helper used to do internally.
func headingPlainText(n ast.Node, source []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
