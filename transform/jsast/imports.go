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

package jsast

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// ImportKind distinguishes a static import/re-export declaration or a
// require() call (both "ImportDeclaration" per the pulled-in-dependency
// sense) from a dynamic import() call.
type ImportKind int

const (
	KindImportDeclaration ImportKind = iota
	KindDynamicImport
)

// Span is a half-open byte range into the source text passed to Extract.
type Span struct {
	Start uint
	End   uint
}

// Import is a single extracted import/require/dynamic-import reference.
type Import struct {
	Kind ImportKind

	// Specifier is the cooked string, set only when the argument was a
	// string literal or a template literal with no interpolations.
	Specifier string
	Extracted bool

	// NodeSpan covers the whole statement or call expression.
	NodeSpan Span
	// CalleeSpan covers just the callee (the `import` keyword, for
	// dynamic imports) so the rewrite pass can splice it in isolation.
	CalleeSpan Span

	// Replacement is set for static import/export declarations: the CJS
	// text the whole NodeSpan should be spliced with. Left empty for
	// require() calls (rewritten later, once the specifier is resolved)
	// and for dynamic imports (only the callee is spliced here).
	Replacement string

	Optional bool
}

// DynamicTemplateImport is a dynamic import() call whose sole argument is
// a template literal with one or more interpolated expressions — the
// case the pipeline synthesizes a bare import(...)/.then(fetch) call for.
type DynamicTemplateImport struct {
	CallSpan      Span
	Quasis        []string
	Substitutions []Span
	Optional      bool
}

// ExtractResult holds everything Extract found in one pass.
type ExtractResult struct {
	Imports                []Import
	DynamicTemplateImports []DynamicTemplateImport
}

// Extract parses content as TypeScript/JSX (the grammar also accepts
// plain JS) and returns every require()/import() reference, with the
// optional flag computed from try/catch ancestry.
func Extract(content []byte) (*ExtractResult, error) {
	query, err := getImportsQuery()
	if err != nil {
		return nil, err
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errParse("jsast: failed to parse source")
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()
	matches := cursor.Matches(query, tree.RootNode(), content)

	var tryBodies []Span
	var importNodes []ts.Node
	var reexportNodes []ts.Node
	var requireNodes []ts.Node
	var requireSpecs []ts.Node
	var dynamicNodes []ts.Node
	var dynamicSpecs []ts.Node
	var dynamicTemplateNodes []ts.Node
	var dynamicTemplateStrings []ts.Node

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			name := captureNames[capture.Index]
			switch name {
			case "import.node":
				importNodes = append(importNodes, capture.Node)
			case "reexport.node":
				reexportNodes = append(reexportNodes, capture.Node)
			case "require.node":
				requireNodes = append(requireNodes, capture.Node)
			case "require.spec":
				requireSpecs = append(requireSpecs, capture.Node)
			case "dynamicImport.node":
				dynamicNodes = append(dynamicNodes, capture.Node)
			case "dynamicImport.spec":
				dynamicSpecs = append(dynamicSpecs, capture.Node)
			case "dynamicImport.templateNode":
				dynamicTemplateNodes = append(dynamicTemplateNodes, capture.Node)
			case "dynamicImport.template":
				dynamicTemplateStrings = append(dynamicTemplateStrings, capture.Node)
			case "try.bodyWithCatch":
				tryBodies = append(tryBodies, spanOf(capture.Node))
			}
		}
	}

	result := &ExtractResult{}

	for _, node := range importNodes {
		specifier := importSourceSpecifier(node, content)
		result.Imports = append(result.Imports, Import{
			Kind:        KindImportDeclaration,
			Specifier:   specifier,
			Extracted:   true,
			NodeSpan:    spanOf(node),
			CalleeSpan:  spanOf(node),
			Replacement: cjsifyImport(node, content),
			Optional:    insideAny(spanOf(node), tryBodies),
		})
	}

	for _, node := range reexportNodes {
		specifier := importSourceSpecifier(node, content)
		result.Imports = append(result.Imports, Import{
			Kind:        KindImportDeclaration,
			Specifier:   specifier,
			Extracted:   true,
			NodeSpan:    spanOf(node),
			CalleeSpan:  spanOf(node),
			Replacement: cjsifyReexport(node, content),
			Optional:    insideAny(spanOf(node), tryBodies),
		})
	}

	for i, node := range requireNodes {
		if i >= len(requireSpecs) {
			break
		}
		spec := requireSpecs[i]
		result.Imports = append(result.Imports, Import{
			Kind:       KindImportDeclaration,
			Specifier:  unquote(spec.Utf8Text(content)),
			Extracted:  true,
			NodeSpan:   spanOf(node),
			CalleeSpan: calleeSpanOf(node, content),
			Optional:   insideAny(spanOf(node), tryBodies),
		})
	}

	for i, node := range dynamicNodes {
		if i >= len(dynamicSpecs) {
			break
		}
		spec := dynamicSpecs[i]
		result.Imports = append(result.Imports, Import{
			Kind:       KindDynamicImport,
			Specifier:  unquote(spec.Utf8Text(content)),
			Extracted:  true,
			NodeSpan:   spanOf(node),
			CalleeSpan: calleeSpanOf(node, content),
			Optional:   insideAny(spanOf(node), tryBodies),
		})
	}

	for i, node := range dynamicTemplateNodes {
		if i >= len(dynamicTemplateStrings) {
			break
		}
		tmpl := dynamicTemplateStrings[i]
		quasis, subs := splitTemplate(tmpl, content)
		optional := insideAny(spanOf(node), tryBodies)
		if len(subs) == 0 {
			// No interpolation: a plain cooked-chunk template, extractable
			// the same as a string literal.
			result.Imports = append(result.Imports, Import{
				Kind:       KindDynamicImport,
				Specifier:  quasis[0],
				Extracted:  true,
				NodeSpan:   spanOf(node),
				CalleeSpan: calleeSpanOf(node, content),
				Optional:   optional,
			})
			continue
		}
		result.DynamicTemplateImports = append(result.DynamicTemplateImports, DynamicTemplateImport{
			CallSpan:      spanOf(node),
			Quasis:        quasis,
			Substitutions: subs,
			Optional:      optional,
		})
	}

	return result, nil
}

// importSourceSpecifier returns the cooked text of an import_statement's
// or export_statement's `source` string child.
func importSourceSpecifier(node ts.Node, content []byte) string {
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "string" {
			return unquote(child.Utf8Text(content))
		}
	}
	return ""
}

func spanOf(n ts.Node) Span {
	return Span{Start: uint(n.StartByte()), End: uint(n.EndByte())}
}

// calleeSpanOf returns the span of the call's function expression, i.e.
// the `require` identifier or the `import` keyword.
func calleeSpanOf(call ts.Node, content []byte) Span {
	if fn := call.ChildByFieldName("function"); fn != nil {
		return spanOf(*fn)
	}
	return spanOf(call)
}

func insideAny(s Span, ranges []Span) bool {
	for _, r := range ranges {
		if s.Start >= r.Start && s.End <= r.End {
			return true
		}
	}
	return false
}

// unquote strips the surrounding quote characters from a string-literal
// node's raw text. It does not unescape the contents: specifiers are
// plain module paths and not expected to carry escape sequences.
func unquote(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// splitTemplate walks a template_string node's children in order,
// returning the cooked literal chunks (len = N+1) and the byte spans of
// the N interpolated substitution expressions.
func splitTemplate(tmpl ts.Node, content []byte) ([]string, []Span) {
	var quasis []string
	var subs []Span
	current := ""
	count := tmpl.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := tmpl.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "template_substitution" {
			quasis = append(quasis, current)
			current = ""
			// The substitution node itself wraps `${` expr `}`; the
			// first and only named child is the expression.
			if child.NamedChildCount() > 0 {
				if expr := child.NamedChild(0); expr != nil {
					subs = append(subs, spanOf(*expr))
					continue
				}
			}
			subs = append(subs, spanOf(*child))
			continue
		}
		current += child.Utf8Text(content)
	}
	quasis = append(quasis, current)
	return quasis, subs
}

type errParse string

func (e errParse) Error() string { return string(e) }
