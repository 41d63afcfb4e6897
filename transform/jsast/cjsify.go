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
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// binding pairs an imported/exported name with its local alias.
type binding struct{ name, alias string }

// specifiers collects `name [as alias]` pairs from a named_imports or
// export_clause node, whose children are import_specifier/export_specifier
// nodes each holding one or two identifiers (name, then alias if present).
func specifiers(node ts.Node, content []byte) []binding {
	var out []binding
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		spec := node.NamedChild(i)
		if spec == nil {
			continue
		}
		var idents []string
		sc := spec.NamedChildCount()
		for j := uint(0); j < sc; j++ {
			id := spec.NamedChild(j)
			if id == nil {
				continue
			}
			idents = append(idents, id.Utf8Text(content))
		}
		switch len(idents) {
		case 1:
			out = append(out, binding{name: idents[0], alias: idents[0]})
		case 2:
			out = append(out, binding{name: idents[0], alias: idents[1]})
		}
	}
	return out
}

// cjsifyImport synthesizes the CommonJS-equivalent of a static import
// declaration, binding default/namespace/named imports to `require(...)`.
func cjsifyImport(node ts.Node, content []byte) string {
	specifier := importSourceSpecifier(node, content)
	reqCall := fmt.Sprintf("require(%q)", specifier)

	var defaultName, namespaceName string
	var named []binding

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_clause":
			defaultName, namespaceName, named = readImportClause(*child, content)
		}
	}

	var stmts []string
	if defaultName != "" {
		stmts = append(stmts, fmt.Sprintf("const %s = (%s).default;", defaultName, reqCall))
	}
	if namespaceName != "" {
		stmts = append(stmts, fmt.Sprintf("const %s = %s;", namespaceName, reqCall))
	}
	if len(named) > 0 {
		stmts = append(stmts, fmt.Sprintf("const {%s} = %s;", bindingList(named), reqCall))
	}
	if len(stmts) == 0 {
		// Side-effect-only import: `import "spec";`.
		return reqCall + ";"
	}
	return strings.Join(stmts, " ")
}

func readImportClause(clause ts.Node, content []byte) (defaultName, namespaceName string, named []binding) {
	count := clause.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			defaultName = child.Utf8Text(content)
		case "namespace_import":
			namespaceName = lastIdentifier(*child, content)
		case "named_imports":
			named = specifiers(*child, content)
		}
	}
	return
}

// lastIdentifier returns the text of a node's final named child,
// used to pull the bound name out of `* as ns`-shaped nodes.
func lastIdentifier(node ts.Node, content []byte) string {
	n := node.NamedChildCount()
	if n == 0 {
		return ""
	}
	if last := node.NamedChild(n - 1); last != nil {
		return last.Utf8Text(content)
	}
	return ""
}

func bindingList(named []binding) string {
	parts := make([]string, len(named))
	for i, b := range named {
		if b.alias != "" && b.alias != b.name {
			parts[i] = fmt.Sprintf("%s: %s", b.name, b.alias)
		} else {
			parts[i] = b.name
		}
	}
	return strings.Join(parts, ", ")
}

// cjsifyReexport synthesizes the CommonJS-equivalent of a re-export
// declaration (`export * from`, `export * as ns from`, `export {a} from`).
func cjsifyReexport(node ts.Node, content []byte) string {
	specifier := importSourceSpecifier(node, content)
	reqCall := fmt.Sprintf("require(%q)", specifier)

	var isStar bool
	var nsName string
	var named []binding

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "namespace_export":
			isStar = true
			nsName = lastIdentifier(*child, content)
		case "export_clause":
			named = specifiers(*child, content)
		}
	}

	switch {
	case isStar && nsName != "":
		return fmt.Sprintf("exports.%s = %s;", nsName, reqCall)
	case isStar:
		return fmt.Sprintf("Object.assign(exports, %s);", reqCall)
	case len(named) > 0:
		var stmts []string
		for _, b := range named {
			stmts = append(stmts, fmt.Sprintf("exports.%s = (%s).%s;", b.alias, reqCall, b.name))
		}
		return strings.Join(stmts, " ")
	default:
		return fmt.Sprintf("Object.assign(exports, %s);", reqCall)
	}
}
