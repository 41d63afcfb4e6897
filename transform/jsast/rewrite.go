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
	"sort"
	"strconv"
	"strings"
)

// splice is one text replacement to apply to the source, expressed as a
// byte range plus the replacement text.
type splice struct {
	span Span
	text string
}

// applySplices rewrites content back-to-front (highest byte offset
// first) so that earlier replacements never invalidate the byte offsets
// recorded for later ones.
func applySplices(content []byte, splices []splice) string {
	sort.Slice(splices, func(i, j int) bool {
		return splices[i].span.Start > splices[j].span.Start
	})
	out := string(content)
	for _, s := range splices {
		out = out[:s.span.Start] + s.text + out[s.span.End:]
	}
	return out
}

// dynamicCalleeSplice replaces a bare dynamic-import callee (`import`)
// with a reference to the module-scoped require.import helper, per the
// import-extraction step of the transform pass.
func dynamicCalleeSplice(imp Import) splice {
	return splice{span: imp.CalleeSpan, text: "require.import"}
}

// templateImportSplice synthesizes the call described for a dynamic
// import whose argument is a template literal with interpolations:
// `(args => import("a[...t0]b").then(m => m.fetch(args)))({t0:x})`.
func templateImportSplice(t DynamicTemplateImport, content []byte) splice {
	var path strings.Builder
	var argNames []string
	var argValues []string
	for i, quasi := range t.Quasis {
		path.WriteString(quasi)
		if i < len(t.Substitutions) {
			name := "t" + strconv.Itoa(i)
			path.WriteString("[..." + name + "]")
			argNames = append(argNames, name)
			argValues = append(argValues, string(content[t.Substitutions[i].Start:t.Substitutions[i].End]))
		}
	}

	var objFields strings.Builder
	for i, name := range argNames {
		if i > 0 {
			objFields.WriteString(",")
		}
		objFields.WriteString(name + ":" + argValues[i])
	}

	call := fmt.Sprintf(
		"(args => import(%q).then(m => m.fetch(args)))({%s})",
		path.String(),
		objFields.String(),
	)
	return splice{span: t.CallSpan, text: call}
}

// EnvelopeOptions configures the body-envelope wrap step.
type EnvelopeOptions struct {
	// ModuleURL is the canonical URL recorded in the $esfuse$.define call.
	ModuleURL string
	// PromisifyBody wraps the body to support top-level await, per an
	// entry point's promisify_entry_point option.
	PromisifyBody bool
	// UseEsfuseRuntime wraps the (possibly promisified) body in the
	// module registration call consumed by the $esfuse$ runtime.
	UseEsfuseRuntime bool
}

// Envelope wraps a module body in the promisify and/or registration
// wrappers described for the body-envelope step. When both options are
// set, the promisify wrapper nests inside the runtime registration call.
func Envelope(body string, opts EnvelopeOptions) string {
	out := body
	if opts.PromisifyBody {
		out = fmt.Sprintf(
			"module.exports = Promise.resolve({exports:{}}).then((module, exports=module.exports) => (async () => {\n%s\n})().then(() => module.exports));",
			out,
		)
	}
	if opts.UseEsfuseRuntime {
		out = fmt.Sprintf(
			"$esfuse$.define(%q, (module, exports, require, __filename, __dirname) => {\n%s\n});",
			opts.ModuleURL,
			out,
		)
	}
	return out
}

// Rewrite applies every splice implied by an ExtractResult (static
// import/re-export replacement, dynamic import callee rewriting and
// template-import synthesis) and then wraps
// the result in the body envelope. Plain require() calls are left as
// literal call sites: their argument is rewritten later, once the
// traversal has resolved it to a concrete sibling locator.
func Rewrite(content []byte, extracted *ExtractResult, envelope EnvelopeOptions) string {
	var splices []splice
	for _, imp := range extracted.Imports {
		switch {
		case imp.Replacement != "":
			splices = append(splices, splice{span: imp.NodeSpan, text: imp.Replacement})
		case imp.Kind == KindDynamicImport:
			splices = append(splices, dynamicCalleeSplice(imp))
		}
	}
	for _, t := range extracted.DynamicTemplateImports {
		splices = append(splices, templateImportSplice(t, content))
	}
	body := applySplices(content, splices)
	return Envelope(body, envelope)
}
