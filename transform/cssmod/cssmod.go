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

// Package cssmod implements the CSS backend of the transform dispatcher
// minify with the pack's CSS engine and, when the
// caller asked for `transform=js`, wrap the result as a JS module that
// injects a <style> element, additionally exporting a CSS-Modules
// local-name mapping for `*.module.css` specifiers.
package cssmod

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"esfuse.dev/esfuse/internal/hashid"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	return m
}()

// Result is the CSS backend's output.
type Result struct {
	MimeType string
	Code     string
}

// classSelector matches a class selector's name, e.g. the `btn` in
// `.btn{color:red}` or `.btn:hover{...}`. It's a deliberately simple,
// regex-based scan rather than a full selector parser: the pack's CSS
// parser (tdewolff/parse) tokenizes but doesn't build a selector AST,
// and CSS Modules scoping only needs to find class-selector names, not
// understand full selector combinators.
var classSelector = regexp.MustCompile(`\.([a-zA-Z_-][a-zA-Z0-9_-]*)`)

// Transform minifies code. When jsWrap is false the result is plain
// `text/css`. When jsWrap is true, the minified CSS is wrapped as a JS
// module that injects a <style> element keyed by moduleURL; when
// isModule is true (the specifier ends in `.module.css`), class names
// are additionally scoped to moduleURL and exported as `styles`.
func Transform(code, moduleURL string, jsWrap, isModule bool) (Result, error) {
	minified, err := minifier.String("text/css", code)
	if err != nil {
		return Result{}, fmt.Errorf("cssmod: minify failed: %w", err)
	}

	if !jsWrap {
		return Result{MimeType: "text/css", Code: minified}, nil
	}

	finalCSS := minified
	var stylesExport string
	if isModule {
		scoped, mapping := scope(minified, moduleURL)
		finalCSS = scoped
		stylesExport = "export const styles = " + mappingLiteral(mapping) + ";\n"
	}

	cssJSON, _ := json.Marshal(finalCSS)
	idJSON, _ := json.Marshal(moduleURL)
	js := fmt.Sprintf(
		"const s=document.createElement('style');s.textContent=%s;s.setAttribute('data-esfuse-module',%s);document.head.appendChild(s);\n%s",
		cssJSON, idJSON, stylesExport,
	)
	return Result{MimeType: "text/javascript", Code: js}, nil
}

// scope rewrites every class selector's name to a hash derived from the
// local name and moduleURL, returning the rewritten CSS and the
// local-name -> generated-name mapping.
func scope(css, moduleURL string) (string, map[string]string) {
	mapping := make(map[string]string)
	rewritten := classSelector.ReplaceAllStringFunc(css, func(match string) string {
		local := match[1:]
		generated, ok := mapping[local]
		if !ok {
			generated = local + "_" + hashid.Short(moduleURL+"#"+local)
			mapping[local] = generated
		}
		return "." + generated
	})
	return rewritten, mapping
}

// mappingLiteral renders a local->generated mapping as a deterministic
// JS object literal (keys sorted, so repeated builds are byte-stable).
func mappingLiteral(mapping map[string]string) string {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(name)
		valueJSON, _ := json.Marshal(mapping[name])
		b.Write(keyJSON)
		b.WriteByte(':')
		b.Write(valueJSON)
	}
	b.WriteByte('}')
	return b.String()
}
