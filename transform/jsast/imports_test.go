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

import "testing"

func TestExtractStaticImport(t *testing.T) {
	result, err := Extract([]byte(`import { a, b as c } from "lib";`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(result.Imports))
	}
	imp := result.Imports[0]
	if imp.Specifier != "lib" {
		t.Errorf("Specifier = %q, want %q", imp.Specifier, "lib")
	}
	if imp.Kind != KindImportDeclaration {
		t.Errorf("Kind = %v, want KindImportDeclaration", imp.Kind)
	}
	if imp.Replacement == "" {
		t.Error("Replacement should not be empty for a static import")
	}
}

func TestExtractDynamicImport(t *testing.T) {
	result, err := Extract([]byte(`const p = import("./foo.js");`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(result.Imports))
	}
	imp := result.Imports[0]
	if imp.Kind != KindDynamicImport {
		t.Errorf("Kind = %v, want KindDynamicImport", imp.Kind)
	}
	if imp.Specifier != "./foo.js" {
		t.Errorf("Specifier = %q, want %q", imp.Specifier, "./foo.js")
	}
}

func TestExtractOptionalImport(t *testing.T) {
	result, err := Extract([]byte(`try { require("missing"); } catch {}`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(result.Imports))
	}
	if !result.Imports[0].Optional {
		t.Error("expected Optional = true for a require() inside a try/catch")
	}
}

func TestExtractNonOptionalImportOutsideTry(t *testing.T) {
	result, err := Extract([]byte(`require("present");`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(result.Imports))
	}
	if result.Imports[0].Optional {
		t.Error("expected Optional = false outside any try/catch")
	}
}

func TestExtractImportInsideCatchIsNotOptional(t *testing.T) {
	// try-depth increments only around the try block itself, not the
	// handler or finalizer.
	result, err := Extract([]byte(`try {} catch { require("x"); }`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(result.Imports))
	}
	if result.Imports[0].Optional {
		t.Error("expected Optional = false for a require() inside the catch handler")
	}
}

func TestExtractDynamicTemplateImport(t *testing.T) {
	result, err := Extract([]byte("const x = 1; import(`./mod-${x}.js`);"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.DynamicTemplateImports) != 1 {
		t.Fatalf("got %d template imports, want 1", len(result.DynamicTemplateImports))
	}
	tmpl := result.DynamicTemplateImports[0]
	if len(tmpl.Quasis) != 2 {
		t.Fatalf("got %d quasis, want 2", len(tmpl.Quasis))
	}
	if tmpl.Quasis[0] != "./mod-" || tmpl.Quasis[1] != ".js" {
		t.Errorf("Quasis = %q", tmpl.Quasis)
	}
	if len(tmpl.Substitutions) != 1 {
		t.Fatalf("got %d substitutions, want 1", len(tmpl.Substitutions))
	}
}

func TestRewriteTemplateImportSynthesizesFetchCall(t *testing.T) {
	content := []byte("import(`a${x}b`);")
	result, err := Extract(content)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	out := Rewrite(content, result, EnvelopeOptions{})
	want := `(args => import("a[...t0]b").then(m => m.fetch(args)))({t0:x})`
	if !contains(out, want) {
		t.Errorf("rewritten output = %s, want it to contain %s", out, want)
	}
}

func TestEnvelopeBothWrappers(t *testing.T) {
	out := Envelope("doStuff();", EnvelopeOptions{
		ModuleURL:        "file:///a.js",
		PromisifyBody:    true,
		UseEsfuseRuntime: true,
	})
	if !contains(out, "$esfuse$.define") {
		t.Error("missing runtime registration wrapper")
	}
	if !contains(out, "Promise.resolve({exports:{}})") {
		t.Error("missing promisify wrapper")
	}
	// Runtime registration must be the outer call.
	if indexOf(out, "$esfuse$.define") > indexOf(out, "Promise.resolve") {
		t.Error("runtime registration must wrap the promisify body, not the reverse")
	}
}

func contains(haystack, needle string) bool { return indexOf(haystack, needle) >= 0 }

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
