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

package bundle

import (
	"encoding/json"
	"strings"
	"testing"

	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/graph"
	"esfuse.dev/esfuse/locator"
)

func jsResult(url, code string) *graph.Result {
	l, _ := locator.FromURL(url)
	return &graph.Result{
		Locator: l,
		Module: &graph.Module{
			Locator:           l,
			MimeType:          "text/javascript",
			Code:              code,
			VirtualOutputPath: strings.TrimPrefix(url, "/_dev/"),
		},
	}
}

func TestBundleOrdersByURLDescending(t *testing.T) {
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": jsResult("/_dev/file/app/a.js", "var a = 1;"),
		"/_dev/file/app/b.js": jsResult("/_dev/file/app/b.js", "var b = 2;"),
	}

	out, err := Bundle(results, Options{})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if strings.Index(out.Code, "var b") > strings.Index(out.Code, "var a") {
		t.Errorf("expected b.js (descending URL) before a.js, got %q", out.Code)
	}
}

func TestBundleSkipsNonJSAndFailedModules(t *testing.T) {
	l, _ := locator.FromURL("/_dev/file/app/a.css")
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js":  jsResult("/_dev/file/app/a.js", "var a = 1;"),
		"/_dev/file/app/a.css": {Locator: l, Module: &graph.Module{Locator: l, MimeType: "text/css", Code: "body{}"}},
	}

	out, err := Bundle(results, Options{})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if strings.Contains(out.Code, "body{}") {
		t.Errorf("non-JS module should not appear in bundle output, got %q", out.Code)
	}
}

func TestBundleEmitsMetaCallForEntries(t *testing.T) {
	entry, _ := locator.FromURL("/_dev/file/app/a.js")
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": jsResult("/_dev/file/app/a.js", "var a = 1;"),
	}

	out, err := Bundle(results, Options{Entries: []locator.Locator{entry}})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out.Code, "$esfuse$.meta(") {
		t.Errorf("expected a $esfuse$.meta call, got %q", out.Code)
	}
	if !strings.Contains(out.Code, `"/_dev/file/app/a.js":{}`) {
		t.Errorf("expected an empty meta entry for the error-free entry module, got %q", out.Code)
	}
	if out.Entry != "/_dev/file/app/a.js" {
		t.Errorf("Entry = %q, want /_dev/file/app/a.js", out.Entry)
	}
	if out.MimeType != "text/javascript" {
		t.Errorf("MimeType = %q, want text/javascript", out.MimeType)
	}
}

func TestBundleMetaEnumeratesEveryModuleAndItsError(t *testing.T) {
	a, _ := locator.FromURL("/_dev/file/app/a.js")
	bFail, _ := locator.FromURL("/_dev/file/app/b.js")
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": {
			Locator: a,
			Module: &graph.Module{
				Locator:           a,
				MimeType:          "text/javascript",
				Code:              `require("./b");`,
				Resolutions:       map[string]*locator.Locator{"./b": &bFail},
				VirtualOutputPath: "file/app/a.js",
			},
		},
		"/_dev/file/app/b.js": {
			Locator: bFail,
			Err:     sampleCompilationError(),
		},
	}

	out, err := Bundle(results, Options{Entries: []locator.Locator{a}})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	metaJSON := extractMetaJSON(t, out.Code)
	var meta map[string]struct {
		Error       string            `json:"error,omitempty"`
		Resolutions map[string]string `json:"resolutions,omitempty"`
	}
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		t.Fatalf("meta is not valid JSON: %v (%s)", err, metaJSON)
	}
	if len(meta) != 2 {
		t.Fatalf("got %d meta keys, want exactly the two module URLs: %v", len(meta), meta)
	}
	if meta["/_dev/file/app/a.js"].Resolutions["./b"] != "/_dev/file/app/b.js" {
		t.Errorf("expected a.js's meta to resolve ./b to b.js's URL, got %v", meta["/_dev/file/app/a.js"])
	}
	if meta["/_dev/file/app/b.js"].Error == "" {
		t.Errorf("expected b.js's meta to carry its compilation error, got %v", meta["/_dev/file/app/b.js"])
	}
}

func TestBundleRequireOnLoadEmitsModuleExportsAssignment(t *testing.T) {
	entry, _ := locator.FromURL("/_dev/file/app/a.js")
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": jsResult("/_dev/file/app/a.js", "var a = 1;"),
	}

	out, err := Bundle(results, Options{Entries: []locator.Locator{entry}, RequireOnLoad: true})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	want := `(typeof module !== 'undefined' ? module : {}).exports = $esfuse$.require("/_dev/file/app/a.js");`
	if !strings.Contains(out.Code, want) {
		t.Errorf("expected require-on-load assignment, got %q", out.Code)
	}
}

func TestBundleSourceMappingURLDerivesFromEntryLocator(t *testing.T) {
	entry, _ := locator.FromURL("/_dev/file/app/a.js")
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": {
			Locator: entry,
			Module: &graph.Module{
				Locator:           entry,
				MimeType:          "text/javascript",
				Code:              "var a = 1;",
				SourceMap:         []byte(`{"version":3,"sources":["a.ts"],"names":[],"mappings":""}`),
				VirtualOutputPath: "file/app/a.js",
			},
		},
	}

	out, err := Bundle(results, Options{Entries: []locator.Locator{entry}})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.HasSuffix(strings.TrimRight(out.Code, "\n"), "//# sourceMappingURL=/_dev/file/app/a.js.map") {
		t.Errorf("expected sourceMappingURL derived from the entry locator, got %q", out.Code)
	}
}

func sampleCompilationError() *diag.CompilationError {
	return diag.NewCompilationError(diag.FromMessage("boom"))
}

func extractMetaJSON(t *testing.T, code string) string {
	t.Helper()
	const marker = "$esfuse$.meta("
	start := strings.Index(code, marker)
	if start < 0 {
		t.Fatalf("no $esfuse$.meta( call found in %q", code)
	}
	start += len(marker)
	end := strings.LastIndex(code, ");\n")
	if end < 0 || end < start {
		t.Fatalf("malformed $esfuse$.meta( call in %q", code)
	}
	return code[start:end]
}

func TestBundlePrependsRuntimeCode(t *testing.T) {
	results := map[string]*graph.Result{
		"/_dev/file/app/a.js": jsResult("/_dev/file/app/a.js", "var a = 1;"),
	}

	out, err := Bundle(results, Options{RuntimeCode: "var $esfuse$ = {};"})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if strings.Index(out.Code, "$esfuse$ = {}") > strings.Index(out.Code, "var a") {
		t.Errorf("runtime code should precede module bodies, got %q", out.Code)
	}
}
