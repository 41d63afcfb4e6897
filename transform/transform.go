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

// Package transform is the dispatcher that routes a
// fetched module by MIME type to the JS/TS AST pass, the CSS backend,
// or the MDX backend, passing everything else through untouched. Both
// non-JS backends' generated JS is re-entered through the JS/TS pass,
// exactly as the CSS and MDX backends themselves require.
package transform

import (
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/transform/cssmod"
	"esfuse.dev/esfuse/transform/jsast"
	"esfuse.dev/esfuse/transform/mdx"
)

// Args is one dispatcher call: the fetched module plus the envelope
// options the traversal decided for it (an entry point being
// promisified, the runtime registration wrapper).
type Args struct {
	Locator          locator.Locator
	MimeType         string
	Code             string
	ModuleURL        string
	PromisifyBody    bool
	UseEsfuseRuntime bool
}

// Result is a successful transform.
type Result struct {
	MimeType string
	Code     string
	// Imports is empty for any result whose MimeType isn't
	// text/javascript.
	Imports []jsast.ResolvedImport
	// SourceMap is non-nil only for text/javascript results; see
	// jsast.Result.SourceMap for its accuracy caveat.
	SourceMap []byte
}

// Dispatch routes Args by MimeType to the backend that handles it.
func Dispatch(args Args) (*Result, *diag.CompilationError) {
	switch args.MimeType {
	case "text/css":
		return dispatchCSS(args)
	case "text/markdown":
		return dispatchMDX(args)
	case "text/javascript":
		return runJS([]byte(args.Code), args, loaderFor(args.Locator.Specifier()))
	default:
		return &Result{MimeType: args.MimeType, Code: args.Code}, nil
	}
}

func dispatchCSS(args Args) (*Result, *diag.CompilationError) {
	transformParam, _ := args.Locator.Param("transform")
	wantJS := transformParam == "js"
	isModule := strings.HasSuffix(args.Locator.Specifier(), ".module.css")

	result, err := cssmod.Transform(args.Code, args.ModuleURL, wantJS, isModule)
	if err != nil {
		return nil, diag.NewCompilationError(diag.FromMessageAtSpan(err.Error(), args.Locator.URL(), &diag.DummySpan))
	}
	if !wantJS {
		return &Result{MimeType: result.MimeType, Code: result.Code}, nil
	}
	return runJS([]byte(result.Code), args, api.LoaderJS)
}

func dispatchMDX(args Args) (*Result, *diag.CompilationError) {
	_, isMeta := args.Locator.Param("meta")
	fullContentURL := mdx.FullContentLocator(args.Locator).URL()

	result, err := mdx.Transform([]byte(args.Code), isMeta, fullContentURL)
	if err != nil {
		return nil, diag.NewCompilationError(diag.FromMessageAtSpan(err.Error(), args.Locator.URL(), &diag.DummySpan))
	}
	return runJS([]byte(result.Code), args, api.LoaderJS)
}

func runJS(code []byte, args Args, loader api.Loader) (*Result, *diag.CompilationError) {
	result, cerr := jsast.Transform(code, jsast.Options{
		SourceURL:        args.Locator.URL(),
		ModuleURL:        args.ModuleURL,
		Loader:           loader,
		PromisifyBody:    args.PromisifyBody,
		UseEsfuseRuntime: args.UseEsfuseRuntime,
	})
	if cerr != nil {
		return nil, cerr
	}
	return &Result{MimeType: "text/javascript", Code: result.Code, Imports: result.Imports, SourceMap: result.SourceMap}, nil
}

func loaderFor(specifier string) api.Loader {
	switch path.Ext(specifier) {
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}
