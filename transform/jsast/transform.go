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
	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-sourcemap/sourcemap"

	"esfuse.dev/esfuse/diag"
)

// Options configures one Transform call.
type Options struct {
	// SourceURL is the locator URL recorded on any diagnostic this pass
	// produces; when left empty, ModuleURL is used in its place.
	SourceURL string
	// ModuleURL is the URL recorded in the $esfuse$.define envelope.
	ModuleURL string
	Loader    api.Loader

	PromisifyBody    bool
	UseEsfuseRuntime bool
}

// ResolvedImport is an extracted import/require/dynamic-import reference
// whose span has been mapped back to the original (pre-down-level)
// source, ready to hand to a caller that only speaks diag.Span.
type ResolvedImport struct {
	Kind      ImportKind
	Specifier string
	Extracted bool
	Optional  bool
	Span      diag.Span
}

// Result is everything a successful Transform call returns: the rewritten
// body and the imports discovered along the way, with spans mapped back
// to the original (pre-down-level) source via esbuild's source map.
type Result struct {
	Code    string
	Imports []ResolvedImport
	// SourceMap is esbuild's down-level source map JSON, when produced.
	// It maps the down-leveled (pre-splice, pre-envelope) source back to
	// the original; it is not re-derived through the splice/envelope
	// steps, so positions inside spliced dynamic-import/require call
	// sites are approximate. Good enough for the batch/bundle merge this
	// project performs; a fully position-accurate map would need the
	// splice step to emit its own mapping segments, which this port
	// doesn't do (see DESIGN.md).
	SourceMap []byte
}

// Transform down-levels TypeScript/JSX syntax with esbuild, extracts and
// rewrites every import/require/dynamic-import reference found in the
// result, and wraps the module body in the registration envelope.
func Transform(source []byte, opts Options) (*Result, *diag.CompilationError) {
	if opts.SourceURL == "" {
		opts.SourceURL = opts.ModuleURL
	}

	down := api.Transform(string(source), api.TransformOptions{
		Loader:     opts.Loader,
		Target:     api.ES2022,
		JSXFactory: "React.createElement",
		Sourcemap:  api.SourceMapExternal,
		Defines:    map[string]string{"process.env.NODE_ENV": `"development"`},
		Sourcefile: opts.SourceURL,
	})

	if len(down.Errors) > 0 {
		diagnostics := make([]diag.Diagnostic, 0, len(down.Errors))
		for _, msg := range down.Errors {
			diagnostics = append(diagnostics, messageToDiagnostic(msg, opts.SourceURL))
		}
		return nil, diag.NewCompilationError(diagnostics...)
	}

	extracted, err := Extract(down.JS)
	if err != nil {
		return nil, diag.NewCompilationError(diag.FromMessageAtSpan(err.Error(), opts.SourceURL, &diag.DummySpan))
	}

	var consumer *sourcemap.Consumer
	if len(down.JSSourceMap) > 0 {
		if c, perr := sourcemap.Parse(opts.SourceURL, down.JSSourceMap); perr == nil {
			consumer = c
		}
	}

	resolved := make([]ResolvedImport, len(extracted.Imports))
	for i, imp := range extracted.Imports {
		resolved[i] = ResolvedImport{
			Kind:      imp.Kind,
			Specifier: imp.Specifier,
			Extracted: imp.Extracted,
			Optional:  imp.Optional,
			Span:      OriginalSpan(down.JS, imp.NodeSpan, consumer),
		}
	}

	code := Rewrite(down.JS, extracted, EnvelopeOptions{
		ModuleURL:        opts.ModuleURL,
		PromisifyBody:    opts.PromisifyBody,
		UseEsfuseRuntime: opts.UseEsfuseRuntime,
	})

	return &Result{Code: code, Imports: resolved, SourceMap: down.JSSourceMap}, nil
}

// OriginalSpan maps a byte-offset span in the down-leveled source to a
// Position span in the original source, via the esbuild source map when
// one is available, falling back to the down-leveled source's own
// row/col when it is not (plain JS input needs no down-level and
// esbuild may omit a trivial map).
func OriginalSpan(downleveled []byte, span Span, consumer *sourcemap.Consumer) diag.Span {
	startRow, startCol := lineCol(downleveled, span.Start)
	endRow, endCol := lineCol(downleveled, span.End)
	if consumer != nil {
		if _, _, row, col, ok := consumer.Source(startRow, startCol-1); ok {
			startRow, startCol = row+1, col+1
		}
		if _, _, row, col, ok := consumer.Source(endRow, endCol-1); ok {
			endRow, endCol = row+1, col+1
		}
	}
	return diag.Span{
		Start: diag.Position{Row: startRow, Col: startCol},
		End:   diag.Position{Row: endRow, Col: endCol},
	}
}

func lineCol(code []byte, offset uint) (row, col int) {
	row, col = 1, 1
	limit := offset
	if int(limit) > len(code) {
		limit = uint(len(code))
	}
	for i := uint(0); i < limit; i++ {
		if code[i] == '\n' {
			row++
			col = 1
		} else {
			col++
		}
	}
	return row, col
}

func messageToDiagnostic(msg api.Message, sourceURL string) diag.Diagnostic {
	if msg.Location == nil {
		return diag.FromMessage(msg.Text)
	}
	loc := msg.Location
	span := diag.Span{
		Start: diag.Position{Row: loc.Line, Col: loc.Column + 1},
		End:   diag.Position{Row: loc.Line, Col: loc.Column + 1 + loc.Length},
	}
	return diag.FromMessageAtSpan(msg.Text, sourceURL, &span)
}
