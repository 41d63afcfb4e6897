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

// Package graph holds the concurrent batch-resolution traversal and the
// secondary invalidation graph (invalidation.go) used to find which
// compiled locators must be dropped from a cache when a source module
// changes.
package graph

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"sync"

	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/fetchstage"
	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/internal/hashid"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/project"
	"esfuse.dev/esfuse/resolvestage"
	"esfuse.dev/esfuse/sourcemap"
	"esfuse.dev/esfuse/transform"
	"esfuse.dev/esfuse/transform/jsast"
)

// Options configures one traversal.
type Options struct {
	// PromisifyEntryPoint wraps every entry locator's body for
	// top-level await, applied only to entries.
	PromisifyEntryPoint bool
	UseEsfuseRuntime    bool

	TraverseDependencies bool
	TraversePackages     bool
	TraverseVendors      bool
	TraverseNatives      bool

	// GeneratedFolder is where a module with no physical path (or with
	// params that make its default physical path ambiguous) gets its
	// hashed virtual output path.
	GeneratedFolder string
}

// Module is one traversed module and its discovered import resolutions.
type Module struct {
	Locator   locator.Locator
	MimeType  string
	Code      string
	SourceMap []byte
	// NewlineCount is the number of '\n' bytes in Code as produced by
	// the transform dispatcher.
	NewlineCount int
	// Resolutions maps each extracted import specifier to its target
	// Locator. A present key with a nil Locator means "do not
	// traverse/bundle this import but keep the textual reference" —
	// the null-resolution case: externals and filtered imports.
	Resolutions       map[string]*locator.Locator
	VirtualOutputPath string
}

// Result is one module's outcome: exactly one of Module or Err is set.
type Result struct {
	Locator locator.Locator
	Module  *Module
	Err     *diag.CompilationError
}

type workItem struct {
	loc     locator.Locator
	isEntry bool
}

// Batch drives the concurrent resolve/fetch/transform traversal,
// returning every visited module keyed by its canonical URL.
func Batch(ctx context.Context, p *project.Project, fsys fs.FileSystem, entries []locator.Locator, opts Options) map[string]*Result {
	ch := make(chan workItem, 4096)
	var wg sync.WaitGroup

	var visitedMu sync.Mutex
	visited := make(map[string]bool)

	var resultMu sync.Mutex
	results := make(map[string]*Result)

	var enqueue func(workItem)
	enqueue = func(item workItem) {
		visitedMu.Lock()
		if visited[item.loc.URL()] {
			visitedMu.Unlock()
			return
		}
		visited[item.loc.URL()] = true
		visitedMu.Unlock()
		wg.Add(1)
		ch <- item
	}

	for _, e := range entries {
		enqueue(workItem{loc: e, isEntry: true})
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for item := range ch {
		item := item
		go func() {
			defer wg.Done()
			result := processModule(ctx, p, fsys, opts, item, enqueue)
			resultMu.Lock()
			results[item.loc.URL()] = result
			resultMu.Unlock()
		}()
	}

	rewriteRequireSpecifiers(results)
	return results
}

// processModule fetches, transforms, and resolves one module's imports,
// applying the traversal filters below.
func processModule(ctx context.Context, p *project.Project, fsys fs.FileSystem, opts Options, item workItem, enqueue func(workItem)) *Result {
	fetched, ferr := fetchstage.Fetch(ctx, p, fsys, item.loc)
	if ferr != nil {
		return &Result{Locator: item.loc, Err: ferr}
	}

	code := fetched.Code
	if fetched.Base64 {
		// Binary payloads never carry imports; transform dispatch would
		// try to parse them as source. Treat as an opaque pass-through.
		return &Result{Locator: item.loc, Module: &Module{
			Locator: item.loc, MimeType: fetched.MimeType, Code: code,
			Resolutions:       map[string]*locator.Locator{},
			VirtualOutputPath: virtualOutputPath(p, item.loc, fetched.MimeType, opts),
		}}
	}

	dispatched, cerr := transform.Dispatch(transform.Args{
		Locator:          item.loc,
		MimeType:         fetched.MimeType,
		Code:             code,
		ModuleURL:        item.loc.URL(),
		PromisifyBody:    opts.PromisifyEntryPoint && item.isEntry,
		UseEsfuseRuntime: opts.UseEsfuseRuntime,
	})
	if cerr != nil {
		return &Result{Locator: item.loc, Err: cerr}
	}

	resolutions := make(map[string]*locator.Locator)
	var moduleErr *diag.CompilationError

	for _, imp := range dispatched.Imports {
		if !imp.Extracted {
			continue
		}
		span := imp.Span
		resolved, rerr := resolvestage.Resolve(ctx, p, fsys, resolvestage.Args{
			Request: imp.Specifier,
			Issuer:  item.loc,
			Span:    &span,
		})
		if rerr != nil {
			if !imp.Optional {
				if moduleErr == nil {
					moduleErr = rerr
				} else {
					moduleErr = moduleErr.Append(rerr.Diagnostics...)
				}
			}
			continue
		}

		target := resolved.Locator
		if dropped := filterTarget(p, fsys, item.loc, target, opts); dropped {
			resolutions[imp.Specifier] = nil
			continue
		}

		targetCopy := target
		resolutions[imp.Specifier] = &targetCopy
		if opts.TraverseDependencies {
			enqueue(workItem{loc: target})
		}
	}

	if moduleErr != nil {
		return &Result{Locator: item.loc, Err: moduleErr}
	}

	return &Result{Locator: item.loc, Module: &Module{
		Locator:           item.loc,
		MimeType:          dispatched.MimeType,
		Code:              dispatched.Code,
		SourceMap:         dispatched.SourceMap,
		NewlineCount:      strings.Count(dispatched.Code, "\n"),
		Resolutions:       resolutions,
		VirtualOutputPath: virtualOutputPath(p, item.loc, dispatched.MimeType, opts),
	}}
}

// filterTarget applies the traversal filters in order, reporting
// whether target should be kept as a textual-only (null) resolution
// instead of traversed.
func filterTarget(p *project.Project, fsys fs.FileSystem, issuer, target locator.Locator, opts Options) bool {
	if target.Kind() == locator.External {
		return true
	}
	if !opts.TraverseNatives && strings.HasSuffix(target.Specifier(), ".node") {
		return true
	}
	if !opts.TraverseVendors && strings.Contains(target.URL(), "/node_modules/") {
		return true
	}
	if !opts.TraversePackages {
		issuerDir, issuerOK := p.PackageDirFromLocator(issuer, fsys.Exists)
		targetDir, targetOK := p.PackageDirFromLocator(target, fsys.Exists)
		if issuerOK != targetOK || issuerDir != targetDir {
			return true
		}
	}
	return false
}

var extByMime = map[string]string{
	"text/javascript":  ".js",
	"text/css":         ".css",
	"application/json": ".json",
	"application/wasm": ".wasm",
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"image/gif":        ".gif",
	"image/svg+xml":    ".svg",
	"image/webp":       ".webp",
}

// virtualOutputPath reuses the physical path when the module has one
// and no params; otherwise it derives a stable hashed name from the
// locator's canonical (param-sorted) JSON representation.
func virtualOutputPath(p *project.Project, l locator.Locator, mimeType string, opts Options) string {
	if physical, ok := p.PhysicalPath(l); ok && len(l.Params()) == 0 {
		return physical
	}

	dir := opts.GeneratedFolder
	if physical, ok := p.PhysicalPath(l); ok {
		dir = path.Dir(physical)
	}
	ext := extByMime[mimeType]
	return path.Join(dir, hashid.Short(canonicalLocatorJSON(l))+ext)
}

type canonicalLocator struct {
	Kind      string          `json:"kind"`
	Specifier string          `json:"specifier"`
	Params    []locator.Param `json:"params"`
}

func canonicalLocatorJSON(l locator.Locator) string {
	data, _ := json.Marshal(canonicalLocator{Kind: l.Kind().String(), Specifier: l.Specifier(), Params: l.Params()})
	return string(data)
}

// rewriteRequireSpecifiers walks every successful JS module and rewrites
// each require("...") call's argument to the relative virtual path of
// its resolution, when that resolution is itself a present, successful
// module. Imports with a null resolution (externals, filtered targets)
// or one whose target failed/is absent are left as literal textual
// references.
func rewriteRequireSpecifiers(results map[string]*Result) {
	for _, result := range results {
		if result.Module == nil || result.Module.MimeType != "text/javascript" {
			continue
		}
		module := result.Module

		mapping := make(map[string]string, len(module.Resolutions))
		for specifier, target := range module.Resolutions {
			if target == nil {
				continue
			}
			targetResult, ok := results[target.URL()]
			if !ok || targetResult.Module == nil {
				continue
			}
			mapping[specifier] = relativeVirtualPath(module.VirtualOutputPath, targetResult.Module.VirtualOutputPath)
		}
		if len(mapping) == 0 {
			continue
		}

		extracted, err := jsast.Extract([]byte(module.Code))
		if err != nil {
			continue
		}
		module.Code, module.SourceMap = spliceRequireCalls(module.Code, module.SourceMap, extracted.Imports, mapping)
	}
}

// relativeVirtualPath computes the forward-slash relative import path
// from one module's virtual output path to a sibling's.
func relativeVirtualPath(from, to string) string {
	rel, err := relPath(path.Dir(from), to)
	if err != nil {
		return to
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// relPath is a minimal forward-slash-path relative computation (the
// project's virtual paths are always forward-slash, so path.Rel's
// OS-specific variant isn't the right tool here).
func relPath(fromDir, to string) (string, error) {
	fromParts := splitPath(fromDir)
	toParts := splitPath(to)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var parts []string
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, "/"), nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// spliceRequireCalls replaces each require("specifier") call's string
// argument in code with the mapped relative path, applying edits
// back-to-front so earlier replacements don't invalidate later offsets.
// When sourceMapJSON is non-empty, it decodes the map, shifts every
// mapping that follows an edit on its generated line by the edit's
// length delta, and returns the re-encoded map alongside the rewritten
// code — splicing the incoming source map the way the traversal's
// in-place rewrite pass needs, rather than leaving it to describe the
// module's pre-splice text.
func spliceRequireCalls(code string, sourceMapJSON []byte, imports []jsast.Import, mapping map[string]string) (string, []byte) {
	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	for _, imp := range imports {
		if imp.Kind != jsast.KindImportDeclaration {
			continue
		}
		replacement, ok := mapping[imp.Specifier]
		if !ok {
			continue
		}
		encoded, _ := json.Marshal(replacement)
		edits = append(edits, edit{
			start: int(imp.NodeSpan.Start),
			end:   int(imp.NodeSpan.End),
			text:  "require(" + string(encoded) + ")",
		})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	var smap *sourcemap.Map
	if len(sourceMapJSON) > 0 {
		if decoded, err := sourcemap.Decode(sourceMapJSON); err == nil {
			smap = decoded
		}
	}

	out := code
	for _, e := range edits {
		if smap != nil {
			line, col := lineCol(out, e.start)
			sourcemap.ShiftColumnsAfter(smap, line, col, len(e.text)-(e.end-e.start))
		}
		out = out[:e.start] + e.text + out[e.end:]
	}

	if smap == nil {
		return out, sourceMapJSON
	}
	encoded, err := sourcemap.Encode(smap)
	if err != nil {
		return out, sourceMapJSON
	}
	return out, encoded
}

// lineCol converts a byte offset within code into a 0-indexed
// (line, column) pair, matching the generated-position convention the
// decoded source map's Segment.GenCol uses.
func lineCol(code string, offset int) (line, col int) {
	upTo := code[:offset]
	line = strings.Count(upTo, "\n")
	if idx := strings.LastIndexByte(upTo, '\n'); idx >= 0 {
		return line, offset - idx - 1
	}
	return line, offset
}
