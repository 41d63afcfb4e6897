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

package graph

import (
	"context"
	"strings"
	"testing"

	"esfuse.dev/esfuse/internal/mapfs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
	"esfuse.dev/esfuse/project"
)

func newTestProject(t *testing.T) (*project.Project, *mapfs.MapFileSystem) {
	t.Helper()
	mfs := mapfs.New()
	mfs.AddFile("/repo/src/a.ts", "import { b } from \"./b\";\nexport const a = b + 1;\n", 0644)
	mfs.AddFile("/repo/src/b.ts", "export const b = 1;\n", 0644)
	mfs.AddFile("/repo/src/maybe.ts", "try { require(\"./missing\"); } catch {}\n", 0644)
	mfs.AddFile("/repo/node_modules/react/package.json", `{"name":"react","main":"index.js"}`, 0644)
	mfs.AddFile("/repo/node_modules/react/index.js", "module.exports = {};", 0644)
	mfs.AddFile("/repo/src/vendor.ts", "import React from \"react\";\nexport const x = React;\n", 0644)

	p := project.New("/repo")
	p.Resolver = noderesolve.NewResolver(mfs, nil)
	p.Freeze()
	return p, mfs
}

func allowAllOptions() Options {
	return Options{
		TraverseDependencies: true,
		TraversePackages:     true,
		TraverseVendors:      true,
		TraverseNatives:      true,
		GeneratedFolder:      "__generated__",
	}
}

func TestBatchSingleFileNoImports(t *testing.T) {
	p, fsys := newTestProject(t)
	entry, _ := p.LocatorFromPath("/repo/src/b.ts", nil)

	results := Batch(context.Background(), p, fsys, []locator.Locator{entry}, allowAllOptions())

	result, ok := results[entry.URL()]
	if !ok {
		t.Fatalf("entry %q missing from results", entry.URL())
	}
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Module.Resolutions) != 0 {
		t.Errorf("got %d resolutions, want 0", len(result.Module.Resolutions))
	}
}

func TestBatchStaticImportTraversal(t *testing.T) {
	p, fsys := newTestProject(t)
	entry, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	results := Batch(context.Background(), p, fsys, []locator.Locator{entry}, allowAllOptions())

	if len(results) != 2 {
		t.Fatalf("got %d modules, want 2 (a.ts and b.ts)", len(results))
	}
	a, ok := results[entry.URL()]
	if !ok || a.Err != nil {
		t.Fatalf("a.ts missing or errored: %+v", a)
	}
	target, ok := a.Module.Resolutions["./b"]
	if !ok || target == nil {
		t.Fatalf("expected a.ts to resolve ./b, got %+v", a.Module.Resolutions)
	}
	if _, ok := results[target.URL()]; !ok {
		t.Errorf("resolved target %q was not itself traversed", target.URL())
	}
}

func TestBatchVisitedOnce(t *testing.T) {
	p, fsys := newTestProject(t)
	a, _ := p.LocatorFromPath("/repo/src/a.ts", nil)
	b, _ := p.LocatorFromPath("/repo/src/b.ts", nil)

	results := Batch(context.Background(), p, fsys, []locator.Locator{a, b}, allowAllOptions())

	if len(results) != 2 {
		t.Fatalf("got %d results, want exactly 2 distinct modules", len(results))
	}
}

func TestBatchOptionalImportSuppressed(t *testing.T) {
	p, fsys := newTestProject(t)
	entry, _ := p.LocatorFromPath("/repo/src/maybe.ts", nil)

	results := Batch(context.Background(), p, fsys, []locator.Locator{entry}, allowAllOptions())

	result, ok := results[entry.URL()]
	if !ok {
		t.Fatalf("entry missing from results")
	}
	if result.Err != nil {
		t.Fatalf("an optional (try-guarded) require failure should not fail the module: %v", result.Err)
	}
}

func TestBatchTraverseVendorsFalseStopsAtBoundary(t *testing.T) {
	p, fsys := newTestProject(t)
	entry, _ := p.LocatorFromPath("/repo/src/vendor.ts", nil)

	opts := allowAllOptions()
	opts.TraverseVendors = false
	results := Batch(context.Background(), p, fsys, []locator.Locator{entry}, opts)

	if len(results) != 1 {
		t.Fatalf("got %d modules, want only the entry (react should not be traversed)", len(results))
	}
	result := results[entry.URL()]
	target, ok := result.Module.Resolutions["react"]
	if !ok {
		t.Fatalf("expected a null resolution entry for react, got none")
	}
	if target != nil {
		t.Errorf("expected react's resolution to be nil (filtered), got %v", target)
	}
}

func TestBatchRewritesRequireSpecifiers(t *testing.T) {
	p, fsys := newTestProject(t)
	entry, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	results := Batch(context.Background(), p, fsys, []locator.Locator{entry}, allowAllOptions())

	a := results[entry.URL()]
	if a.Err != nil {
		t.Fatalf("unexpected error: %v", a.Err)
	}
	if strings.Contains(a.Module.Code, `require("./b")`) {
		t.Errorf("expected ./b specifier to be rewritten to a virtual path, code: %q", a.Module.Code)
	}
}
