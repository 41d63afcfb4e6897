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

// Package esfuse is the public entry point wiring every stage
// (resolve, fetch, transform, batch traversal, bundle assembly)
// together behind a small set of functions a host embeds directly.
package esfuse

import (
	"context"

	"esfuse.dev/esfuse/bundle"
	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/fetchstage"
	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/graph"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/project"
	"esfuse.dev/esfuse/resolvestage"
	"esfuse.dev/esfuse/transform"
)

// ResolveArgs mirrors resolvestage.Args for callers that only import
// this root package.
type ResolveArgs = resolvestage.Args

// Resolve runs the resolve stage for one request, honoring on_resolve
// hooks registered on p.
func Resolve(ctx context.Context, p *project.Project, fsys fs.FileSystem, args ResolveArgs) (locator.Locator, *diag.CompilationError) {
	result, err := resolvestage.Resolve(ctx, p, fsys, args)
	return result.Locator, err
}

// Fetch runs the fetch stage for l, honoring on_fetch hooks registered
// on p.
func Fetch(ctx context.Context, p *project.Project, fsys fs.FileSystem, l locator.Locator) (fetchstage.Result, *diag.CompilationError) {
	return fetchstage.Fetch(ctx, p, fsys, l)
}

// FetchNoHooks runs the fetch stage's un-hooked default path directly,
// bypassing any on_fetch hooks registered on p.
func FetchNoHooks(p *project.Project, fsys fs.FileSystem, l locator.Locator) (fetchstage.Result, *diag.CompilationError) {
	return fetchstage.Default(p, fsys, l)
}

// TransformArgs mirrors transform.Args for callers that only import
// this root package.
type TransformArgs = transform.Args

// Transform runs the MIME-routed transform dispatcher on an already
// fetched module. The dispatcher has no pluggable hook stage of its
// own (unlike Resolve/Fetch), so this is identical to
// TransformNoHooks; both names are kept so a caller switching between
// the hooked and un-hooked forms of the other two stages doesn't have
// to special-case this one.
func Transform(args TransformArgs) (*transform.Result, *diag.CompilationError) {
	return transform.Dispatch(args)
}

// TransformNoHooks is Transform's explicit un-hooked alias.
func TransformNoHooks(args TransformArgs) (*transform.Result, *diag.CompilationError) {
	return transform.Dispatch(args)
}

// BatchOptions mirrors graph.Options for callers that only import this
// root package.
type BatchOptions = graph.Options

// Batch runs the concurrent traversal over every entry, returning each
// visited module keyed by its canonical URL.
func Batch(ctx context.Context, p *project.Project, fsys fs.FileSystem, entries []locator.Locator, opts BatchOptions) map[string]*graph.Result {
	return graph.Batch(ctx, p, fsys, entries, opts)
}

// BundleOptions mirrors bundle.Options for callers that only import
// this root package.
type BundleOptions = bundle.Options

// Bundle concatenates a batch's results into one output artifact.
func Bundle(results map[string]*graph.Result, opts BundleOptions) (*bundle.Result, error) {
	return bundle.Bundle(results, opts)
}

// LocatorFromPath forms a File locator for the namespace-relative
// filesystem path absPath.
func LocatorFromPath(p *project.Project, absPath string, params []locator.Param) (locator.Locator, bool) {
	return p.LocatorFromPath(absPath, params)
}

// PathFromLocator resolves l to its absolute filesystem path.
func PathFromLocator(p *project.Project, l locator.Locator) (string, bool) {
	return p.PhysicalPath(l)
}

// LocatorFromURL parses a canonical `/_dev/...` URL (or an opaque
// external specifier) into a Locator.
func LocatorFromURL(s string) (locator.Locator, bool) {
	return locator.FromURL(s)
}

// NSQualifiedFromPath forms the "namespace/relative-path" specifier
// string for absPath without constructing a full Locator.
func NSQualifiedFromPath(p *project.Project, absPath string) (string, bool) {
	l, ok := p.LocatorFromPath(absPath, nil)
	if !ok {
		return "", false
	}
	return l.Specifier(), true
}

// PathFromNSQualified resolves a "namespace/relative-path" specifier
// back to an absolute filesystem path.
func PathFromNSQualified(p *project.Project, nsQualified string) (string, bool) {
	l := locator.New(locator.File, nsQualified, nil)
	return p.PhysicalPath(l)
}
