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

// Package project holds the process-wide, constructed-once registry that
// every pipeline stage shares: namespace roots, the plugin hook lists,
// the Node-style resolver, the archive cache, and the upward-walking
// package.json finder.
package project

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"esfuse.dev/esfuse/archive"
	"esfuse.dev/esfuse/hook"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
)

// ResolveHookArgs is passed to every on_resolve hook.
type ResolveHookArgs struct {
	Request string
	Issuer  locator.Locator
}

// ResolveHookResult is an on_resolve hook's answer when it handles a key.
type ResolveHookResult struct {
	Locator locator.Locator
}

// FetchHookArgs is passed to every on_fetch hook.
type FetchHookArgs struct {
	Locator locator.Locator
}

// FetchHookResult is an on_fetch hook's answer when it handles a key.
type FetchHookResult struct {
	MimeType string
	Code     []byte
}

// nsEntry is one namespace registration: its absolute root path, kept
// alongside the namespace name for longest-prefix lookup.
type nsEntry struct {
	namespace string
	path      string
}

// Project is the shared, reference-counted registry passed to every
// stage. Construct with New, register namespaces and hooks, then call
// Freeze before handing the Project to concurrent traversal workers.
type Project struct {
	Root string

	nsToPath map[string]string
	// pathTrie is a slice of namespace roots sorted by path length
	// descending, so the first match in a linear scan is the longest
	// prefix. A real trie isn't worth it at the namespace counts this
	// project deals with (single digits to low tens).
	pathTrie []nsEntry

	OnResolve []hook.Hook[ResolveHookArgs, ResolveHookResult]
	OnFetch   []hook.Hook[FetchHookArgs, FetchHookResult]

	Resolver *noderesolve.Resolver
	Archives *archive.Cache

	packageDirMu    sync.Mutex
	packageDirCache map[string]string

	frozen bool
}

// New constructs a Project rooted at root, with the reserved `app`
// namespace implicitly pointing at it.
func New(root string) *Project {
	p := &Project{
		Root:            root,
		nsToPath:        make(map[string]string),
		packageDirCache: make(map[string]string),
		Archives:        archive.NewCache(16),
	}
	p.RegisterNamespace("app", root)
	return p
}

// RegisterNamespace adds a namespace→root mapping. Construction time
// only: calling it after Freeze is a programmer error and panics.
func (p *Project) RegisterNamespace(namespace, root string) {
	if p.frozen {
		panic("project: RegisterNamespace called after Freeze")
	}
	p.nsToPath[namespace] = root
	p.pathTrie = append(p.pathTrie, nsEntry{namespace: namespace, path: root})
	sort.Slice(p.pathTrie, func(i, j int) bool {
		return len(p.pathTrie[i].path) > len(p.pathTrie[j].path)
	})
}

// Freeze marks the Project as ready for concurrent use. Hook lists and
// namespace registrations become read-only.
func (p *Project) Freeze() { p.frozen = true }

// NamespaceRoot looks up a namespace's absolute root path.
func (p *Project) NamespaceRoot(ns string) (string, bool) {
	root, ok := p.nsToPath[ns]
	return root, ok
}

// Locator parses spec into a project-relative Locator without touching
// the resolver: a `/_dev/` URL or any string containing a scheme colon
// is parsed as a URL; a leading `/` is treated as an absolute
// path+query; anything else returns false (it needs resolution).
func (p *Project) Locator(spec string) (locator.Locator, bool) {
	if strings.HasPrefix(spec, "/_dev/") || hasScheme(spec) {
		return locator.FromURL(spec)
	}
	if strings.HasPrefix(spec, "/") {
		path, query, _ := strings.Cut(spec, "?")
		rel := strings.TrimPrefix(path, "/")
		return p.LocatorFromPath(rel, parseQueryParams(query))
	}
	return locator.Locator{}, false
}

func hasScheme(s string) bool {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return false
	}
	scheme := s[:idx]
	for _, r := range scheme {
		if !(r == '+' || r == '-' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func parseQueryParams(query string) []locator.Param {
	if query == "" {
		return nil
	}
	var params []locator.Param
	for _, pair := range strings.Split(query, "&") {
		name, value, _ := strings.Cut(pair, "=")
		params = append(params, locator.Param{Name: name, Value: value})
	}
	return params
}

// LocatorFromPath finds the longest namespace-root prefix of p, forms a
// File locator as "ns/relative-sub-path" with forward slashes. Returns
// false when no registered namespace root prefixes p.
func (p *Project) LocatorFromPath(absPath string, params []locator.Param) (locator.Locator, bool) {
	cleaned := path.Clean("/" + absPath)[1:]
	for _, entry := range p.pathTrie {
		root := strings.TrimPrefix(path.Clean("/"+entry.path)[1:], "")
		if cleaned == root || strings.HasPrefix(cleaned, root+"/") {
			rel := strings.TrimPrefix(cleaned, root)
			rel = strings.TrimPrefix(rel, "/")
			specifier := entry.namespace
			if rel != "" {
				specifier += "/" + rel
			}
			return locator.New(locator.File, specifier, params), true
		}
	}
	return locator.Locator{}, false
}

// PhysicalPath resolves a Locator to an absolute filesystem path using
// this Project's namespace table.
func (p *Project) PhysicalPath(l locator.Locator) (string, bool) {
	return l.PhysicalPath(p.NamespaceRoot)
}

// PackageDirFromLocator walks ancestors from the Locator's physical path
// looking for the nearest package.json, memoizing the result.
func (p *Project) PackageDirFromLocator(l locator.Locator, exists func(dir string) bool) (string, bool) {
	physical, ok := p.PhysicalPath(l)
	if !ok {
		return "", false
	}
	return p.PackageDirFromPath(physical, exists)
}

// PackageDirFromPath is PackageDirFromLocator's underlying walk, exposed
// directly for callers that already have a physical path (resolvestage
// does, for the issuer directory).
func (p *Project) PackageDirFromPath(physical string, exists func(dir string) bool) (string, bool) {
	p.packageDirMu.Lock()
	if dir, ok := p.packageDirCache[physical]; ok {
		p.packageDirMu.Unlock()
		return dir, dir != ""
	}
	p.packageDirMu.Unlock()

	dir := path.Dir(physical)
	for {
		if exists(path.Join(dir, "package.json")) {
			p.packageDirMu.Lock()
			p.packageDirCache[physical] = dir
			p.packageDirMu.Unlock()
			return dir, true
		}
		parent := path.Dir(dir)
		if parent == dir {
			p.packageDirMu.Lock()
			p.packageDirCache[physical] = ""
			p.packageDirMu.Unlock()
			return "", false
		}
		dir = parent
	}
}

// DispatchResolve runs the on_resolve hook list for key.
func (p *Project) DispatchResolve(ctx context.Context, key string, args ResolveHookArgs) (ResolveHookResult, bool, error) {
	return hook.Dispatch(ctx, p.OnResolve, key, args)
}

// DispatchFetch runs the on_fetch hook list for key.
func (p *Project) DispatchFetch(ctx context.Context, key string, args FetchHookArgs) (FetchHookResult, bool, error) {
	return hook.Dispatch(ctx, p.OnFetch, key, args)
}
