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

package noderesolve

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/packagejson"
)

// ErrorKind enumerates the resolver failure modes a caller needs to
// translate into a human-readable diagnostic.
type ErrorKind int

const (
	ErrUnknownScheme ErrorKind = iota
	ErrFileNotFound
	ErrModuleNotFound
	ErrModuleEntryNotFound
	ErrModuleSubpathNotFound
	ErrPackageJSONError
	ErrPackageJSONNotFound
	ErrInvalidSpecifier
	ErrTsConfigExtendsNotFound
	ErrPnpResolutionError
	ErrJSONError
	ErrIOError
	ErrUnknownError
)

// Error reports why Resolve failed, carrying enough detail for a
// resolvestage caller to build a Diagnostic.
type Error struct {
	Kind      ErrorKind
	Specifier string
	Message   string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, specifier, format string, args ...any) *Error {
	return &Error{Kind: kind, Specifier: specifier, Message: fmt.Sprintf(format, args...)}
}

// Resolution is a successful resolve: an absolute filesystem path, plus
// any query the resolver itself wants appended (e.g. a `browser` field
// remap note); most resolutions carry no query.
type Resolution struct {
	Path  string
	Query string
}

// extensions tried, in order, against an extension-less specifier.
var extensions = []string{"", ".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".json"}

// indexFiles tried, in order, when a specifier resolves to a directory.
var indexFiles = []string{"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs", "index.cjs"}

// Resolver implements Node.js-style module resolution: relative/absolute
// path resolution with extension and directory-index probing, package
// export-conditions resolution via packagejson, workspace package
// lookup, and node_modules directory-chain fallback.
type Resolver struct {
	fs         fs.FileSystem
	conditions []string

	workspacesMu sync.RWMutex
	workspaces   map[string]string // package name -> absolute directory
}

// NewResolver builds a Resolver. conditions, if nil, defaults to
// packagejson.DefaultConditions.
func NewResolver(fsys fs.FileSystem, conditions []string) *Resolver {
	return &Resolver{fs: fsys, conditions: conditions, workspaces: make(map[string]string)}
}

// SetWorkspacePackages registers the monorepo's workspace packages so a
// bare specifier can resolve to a sibling workspace package by name
// before falling through to node_modules.
func (r *Resolver) SetWorkspacePackages(packages []WorkspacePackage) {
	r.workspacesMu.Lock()
	defer r.workspacesMu.Unlock()
	for _, pkg := range packages {
		r.workspaces[pkg.Name] = pkg.Path
	}
}

// Resolve resolves specifier relative to fromDir (the issuer's physical
// directory, or the project root for an entry point).
func (r *Resolver) Resolve(specifier, fromDir string) (Resolution, *Error) {
	if specifier == "" {
		return Resolution{}, newError(ErrInvalidSpecifier, specifier, "empty specifier")
	}

	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return r.resolveFileOrDir(filepath.Join(fromDir, specifier), specifier)
	}
	if strings.HasPrefix(specifier, "/") {
		return r.resolveFileOrDir(specifier, specifier)
	}
	return r.resolveBare(specifier, fromDir)
}

func (r *Resolver) resolveFileOrDir(path, specifier string) (Resolution, *Error) {
	if resolved, ok := r.resolveAsFile(path); ok {
		return Resolution{Path: resolved}, nil
	}
	if resolved, ok := r.resolveAsDirectory(path); ok {
		return Resolution{Path: resolved}, nil
	}
	return Resolution{}, newError(ErrFileNotFound, specifier, "no such file or directory: %s", path)
}

func (r *Resolver) resolveAsFile(path string) (string, bool) {
	for _, ext := range extensions {
		candidate := path + ext
		if info, err := r.fs.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) resolveAsDirectory(dir string) (string, bool) {
	info, err := r.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}

	pkgPath := filepath.Join(dir, "package.json")
	if pkg, perr := packagejson.ParseFile(r.fs, pkgPath); perr == nil {
		if target, terr := pkg.ResolveExport(".", &packagejson.ResolveOptions{Conditions: r.conditions}); terr == nil {
			if resolved, ok := r.resolveAsFile(filepath.Join(dir, target)); ok {
				return resolved, true
			}
		}
	}

	for _, name := range indexFiles {
		candidate := filepath.Join(dir, name)
		if info, err := r.fs.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) resolveBare(specifier, fromDir string) (Resolution, *Error) {
	pkgName, subpath := splitBareSpecifier(specifier)

	r.workspacesMu.RLock()
	wsDir, isWorkspace := r.workspaces[pkgName]
	r.workspacesMu.RUnlock()
	if isWorkspace {
		return r.resolvePackageSubpath(pkgName, wsDir, subpath)
	}

	dir := fromDir
	for {
		candidate := filepath.Join(dir, "node_modules", pkgName)
		if info, err := r.fs.Stat(candidate); err == nil && info.IsDir() {
			return r.resolvePackageSubpath(pkgName, candidate, subpath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Resolution{}, newError(ErrModuleNotFound, specifier, "module not found: %s", pkgName)
}

func (r *Resolver) resolvePackageSubpath(pkgName, pkgDir, subpath string) (Resolution, *Error) {
	pkgJSONPath := filepath.Join(pkgDir, "package.json")
	pkg, err := packagejson.ParseFile(r.fs, pkgJSONPath)
	if err != nil {
		return Resolution{}, newError(ErrPackageJSONNotFound, pkgName, "package.json not found for %s: %v", pkgName, err)
	}

	opts := &packagejson.ResolveOptions{Conditions: r.conditions}
	target, terr := pkg.ResolveExport(subpath, opts)
	if terr != nil {
		if wildcardTarget, ok := matchWildcardExport(pkg.WildcardExports(opts), subpath); ok {
			target = wildcardTarget
		} else if subpath == "." && pkg.Module != "" {
			target = trimLeadingDotSlash(pkg.Module)
		} else if subpath == "." {
			return Resolution{}, newError(ErrModuleEntryNotFound, pkgName, "no entry point for %s", pkgName)
		} else {
			return Resolution{}, newError(ErrModuleSubpathNotFound, pkgName+subpath[1:], "export %q not found in %s", subpath, pkgName)
		}
	}

	candidate := filepath.Join(pkgDir, target)
	if resolved, ok := r.resolveAsFile(candidate); ok {
		return Resolution{Path: resolved}, nil
	}
	if resolved, ok := r.resolveAsDirectory(candidate); ok {
		return Resolution{Path: resolved}, nil
	}
	return Resolution{}, newError(ErrModuleEntryNotFound, pkgName, "resolved target does not exist: %s", candidate)
}

// matchWildcardExport tries each wildcard export pattern (e.g. "./lib/*")
// against subpath, returning the substituted target path on the first
// match.
func matchWildcardExport(wildcards []packagejson.WildcardExport, subpath string) (string, bool) {
	for _, w := range wildcards {
		prefix, suffix, ok := splitOnStar(w.Pattern)
		if !ok || !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(subpath, prefix), suffix)
		if middle == "" {
			continue
		}
		return w.Target + middle, true
	}
	return "", false
}

func splitOnStar(pattern string) (prefix, suffix string, ok bool) {
	idx := strings.IndexByte(pattern, '*')
	if idx < 0 {
		return "", "", false
	}
	return pattern[:idx], pattern[idx+1:], true
}

func trimLeadingDotSlash(s string) string {
	return strings.TrimPrefix(s, "./")
}

// splitBareSpecifier splits a bare specifier into its package name
// (scope-aware: "@scope/name") and subpath ("." for the package root,
// "./subpath" otherwise).
func splitBareSpecifier(specifier string) (name, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 {
			return specifier, "."
		}
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = "./" + parts[2]
		} else {
			subpath = "."
		}
		return name, subpath
	}
	name = parts[0]
	if len(parts) > 1 {
		subpath = "./" + strings.Join(parts[1:], "/")
	} else {
		subpath = "."
	}
	return name, subpath
}
