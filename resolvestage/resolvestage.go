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

// Package resolvestage turns an import specifier into a Locator: it
// first tries the pre-resolution shortcuts (an already-canonical
// locator URL, the runtime-injected `esfuse/context` binding, an
// on_resolve hook), then delegates to the Node-style resolver and maps
// the result — or its failure — back onto the shared Locator and
// Diagnostic types every other stage speaks.
package resolvestage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
	"esfuse.dev/esfuse/project"
)

// Args is everything a single resolve call needs.
type Args struct {
	// Request is the specifier as written in source: "./b", "react",
	// "node:fs", or an already-canonical locator URL.
	Request string
	// Issuer is the module the request originates from.
	Issuer locator.Locator
	// Span, if known, is the call-site location, carried onto any
	// Diagnostic this resolve produces.
	Span *diag.Span
	// ForceParams are caller-supplied params that win over any query
	// string embedded in Request on a name collision.
	ForceParams []locator.Param
}

// Result is a successful resolve.
type Result struct {
	Locator locator.Locator
}

// builtins is the short list of Node core module names this project
// recognizes as External without ever touching node_modules. Real
// Node ships many more; this project only needs to recognize the ones
// that show up in browser-targeted source as "do not bundle me".
var builtins = map[string]bool{
	"fs": true, "path": true, "os": true, "http": true, "https": true,
	"crypto": true, "stream": true, "util": true, "events": true,
	"buffer": true, "url": true, "querystring": true, "child_process": true,
	"net": true, "tls": true, "dns": true, "zlib": true, "assert": true,
	"process": true, "module": true, "readline": true, "vm": true,
}

func builtinName(specifier string) (string, bool) {
	name := strings.TrimPrefix(specifier, "node:")
	if builtins[name] {
		return name, true
	}
	return "", false
}

// Resolve runs the resolution pipeline: pre-resolved shortcuts, the
// esfuse/context special case, hook dispatch, builtin detection, and
// finally the Node-style resolver.
func Resolve(ctx context.Context, p *project.Project, fsys fs.FileSystem, args Args) (Result, *diag.CompilationError) {
	// Step 1: pre-resolution path — the request already parses as a
	// project locator (a /_dev/ URL or an absolute path+query).
	if loc, ok := p.Locator(args.Request); ok {
		return Result{Locator: loc}, nil
	}

	// Step 2: the runtime-injected context binding.
	if args.Request == "esfuse/context" {
		return Result{Locator: locator.New(locator.External, "esfuse/context", nil)}, nil
	}

	// Step 3: on_resolve hooks.
	hookResult, handled, err := p.DispatchResolve(ctx, args.Request, project.ResolveHookArgs{
		Request: args.Request,
		Issuer:  args.Issuer,
	})
	if err != nil {
		return Result{}, diag.NewCompilationError(diag.FromMessageAtSpan(
			fmt.Sprintf("on_resolve hook failed for %q: %v", args.Request, err),
			args.Issuer.URL(), args.Span))
	}
	if handled {
		return Result{Locator: hookResult.Locator}, nil
	}

	specifier, query := splitRequest(args.Request)

	// Builtins never reach the filesystem resolver.
	if name, ok := builtinName(specifier); ok {
		return Result{Locator: locator.New(locator.External, "node:"+name, nil)}, nil
	}

	// Step 4: delegate to the Node-style resolver, rooted at the
	// issuer's physical directory (or the project root for an entry).
	fromDir := p.Root
	if physical, ok := p.PhysicalPath(args.Issuer); ok {
		fromDir = path.Dir(physical)
	}

	resolution, rerr := p.Resolver.Resolve(specifier, fromDir)
	if rerr != nil {
		return Result{}, diag.NewCompilationError(diag.FromMessageAtSpan(
			errorMessage(rerr), args.Issuer.URL(), args.Span))
	}

	params := mergeParams(query, args.ForceParams)
	if resolution.Query != "" {
		params = append(params, parseQuery(resolution.Query)...)
	}

	loc, ok := p.LocatorFromPath(resolution.Path, params)
	if !ok {
		return Result{}, diag.NewCompilationError(diag.FromMessageAtSpan(
			fmt.Sprintf("resolved %q to %q, which is outside every registered namespace", args.Request, resolution.Path),
			args.Issuer.URL(), args.Span))
	}
	return Result{Locator: loc}, nil
}

// splitRequest splits a request at its first "?" into (specifier,
// query-string).
func splitRequest(request string) (specifier, query string) {
	specifier, query, _ = strings.Cut(request, "?")
	return specifier, query
}

// mergeParams combines the request's own query string with the
// caller's force_params, force_params winning on a name collision —
// the policy this resolver commits to.
func mergeParams(query string, forceParams []locator.Param) []locator.Param {
	merged := parseQuery(query)
	for _, fp := range forceParams {
		replaced := false
		for i, p := range merged {
			if p.Name == fp.Name {
				merged[i] = fp
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, fp)
		}
	}
	return merged
}

func parseQuery(query string) []locator.Param {
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

// errorMessage renders a noderesolve.Error as the human-readable
// message for each enumerated failure kind.
func errorMessage(err *noderesolve.Error) string {
	switch err.Kind {
	case noderesolve.ErrUnknownScheme:
		return fmt.Sprintf("unknown scheme in specifier %q", err.Specifier)
	case noderesolve.ErrFileNotFound:
		return fmt.Sprintf("file not found: %s", err.Message)
	case noderesolve.ErrModuleNotFound:
		return fmt.Sprintf("module not found: %q", err.Specifier)
	case noderesolve.ErrModuleEntryNotFound:
		return fmt.Sprintf("no entry point for module %q", err.Specifier)
	case noderesolve.ErrModuleSubpathNotFound:
		return fmt.Sprintf("subpath not exported: %q", err.Specifier)
	case noderesolve.ErrPackageJSONError:
		return fmt.Sprintf("failed to parse package.json for %q: %s", err.Specifier, err.Message)
	case noderesolve.ErrPackageJSONNotFound:
		return fmt.Sprintf("package.json not found for %q", err.Specifier)
	case noderesolve.ErrInvalidSpecifier:
		return fmt.Sprintf("invalid specifier %q", err.Specifier)
	case noderesolve.ErrTsConfigExtendsNotFound:
		return fmt.Sprintf("extended tsconfig not found: %q", err.Specifier)
	case noderesolve.ErrPnpResolutionError:
		return fmt.Sprintf("Plug'n'Play resolution failed for %q: %s", err.Specifier, err.Message)
	case noderesolve.ErrJSONError:
		return fmt.Sprintf("invalid JSON while resolving %q: %s", err.Specifier, err.Message)
	case noderesolve.ErrIOError:
		return fmt.Sprintf("I/O error while resolving %q: %s", err.Specifier, err.Message)
	default:
		return fmt.Sprintf("failed to resolve %q: %s", err.Specifier, err.Message)
	}
}
