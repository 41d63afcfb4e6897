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

package cdn

import (
	"context"
	"strings"

	"esfuse.dev/esfuse/hook"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/project"
)

// cdnScheme is the specifier prefix a host uses to explicitly ask for a
// CDN-backed module, e.g. "cdn:lit@3.0.0" or "cdn:lit@3.0.0/decorators.js".
const cdnScheme = "cdn:"

// RegisterResolveHook registers an on_resolve hook on p that turns any
// "cdn:{package}@{version}" or "cdn:{package}@{version}/{path}" request
// into an External locator built from provider's ModuleTemplate. Pair
// this with RegisterFetchHook and the same provider's backing Fetcher
// to make the resulting locator servable as well as resolvable.
//
// This hook never claims a bare specifier like "lit" on its own: module
// resolution without an explicit version is the Node resolver's job
// (workspace packages, a vendored node_modules/lit), and this package
// doesn't guess at a version a caller didn't name. A host that wants
// "any unresolved bare specifier falls through to the CDN" behavior can
// build that policy itself, using provider.PackageJSONTemplate to
// discover a version before constructing the "cdn:" request this hook
// expects.
func RegisterResolveHook(p *project.Project, provider Provider) {
	p.OnResolve = append(p.OnResolve, hook.New(`^cdn:`, func(_ context.Context, args project.ResolveHookArgs) (project.ResolveHookResult, bool, error) {
		pkg, version, modPath, ok := parseCDNRequest(args.Request)
		if !ok {
			return project.ResolveHookResult{}, false, nil
		}
		url := expandModuleTemplate(provider.ModuleTemplate, pkg, version, modPath)
		return project.ResolveHookResult{Locator: locator.New(locator.External, url, nil)}, true, nil
	}, nil))
}

// parseCDNRequest splits "cdn:{package}@{version}" and
// "cdn:{package}@{version}/{path}" (including scoped packages, e.g.
// "cdn:@lit/reactive-element@2.0.0") into their parts.
func parseCDNRequest(request string) (pkg, version, modPath string, ok bool) {
	rest, found := strings.CutPrefix(request, cdnScheme)
	if !found || rest == "" {
		return "", "", "", false
	}

	// A scoped package's own leading "@" isn't a version separator;
	// only split on the "@" that follows the package name.
	nameEnd := 0
	if strings.HasPrefix(rest, "@") {
		if slash := strings.Index(rest, "/"); slash != -1 {
			nameEnd = slash
		} else {
			return "", "", "", false
		}
	}
	at := strings.Index(rest[nameEnd:], "@")
	if at == -1 {
		return "", "", "", false
	}
	at += nameEnd

	pkg = rest[:at]
	remainder := rest[at+1:]
	if pkg == "" || remainder == "" {
		return "", "", "", false
	}

	if slash := strings.Index(remainder, "/"); slash != -1 {
		version = remainder[:slash]
		modPath = remainder[slash+1:]
	} else {
		version = remainder
	}
	if version == "" {
		return "", "", "", false
	}
	return pkg, version, modPath, true
}

func expandModuleTemplate(template, pkg, version, modPath string) string {
	r := strings.NewReplacer("{package}", pkg, "{version}", version, "{path}", modPath)
	url := r.Replace(template)
	return strings.TrimSuffix(url, "/")
}
