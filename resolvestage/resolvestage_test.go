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

package resolvestage

import (
	"context"
	"testing"

	"esfuse.dev/esfuse/internal/mapfs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
	"esfuse.dev/esfuse/project"
)

func newTestProject(t *testing.T) (*project.Project, *mapfs.MapFileSystem) {
	t.Helper()
	mfs := mapfs.New()
	mfs.AddFile("/repo/src/a.ts", "export const a = 1;", 0644)
	mfs.AddFile("/repo/src/b.ts", "export const b = 1;", 0644)
	mfs.AddFile("/repo/node_modules/react/package.json", `{"name":"react","main":"index.js"}`, 0644)
	mfs.AddFile("/repo/node_modules/react/index.js", "module.exports = {};", 0644)

	p := project.New("/repo")
	p.Resolver = noderesolve.NewResolver(mfs, nil)
	p.Freeze()
	return p, mfs
}

func TestResolveRelative(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "./b", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.Kind() != locator.File {
		t.Fatalf("got kind %v, want File", result.Locator.Kind())
	}
	if result.Locator.Specifier() != "app/src/b.ts" {
		t.Errorf("got specifier %q, want app/src/b.ts", result.Locator.Specifier())
	}
}

func TestResolveBarePackage(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "react", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.Specifier() != "app/node_modules/react/index.js" {
		t.Errorf("got specifier %q", result.Locator.Specifier())
	}
}

func TestResolveBuiltin(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "node:fs", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.Kind() != locator.External || result.Locator.Specifier() != "node:fs" {
		t.Errorf("got %v %q, want External node:fs", result.Locator.Kind(), result.Locator.Specifier())
	}
}

func TestResolveBuiltinWithoutPrefix(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "fs", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.Kind() != locator.External || result.Locator.Specifier() != "node:fs" {
		t.Errorf("got %v %q", result.Locator.Kind(), result.Locator.Specifier())
	}
}

func TestResolveContextBinding(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "esfuse/context", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.Kind() != locator.External {
		t.Errorf("got kind %v, want External", result.Locator.Kind())
	}
}

func TestResolveMissingModuleError(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	_, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "missing-package", Issuer: issuer})
	if diagErr == nil {
		t.Fatal("expected a diagnostic for an unresolvable bare specifier")
	}
}

func TestResolveForceParamsWinOnCollision(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{
		Request:     "./b?transform=url",
		Issuer:      issuer,
		ForceParams: []locator.Param{{Name: "transform", Value: "js"}},
	})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	value, ok := result.Locator.Param("transform")
	if !ok || value != "js" {
		t.Errorf("got transform=%q (ok=%v), want js from ForceParams", value, ok)
	}
}

func TestResolvePreResolvedURL(t *testing.T) {
	p, fsys := newTestProject(t)
	issuer, _ := p.LocatorFromPath("/repo/src/a.ts", nil)

	result, diagErr := Resolve(context.Background(), p, fsys, Args{Request: "/_dev/file/app/src/b.ts", Issuer: issuer})
	if diagErr != nil {
		t.Fatalf("Resolve: %v", diagErr)
	}
	if result.Locator.URL() != "/_dev/file/app/src/b.ts" {
		t.Errorf("got %q", result.Locator.URL())
	}
}
