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

package locator

import "testing"

func TestURLRoundTrip(t *testing.T) {
	l := New(File, "app/src/index.ts", []Param{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}})
	parsed, ok := FromURL(l.URL())
	if !ok {
		t.Fatalf("FromURL(%q) failed", l.URL())
	}
	if !parsed.Equal(l) {
		t.Errorf("round trip mismatch: %q != %q", parsed.URL(), l.URL())
	}
}

func TestParamOrderIsCanonicalized(t *testing.T) {
	a := New(File, "app/x.ts", []Param{{Name: "z", Value: "1"}, {Name: "a", Value: "2"}})
	b := New(File, "app/x.ts", []Param{{Name: "a", Value: "2"}, {Name: "z", Value: "1"}})
	if !a.Equal(b) {
		t.Errorf("expected param-order-insensitive equality, got %q vs %q", a.URL(), b.URL())
	}
}

func TestExternalPreservesScheme(t *testing.T) {
	l, ok := FromURL("node:fs")
	if !ok {
		t.Fatal("FromURL(\"node:fs\") failed")
	}
	if l.Kind() != External {
		t.Errorf("Kind = %v, want External", l.Kind())
	}
	if l.URL() != "node:fs" {
		t.Errorf("URL = %q, want %q", l.URL(), "node:fs")
	}
}

func TestUnknownDevKindFails(t *testing.T) {
	if _, ok := FromURL("/_dev/bogus/app/x.ts"); ok {
		t.Error("expected FromURL to reject an unknown /_dev/ kind")
	}
}

func TestWithoutQuery(t *testing.T) {
	l := New(File, "app/x.ts", []Param{{Name: "transform", Value: "url"}})
	stripped := l.WithoutQuery()
	if len(stripped.Params()) != 0 {
		t.Errorf("expected no params after WithoutQuery, got %v", stripped.Params())
	}
}

func TestPhysicalPath(t *testing.T) {
	l := New(File, "app/src/index.ts", nil)
	nsToPath := func(ns string) (string, bool) {
		if ns == "app" {
			return "/repo", true
		}
		return "", false
	}
	path, ok := l.PhysicalPath(nsToPath)
	if !ok || path != "/repo/src/index.ts" {
		t.Errorf("PhysicalPath = (%q, %v), want (/repo/src/index.ts, true)", path, ok)
	}
}

func TestPhysicalPathUnknownNamespace(t *testing.T) {
	l := New(File, "missing/x.ts", nil)
	_, ok := l.PhysicalPath(func(string) (string, bool) { return "", false })
	if ok {
		t.Error("expected PhysicalPath to fail for an unregistered namespace")
	}
}
