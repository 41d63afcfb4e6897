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

package transform

import (
	"strings"
	"testing"

	"esfuse.dev/esfuse/locator"
)

func TestDispatchJS(t *testing.T) {
	l := locator.New(locator.File, "app/a.ts", nil)
	result, err := Dispatch(Args{
		Locator: l, MimeType: "text/javascript", Code: "export const x = 1;",
		ModuleURL: l.URL(), UseEsfuseRuntime: true,
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(result.Code, "$esfuse$.define") {
		t.Errorf("expected registration envelope, got %q", result.Code)
	}
}

func TestDispatchCSSPlain(t *testing.T) {
	l := locator.New(locator.File, "app/a.css", nil)
	result, err := Dispatch(Args{Locator: l, MimeType: "text/css", Code: "body { color: red; }", ModuleURL: l.URL()})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.MimeType != "text/css" {
		t.Errorf("got MimeType %q, want text/css", result.MimeType)
	}
	if len(result.Imports) != 0 {
		t.Errorf("plain CSS pass-through should have no imports")
	}
}

func TestDispatchCSSAsJS(t *testing.T) {
	l := locator.New(locator.File, "app/a.css", []locator.Param{{Name: "transform", Value: "js"}})
	result, err := Dispatch(Args{Locator: l, MimeType: "text/css", Code: "body { color: red; }", ModuleURL: l.URL()})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.MimeType != "text/javascript" {
		t.Fatalf("got MimeType %q, want text/javascript", result.MimeType)
	}
	if !strings.Contains(result.Code, "document.createElement") {
		t.Errorf("expected style injection JS, got %q", result.Code)
	}
}

func TestDispatchMDX(t *testing.T) {
	l := locator.New(locator.File, "app/doc.mdx", nil)
	result, err := Dispatch(Args{Locator: l, MimeType: "text/markdown", Code: "# Title\n", ModuleURL: l.URL()})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.MimeType != "text/javascript" {
		t.Fatalf("got MimeType %q, want text/javascript", result.MimeType)
	}
	if !strings.Contains(result.Code, "export const toc") {
		t.Errorf("expected toc export, got %q", result.Code)
	}
}

func TestDispatchPassthrough(t *testing.T) {
	l := locator.New(locator.File, "app/logo.png", nil)
	result, err := Dispatch(Args{Locator: l, MimeType: "image/png", Code: "base64data"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.MimeType != "image/png" || result.Code != "base64data" {
		t.Errorf("expected pass-through unchanged, got %+v", result)
	}
	if len(result.Imports) != 0 {
		t.Errorf("pass-through should have no imports")
	}
}
