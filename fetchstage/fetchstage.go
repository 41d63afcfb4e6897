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

// Package fetchstage reads the bytes a Locator names: plain files,
// archive members, or the synthetic module produced by the
// `transform=url` query sugar. It picks a MIME type from the file
// extension and encodes binary payloads as base64 before handing them
// back to the transform dispatcher.
package fetchstage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"esfuse.dev/esfuse/archive"
	"esfuse.dev/esfuse/diag"
	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/project"
)

// Result is what Fetch hands the transform dispatcher.
type Result struct {
	MimeType string
	Code     string
	// Base64 is true when Code is the base64 (no-padding) encoding of a
	// binary payload rather than the literal UTF-8 text.
	Base64 bool
}

var mimeByExtension = map[string]string{
	".js":   "text/javascript",
	".cjs":  "text/javascript",
	".mjs":  "text/javascript",
	".ts":   "text/javascript",
	".tsx":  "text/javascript",
	".jsx":  "text/javascript",
	".mdx":  "text/markdown",
	".css":  "text/css",
	".scss": "text/css",
	".json": "application/json",
	".wasm": "application/wasm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

func mimeFor(physicalPath string) string {
	if m, ok := mimeByExtension[path.Ext(physicalPath)]; ok {
		return m
	}
	return "text/plain"
}

func isBinary(mimeType string) bool {
	return !strings.HasPrefix(mimeType, "text/") && mimeType != "application/json"
}

// Fetch dispatches on_fetch hooks first, falling through to Default.
func Fetch(ctx context.Context, p *project.Project, fsys fs.FileSystem, l locator.Locator) (Result, *diag.CompilationError) {
	hookResult, handled, err := p.DispatchFetch(ctx, l.URL(), project.FetchHookArgs{Locator: l})
	if err != nil {
		return Result{}, diag.NewCompilationError(diag.FromMessage(fmt.Sprintf("on_fetch hook failed for %s: %v", l.URL(), err)))
	}
	if handled {
		mimeType := hookResult.MimeType
		if mimeType == "" {
			mimeType = "text/plain"
		}
		if isBinary(mimeType) {
			return Result{MimeType: mimeType, Code: base64.RawStdEncoding.EncodeToString(hookResult.Code), Base64: true}, nil
		}
		return Result{MimeType: mimeType, Code: toUTF8(hookResult.Code)}, nil
	}
	return Default(p, fsys, l)
}

// Default performs the un-hooked fetch: transform=url sugar, then
// archive-aware or plain filesystem I/O.
func Default(p *project.Project, fsys fs.FileSystem, l locator.Locator) (Result, *diag.CompilationError) {
	if l.Kind() == locator.External {
		return Result{}, diag.NewCompilationError(diag.FromMessage(fmt.Sprintf("cannot fetch external module %q", l.URL())))
	}

	for _, param := range l.Params() {
		if param.Name == "transform" && param.Value == "url" {
			canonical := l.WithoutQuery().URL()
			encoded, _ := json.Marshal(canonical)
			return Result{MimeType: "text/javascript", Code: fmt.Sprintf("export default %s;\n", encoded)}, nil
		}
	}

	physical, ok := p.PhysicalPath(l)
	if !ok {
		return Result{}, diag.NewCompilationError(diag.FromMessageAtSpan(
			fmt.Sprintf("cannot resolve %q to a physical path", l.URL()), l.URL(), nil))
	}

	data, err := readPhysical(p, fsys, physical)
	if err != nil {
		return Result{}, diag.NewCompilationError(diag.FromMessageAtSpan(
			fmt.Sprintf("failed to read %s: %v", physical, err), l.URL(), nil))
	}

	mimeType := mimeFor(physical)
	if isBinary(mimeType) {
		return Result{MimeType: mimeType, Code: base64.RawStdEncoding.EncodeToString(data), Base64: true}, nil
	}
	return Result{MimeType: mimeType, Code: toUTF8(string(data))}, nil
}

func readPhysical(p *project.Project, fsys fs.FileSystem, physical string) ([]byte, error) {
	if archivePath, memberPath, ok := archive.Split(physical); ok {
		return p.Archives.ReadMember(archivePath, memberPath)
	}
	return fsys.ReadFile(physical)
}

func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
