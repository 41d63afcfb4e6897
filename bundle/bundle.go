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

// Package bundle concatenates a batch's transformed modules into one
// output file, merging their individual source maps at their
// cumulative line offsets and emitting a runtime metadata call that
// records each traversed module's error, physical path, and resolved
// import URLs.
package bundle

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"esfuse.dev/esfuse/graph"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/project"
	esfusemap "esfuse.dev/esfuse/sourcemap"
)

// Options configures one Bundle call.
type Options struct {
	// Entries are the locators the runtime should treat as top-level
	// entry points; they are not recorded in the $esfuse$.meta call.
	// The first entry is "the" entry locator for Result.Entry, the
	// sourceMappingURL comment, and RequireOnLoad's require() call.
	Entries []locator.Locator
	// RuntimeCode, when non-empty, is prepended verbatim before any
	// module body (the $esfuse$ runtime's own definition).
	RuntimeCode string
	// InlineSourceMap embeds the merged map as a data: URL comment
	// instead of returning it as a separate artifact.
	InlineSourceMap bool
	// RequireOnLoad, when true, appends a trailing assignment that
	// synchronously requires the entry module and assigns its exports
	// to module.exports, so the bundle behaves as a CJS module when
	// loaded directly.
	RequireOnLoad bool
	// Project, when set, is used to resolve each module's physical
	// filesystem path for the emitted meta object. Nil omits
	// physical-path from every meta entry.
	Project *project.Project
}

// Result is the assembled bundle, matching spec's {entry, mime_type,
// code, source_map} output shape.
type Result struct {
	// Entry is the canonical URL of the first entry locator in Options.
	Entry string
	// MimeType is always "text/javascript".
	MimeType string
	Code     string
	// SourceMap is the merged V3 map's JSON, nil when no module
	// contributed one or InlineSourceMap was requested.
	SourceMap []byte
}

// Bundle concatenates every text/javascript module in results, skipping
// modules that failed (callers are expected to have surfaced those
// already) or are non-JS, in descending order of canonical URL — an
// arbitrary but stable and reproducible order.
func Bundle(results map[string]*graph.Result, opts Options) (*Result, error) {
	urls := make([]string, 0, len(results))
	for url, r := range results {
		if r.Module != nil && r.Module.MimeType == "text/javascript" {
			urls = append(urls, url)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(urls)))

	var body strings.Builder
	var maps []*esfusemap.Map
	lineCursor := 0

	if opts.RuntimeCode != "" {
		body.WriteString(opts.RuntimeCode)
		body.WriteByte('\n')
		lineCursor += strings.Count(opts.RuntimeCode, "\n") + 1
	}

	for _, url := range urls {
		module := results[url].Module

		body.WriteString(module.Code)
		body.WriteByte('\n')

		if len(module.SourceMap) > 0 {
			if decoded, err := esfusemap.Decode(module.SourceMap); err == nil {
				maps = append(maps, esfusemap.OffsetLines(decoded, lineCursor))
			}
		}
		lineCursor += strings.Count(module.Code, "\n") + 1
	}

	body.WriteString(metaCall(results, opts.Project))

	var entry locator.Locator
	hasEntry := len(opts.Entries) > 0
	if hasEntry {
		entry = opts.Entries[0]
	}

	if opts.RequireOnLoad && hasEntry {
		entryJSON, _ := json.Marshal(entry.URL())
		body.WriteString(fmt.Sprintf(
			"(typeof module !== 'undefined' ? module : {}).exports = $esfuse$.require(%s);\n",
			entryJSON,
		))
	}

	out := &Result{Code: body.String(), MimeType: "text/javascript"}
	if hasEntry {
		out.Entry = entry.URL()
	}

	if len(maps) > 0 {
		merged := esfusemap.Merge(maps)
		encoded, err := esfusemap.Encode(merged)
		if err != nil {
			return nil, fmt.Errorf("bundle: encoding merged source map: %w", err)
		}
		if opts.InlineSourceMap {
			out.Code += "\n//# sourceMappingURL=data:application/json;base64," +
				base64.StdEncoding.EncodeToString(encoded)
		} else {
			out.SourceMap = encoded
			out.Code += "\n//# sourceMappingURL=" + sourceMappingURL(hasEntry, entry)
		}
	}

	return out, nil
}

// sourceMappingURL derives the entry locator with ".map" appended to
// its specifier, per spec's "entry-locator-with specifier+\".map\"".
// Falls back to a bare "bundle.js.map" when no entry was supplied.
func sourceMappingURL(hasEntry bool, entry locator.Locator) string {
	if !hasEntry {
		return "bundle.js.map"
	}
	mapped := locator.New(entry.Kind(), entry.Specifier()+".map", entry.Params())
	return mapped.URL()
}

// moduleMeta is one module's entry in the $esfuse$.meta(...) object:
// its error (if any), physical path (if resolvable), and resolutions
// rewritten to their target's canonical URL.
type moduleMeta struct {
	Error        string            `json:"error,omitempty"`
	PhysicalPath string            `json:"physical-path,omitempty"`
	Resolutions  map[string]string `json:"resolutions,omitempty"`
}

// metaCall emits the $esfuse$.meta(...) call the runtime uses to
// surface each traversed module's error, physical path, and resolved
// import URLs at require-time, keyed by canonical module URL.
func metaCall(results map[string]*graph.Result, proj *project.Project) string {
	meta := make(map[string]moduleMeta, len(results))
	for url, r := range results {
		var m moduleMeta
		if r.Err != nil {
			m.Error = r.Err.Error()
		}
		if r.Module != nil {
			if proj != nil {
				if physical, ok := proj.PhysicalPath(r.Module.Locator); ok {
					m.PhysicalPath = physical
				}
			}
			if len(r.Module.Resolutions) > 0 {
				resolutions := make(map[string]string, len(r.Module.Resolutions))
				for specifier, target := range r.Module.Resolutions {
					if target != nil {
						resolutions[specifier] = target.URL()
					}
				}
				if len(resolutions) > 0 {
					m.Resolutions = resolutions
				}
			}
		}
		meta[url] = m
	}
	encoded, _ := json.Marshal(meta)
	return fmt.Sprintf("$esfuse$.meta(%s);\n", encoded)
}
