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

// Package locator implements the canonical module-identity value and its
// dev-server URL codec: every module, whether backed by a file, an
// internally synthesized source, or an opaque external specifier, is
// addressed by exactly one Locator, and two Locators are equal iff their
// canonical URLs match.
package locator

import (
	"net/url"
	"sort"
	"strings"
)

// Kind distinguishes the three module identity spaces.
type Kind int

const (
	// File is a module backed by a real path under a registered
	// namespace root.
	File Kind = iota
	// Internal is a synthesized, in-memory module (e.g. a virtual
	// output emitted by the bundle assembler).
	Internal
	// External is an opaque, scheme-bearing specifier this project
	// never resolves or fetches itself (bare npm specifiers left
	// unresolved, `node:`, `data:`, etc).
	External
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Internal:
		return "internal"
	default:
		return "external"
	}
}

// Param is one name/value pair of a Locator's query. An empty Value is
// distinguished from an absent Param by the slice simply not containing
// an entry for that name.
type Param struct {
	Name  string
	Value string
}

// Locator is the canonical identity of a module: kind, specifier, and a
// sorted parameter list, plus a cached derived URL. Locator is a value
// type; callers compare Locators with Equal or by comparing URL().
type Locator struct {
	kind      Kind
	specifier string
	params    []Param
	url       string
}

// New builds a Locator, sorting params by name and composing the
// canonical URL. Params are copied so later mutation of the caller's
// slice cannot change an already-constructed Locator.
func New(kind Kind, specifier string, params []Param) Locator {
	sorted := make([]Param, len(params))
	copy(sorted, params)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Locator{kind: kind, specifier: specifier, params: sorted, url: composeURL(kind, specifier, sorted)}
}

func composeURL(kind Kind, specifier string, params []Param) string {
	query := encodeQuery(params)
	switch kind {
	case File:
		u := "/_dev/file/" + specifier
		if query != "" {
			u += "?" + query
		}
		return u
	case Internal:
		u := "/_dev/internal/" + specifier
		if query != "" {
			u += "?" + query
		}
		return u
	default:
		if query != "" {
			if strings.Contains(specifier, "?") {
				return specifier + "&" + query
			}
			return specifier + "?" + query
		}
		return specifier
	}
}

func encodeQuery(params []Param) string {
	if len(params) == 0 {
		return ""
	}
	values := make(url.Values, len(params))
	order := make([]string, 0, len(params))
	for _, p := range params {
		if _, seen := values[p.Name]; !seen {
			order = append(order, p.Name)
		}
		values[p.Name] = append(values[p.Name], p.Value)
	}
	var b strings.Builder
	for i, name := range order {
		if i > 0 {
			b.WriteByte('&')
		}
		for j, v := range values[name] {
			if j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Kind returns the locator's identity kind.
func (l Locator) Kind() Kind { return l.kind }

// Specifier returns the namespace-qualified path (File/Internal) or the
// opaque scheme-bearing string (External).
func (l Locator) Specifier() string { return l.specifier }

// Params returns the sorted parameter list. The returned slice must not
// be mutated by the caller.
func (l Locator) Params() []Param { return l.params }

// Param looks up a single parameter by name. ok distinguishes "present
// with an empty value" from "absent".
func (l Locator) Param(name string) (value string, ok bool) {
	for _, p := range l.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// URL returns the canonical dev-server URL. It is the sole basis for
// Locator equality and hashing.
func (l Locator) URL() string { return l.url }

// Equal reports whether two locators share a canonical URL.
func (l Locator) Equal(other Locator) bool { return l.url == other.url }

// WithoutQuery returns a clone with an empty parameter list.
func (l Locator) WithoutQuery() Locator {
	if len(l.params) == 0 {
		return l
	}
	return New(l.kind, l.specifier, nil)
}

// FromURL parses a dev-server URL or an opaque external specifier into a
// Locator. Returns false for a `/_dev/` prefix with an unrecognized kind
// segment.
func FromURL(s string) (Locator, bool) {
	const prefix = "/_dev/"
	if strings.HasPrefix(s, prefix) {
		rest := s[len(prefix):]
		var kind Kind
		switch {
		case strings.HasPrefix(rest, "file/"):
			kind = File
			rest = rest[len("file/"):]
		case strings.HasPrefix(rest, "internal/"):
			kind = Internal
			rest = rest[len("internal/"):]
		default:
			return Locator{}, false
		}
		specifier, params := splitQuery(rest)
		return New(kind, specifier, params), true
	}
	specifier, params := splitQuery(s)
	return New(External, specifier, params), true
}

func splitQuery(s string) (specifier string, params []Param) {
	idx := strings.IndexByte(s, '?')
	if idx < 0 {
		return s, nil
	}
	specifier = s[:idx]
	query := s[idx+1:]
	values, err := url.ParseQuery(query)
	if err != nil {
		return specifier, nil
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range values[name] {
			params = append(params, Param{Name: name, Value: v})
		}
	}
	return specifier, params
}

// PhysicalPath resolves a File locator to an absolute filesystem path
// given a namespace→root lookup. The specifier is split at its first
// "/" into (namespace, rest); non-File locators never have a physical
// path.
func (l Locator) PhysicalPath(nsToPath func(ns string) (string, bool)) (string, bool) {
	if l.kind != File {
		return "", false
	}
	ns, rest, found := strings.Cut(l.specifier, "/")
	if !found {
		ns, rest = l.specifier, ""
	}
	root, ok := nsToPath(ns)
	if !ok {
		return "", false
	}
	if rest == "" {
		return root, true
	}
	return root + "/" + rest, true
}
