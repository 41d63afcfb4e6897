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

// Package diag provides the uniform diagnostic and error model shared by
// every stage of the pipeline: a message plus zero or more highlights
// pointing at a source URL, a span, and an optional label.
package diag

import "strings"

// Position is a 1-indexed row, 1-indexed starting column. The end column
// of a Span follows downstream code-generator convention and may be
// 0-indexed at the terminal offset; see Span.
type Position struct {
	Row int
	Col int
}

// Span covers a range of source text. A dummy span (no real location is
// known) collapses to {1,1}-{1,1}.
type Span struct {
	Start Position
	End   Position
}

// DummySpan is the collapsed span used when no real location is available.
var DummySpan = Span{Start: Position{Row: 1, Col: 1}, End: Position{Row: 1, Col: 1}}

// Highlight annotates a single location referenced by a Diagnostic.
type Highlight struct {
	SourceURL string
	Subject   string
	Label     string
	Span      *Span
}

// Diagnostic is a single message with zero or more highlights.
type Diagnostic struct {
	Message    string
	Highlights []Highlight
}

// FromMessage builds a bare diagnostic with no highlights.
func FromMessage(message string) Diagnostic {
	return Diagnostic{Message: message}
}

// FromMessageAtSpan builds a diagnostic highlighting a single source URL
// and span.
func FromMessageAtSpan(message, sourceURL string, span *Span) Diagnostic {
	return Diagnostic{
		Message: message,
		Highlights: []Highlight{
			{SourceURL: sourceURL, Span: span},
		},
	}
}

// CompilationError is a non-empty list of Diagnostics. It implements error
// so it can flow through normal Go error handling while still carrying the
// full diagnostic list for callers that want it (batch results, bundle
// meta, etc).
type CompilationError struct {
	Diagnostics []Diagnostic
}

// NewCompilationError wraps one or more diagnostics. Panics if called with
// zero diagnostics: a CompilationError is defined to be non-empty.
func NewCompilationError(diagnostics ...Diagnostic) *CompilationError {
	if len(diagnostics) == 0 {
		panic("diag: CompilationError must carry at least one diagnostic")
	}
	return &CompilationError{Diagnostics: diagnostics}
}

func (e *CompilationError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return "compilation error"
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.Message
	}
	return strings.Join(msgs, "; ")
}

// Append returns a new CompilationError with additional diagnostics appended.
func (e *CompilationError) Append(diagnostics ...Diagnostic) *CompilationError {
	if e == nil {
		return NewCompilationError(diagnostics...)
	}
	merged := make([]Diagnostic, 0, len(e.Diagnostics)+len(diagnostics))
	merged = append(merged, e.Diagnostics...)
	merged = append(merged, diagnostics...)
	return &CompilationError{Diagnostics: merged}
}
