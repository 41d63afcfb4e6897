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

// Package jsast implements the in-core half of the JS/TS transform
// component: import/require/dynamic-import extraction, dynamic
// template-import rewriting, and module-body envelope wrapping, all
// operating on the already down-leveled (CJS, ES2022) source text handed
// to it by the esbuild pass.
package jsast

import (
	"embed"
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/imports.scm
var queryFiles embed.FS

var language = ts.NewLanguage(tsTypescript.LanguageTypescript())

var parserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			panic("jsast: failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

var (
	importsQuery     *ts.Query
	importsQueryOnce sync.Once
	importsQueryErr  error
)

func getImportsQuery() (*ts.Query, error) {
	importsQueryOnce.Do(func() {
		data, err := queryFiles.ReadFile("queries/imports.scm")
		if err != nil {
			importsQueryErr = fmt.Errorf("jsast: reading embedded query: %w", err)
			return
		}
		importsQuery, importsQueryErr = ts.NewQuery(language, string(data))
		if importsQueryErr != nil {
			importsQueryErr = fmt.Errorf("jsast: parsing imports query: %w", importsQueryErr)
		}
	})
	return importsQuery, importsQueryErr
}
