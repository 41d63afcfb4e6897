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

// Package cliproject builds the Project every esfuse subcommand needs
// from the shared --package flag (plus resolve's own --conditions
// flag), so each subcommand's
// run function stays a thin flag-to-call adapter.
package cliproject

import (
	"path/filepath"

	"esfuse.dev/esfuse/fs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
	"esfuse.dev/esfuse/project"
)

// New builds a frozen Project rooted at packageDir (an "app" namespace
// pointing at its absolute path) with a Node-style resolver using
// conditions, plus the OS filesystem it resolves against.
func New(packageDir string, conditions []string) (*project.Project, fs.FileSystem, error) {
	absRoot, err := filepath.Abs(packageDir)
	if err != nil {
		return nil, nil, err
	}

	osfs := fs.NewOSFileSystem()
	p := project.New(absRoot)
	p.Resolver = noderesolve.NewResolver(osfs, conditions)
	p.Freeze()
	return p, osfs, nil
}

// EntryLocators resolves each of paths (given as absolute filesystem
// paths or paths relative to the current working directory) to a File
// Locator.
func EntryLocators(p *project.Project, paths []string) ([]locator.Locator, error) {
	locators := make([]locator.Locator, 0, len(paths))
	for _, entryPath := range paths {
		absPath, err := filepath.Abs(entryPath)
		if err != nil {
			return nil, err
		}
		loc, ok := p.LocatorFromPath(absPath, nil)
		if !ok {
			return nil, &UnrootedPathError{Path: absPath}
		}
		locators = append(locators, loc)
	}
	return locators, nil
}

// UnrootedPathError reports a CLI argument that falls outside the
// project's registered namespace roots.
type UnrootedPathError struct{ Path string }

func (e *UnrootedPathError) Error() string {
	return "path " + e.Path + " is outside the project root"
}
