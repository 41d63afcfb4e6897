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

// Package archive lets the fetch stage read files vendored inside a zip
// archive as if they sat directly on disk: a physical path like
// "/repo/vendor/pkg.zip/dist/index.js" is split at the first path
// segment ending in ".zip" and served from a bounded cache of open zip
// readers, so repeated fetches from the same archive don't reopen it.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Cache is a thread-safe, size-bounded LRU of open *zip.ReadCloser,
// keyed by archive path. Modeled on cdn.PackageCache's eviction scheme.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*zip.ReadCloser
	order   []string
	maxSize int
}

// NewCache builds a Cache holding at most maxSize open archives.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &Cache{entries: make(map[string]*zip.ReadCloser), maxSize: maxSize}
}

// Split breaks a physical path into (archivePath, memberPath, ok): ok is
// true when some path segment ends in ".zip", meaning the rest of the
// path names a member inside that archive.
func Split(physicalPath string) (archivePath, memberPath string, ok bool) {
	segments := strings.Split(physicalPath, "/")
	for i, seg := range segments {
		if strings.HasSuffix(seg, ".zip") {
			return strings.Join(segments[:i+1], "/"), strings.Join(segments[i+1:], "/"), true
		}
	}
	return "", "", false
}

// Open returns (and caches) the zip reader for archivePath.
func (c *Cache) Open(archivePath string) (*zip.ReadCloser, error) {
	c.mu.Lock()
	if r, ok := c.entries[archivePath]; ok {
		c.touch(archivePath)
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", archivePath, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[archivePath]; ok {
		r.Close()
		c.touch(archivePath)
		return existing, nil
	}
	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		if victim, ok := c.entries[oldest]; ok {
			victim.Close()
		}
		delete(c.entries, oldest)
	}
	c.entries[archivePath] = r
	c.order = append(c.order, archivePath)
	return r, nil
}

// touch must be called with c.mu held.
func (c *Cache) touch(archivePath string) {
	for i, k := range c.order {
		if k == archivePath {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, archivePath)
}

// ReadMember reads memberPath's contents out of archivePath, opening and
// caching the archive as needed.
func (c *Cache) ReadMember(archivePath, memberPath string) ([]byte, error) {
	r, err := c.Open(archivePath)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name == memberPath {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("archive: open member %s in %s: %w", memberPath, archivePath, err)
			}
			defer rc.Close()
			buf, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("archive: read member %s in %s: %w", memberPath, archivePath, err)
			}
			return buf, nil
		}
	}
	return nil, fmt.Errorf("archive: member %s not found in %s", memberPath, archivePath)
}

// Close releases every cached archive reader.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, r := range c.entries {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.entries = make(map[string]*zip.ReadCloser)
	c.order = nil
	return firstErr
}
