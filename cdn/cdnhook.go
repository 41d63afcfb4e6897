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

package cdn

import (
	"context"
	"path"
	"sync"

	"esfuse.dev/esfuse/hook"
	"esfuse.dev/esfuse/project"
)

// byteCache is a minimal, unbounded URL→body cache: CDN payloads are
// immutable once published (a {package}@{version} URL never changes
// content), so there is no eviction or invalidation policy to get
// wrong, unlike PackageCache's bounded package.json cache.
type byteCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newByteCache() *byteCache {
	return &byteCache{entries: make(map[string][]byte)}
}

func (c *byteCache) get(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.entries[url]
	return body, ok
}

func (c *byteCache) set(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = body
}

var mimeByExtension = map[string]string{
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".cjs":  "text/javascript",
	".ts":   "text/javascript",
	".json": "application/json",
	".css":  "text/css",
}

func mimeFor(url string) string {
	if m, ok := mimeByExtension[path.Ext(url)]; ok {
		return m
	}
	return "text/javascript"
}

// RegisterFetchHook registers an on_fetch hook on p that serves any
// External locator whose URL starts with "http://" or "https://" by
// fetching it through fetcher, caching the response body for the
// Project's lifetime. Register this to let externals produced by a CDN
// resolver (see resolve/cdn in the wider package family this pipeline
// was drawn from) actually be fetchable instead of erroring, the
// default fetch stage behavior for every other External locator.
func RegisterFetchHook(p *project.Project, fetcher Fetcher) {
	cache := newByteCache()
	p.OnFetch = append(p.OnFetch, hook.New(`^https?://`, func(ctx context.Context, args project.FetchHookArgs) (project.FetchHookResult, bool, error) {
		url := args.Locator.URL()
		if body, ok := cache.get(url); ok {
			return project.FetchHookResult{MimeType: mimeFor(url), Code: body}, true, nil
		}
		body, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return project.FetchHookResult{}, false, err
		}
		cache.set(url, body)
		return project.FetchHookResult{MimeType: mimeFor(url), Code: body}, true, nil
	}, nil))
}
