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
	"testing"

	"esfuse.dev/esfuse/internal/mapfs"
	"esfuse.dev/esfuse/locator"
	"esfuse.dev/esfuse/noderesolve"
	"esfuse.dev/esfuse/project"
)

type fakeFetcher struct {
	calls    int
	body     []byte
	fetchErr error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.body, nil
}

func TestRegisterFetchHookServesExternalURL(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("export default 1;")}
	mfs := mapfs.New()
	p := project.New("/repo")
	p.Resolver = noderesolve.NewResolver(mfs, nil)
	RegisterFetchHook(p, fetcher)
	p.Freeze()

	l := locator.New(locator.External, "https://esm.sh/lit@3.0.0", nil)
	result, handled, err := p.DispatchFetch(context.Background(), l.URL(), project.FetchHookArgs{Locator: l})
	if err != nil {
		t.Fatalf("DispatchFetch: %v", err)
	}
	if !handled {
		t.Fatal("expected the CDN hook to handle an https:// External locator")
	}
	if string(result.Code) != "export default 1;" {
		t.Errorf("got code %q", result.Code)
	}
	if result.MimeType != "text/javascript" {
		t.Errorf("got MimeType %q, want text/javascript", result.MimeType)
	}
}

func TestRegisterFetchHookCachesByURL(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("1")}
	mfs := mapfs.New()
	p := project.New("/repo")
	p.Resolver = noderesolve.NewResolver(mfs, nil)
	RegisterFetchHook(p, fetcher)
	p.Freeze()

	l := locator.New(locator.External, "https://esm.sh/lit@3.0.0", nil)
	for i := 0; i < 3; i++ {
		if _, _, err := p.DispatchFetch(context.Background(), l.URL(), project.FetchHookArgs{Locator: l}); err != nil {
			t.Fatalf("DispatchFetch: %v", err)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("got %d fetcher calls, want 1 (cached)", fetcher.calls)
	}
}

func TestRegisterFetchHookIgnoresNonHTTPExternal(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("1")}
	mfs := mapfs.New()
	p := project.New("/repo")
	p.Resolver = noderesolve.NewResolver(mfs, nil)
	RegisterFetchHook(p, fetcher)
	p.Freeze()

	l := locator.New(locator.External, "node:fs", nil)
	_, handled, err := p.DispatchFetch(context.Background(), l.URL(), project.FetchHookArgs{Locator: l})
	if err != nil {
		t.Fatalf("DispatchFetch: %v", err)
	}
	if handled {
		t.Error("node: builtins should not be claimed by the CDN fetch hook")
	}
}
