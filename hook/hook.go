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

// Package hook implements the pluggable on_resolve/on_fetch callback
// dispatcher: an ordered list of regex-matched hooks, the first of which
// to produce a non-empty result for a given key wins.
package hook

import (
	"context"
	"fmt"
	"regexp"
)

// Callback is a single hook's handler. It returns (result, true, nil)
// when it handles the key, (zero, false, nil) to pass to the next hook,
// or a non-nil error to abort the dispatch with a diagnosable failure.
type Callback[A any, R any] func(ctx context.Context, args A) (R, bool, error)

// Hook pairs a key-matching pattern with a callback and caller-supplied
// user data threaded through for the callback's own bookkeeping.
type Hook[A any, R any] struct {
	Regex    *regexp.Regexp
	Callback Callback[A, R]
	UserData any
}

// New compiles pattern and builds a Hook. Panics on an invalid pattern:
// hook registration happens at Project construction, not per-request, so
// a malformed pattern is a programmer error caught immediately.
func New[A any, R any](pattern string, callback Callback[A, R], userData any) Hook[A, R] {
	re := regexp.MustCompile(pattern)
	return Hook[A, R]{Regex: re, Callback: callback, UserData: userData}
}

// Dispatch runs hooks in registration order against key, invoking the
// callback of the first hook whose Regex matches key. The first callback
// to report handled=true wins; later hooks are not consulted. A callback
// error aborts the dispatch.
func Dispatch[A any, R any](ctx context.Context, hooks []Hook[A, R], key string, args A) (result R, handled bool, err error) {
	for _, h := range hooks {
		if h.Regex == nil || !h.Regex.MatchString(key) {
			continue
		}
		result, handled, err = h.Callback(ctx, args)
		if err != nil {
			return result, false, fmt.Errorf("hook %q: %w", h.Regex.String(), err)
		}
		if handled {
			return result, true, nil
		}
	}
	var zero R
	return zero, false, nil
}
