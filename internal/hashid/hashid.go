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

// Package hashid provides the one short, deterministic hash scheme used
// wherever this project needs a stable name derived from content: a
// batch module's virtual output path when it has no physical path of
// its own (graph), and a CSS Modules local class name (transform/
// cssmod). Both want the same property — same input, same short
// identifier, every time — so they share one implementation rather
// than inventing separate hashing schemes.
package hashid

import (
	"crypto/sha1"
	"encoding/hex"
)

// Short returns the first 10 hex characters of the SHA-1 digest of s.
// 10 hex chars (40 bits) is ample to avoid collisions at the scale of
// one project's module graph or one stylesheet's class list.
func Short(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:10]
}
