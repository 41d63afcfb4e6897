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

// Package sourcemap provides the small V3 source-map encoder this
// project needs to splice and merge maps: `github.com/go-sourcemap/
// sourcemap` (used elsewhere in this module, e.g. transform/jsast) only
// consumes maps for position lookup — it has no encoder. Merging a
// batch's per-module maps into one bundle map, and shifting a module's
// map after an in-place require() specifier rewrite, both need to
// produce new mapping strings, so this package decodes the VLQ
// "mappings" string into absolute per-segment values, offers line/
// source/name offsetting, and re-encodes.
package sourcemap

import (
	"encoding/json"
	"sort"
	"strings"
)

// Segment is one decoded mapping entry, expressed in absolute
// (non-delta) terms for ease of offsetting and merging. SourceIdx and
// NameIdx are -1 when the segment carries no source or name reference.
type Segment struct {
	GenCol     int
	SourceIdx  int
	SourceLine int
	SourceCol  int
	NameIdx    int
}

// Map is a decoded source map: one slice of Segments per generated
// line, plus the sources/names tables the segments index into.
type Map struct {
	Version        int
	File           string
	Sources        []string
	SourcesContent []string
	Names          []string
	Lines          [][]Segment
}

type rawMapJSON struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Decode parses a V3 source map's JSON bytes into absolute segments.
func Decode(data []byte) (*Map, error) {
	var raw rawMapJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := &Map{
		Version:        raw.Version,
		File:           raw.File,
		Sources:        raw.Sources,
		SourcesContent: raw.SourcesContent,
		Names:          raw.Names,
	}
	if m.Version == 0 {
		m.Version = 3
	}

	genSourceIdx, genSourceLine, genSourceCol, genNameIdx := 0, 0, 0, 0
	for _, lineStr := range strings.Split(raw.Mappings, ";") {
		var line []Segment
		genCol := 0
		if lineStr != "" {
			for _, field := range strings.Split(lineStr, ",") {
				values, ok := decodeVLQ(field)
				if !ok || len(values) == 0 {
					continue
				}
				genCol += values[0]
				seg := Segment{GenCol: genCol, SourceIdx: -1, NameIdx: -1}
				if len(values) >= 4 {
					genSourceIdx += values[1]
					genSourceLine += values[2]
					genSourceCol += values[3]
					seg.SourceIdx = genSourceIdx
					seg.SourceLine = genSourceLine
					seg.SourceCol = genSourceCol
				}
				if len(values) >= 5 {
					genNameIdx += values[4]
					seg.NameIdx = genNameIdx
				}
				line = append(line, seg)
			}
		}
		m.Lines = append(m.Lines, line)
	}
	return m, nil
}

// Encode re-serializes a Map back into V3 JSON, recomputing every
// field's delta encoding from the absolute Segment values.
func Encode(m *Map) ([]byte, error) {
	var b strings.Builder
	prevSourceIdx, prevSourceLine, prevSourceCol, prevNameIdx := 0, 0, 0, 0
	for li, line := range m.Lines {
		if li > 0 {
			b.WriteByte(';')
		}
		prevGenCol := 0
		for si, seg := range line {
			if si > 0 {
				b.WriteByte(',')
			}
			b.WriteString(encodeVLQ(seg.GenCol - prevGenCol))
			prevGenCol = seg.GenCol
			if seg.SourceIdx >= 0 {
				b.WriteString(encodeVLQ(seg.SourceIdx - prevSourceIdx))
				b.WriteString(encodeVLQ(seg.SourceLine - prevSourceLine))
				b.WriteString(encodeVLQ(seg.SourceCol - prevSourceCol))
				prevSourceIdx, prevSourceLine, prevSourceCol = seg.SourceIdx, seg.SourceLine, seg.SourceCol
				if seg.NameIdx >= 0 {
					b.WriteString(encodeVLQ(seg.NameIdx - prevNameIdx))
					prevNameIdx = seg.NameIdx
				}
			}
		}
	}
	raw := rawMapJSON{
		Version:        m.Version,
		File:           m.File,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		Mappings:       b.String(),
	}
	if raw.Sources == nil {
		raw.Sources = []string{}
	}
	if raw.Names == nil {
		raw.Names = []string{}
	}
	return json.Marshal(raw)
}

// OffsetLines shifts every segment down by lineOffset generated lines,
// used when splicing a module's own map into a larger concatenation
// (the bundle assembler merges each module's map at its cumulative line
// offset").
func OffsetLines(m *Map, lineOffset int) *Map {
	if lineOffset == 0 {
		return m
	}
	lines := make([][]Segment, lineOffset, lineOffset+len(m.Lines))
	lines = append(lines, m.Lines...)
	return &Map{
		Version:        m.Version,
		File:           m.File,
		Sources:        m.Sources,
		SourcesContent: m.SourcesContent,
		Names:          m.Names,
		Lines:          lines,
	}
}

// Merge concatenates a set of per-module maps (each already offset to
// its line in the bundle, via OffsetLines) into one map with a combined
// sources/names table, re-indexing every segment's SourceIdx/NameIdx to
// the merged table's offsets.
func Merge(maps []*Map) *Map {
	merged := &Map{Version: 3}
	maxLines := 0
	for _, m := range maps {
		if len(m.Lines) > maxLines {
			maxLines = len(m.Lines)
		}
	}
	merged.Lines = make([][]Segment, maxLines)

	for _, m := range maps {
		sourceBase := len(merged.Sources)
		nameBase := len(merged.Names)
		merged.Sources = append(merged.Sources, m.Sources...)
		merged.SourcesContent = append(merged.SourcesContent, m.SourcesContent...)
		merged.Names = append(merged.Names, m.Names...)

		for li, line := range m.Lines {
			for _, seg := range line {
				shifted := seg
				if shifted.SourceIdx >= 0 {
					shifted.SourceIdx += sourceBase
					if shifted.NameIdx >= 0 {
						shifted.NameIdx += nameBase
					}
				}
				merged.Lines[li] = append(merged.Lines[li], shifted)
			}
		}
	}

	for _, line := range merged.Lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].GenCol < line[j].GenCol })
	}
	return merged
}

// ShiftColumnsAfter adjusts every segment's GenCol on the given 0-indexed
// generated line that falls at or after startCol by delta, used when an
// in-place text splice (e.g. rewriting a require() specifier) changes a
// generated line's length without otherwise invalidating its mappings.
func ShiftColumnsAfter(m *Map, line, startCol, delta int) {
	if delta == 0 || m == nil || line < 0 || line >= len(m.Lines) {
		return
	}
	for i := range m.Lines[line] {
		if m.Lines[line][i].GenCol >= startCol {
			m.Lines[line][i].GenCol += delta
		}
	}
}

const vlqAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var vlqDecodeTable = func() [128]int {
	var t [128]int
	for i := range t {
		t[i] = -1
	}
	for i, c := range vlqAlphabet {
		t[c] = i
	}
	return t
}()

// encodeVLQ encodes a single signed integer as Base64 VLQ, the scheme
// source maps use for every mapping field.
func encodeVLQ(n int) string {
	var vlq int
	if n < 0 {
		vlq = ((-n) << 1) | 1
	} else {
		vlq = n << 1
	}
	var b strings.Builder
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq > 0 {
			digit |= 0x20
		}
		b.WriteByte(vlqAlphabet[digit])
		if vlq == 0 {
			break
		}
	}
	return b.String()
}

// decodeVLQ decodes a comma-delimited field (a comma-separated "segment"
// from the mappings string) into its sequence of signed integers.
func decodeVLQ(s string) ([]int, bool) {
	var out []int
	i := 0
	for i < len(s) {
		result, shift, value := 0, 0, 0
		cont := true
		for cont {
			if i >= len(s) || s[i] >= 128 {
				return nil, false
			}
			digit := vlqDecodeTable[s[i]]
			i++
			if digit < 0 {
				return nil, false
			}
			cont = digit&0x20 != 0
			value = digit & 0x1f
			result += value << shift
			shift += 5
		}
		negative := result&1 != 0
		result >>= 1
		if negative {
			result = -result
		}
		out = append(out, result)
	}
	return out, true
}
