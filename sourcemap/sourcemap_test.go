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

package sourcemap

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	input := `{"version":3,"sources":["a.ts"],"names":["foo"],"mappings":"AAAA,IAAIA"}`
	m, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var want, got map[string]any
	if err := json.Unmarshal([]byte(input), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want["mappings"], got["mappings"]) {
		t.Errorf("mappings round-trip: got %v, want %v", got["mappings"], want["mappings"])
	}
}

func TestOffsetLinesPadsWithEmptyLines(t *testing.T) {
	m := &Map{Version: 3, Sources: []string{"a.ts"}, Lines: [][]Segment{{{GenCol: 0, SourceIdx: 0, NameIdx: -1}}}}
	shifted := OffsetLines(m, 2)
	if len(shifted.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(shifted.Lines))
	}
	if len(shifted.Lines[0]) != 0 || len(shifted.Lines[1]) != 0 {
		t.Error("expected the first two lines to be empty padding")
	}
	if len(shifted.Lines[2]) != 1 {
		t.Error("expected the original segment on the third line")
	}
}

func TestMergeReindexesSourcesAndNames(t *testing.T) {
	a := &Map{Version: 3, Sources: []string{"a.ts"}, Names: []string{"x"},
		Lines: [][]Segment{{{GenCol: 0, SourceIdx: 0, SourceLine: 0, SourceCol: 0, NameIdx: 0}}}}
	b := &Map{Version: 3, Sources: []string{"b.ts"}, Names: []string{"y"},
		Lines: [][]Segment{{{GenCol: 0, SourceIdx: 0, SourceLine: 0, SourceCol: 0, NameIdx: 0}}}}
	bOffset := OffsetLines(b, 1)

	merged := Merge([]*Map{a, bOffset})
	if len(merged.Sources) != 2 || merged.Sources[1] != "b.ts" {
		t.Fatalf("got sources %v", merged.Sources)
	}
	if len(merged.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(merged.Lines))
	}
	if merged.Lines[1][0].SourceIdx != 1 {
		t.Errorf("got SourceIdx %d, want 1 (re-indexed into merged sources)", merged.Lines[1][0].SourceIdx)
	}
	if merged.Lines[1][0].NameIdx != 1 {
		t.Errorf("got NameIdx %d, want 1", merged.Lines[1][0].NameIdx)
	}
}

func TestShiftColumnsAfterOnlyMovesLaterSegments(t *testing.T) {
	m := &Map{Version: 3, Sources: []string{"a.ts"}, Lines: [][]Segment{{
		{GenCol: 0, SourceIdx: 0, NameIdx: -1},
		{GenCol: 10, SourceIdx: 0, NameIdx: -1},
		{GenCol: 20, SourceIdx: 0, NameIdx: -1},
	}}}
	ShiftColumnsAfter(m, 0, 10, 5)
	if m.Lines[0][0].GenCol != 0 {
		t.Errorf("segment before startCol moved: got %d, want 0", m.Lines[0][0].GenCol)
	}
	if m.Lines[0][1].GenCol != 15 {
		t.Errorf("segment at startCol not shifted: got %d, want 15", m.Lines[0][1].GenCol)
	}
	if m.Lines[0][2].GenCol != 25 {
		t.Errorf("segment after startCol not shifted: got %d, want 25", m.Lines[0][2].GenCol)
	}
}

func TestVLQRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, -1, 15, -15, 1000, -1000, 123456} {
		encoded := encodeVLQ(n)
		decoded, ok := decodeVLQ(encoded)
		if !ok || len(decoded) != 1 || decoded[0] != n {
			t.Errorf("VLQ round-trip for %d: got %v (ok=%v)", n, decoded, ok)
		}
	}
}
