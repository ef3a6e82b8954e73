/*
Copyright © 2019 the QMesh authors.
This file is part of QMesh.

QMesh is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

QMesh is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with QMesh.  If not, see <http://www.gnu.org/licenses/>.
*/

package qmesh

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

func TestFieldToPhysID(t *testing.T) {
	cases := []struct {
		fields map[string]string
		want   int
		err    bool
	}{
		{map[string]string{physIDField: "666"}, 666, false},
		{map[string]string{physIDField: "666.0"}, 666, false},
		{map[string]string{physIDField: " 666 "}, 666, false},
		{map[string]string{physIDField: ""}, 0, false},
		{map[string]string{}, 0, false},
		{map[string]string{physIDField: "abc"}, 0, true},
	}
	for _, c := range cases {
		id, err := fieldToPhysID(c.fields)
		if c.err {
			if err == nil {
				t.Errorf("fieldToPhysID(%v): want error", c.fields)
			}
			continue
		}
		if err != nil {
			t.Errorf("fieldToPhysID(%v): %v", c.fields, err)
			continue
		}
		if id != c.want {
			t.Errorf("fieldToPhysID(%v) = %d, want %d", c.fields, id, c.want)
		}
	}
}

func TestAddDropsDegenerateSegments(t *testing.T) {
	b := new(Boundaries)
	b.add(geom.LineString{{X: 1, Y: 1}}, 0)
	b.add(geom.LineString{{X: 1, Y: 1}, {X: 1, Y: 1}}, 0)
	b.add(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}}, 0)
	if len(b.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(b.Segments))
	}
}

func TestBoundariesSummary(t *testing.T) {
	b := &Boundaries{Segments: []*Segment{
		{Points: geom.LineString{{X: -1, Y: 2}, {X: 3, Y: 4}}},
	}}
	s := b.Summary()
	if !strings.Contains(s, "1 boundary segments") || !strings.Contains(s, "[-1, 2]") {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestReadShapesRoundTrip(t *testing.T) {
	loops := &Loops{Loops: []*Loop{{
		Segments: []*Segment{
			{Points: geom.LineString{{X: 0, Y: 0}, {X: 4, Y: 0}}, PhysID: 2},
			{Points: geom.LineString{{X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 0}}, PhysID: 5},
		},
	}}}
	path := filepath.Join(t.TempDir(), "boundary.shp")
	if err := loops.Write(path); err != nil {
		t.Fatal(err)
	}

	b, err := ReadShapes(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(b.Segments))
	}
	if b.Segments[0].PhysID != 2 || b.Segments[1].PhysID != 5 {
		t.Errorf("physical identifiers = %d, %d; want 2, 5",
			b.Segments[0].PhysID, b.Segments[1].PhysID)
	}
	if b.SR != nil {
		t.Error("shapefile without projection information must give a nil spatial reference")
	}
}

func TestReadShapesWithoutPhysIDColumn(t *testing.T) {
	// Hand-drawn boundary files often carry no PhysID attribute, or no
	// attributes at all; they must still load, with the identifier
	// left unset.
	path := filepath.Join(t.TempDir(), "plain.shp")
	e, err := shp.NewEncoderFromFields(path, goshp.POLYLINE,
		goshp.StringField("Name", 10))
	if err != nil {
		t.Fatal(err)
	}
	lines := []geom.LineString{
		{{X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 0}},
	}
	for _, l := range lines {
		if err := e.EncodeFields(l, "coast"); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()

	b, err := ReadShapes(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(b.Segments))
	}
	for _, s := range b.Segments {
		if s.PhysID != 0 {
			t.Errorf("physID = %d, want 0", s.PhysID)
		}
	}

	loops, err := b.IdentifyLoops(LoopOptions{DefaultPhysID: 666})
	if err != nil {
		t.Fatal(err)
	}
	if have := loops.Loops[0].Segments[0].PhysID; have != 666 {
		t.Errorf("physID after loop identification = %d, want 666", have)
	}
}

func TestReadShapesMissingFile(t *testing.T) {
	if _, err := ReadShapes(filepath.Join(t.TempDir(), "missing.shp")); err == nil {
		t.Fatal("want error for a missing shapefile")
	}
}
