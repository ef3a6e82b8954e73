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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// physIDField is the shapefile attribute column holding the physical
// identifier of each boundary segment or polygon.
const physIDField = "PhysID"

// Segment is a boundary line with an associated physical identifier.
// A physical identifier of zero means that none has been assigned.
type Segment struct {
	Points geom.LineString
	PhysID int
}

// Boundaries holds boundary line geometries loaded from a shapefile,
// along with their spatial reference (which may be nil if the
// shapefile has no projection information).
type Boundaries struct {
	Segments []*Segment
	SR       *proj.SR
}

// ReadShapes loads boundary line geometries from the shapefile at path.
// LineString and MultiLineString shapes are accepted; each part of a
// MultiLineString becomes a separate segment. The physical identifier
// of each segment is taken from the PhysID attribute column if it
// exists.
func ReadShapes(path string) (*Boundaries, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("qmesh: opening boundary shapefile %s: %v", path, err)
	}
	defer d.Close()

	sr, err := d.SR()
	if err != nil {
		// A missing .prj file is not fatal; the geometry is then
		// assumed to already be in the target reference system.
		sr = nil
	}

	b := &Boundaries{SR: sr}
	cols := physIDColumns(d)
	for {
		g, fields, more := d.DecodeRowFields(cols...)
		if !more {
			break
		}
		physID, err := fieldToPhysID(fields)
		if err != nil {
			return nil, fmt.Errorf("qmesh: reading %s from %s: %v", physIDField, path, err)
		}
		switch t := g.(type) {
		case geom.LineString:
			b.add(t, physID)
		case geom.MultiLineString:
			for _, l := range t {
				b.add(l, physID)
			}
		default:
			return nil, fmt.Errorf("qmesh: boundary shapes must be lines but found %T", g)
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("qmesh: reading boundary shapefile %s: %v", path, err)
	}
	if len(b.Segments) == 0 {
		return nil, fmt.Errorf("qmesh: boundary shapefile %s contains no line geometries", path)
	}
	return b, nil
}

// add appends l as a segment, dropping degenerate geometries.
func (b *Boundaries) add(l geom.LineString, physID int) {
	if len(l) < 2 {
		return
	}
	if length(l) == 0 {
		return
	}
	b.Segments = append(b.Segments, &Segment{Points: l, PhysID: physID})
}

// Summary returns a one-line description of the loaded shapes for
// logging.
func (b *Boundaries) Summary() string {
	bounds := geom.NewBounds()
	for _, s := range b.Segments {
		bounds.Extend(s.Points.Bounds())
	}
	return fmt.Sprintf("%d boundary segments; bounds [%g, %g] - [%g, %g]",
		len(b.Segments), bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
}

// physIDColumns returns the attribute columns to decode: the PhysID
// column when the shapefile carries one, nothing otherwise. Asking the
// decoder for a column the file does not have is an error, and bare
// hand-drawn boundary files often have no attributes at all.
func physIDColumns(d *shp.Decoder) []string {
	for _, f := range d.Fields() {
		if strings.EqualFold(f.String(), physIDField) {
			return []string{physIDField}
		}
	}
	return nil
}

// fieldToPhysID extracts a physical identifier from decoded shapefile
// attributes. Shapefiles store numbers as text, sometimes with a
// decimal part, so "666", "666.0", and " 666 " are all accepted.
func fieldToPhysID(fields map[string]string) (int, error) {
	s, ok := fields[physIDField]
	if !ok {
		return 0, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid physical identifier %q", s)
	}
	return int(f), nil
}

// length returns the total length of l.
func length(l geom.LineString) float64 {
	var d float64
	for i := 0; i < len(l)-1; i++ {
		d += math.Hypot(l[i+1].X-l[i].X, l[i+1].Y-l[i].Y)
	}
	return d
}
