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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// A SurfacePolygon is a meshing surface: an outer boundary loop,
// zero or more hole loops, and a physical identifier.
//
// For a global domain the complement of all land masses (the part of
// the sphere outside every outer loop) is itself a surface; it is
// represented with a nil Outer and the enclosing rings as Holes.
type SurfacePolygon struct {
	Outer  *Loop
	Holes  []*Loop
	PhysID int
}

// Geom returns the polygon geometry, with the outer ring
// counterclockwise and hole rings clockwise. For the complement
// surface of a global domain (Outer == nil) only the hole rings are
// returned.
func (p *SurfacePolygon) Geom() geom.Polygon {
	var poly geom.Polygon
	if p.Outer != nil {
		poly = append(poly, p.Outer.Ring())
	}
	for _, h := range p.Holes {
		poly = append(poly, h.Ring())
	}
	return poly
}

// Bounds returns the bounding box of the polygon.
func (p *SurfacePolygon) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	if p.Outer != nil {
		b.Extend(p.Outer.Bounds())
	}
	for _, h := range p.Holes {
		b.Extend(h.Bounds())
	}
	return b
}

// Polygons is a set of meshing surfaces.
type Polygons struct {
	Polys []*SurfacePolygon
	SR    *proj.SR
}

// PolygonOptions control polygon identification.
type PolygonOptions struct {
	// Global indicates a closed-world domain: the complement of the
	// outermost loops becomes an additional surface covering the rest
	// of the sphere.
	Global bool

	// MinArea is the smallest ring area (in the squared units of the
	// boundary coordinate system) to keep. Smaller rings, whether
	// surfaces or holes, are discarded.
	MinArea float64

	// PhysID is the physical identifier assigned to every surface.
	PhysID int
}

// ring pairs a loop with its ring geometry during nesting analysis.
// The embedded Polygonal carries the ring polygon so rings can go
// straight into the spatial index.
type ring struct {
	geom.Polygonal

	loop   *Loop
	path   geom.Path
	area   float64 // absolute ring area
	parent *ring   // smallest enclosing ring, or nil
	depth  int
}

// IdentifyPolygons derives meshing surfaces from the closed loops.
// Rings nested directly inside another ring become holes of the
// enclosing surface; rings at even nesting depth become surfaces of
// their own. Rings smaller than opts.MinArea are sieved out.
func (l *Loops) IdentifyPolygons(opts PolygonOptions) (*Polygons, error) {
	if len(l.Loops) == 0 {
		return nil, fmt.Errorf("qmesh: no boundary loops to identify polygons from")
	}

	rings := make([]*ring, 0, len(l.Loops))
	index := rtree.NewTree(25, 50)
	for _, loop := range l.Loops {
		p := loop.Ring()
		if len(p) < 3 {
			continue
		}
		a := ringArea(p)
		if a < 0 {
			loop = reverseLoop(loop)
			p = loop.Ring()
			a = -a
		}
		r := &ring{Polygonal: geom.Polygon{p}, loop: loop, path: p, area: a}
		rings = append(rings, r)
		index.Insert(r)
	}

	for _, r := range rings {
		for _, cI := range index.SearchIntersect(r.Bounds()) {
			c := cI.(*ring)
			if c == r || c.area < r.area {
				continue
			}
			if !ringContains(c.path, r.path) {
				continue
			}
			if r.parent == nil || c.area < r.parent.area {
				r.parent = c
			}
		}
	}
	for _, r := range rings {
		for p := r.parent; p != nil; p = p.parent {
			r.depth++
		}
	}

	out := &Polygons{SR: l.SR}
	surfaces := make(map[*ring]*SurfacePolygon)
	// Process outer rings before their holes.
	sort.Slice(rings, func(i, j int) bool { return rings[i].depth < rings[j].depth })
	for _, r := range rings {
		if r.area < opts.MinArea {
			continue
		}
		if r.depth%2 == 0 { // a surface
			s := &SurfacePolygon{Outer: r.loop, PhysID: opts.PhysID}
			surfaces[r] = s
			out.Polys = append(out.Polys, s)
		} else { // a hole in its parent surface
			parent := surfaces[r.parent]
			if parent == nil {
				continue // parent was sieved out
			}
			parent.Holes = append(parent.Holes, reverseLoop(r.loop))
		}
	}
	if len(out.Polys) == 0 {
		return nil, fmt.Errorf("qmesh: all polygons are smaller than the minimum area %g", opts.MinArea)
	}

	if opts.Global {
		// The rest of the sphere is a surface bounded by the
		// outermost rings.
		comp := &SurfacePolygon{PhysID: opts.PhysID}
		for _, r := range rings {
			if r.depth == 0 && r.area >= opts.MinArea {
				comp.Holes = append(comp.Holes, reverseLoop(r.loop))
			}
		}
		out.Polys = append(out.Polys, comp)
	}
	return out, nil
}

// ringContains reports whether inner lies inside outer. Vertices on
// the boundary of outer are skipped when deciding.
func ringContains(outer, inner geom.Path) bool {
	poly := geom.Polygon{outer}
	for _, p := range inner {
		switch p.Within(poly) {
		case geom.Inside:
			return true
		case geom.Outside:
			return false
		}
		// On the boundary: try the next vertex.
	}
	return false
}

// ringArea returns the signed area of the ring: positive for
// counterclockwise rings.
// https://en.wikipedia.org/wiki/Shoelace_formula
func ringArea(r geom.Path) float64 {
	var sum float64
	if len(r) == 0 {
		return 0
	}
	p0 := r[len(r)-1]
	for _, p1 := range r {
		sum += p1.Y*p0.X - p1.X*p0.Y
		p0 = p1
	}
	return sum / 2
}

// reverseLoop returns the loop traced in the opposite direction.
func reverseLoop(l *Loop) *Loop {
	o := &Loop{Segments: make([]*Segment, len(l.Segments))}
	for i, s := range l.Segments {
		o.Segments[len(l.Segments)-1-i] = &Segment{
			Points: reverse(s.Points),
			PhysID: s.PhysID,
		}
	}
	return o
}

// ReadPolygons loads meshing surfaces directly from a polygon
// shapefile, bypassing loop identification. The physical identifier
// of each surface is taken from the PhysID attribute column if it
// exists.
func ReadPolygons(path string) (*Polygons, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("qmesh: opening polygon shapefile %s: %v", path, err)
	}
	defer d.Close()

	sr, err := d.SR()
	if err != nil {
		sr = nil
	}

	out := &Polygons{SR: sr}
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
		case geom.Polygon:
			out.Polys = append(out.Polys, polygonToSurface(t, physID))
		case geom.MultiPolygon:
			for _, p := range t {
				out.Polys = append(out.Polys, polygonToSurface(p, physID))
			}
		default:
			return nil, fmt.Errorf("qmesh: polygon shapes must be polygons but found %T", g)
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("qmesh: reading polygon shapefile %s: %v", path, err)
	}
	if len(out.Polys) == 0 {
		return nil, fmt.Errorf("qmesh: polygon shapefile %s contains no polygons", path)
	}
	return out, nil
}

// polygonToSurface converts a polygon geometry to a surface, turning
// each ring into a single-segment closed loop.
func polygonToSurface(p geom.Polygon, physID int) *SurfacePolygon {
	s := &SurfacePolygon{PhysID: physID}
	for _, r := range p {
		if len(r) == 0 {
			continue
		}
		if len(r) > 1 && r[0] == r[len(r)-1] {
			r = r[:len(r)-1]
		}
		closed := make(geom.LineString, 0, len(r)+1)
		for _, pt := range r {
			closed = append(closed, pt)
		}
		closed = append(closed, r[0])
		loop := &Loop{Segments: []*Segment{{Points: closed, PhysID: physID}}}
		if s.Outer == nil {
			s.Outer = loop
		} else {
			s.Holes = append(s.Holes, loop)
		}
	}
	return s
}

// Area returns the area of the surface, holes subtracted. The
// complement surface of a global domain has no well-defined planar
// area and returns NaN.
func (p *SurfacePolygon) Area() float64 {
	if p.Outer == nil {
		return math.NaN()
	}
	a := math.Abs(ringArea(p.Outer.Ring()))
	for _, h := range p.Holes {
		a -= math.Abs(ringArea(h.Ring()))
	}
	return a
}

// Write saves the surfaces as a polygon shapefile with a PhysID
// attribute column. The complement surface of a global domain is
// skipped.
func (p *Polygons) Write(path string) error {
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON,
		goshp.NumberField(physIDField, 10))
	if err != nil {
		return fmt.Errorf("qmesh: creating polygon shapefile %s: %v", path, err)
	}
	for _, s := range p.Polys {
		if s.Outer == nil {
			continue
		}
		if err := e.EncodeFields(s.Geom(), s.PhysID); err != nil {
			return fmt.Errorf("qmesh: writing polygon shapefile %s: %v", path, err)
		}
	}
	e.Close()
	return nil
}
