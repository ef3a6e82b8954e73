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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// A Loop is a closed ring of boundary segments, ordered tip-to-tail:
// the last point of each segment coincides with the first point of the
// next, and the last point of the final segment coincides with the
// first point of the first.
type Loop struct {
	Segments []*Segment
}

// Ring returns the loop as a single ring of points. The common point
// shared by consecutive segments appears once, and the ring is not
// explicitly closed (the first point is not repeated at the end).
func (l *Loop) Ring() geom.Path {
	var r geom.Path
	for _, s := range l.Segments {
		pts := s.Points
		if len(r) > 0 && r[len(r)-1] == pts[0] {
			pts = pts[1:]
		}
		for _, p := range pts {
			r = append(r, p)
		}
	}
	if len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	return r
}

// Bounds returns the bounding box of the loop.
func (l *Loop) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, s := range l.Segments {
		b.Extend(s.Points.Bounds())
	}
	return b
}

// Loops is a set of closed boundary loops.
type Loops struct {
	Loops []*Loop
	SR    *proj.SR
}

// LoopOptions control loop identification.
type LoopOptions struct {
	// Global indicates that the boundary describes a closed world, so
	// segment endpoints on the -180° meridian join endpoints on the
	// +180° meridian.
	Global bool

	// DefaultPhysID is assigned to segments without a physical
	// identifier.
	DefaultPhysID int

	// FixOpenLoops closes chains whose two ends do not meet by
	// inserting a straight closing segment. When false, an open chain
	// is an error.
	FixOpenLoops bool
}

// IdentifyLoops joins the boundary segments into closed loops.
// Segments are matched end-to-end by exact endpoint coordinates.
// Duplicate segments are collapsed before matching.
func (b *Boundaries) IdentifyLoops(opts LoopOptions) (*Loops, error) {
	segs := dedupe(b.Segments)

	for _, s := range segs {
		if s.PhysID == 0 {
			s.PhysID = opts.DefaultPhysID
		}
	}
	if opts.Global {
		// Move the seam to a single longitude so matching and all
		// downstream geometry see one set of coordinates there.
		for _, s := range segs {
			s.Points = wrapAntimeridian(s.Points)
		}
	}

	// Index segments by their endpoints.
	type end struct {
		seg     int
		reverse bool // true if the indexed endpoint is the segment's last point
	}
	ends := make(map[geom.Point][]end)
	for i, s := range segs {
		first := s.Points[0]
		last := s.Points[len(s.Points)-1]
		ends[first] = append(ends[first], end{seg: i, reverse: false})
		ends[last] = append(ends[last], end{seg: i, reverse: true})
	}

	used := make([]bool, len(segs))
	take := func(p geom.Point) (*Segment, bool) {
		for _, e := range ends[p] {
			if !used[e.seg] {
				used[e.seg] = true
				return segs[e.seg], e.reverse
			}
		}
		return nil, false
	}

	out := &Loops{SR: b.SR}
	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []*Segment{segs[i]}
		head := segs[i].Points[0]
		tail := segs[i].Points[len(segs[i].Points)-1]
		for tail != head {
			if s, rev := take(tail); s != nil {
				if rev {
					s = &Segment{Points: reverse(s.Points), PhysID: s.PhysID}
				}
				chain = append(chain, s)
				tail = s.Points[len(s.Points)-1]
				continue
			}
			// The tail cannot grow; grow at the head so a chain listed
			// from an interior segment is still assembled whole.
			if s, rev := take(head); s != nil {
				if !rev {
					s = &Segment{Points: reverse(s.Points), PhysID: s.PhysID}
				}
				chain = append([]*Segment{s}, chain...)
				head = s.Points[0]
				continue
			}
			if !opts.FixOpenLoops {
				return nil, fmt.Errorf("qmesh: boundary contains an open loop ending at (%g, %g)", tail.X, tail.Y)
			}
			// Close the chain with a straight segment back to the
			// start.
			chain = append(chain, &Segment{
				Points: geom.LineString{tail, head},
				PhysID: opts.DefaultPhysID,
			})
			break
		}
		out.Loops = append(out.Loops, &Loop{Segments: chain})
	}
	return out, nil
}

// wrapAntimeridian returns l with points on the -180° meridian moved
// to +180°.
func wrapAntimeridian(l geom.LineString) geom.LineString {
	o := make(geom.LineString, len(l))
	for i, p := range l {
		if p.X == -180 {
			p.X = 180
		}
		o[i] = p
	}
	return o
}

// dedupe collapses segments that trace the same points, in either
// direction.
func dedupe(segs []*Segment) []*Segment {
	var out []*Segment
	seen := make(map[string]bool)
	for _, s := range segs {
		fwd := fmt.Sprint(s.Points)
		bwd := fmt.Sprint(reverse(s.Points))
		if seen[fwd] || seen[bwd] {
			continue
		}
		seen[fwd] = true
		out = append(out, &Segment{Points: s.Points, PhysID: s.PhysID})
	}
	return out
}

// reverse returns l with its points in the opposite order.
func reverse(l geom.LineString) geom.LineString {
	o := make(geom.LineString, len(l))
	for i, p := range l {
		o[len(l)-1-i] = p
	}
	return o
}

// Write saves the loops as a line shapefile with one row per segment
// and a PhysID attribute column.
func (l *Loops) Write(path string) error {
	e, err := shp.NewEncoderFromFields(path, goshp.POLYLINE,
		goshp.NumberField(physIDField, 10))
	if err != nil {
		return fmt.Errorf("qmesh: creating loop shapefile %s: %v", path, err)
	}
	for _, loop := range l.Loops {
		for _, s := range loop.Segments {
			if err := e.EncodeFields(s.Points, s.PhysID); err != nil {
				return fmt.Errorf("qmesh: writing loop shapefile %s: %v", path, err)
			}
		}
	}
	e.Close()
	return nil
}
