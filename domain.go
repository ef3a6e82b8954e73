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
	"bufio"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/qmesh-developers/qmesh/raster"
)

// Algorithm selects the gmsh 2-D meshing algorithm.
type Algorithm int

const (
	// Del2D is the Delaunay algorithm.
	Del2D Algorithm = iota
	// Frontal is the frontal-Delaunay algorithm.
	Frontal
	// Adapt is the mesh-adaptation algorithm.
	Adapt
)

func (a Algorithm) String() string {
	switch a {
	case Del2D:
		return "del2d"
	case Frontal:
		return "frontal"
	case Adapt:
		return "adapt"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// gmshName returns the name gmsh uses for the algorithm in its
// -algo command-line option.
func (a Algorithm) gmshName() string {
	switch a {
	case Frontal:
		return "front2d"
	case Adapt:
		return "meshadapt"
	}
	return "del2d"
}

// A Domain describes a meshing domain: the surfaces to be meshed, the
// coordinate reference system the mesh is generated in, and an
// optional mesh-metric raster controlling element sizes.
type Domain struct {
	polygons *Polygons

	targetSR  *proj.SR
	targetDef string

	metric *raster.Raster

	// Global indicates meshing on the whole sphere rather than in a
	// planar coordinate system.
	Global bool

	// PlanetRadius is the sphere radius used to place points for a
	// global domain.
	PlanetRadius float64

	// GmshPath is the gmsh executable to run; resolved through $PATH
	// when it contains no separator.
	GmshPath string
}

// NewDomain creates a meshing domain from the given surfaces.
func NewDomain(p *Polygons) *Domain {
	return &Domain{
		polygons:     p,
		PlanetRadius: EarthRadius,
		GmshPath:     "gmsh",
	}
}

// EarthRadius is the default planet radius [m].
const EarthRadius = 6.37101e6

// SetTargetCRS sets the coordinate reference system the mesh is
// generated in, given as a Proj4 or WKT definition. It must be called
// before writing any output.
func (d *Domain) SetTargetCRS(def string) error {
	sr, err := proj.Parse(def)
	if err != nil {
		return fmt.Errorf("qmesh: parsing target coordinate reference system %q: %v", def, err)
	}
	d.targetSR = sr
	d.targetDef = def
	return nil
}

// SetMeshMetricRaster binds a mesh-metric raster to the domain. The
// raster values are element sizes in mesh coordinate units.
func (d *Domain) SetMeshMetricRaster(r *raster.Raster) {
	d.metric = r
}

// transformer returns the transform from the boundary coordinate
// system into the target system, or nil if the boundary carries no
// spatial reference.
func (d *Domain) transformer() (proj.Transformer, error) {
	if d.targetSR == nil {
		return nil, fmt.Errorf("qmesh: domain has no target coordinate reference system")
	}
	if d.polygons.SR == nil {
		return nil, nil
	}
	t, err := d.polygons.SR.NewTransform(d.targetSR)
	if err != nil {
		return nil, fmt.Errorf("qmesh: creating coordinate transform: %v", err)
	}
	return t, nil
}

// WriteGeoFile writes the domain as a gmsh geometry (.geo) file. If a
// mesh-metric raster is bound, the geometry references the field file
// that WriteFldFile produces for the same output stub.
func (d *Domain) WriteGeoFile(path string) error {
	trans, err := d.transformer()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("qmesh: creating geometry file: %v", err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "// Generated by QMesh %s\n", Version)
	fmt.Fprintf(w, "// Coordinate reference system: %s\n", d.targetDef)

	// All geometry entities draw identifiers from one sequence.
	pointIDs := make(map[geom.Point]int)
	next := 1
	newID := func() int {
		id := next
		next++
		return id
	}

	sphereCenter := 0
	if d.Global {
		sphereCenter = newID()
		fmt.Fprintf(w, "Point(%d) = {0, 0, 0};\n", sphereCenter)
	}

	writePoint := func(p geom.Point) (int, error) {
		if d.Global && p.X == -180 {
			// Both seam longitudes are the same place on the sphere;
			// splitting them leaves line loops that never close.
			p.X = 180
		}
		if id, ok := pointIDs[p]; ok {
			return id, nil
		}
		pt := p
		if trans != nil {
			g, err := pt.Transform(trans)
			if err != nil {
				return 0, fmt.Errorf("qmesh: transforming point (%g, %g): %v", p.X, p.Y, err)
			}
			pt = g.(geom.Point)
		}
		id := newID()
		pointIDs[p] = id
		if d.Global {
			x, y, z := onSphere(pt, d.PlanetRadius)
			fmt.Fprintf(w, "Point(%d) = {%.10g, %.10g, %.10g};\n", id, x, y, z)
		} else {
			fmt.Fprintf(w, "Point(%d) = {%.10g, %.10g, 0};\n", id, pt.X, pt.Y)
		}
		return id, nil
	}

	physLines := make(map[int][]int)
	physSurfaces := make(map[int][]int)

	writeLoop := func(l *Loop) (int, error) {
		var lineIDs []int
		for _, s := range l.Segments {
			ptIDs := make([]int, len(s.Points))
			for i, p := range s.Points {
				id, err := writePoint(p)
				if err != nil {
					return 0, err
				}
				ptIDs[i] = id
			}
			id := newID()
			if len(ptIDs) == 2 {
				fmt.Fprintf(w, "Line(%d) = {%d, %d};\n", id, ptIDs[0], ptIDs[1])
			} else {
				fmt.Fprintf(w, "BSpline(%d) = {%s};\n", id, joinInts(ptIDs))
			}
			lineIDs = append(lineIDs, id)
			physLines[s.PhysID] = append(physLines[s.PhysID], id)
		}
		id := newID()
		fmt.Fprintf(w, "Line Loop(%d) = {%s};\n", id, joinInts(lineIDs))
		return id, nil
	}

	for _, s := range d.polygons.Polys {
		var loopIDs []int
		if s.Outer != nil {
			id, err := writeLoop(s.Outer)
			if err != nil {
				return closeOnError(f, err)
			}
			loopIDs = append(loopIDs, id)
		}
		for _, h := range s.Holes {
			id, err := writeLoop(h)
			if err != nil {
				return closeOnError(f, err)
			}
			loopIDs = append(loopIDs, id)
		}
		if len(loopIDs) == 0 {
			continue
		}
		id := newID()
		if d.Global {
			fmt.Fprintf(w, "Ruled Surface(%d) = {%s} In Sphere {%d};\n", id, joinInts(loopIDs), sphereCenter)
		} else {
			fmt.Fprintf(w, "Plane Surface(%d) = {%s};\n", id, joinInts(loopIDs))
		}
		physSurfaces[s.PhysID] = append(physSurfaces[s.PhysID], id)
	}

	for _, physID := range sortedKeys(physLines) {
		fmt.Fprintf(w, "Physical Line(%d) = {%s};\n", physID, joinInts(physLines[physID]))
	}
	for _, physID := range sortedKeys(physSurfaces) {
		fmt.Fprintf(w, "Physical Surface(%d) = {%s};\n", physID, joinInts(physSurfaces[physID]))
	}

	if d.metric != nil {
		fldName := fldNameForGeo(path)
		fmt.Fprintf(w, "Field[1] = Structured;\n")
		fmt.Fprintf(w, "Field[1].FileName = \"%s\";\n", fldName)
		fmt.Fprintf(w, "Field[1].TextFormat = 1;\n")
		fmt.Fprintf(w, "Background Field = 1;\n")
		fmt.Fprintf(w, "Mesh.CharacteristicLengthExtendFromBoundary = 0;\n")
	}

	if err := w.Flush(); err != nil {
		return closeOnError(f, fmt.Errorf("qmesh: writing geometry file: %v", err))
	}
	return f.Close()
}

// WriteFldFile writes the mesh-metric raster as a gmsh structured
// field file, reprojecting it into the target coordinate reference
// system if the raster carries its own.
func (d *Domain) WriteFldFile(path string) error {
	if d.metric == nil {
		return fmt.Errorf("qmesh: domain has no mesh metric raster")
	}
	if d.targetSR == nil {
		return fmt.Errorf("qmesh: domain has no target coordinate reference system")
	}
	r := d.metric
	if r.SR != nil && r.SRDef != d.targetDef {
		var err error
		r, err = r.Reproject(d.targetDef, 0, 0)
		if err != nil {
			return fmt.Errorf("qmesh: reprojecting mesh metric raster: %v", err)
		}
	}
	return r.WriteStructuredField(path, d.targetDef)
}

// Mesh runs gmsh on the geometry file geoPath with the given
// algorithm, producing the mesh file mshPath. The combined gmsh output
// is returned for logging. Meshes are written in the MSH2 format:
// newer gmsh releases default to MSH4.1, which downstream model
// toolchains cannot yet re-read.
func (d *Domain) Mesh(alg Algorithm, geoPath, mshPath string) (string, error) {
	args := []string{"-2", "-algo", alg.gmshName(), "-format", "msh2", "-o", mshPath, geoPath}
	cmd := exec.Command(d.GmshPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("qmesh: running %s %v: %v", d.GmshPath, args, err)
	}
	return string(out), nil
}

// onSphere maps a longitude/latitude point (degrees) onto the sphere
// of the given radius.
func onSphere(p geom.Point, radius float64) (x, y, z float64) {
	lon := p.X * math.Pi / 180
	lat := p.Y * math.Pi / 180
	x = radius * math.Cos(lat) * math.Cos(lon)
	y = radius * math.Cos(lat) * math.Sin(lon)
	z = radius * math.Sin(lat)
	return
}

// fldNameForGeo returns the field file name the geometry should
// reference, relative to the geometry file's directory.
func fldNameForGeo(geoPath string) string {
	base := geoPath[:len(geoPath)-len(filepath.Ext(geoPath))]
	return filepath.Base(base) + ".fld"
}

// joinInts formats ids as a comma-separated list.
func joinInts(ids []int) string {
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(id)
	}
	return s
}

// sortedKeys returns the keys of m in increasing order.
func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func closeOnError(f *os.File, err error) error {
	f.Close()
	return err
}
