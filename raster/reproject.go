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

package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// At returns the raster value at (x, y) in the raster's own
// coordinate system, interpolated bilinearly between the four
// surrounding cell centers. Locations outside the grid return NaN.
func (r *Raster) At(x, y float64) float64 {
	fi := (x - r.X0) / r.Dx
	fj := (y - r.Y0) / r.Dy
	if fi < 0 || fj < 0 || fi > float64(r.Nx-1) || fj > float64(r.Ny-1) {
		return math.NaN()
	}
	i0, j0 := int(fi), int(fj)
	i1, j1 := i0+1, j0+1
	if i1 > r.Nx-1 {
		i1 = r.Nx - 1
	}
	if j1 > r.Ny-1 {
		j1 = r.Ny - 1
	}
	tx := fi - float64(i0)
	ty := fj - float64(j0)
	v00 := r.Data.Get(j0, i0)
	v10 := r.Data.Get(j0, i1)
	v01 := r.Data.Get(j1, i0)
	v11 := r.Data.Get(j1, i1)
	return v00*(1-tx)*(1-ty) + v10*tx*(1-ty) + v01*(1-tx)*ty + v11*tx*ty
}

// Reproject resamples the raster into the target coordinate reference
// system, given as a Proj4 or WKT definition. nx and ny give the
// shape of the output grid; if either is < 1 the source shape is
// kept. The raster must have a spatial reference of its own.
func (r *Raster) Reproject(targetDef string, nx, ny int) (*Raster, error) {
	if r.SR == nil {
		return nil, fmt.Errorf("raster: cannot reproject a raster without a source coordinate reference system")
	}
	target, err := proj.Parse(targetDef)
	if err != nil {
		return nil, fmt.Errorf("raster: parsing target coordinate reference system %q: %v", targetDef, err)
	}
	if nx < 1 || ny < 1 {
		nx, ny = r.Nx, r.Ny
	}

	forward, err := r.SR.NewTransform(target)
	if err != nil {
		return nil, fmt.Errorf("raster: creating coordinate transform: %v", err)
	}
	inverse, err := target.NewTransform(r.SR)
	if err != nil {
		return nil, fmt.Errorf("raster: creating inverse coordinate transform: %v", err)
	}

	// The output grid covers the transformed bounds of the source
	// grid, traced along its edges so curved projections are covered
	// too.
	bounds := geom.NewBounds()
	for _, p := range r.edgePoints() {
		g, err := p.Transform(forward)
		if err != nil {
			continue // points outside the target projection's domain
		}
		bounds.Extend(g.Bounds())
	}
	if bounds.Min.X > bounds.Max.X {
		return nil, fmt.Errorf("raster: no part of the raster is within the domain of %q", targetDef)
	}

	o := &Raster{
		Dx:    (bounds.Max.X - bounds.Min.X) / float64(nx),
		Dy:    (bounds.Max.Y - bounds.Min.Y) / float64(ny),
		Nx:    nx,
		Ny:    ny,
		SR:    target,
		SRDef: targetDef,
	}
	o.X0 = bounds.Min.X + o.Dx/2
	o.Y0 = bounds.Min.Y + o.Dy/2
	o.Data = sparse.ZerosDense(ny, nx)

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p := geom.Point{X: o.X0 + float64(i)*o.Dx, Y: o.Y0 + float64(j)*o.Dy}
			g, err := p.Transform(inverse)
			if err != nil {
				o.Data.Set(math.NaN(), j, i)
				continue
			}
			src := g.(geom.Point)
			o.Data.Set(r.At(src.X, src.Y), j, i)
		}
	}
	return o, nil
}

// edgePoints returns the cell centers along the four edges of the
// grid.
func (r *Raster) edgePoints() []geom.Point {
	var pts []geom.Point
	for i := 0; i < r.Nx; i++ {
		x := r.X0 + float64(i)*r.Dx
		pts = append(pts,
			geom.Point{X: x, Y: r.Y0},
			geom.Point{X: x, Y: r.Y0 + float64(r.Ny-1)*r.Dy})
	}
	for j := 0; j < r.Ny; j++ {
		y := r.Y0 + float64(j)*r.Dy
		pts = append(pts,
			geom.Point{X: r.X0, Y: y},
			geom.Point{X: r.X0 + float64(r.Nx-1)*r.Dx, Y: y})
	}
	return pts
}
