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

// Package raster handles gridded mesh-metric fields: loading them from
// raster files, reprojecting them between coordinate reference
// systems, and writing them as gmsh structured field files.
package raster

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// A Raster is a regular grid of values with georeferencing
// information. Data is stored row-major with shape [Ny, Nx]; row j,
// column i holds the value at cell center
// (X0 + i*Dx, Y0 + j*Dy).
type Raster struct {
	Data *sparse.DenseArray

	// X0, Y0 is the center of the lower-left cell.
	X0, Y0 float64
	// Dx, Dy are the cell sizes.
	Dx, Dy float64
	// Nx, Ny are the grid dimensions.
	Nx, Ny int

	// SR is the spatial reference of the grid, or nil if unknown.
	SR *proj.SR
	// SRDef is the definition SR was parsed from.
	SRDef string
}

// Read loads a raster from a file, dispatching on the file extension:
// .nc and .ncf are COARDS-compliant NetCDF (NetCDF 4 and greater not
// supported), .asc is an ESRI ASCII grid.
func Read(path string) (*Raster, error) {
	switch x := filepath.Ext(path); x {
	case ".nc", ".ncf":
		return readCOARDS(path)
	case ".asc":
		return readArcASCII(path)
	default:
		return nil, fmt.Errorf("raster: invalid raster file type %s; valid types are .nc, .ncf and .asc", x)
	}
}

// SetCRS sets the spatial reference of the raster from a Proj4 or WKT
// definition, overriding anything read from the file.
func (r *Raster) SetCRS(def string) error {
	sr, err := proj.Parse(def)
	if err != nil {
		return fmt.Errorf("raster: parsing coordinate reference system %q: %v", def, err)
	}
	r.SR = sr
	r.SRDef = def
	return nil
}

// Summary returns a one-line description of the raster for logging.
func (r *Raster) Summary() string {
	min, max := math.NaN(), math.NaN()
	if len(r.Data.Elements) > 0 {
		min = floats.Min(r.Data.Elements)
		max = floats.Max(r.Data.Elements)
	}
	return fmt.Sprintf("%d x %d cells; x [%g, %g]; y [%g, %g]; values [%g, %g]",
		r.Nx, r.Ny, r.X0, r.X0+float64(r.Nx-1)*r.Dx, r.Y0, r.Y0+float64(r.Ny-1)*r.Dy, min, max)
}

// readCOARDS reads a COARDS-compliant NetCDF file. The first 2-D
// floating-point variable with coordinate dimensions is used as the
// raster data. The spatial reference is taken from a proj4 global
// attribute if one exists; otherwise files with lat/lon coordinate
// variables are assumed to be in geographic coordinates.
func readCOARDS(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening NetCDF file %s: %v", path, err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("raster: opening NetCDF file %s: %v", path, err)
	}

	// Find the data variable and the names of its coordinate
	// dimensions.
	var dataVar, yDim, xDim string
	for _, v := range nc.Header.Variables() {
		dims := nc.Header.Dimensions(v)
		if len(dims) != 2 {
			continue
		}
		if (dims[0] == "lat" && dims[1] == "lon") || (dims[0] == "y" && dims[1] == "x") {
			dataVar, yDim, xDim = v, dims[0], dims[1]
			break
		}
	}
	if dataVar == "" {
		return nil, fmt.Errorf("raster: NetCDF file %s has no 2-D variable with [lat, lon] or [y, x] dimensions", path)
	}

	data, err := readCOARDSVar(nc, dataVar)
	if err != nil {
		return nil, fmt.Errorf("raster: reading variable %s from NetCDF file %s: %v", dataVar, path, err)
	}
	if data == nil {
		return nil, fmt.Errorf("raster: variable %s in NetCDF file %s is not floating point", dataVar, path)
	}
	xs, err := readCOARDSVar(nc, xDim)
	if err != nil {
		return nil, fmt.Errorf("raster: reading variable %s from NetCDF file %s: %v", xDim, path, err)
	}
	ys, err := readCOARDSVar(nc, yDim)
	if err != nil {
		return nil, fmt.Errorf("raster: reading variable %s from NetCDF file %s: %v", yDim, path, err)
	}
	if len(xs) < 2 || len(ys) < 2 {
		return nil, fmt.Errorf("raster: coordinate variables in NetCDF file %s must be length >= 2 but are %d and %d", path, len(ys), len(xs))
	}
	if len(data) != len(xs)*len(ys) {
		return nil, fmt.Errorf("raster: variable %s in NetCDF file %s has %d values, want %d", dataVar, path, len(data), len(xs)*len(ys))
	}

	r := &Raster{
		X0: xs[0],
		Y0: ys[0],
		Dx: (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1),
		Dy: (ys[len(ys)-1] - ys[0]) / float64(len(ys)-1),
		Nx: len(xs),
		Ny: len(ys),
	}
	r.Data = sparse.ZerosDense(r.Ny, r.Nx)

	// COARDS data is latitude-major; latitudes may run north to
	// south, in which case the rows are flipped so Dy is positive.
	flip := r.Dy < 0
	if flip {
		r.Y0 = ys[len(ys)-1]
		r.Dy = -r.Dy
	}
	for j := 0; j < r.Ny; j++ {
		srcJ := j
		if flip {
			srcJ = r.Ny - 1 - j
		}
		for i := 0; i < r.Nx; i++ {
			r.Data.Set(data[srcJ*r.Nx+i], j, i)
		}
	}

	if p4 := globalStringAttribute(nc, "proj4"); p4 != "" {
		if err := r.SetCRS(p4); err != nil {
			return nil, err
		}
	} else if yDim == "lat" {
		if err := r.SetCRS("+proj=longlat"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// readCOARDSVar reads a floating point variable from a COARDS file,
// returning nil if the variable is not floating point. Fill values
// become NaN.
func readCOARDSVar(nc *cdf.File, v string) ([]float64, error) {
	r := nc.Reader(v, nil, nil)
	dataI := r.Zero(-1)
	switch dataI.(type) {
	case []float32, []float64:
	default:
		return nil, nil
	}
	if _, err := r.Read(dataI); err != nil {
		return nil, err
	}
	var data []float64
	switch d := dataI.(type) {
	case []float64:
		data = d
	case []float32:
		data = make([]float64, len(d))
		for i, v := range d {
			data[i] = float64(v)
		}
	}

	noDataI := nc.Header.GetAttribute(v, "_FillValue")
	if noDataI != nil {
		var noData float64
		switch n := noDataI.(type) {
		case []float32:
			noData = float64(n[0])
		case []float64:
			noData = n[0]
		default:
			return nil, fmt.Errorf("invalid type for NetCDF FillValue: %T", noDataI)
		}
		for i, d := range data {
			if d == noData {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// globalStringAttribute returns the named global attribute as a
// string, or "" if it is absent or not a string.
func globalStringAttribute(nc *cdf.File, name string) string {
	a := nc.Header.GetAttribute("", name)
	if a == nil {
		return ""
	}
	if s, ok := a.(string); ok {
		return s
	}
	return ""
}

// readArcASCII reads an ESRI ASCII grid. No library in the geospatial
// stack reads this format, so it is parsed directly: a six-line
// header (ncols, nrows, xllcorner or xllcenter, yllcorner or
// yllcenter, cellsize, and an optional NODATA_value) followed by
// nrows rows of values running north to south.
func readArcASCII(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening ASCII grid %s: %v", path, err)
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := make(map[string]float64)
	var values []float64
	for scan.Scan() {
		fields := strings.Fields(scan.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 2 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				key := strings.ToLower(fields[0])
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("raster: ASCII grid %s: invalid header line %q", path, scan.Text())
				}
				header[key] = v
				continue
			}
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("raster: ASCII grid %s: invalid value %q", path, field)
			}
			values = append(values, v)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("raster: reading ASCII grid %s: %v", path, err)
	}

	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, fmt.Errorf("raster: ASCII grid %s is missing the %s header", path, key)
		}
	}
	nx, ny := int(header["ncols"]), int(header["nrows"])
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("raster: ASCII grid %s has invalid dimensions %d x %d", path, nx, ny)
	}
	if len(values) != nx*ny {
		return nil, fmt.Errorf("raster: ASCII grid %s has %d values, want %d", path, len(values), nx*ny)
	}
	cell := header["cellsize"]

	r := &Raster{Dx: cell, Dy: cell, Nx: nx, Ny: ny}
	if x, ok := header["xllcenter"]; ok {
		r.X0 = x
	} else {
		r.X0 = header["xllcorner"] + cell/2
	}
	if y, ok := header["yllcenter"]; ok {
		r.Y0 = y
	} else {
		r.Y0 = header["yllcorner"] + cell/2
	}

	noData, hasNoData := header["nodata_value"]
	r.Data = sparse.ZerosDense(ny, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := values[(ny-1-j)*nx+i] // rows run north to south
			if hasNoData && v == noData {
				v = math.NaN()
			}
			r.Data.Set(v, j, i)
		}
	}
	return r, nil
}
