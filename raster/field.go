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
	"bufio"
	"fmt"
	"os"
)

// WriteStructuredField writes the raster in the gmsh structured field
// text format: an origin line, a spacing line, a dimension line, and
// then the values with the innermost loop over y. If crsTag is not
// empty it is recorded after the data; gmsh reads exactly the
// declared number of values and ignores anything after them.
func (r *Raster) WriteStructuredField(path, crsTag string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: creating field file %s: %v", path, err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "%g %g 0\n", r.X0, r.Y0)
	fmt.Fprintf(w, "%g %g 1\n", r.Dx, r.Dy)
	fmt.Fprintf(w, "%d %d 1\n", r.Nx, r.Ny)
	for i := 0; i < r.Nx; i++ {
		for j := 0; j < r.Ny; j++ {
			fmt.Fprintf(w, "%g\n", r.Data.Get(j, i))
		}
	}
	if crsTag != "" {
		fmt.Fprintf(w, "# CRS: %s\n", crsTag)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("raster: writing field file %s: %v", path, err)
	}
	return f.Close()
}
