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

package qmeshutil

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/qmesh-developers/qmesh/raster"
)

// Rst2FldConfig holds the validated inputs of the rst2fld operation.
type Rst2FldConfig struct {
	// Input is the raster file to convert.
	Input string
	// Output is the field file to write.
	Output string
	// SourceCRS optionally overrides the raster's coordinate
	// reference system.
	SourceCRS string
	// TargetCRS is the coordinate reference system to reproject into.
	// When empty the raster passes through unchanged.
	TargetCRS string
	// GridNx, GridNy give the shape of the reprojected grid; when
	// either is < 1 the input shape is kept.
	GridNx, GridNy int
}

// Rst2Fld converts a raster to a gmsh structured field file.
func Rst2Fld(log logrus.FieldLogger, cfg Rst2FldConfig) error {
	r, err := raster.Read(cfg.Input)
	if err != nil {
		return err
	}
	log.Infof("Loaded raster %s: %s", cfg.Input, r.Summary())

	if cfg.SourceCRS != "" {
		if err := r.SetCRS(cfg.SourceCRS); err != nil {
			return err
		}
	}

	if cfg.TargetCRS != "" {
		if r.SR == nil {
			return fmt.Errorf("qmesh: reprojecting to %q requires a source coordinate reference system, but none was given and the raster does not carry one", cfg.TargetCRS)
		}
		// A target system matching the source passes the raster
		// through unchanged unless a grid shape asks for resampling.
		resample := cfg.GridNx >= 1 && cfg.GridNy >= 1
		if r.SRDef != cfg.TargetCRS || resample {
			r, err = r.Reproject(cfg.TargetCRS, cfg.GridNx, cfg.GridNy)
			if err != nil {
				return err
			}
			log.Infof("Reprojected raster: %s", r.Summary())
		}
	}

	if err := r.WriteStructuredField(cfg.Output, cfg.TargetCRS); err != nil {
		return err
	}
	log.Infof("Wrote field file %s", cfg.Output)
	return nil
}
