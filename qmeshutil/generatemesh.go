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
	"github.com/sirupsen/logrus"

	"github.com/qmesh-developers/qmesh"
	"github.com/qmesh-developers/qmesh/raster"
)

// GenerateMeshConfig holds the validated inputs of the generate_mesh
// operation.
type GenerateMeshConfig struct {
	// Boundary is the input boundary line shapefile.
	Boundary string
	// Stub is the output file stub; output files are Stub + ".geo",
	// Stub + ".fld" and Stub + ".msh".
	Stub string
	// OutputCRS is the coordinate reference system the mesh is
	// generated in.
	OutputCRS string
	// PlanetRadius is the sphere radius for global domains [m].
	PlanetRadius float64
	// BoundaryID is the physical identifier for boundary segments
	// without one.
	BoundaryID int
	// Global indicates a whole-planet domain.
	Global bool
	// OnlyWrite skips mesh generation, writing only the geometry and
	// field files.
	OnlyWrite bool
	// Algorithm is the meshing algorithm.
	Algorithm qmesh.Algorithm
	// MinArea is the smallest polygon area to mesh.
	MinArea float64
	// SurfaceID is the physical identifier for meshed surfaces.
	SurfaceID int
	// RasterFile is an optional mesh-metric raster path.
	RasterFile string
	// RasterCRS optionally overrides the raster's coordinate
	// reference system.
	RasterCRS string
	// PolygonFile is an optional polygon shapefile to mesh directly.
	PolygonFile string
	// GmshPath is the gmsh executable.
	GmshPath string
}

// GenerateMesh generates a mesh from boundary line geometries.
func GenerateMesh(log logrus.FieldLogger, cfg GenerateMeshConfig) error {
	boundaries, err := qmesh.ReadShapes(cfg.Boundary)
	if err != nil {
		return err
	}
	log.Infof("Loaded %s: %s", cfg.Boundary, boundaries.Summary())

	var polygons *qmesh.Polygons
	if cfg.PolygonFile != "" {
		polygons, err = qmesh.ReadPolygons(cfg.PolygonFile)
		if err != nil {
			return err
		}
		log.Infof("Loaded %d polygons from %s", len(polygons.Polys), cfg.PolygonFile)
	} else {
		loops, err := boundaries.IdentifyLoops(qmesh.LoopOptions{
			Global:        cfg.Global,
			DefaultPhysID: cfg.BoundaryID,
			FixOpenLoops:  true,
		})
		if err != nil {
			return err
		}
		log.Infof("Identified %d boundary loops", len(loops.Loops))

		polygons, err = loops.IdentifyPolygons(qmesh.PolygonOptions{
			Global:  cfg.Global,
			MinArea: cfg.MinArea,
			PhysID:  cfg.SurfaceID,
		})
		if err != nil {
			return err
		}
		log.Infof("Identified %d polygons", len(polygons.Polys))

		if l, ok := log.(*logrus.Logger); ok && l.IsLevelEnabled(logrus.DebugLevel) {
			if err := loops.Write(cfg.Stub + "_loops.shp"); err != nil {
				return err
			}
			if err := polygons.Write(cfg.Stub + "_polygons.shp"); err != nil {
				return err
			}
			log.Debugf("Wrote intermediate shapefiles %s_loops.shp and %s_polygons.shp", cfg.Stub, cfg.Stub)
		}
	}

	var metric *raster.Raster
	if cfg.RasterFile != "" {
		metric, err = raster.Read(cfg.RasterFile)
		if err != nil {
			return err
		}
		if cfg.RasterCRS != "" {
			if err := metric.SetCRS(cfg.RasterCRS); err != nil {
				return err
			}
		}
		log.Infof("Loaded mesh metric raster %s: %s", cfg.RasterFile, metric.Summary())
	}

	domain := qmesh.NewDomain(polygons)
	domain.Global = cfg.Global
	domain.PlanetRadius = cfg.PlanetRadius
	domain.GmshPath = cfg.GmshPath
	if err := domain.SetTargetCRS(cfg.OutputCRS); err != nil {
		return err
	}
	if metric != nil {
		domain.SetMeshMetricRaster(metric)
	}

	geoPath := cfg.Stub + ".geo"
	mshPath := cfg.Stub + ".msh"

	if err := domain.WriteGeoFile(geoPath); err != nil {
		return err
	}
	log.Infof("Wrote geometry file %s", geoPath)

	if metric != nil {
		fldPath := cfg.Stub + ".fld"
		if err := domain.WriteFldFile(fldPath); err != nil {
			return err
		}
		log.Infof("Wrote field file %s", fldPath)
	}

	if cfg.OnlyWrite {
		log.Info("Skipping mesh generation")
		return nil
	}

	log.Infof("Generating mesh with the %s algorithm", cfg.Algorithm)
	out, err := domain.Mesh(cfg.Algorithm, geoPath, mshPath)
	if out != "" {
		log.Debug(out)
	}
	if err != nil {
		return err
	}
	log.Infof("Wrote mesh file %s", mshPath)
	return nil
}
