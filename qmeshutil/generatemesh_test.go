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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"

	"github.com/qmesh-developers/qmesh"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// writeBoundary writes a square boundary line shapefile and returns
// its path.
func writeBoundary(t *testing.T, dir string) string {
	t.Helper()
	loops := &qmesh.Loops{
		Loops: []*qmesh.Loop{{
			Segments: []*qmesh.Segment{
				{Points: geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, PhysID: 2},
				{Points: geom.LineString{{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}, PhysID: 5},
			},
		}},
	}
	path := filepath.Join(dir, "boundary.shp")
	if err := loops.Write(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeMetric(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "metric.asc")
	asc := "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 5\n1 2\n3 4\n"
	if err := os.WriteFile(path, []byte(asc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestGenerateMeshOnlyWrite(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "out")
	cfg := GenerateMeshConfig{
		Boundary:     writeBoundary(t, dir),
		Stub:         stub,
		OutputCRS:    "+proj=longlat",
		PlanetRadius: qmesh.EarthRadius,
		BoundaryID:   666,
		OnlyWrite:    true,
		Algorithm:    qmesh.Del2D,
		SurfaceID:    1,
		GmshPath:     filepath.Join(dir, "no-such-gmsh"),
	}
	if err := GenerateMesh(testLogger(), cfg); err != nil {
		t.Fatal(err)
	}
	if !exists(stub + ".geo") {
		t.Error("geometry file was not written")
	}
	if exists(stub + ".fld") {
		t.Error("field file written without a mesh metric raster")
	}
	if exists(stub + ".msh") {
		t.Error("mesh file written with OnlyWrite set")
	}

	b, err := os.ReadFile(stub + ".geo")
	if err != nil {
		t.Fatal(err)
	}
	geo := string(b)
	for _, want := range []string{"Plane Surface(", "Physical Line(2)", "Physical Line(5)", "Physical Surface(1)"} {
		if !strings.Contains(geo, want) {
			t.Errorf("geometry file is missing %q", want)
		}
	}
}

func TestGenerateMeshWithMetric(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "out")
	cfg := GenerateMeshConfig{
		Boundary:     writeBoundary(t, dir),
		Stub:         stub,
		OutputCRS:    "+proj=longlat",
		PlanetRadius: qmesh.EarthRadius,
		BoundaryID:   666,
		OnlyWrite:    true,
		Algorithm:    qmesh.Del2D,
		SurfaceID:    1,
		RasterFile:   writeMetric(t, dir),
		GmshPath:     filepath.Join(dir, "no-such-gmsh"),
	}
	if err := GenerateMesh(testLogger(), cfg); err != nil {
		t.Fatal(err)
	}
	if !exists(stub + ".fld") {
		t.Error("field file was not written")
	}

	b, err := os.ReadFile(stub + ".geo")
	if err != nil {
		t.Fatal(err)
	}
	geo := string(b)
	for _, want := range []string{"Field[1] = Structured", `Field[1].FileName = "out.fld"`, "Background Field = 1"} {
		if !strings.Contains(geo, want) {
			t.Errorf("geometry file is missing %q", want)
		}
	}
}

func TestGenerateMeshRunsGmsh(t *testing.T) {
	dir := t.TempDir()
	cfg := GenerateMeshConfig{
		Boundary:     writeBoundary(t, dir),
		Stub:         filepath.Join(dir, "out"),
		OutputCRS:    "+proj=longlat",
		PlanetRadius: qmesh.EarthRadius,
		BoundaryID:   666,
		Algorithm:    qmesh.Del2D,
		SurfaceID:    1,
		GmshPath:     filepath.Join(dir, "no-such-gmsh"),
	}
	if err := GenerateMesh(testLogger(), cfg); err == nil {
		t.Fatal("want error from the missing gmsh executable")
	}
}

func TestGenerateMeshPolygonBypass(t *testing.T) {
	dir := t.TempDir()
	polys := &qmesh.Polygons{
		Polys: []*qmesh.SurfacePolygon{{
			Outer: &qmesh.Loop{Segments: []*qmesh.Segment{{
				Points: geom.LineString{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}, {X: 0, Y: 0}},
				PhysID: 3,
			}}},
			PhysID: 7,
		}},
	}
	polyPath := filepath.Join(dir, "polys.shp")
	if err := polys.Write(polyPath); err != nil {
		t.Fatal(err)
	}

	stub := filepath.Join(dir, "out")
	cfg := GenerateMeshConfig{
		Boundary:     writeBoundary(t, dir),
		Stub:         stub,
		OutputCRS:    "+proj=longlat",
		PlanetRadius: qmesh.EarthRadius,
		BoundaryID:   666,
		OnlyWrite:    true,
		Algorithm:    qmesh.Del2D,
		SurfaceID:    1,
		PolygonFile:  polyPath,
		GmshPath:     filepath.Join(dir, "no-such-gmsh"),
	}
	if err := GenerateMesh(testLogger(), cfg); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(stub + ".geo")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Physical Surface(") {
		t.Error("geometry file has no physical surface")
	}
}
