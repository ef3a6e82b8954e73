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
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qmesh-developers/qmesh"
)

func TestParseGridShape(t *testing.T) {
	valid := []struct {
		s       string
		xi, eta int
	}{
		{"360/180", 360, 180},
		{"1/1", 1, 1},
		{" 10 / 20 ", 10, 20},
	}
	for _, c := range valid {
		xi, eta, err := parseGridShape(c.s)
		if err != nil {
			t.Errorf("parseGridShape(%q): %v", c.s, err)
			continue
		}
		if xi != c.xi || eta != c.eta {
			t.Errorf("parseGridShape(%q) = %d/%d, want %d/%d", c.s, xi, eta, c.xi, c.eta)
		}
	}

	invalid := []string{"", "360", "360/180/90", "x/180", "360/y", "0/180", "360/-1"}
	for _, s := range invalid {
		if _, _, err := parseGridShape(s); err == nil {
			t.Errorf("parseGridShape(%q): want error", s)
		}
	}
}

func TestCheckOutputCRS(t *testing.T) {
	if _, err := checkOutputCRS(""); err == nil {
		t.Error("want error for an empty definition")
	}
	if _, err := checkOutputCRS("not a crs"); err == nil {
		t.Error("want error for an unparseable definition")
	}
	def, err := checkOutputCRS("+proj=longlat")
	if err != nil {
		t.Fatal(err)
	}
	if def != "+proj=longlat" {
		t.Errorf("definition = %q", def)
	}
}

func TestCheckAlgorithm(t *testing.T) {
	cases := []struct {
		name string
		want qmesh.Algorithm
	}{
		{"del2d", qmesh.Del2D},
		{"frontal", qmesh.Frontal},
		{"adapt", qmesh.Adapt},
	}
	for _, c := range cases {
		a, err := checkAlgorithm(c.name)
		if err != nil {
			t.Errorf("checkAlgorithm(%q): %v", c.name, err)
			continue
		}
		if a != c.want {
			t.Errorf("checkAlgorithm(%q) = %v, want %v", c.name, a, c.want)
		}
	}
	if _, err := checkAlgorithm("voronoi"); err == nil {
		t.Error("want error for an unknown algorithm")
	}
}

func TestCheckOutputStub(t *testing.T) {
	if _, err := checkOutputStub(""); err == nil {
		t.Error("want error for an empty stub")
	}
	if _, err := checkOutputStub(filepath.Join(t.TempDir(), "missing", "stub")); err == nil {
		t.Error("want error when the output directory does not exist")
	}
	stub := filepath.Join(t.TempDir(), "stub")
	got, err := checkOutputStub(stub)
	if err != nil {
		t.Fatal(err)
	}
	if got != stub {
		t.Errorf("stub = %q, want %q", got, stub)
	}
}

func TestParseVerbosity(t *testing.T) {
	cases := []struct {
		name string
		want logrus.Level
	}{
		{"critical", logrus.FatalLevel},
		{"error", logrus.ErrorLevel},
		{"warning", logrus.WarnLevel},
		{"info", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
	}
	for _, c := range cases {
		lvl, err := parseVerbosity(c.name)
		if err != nil {
			t.Errorf("parseVerbosity(%q): %v", c.name, err)
			continue
		}
		if lvl != c.want {
			t.Errorf("parseVerbosity(%q) = %v, want %v", c.name, lvl, c.want)
		}
	}
	if _, err := parseVerbosity("chatty"); err == nil {
		t.Error("want error for an unknown verbosity")
	}
}
