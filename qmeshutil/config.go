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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/qmesh-developers/qmesh"
)

// parseGridShape parses a slash-separated pair of integers "xi/eta"
// giving a grid shape.
func parseGridShape(s string) (xi, eta int, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("qmesh: invalid grid shape %q; the format is two integers separated by a slash, for example 360/180", s)
	}
	xi, err = cast.ToIntE(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("qmesh: invalid grid shape %q: %q is not an integer", s, parts[0])
	}
	eta, err = cast.ToIntE(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("qmesh: invalid grid shape %q: %q is not an integer", s, parts[1])
	}
	if xi < 1 || eta < 1 {
		return 0, 0, fmt.Errorf("qmesh: invalid grid shape %q: both sizes must be positive", s)
	}
	return xi, eta, nil
}

// checkOutputCRS ensures that an output coordinate reference system
// was specified and that it parses.
func checkOutputCRS(def string) (string, error) {
	if def == "" {
		return "", fmt.Errorf("qmesh: an output coordinate reference system must be specified with --output_crs")
	}
	if _, err := proj.Parse(def); err != nil {
		return "", fmt.Errorf("qmesh: parsing output coordinate reference system %q: %v", def, err)
	}
	return def, nil
}

// checkAlgorithm converts the algorithm name to its enumerated value.
func checkAlgorithm(name string) (qmesh.Algorithm, error) {
	switch name {
	case "del2d":
		return qmesh.Del2D, nil
	case "frontal":
		return qmesh.Frontal, nil
	case "adapt":
		return qmesh.Adapt, nil
	}
	return 0, fmt.Errorf("qmesh: the meshing algorithm needs to be one of del2d, frontal, or adapt, but is currently set to `%s`", name)
}

// checkOutputStub makes sure that the output stub is specified and
// that its directory exists.
func checkOutputStub(stub string) (string, error) {
	if stub == "" {
		return "", fmt.Errorf("qmesh: an output stub name must be specified")
	}
	stub = os.ExpandEnv(stub)
	outdir := filepath.Dir(stub)
	if _, err := os.Stat(outdir); err != nil {
		return stub, fmt.Errorf("qmesh: the output directory doesn't exist: %v", err)
	}
	return stub, nil
}

// configureLog sets the logger verbosity and optionally copies log
// output to a file. It is called once before dispatch; the logger is
// read-only for the remainder of the run.
func configureLog(l *logrus.Logger, verbosity, logFile string) error {
	lvl, err := parseVerbosity(verbosity)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	if logFile != "" {
		f, err := os.OpenFile(os.ExpandEnv(logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("qmesh: opening log file: %v", err)
		}
		l.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return nil
}

// parseVerbosity converts a verbosity name to a logrus level.
func parseVerbosity(verbosity string) (logrus.Level, error) {
	switch verbosity {
	case "critical":
		return logrus.FatalLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "warning":
		return logrus.WarnLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	}
	return 0, fmt.Errorf("qmesh: the verbosity needs to be one of critical, error, warning, info, or debug, but is currently set to `%s`", verbosity)
}
