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
)

func TestGenerateMeshRequiresOutputCRS(t *testing.T) {
	logger.SetOutput(io.Discard)
	dir := t.TempDir()
	Root.SetArgs([]string{"generate_mesh",
		filepath.Join(dir, "boundary.shp"), filepath.Join(dir, "out")})
	err := Root.Execute()
	if err == nil {
		t.Fatal("want error when --output_crs is not given")
	}
	if !strings.Contains(err.Error(), "output_crs") {
		t.Errorf("unexpected error %v", err)
	}
	// Validation must fail before any output is produced.
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("output files written despite the validation error: %v", entries)
	}
}

func TestMetadataCommands(t *testing.T) {
	logger.SetOutput(io.Discard)
	for _, name := range []string{"license", "version", "git_sha_key"} {
		Root.SetArgs([]string{name})
		if err := Root.Execute(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
