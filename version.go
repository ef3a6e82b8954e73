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

// Package qmesh generates unstructured meshes for geophysical domains
// from vector boundary data and raster mesh-metric fields.
package qmesh

// Version is the version of this release of QMesh.
// It can be overridden at build time with
// -ldflags "-X github.com/qmesh-developers/qmesh.Version=...".
var Version = "1.0.2-dev"

// GitSHA is the source revision this binary was built from.
// It is set at build time with
// -ldflags "-X github.com/qmesh-developers/qmesh.GitSHA=...".
var GitSHA = "unknown"

// License returns the license notice for QMesh.
func License() string {
	return `QMesh is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

QMesh is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with QMesh.  If not, see <http://www.gnu.org/licenses/>.`
}
