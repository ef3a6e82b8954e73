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

// Package qmeshutil holds the QMesh command-line interface: the
// command tree, option handling, and the operation handlers the
// commands dispatch to.
package qmeshutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qmesh-developers/qmesh"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// logger is configured once in the root command's PersistentPreRunE
// and passed into the operation handlers; it is read-only after that.
var logger = logrus.New()

func init() {
	// Options are the configuration options available to QMesh.
	options := []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbosity",
			usage: `
              verbosity sets how much log output is produced. It must be
              one of critical, error, warning, info or debug.`,
			shorthand:  "v",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_file",
			usage: `
              log_file is a file to copy log output to, in addition to
              standard error.`,
			shorthand:  "l",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output_crs",
			usage: `
              output_crs is the coordinate reference system the mesh is
              generated in, as a Proj4 or WKT definition. It is
              mandatory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "planetRadius",
			usage: `
              planetRadius is the sphere radius used to place points when
              meshing a global domain, in meters.`,
			defaultVal: qmesh.EarthRadius,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "boundaryID",
			usage: `
              boundaryID is the physical identifier assigned to boundary
              segments that do not carry one of their own.`,
			defaultVal: 666,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "global",
			usage: `
              global indicates that the domain covers the whole planet:
              boundary edges wrap around the antimeridian and the mesh is
              generated on the sphere.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "onlyWrite",
			usage: `
              onlyWrite writes the geometry and field files but does not
              run the meshing algorithm.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "algorithm",
			usage: `
              algorithm selects the meshing algorithm. It must be one of
              del2d, frontal or adapt.`,
			defaultVal: "del2d",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "minArea",
			usage: `
              minArea is the smallest polygon area to mesh, in the squared
              units of the boundary coordinate system. Smaller polygons
              are discarded.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "surfaceID",
			usage: `
              surfaceID is the physical identifier assigned to the meshed
              surfaces.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "raster",
			usage: `
              raster is the path to a mesh-metric raster giving the
              desired element sizes across the domain.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "raster_crs",
			usage: `
              raster_crs overrides the coordinate reference system of the
              mesh-metric raster, as a Proj4 or WKT definition.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "polygon",
			usage: `
              polygon is the path to a polygon shapefile to mesh directly,
              skipping loop and polygon identification.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "gmshPath",
			usage: `
              gmshPath is the gmsh executable used to generate the mesh.`,
			defaultVal: "gmsh",
			flagsets:   []*pflag.FlagSet{generateMeshCmd.Flags()},
		},
		{
			name: "source_crs",
			usage: `
              source_crs is the coordinate reference system of the input
              raster, as a Proj4 or WKT definition. It overrides anything
              recorded in the raster file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rst2fldCmd.Flags()},
		},
		{
			name: "target_crs",
			usage: `
              target_crs is the coordinate reference system to reproject
              the raster into, as a Proj4 or WKT definition.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rst2fldCmd.Flags()},
		},
		{
			name: "gridShape",
			usage: `
              gridShape sets the shape of the reprojected raster as a
              slash-separated pair of integers "xi/eta". The input shape
              is kept when it is not specified.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rst2fldCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("QMESH")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, v, option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, v, option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, v, option.usage)
				} else {
					set.IntP(option.name, option.shorthand, v, option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, v, option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, v, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(generateMeshCmd)
	Root.AddCommand(rst2fldCmd)
	Root.AddCommand(licenseCmd)
	Root.AddCommand(versionCmd)
	Root.AddCommand(gitSHACmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("qmesh: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "qmesh",
	Short: "A geophysical mesh generator.",
	Long: `QMesh generates unstructured meshes for geophysical models from
vector boundary data and raster mesh-metric fields. Use the subcommands
specified below to access the meshing functionality.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'QMESH_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return configureLog(logger, Cfg.GetString("verbosity"), Cfg.GetString("log_file"))
	},
}

var generateMeshCmd = &cobra.Command{
	Use:   "generate_mesh boundaries.shp outputStub",
	Short: "Generate a mesh from boundary line geometries.",
	Long: `generate_mesh identifies closed loops and enclosed polygons in the
boundary line geometries of the given shapefile and generates an
unstructured mesh of the polygons, writing outputStub.geo, outputStub.msh
and, when a mesh-metric raster is supplied, outputStub.fld.`,
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The output coordinate reference system is mandatory; fail
		// before any geometry work begins.
		outputCRS, err := checkOutputCRS(Cfg.GetString("output_crs"))
		if err != nil {
			return err
		}
		alg, err := checkAlgorithm(Cfg.GetString("algorithm"))
		if err != nil {
			return err
		}
		stub, err := checkOutputStub(args[1])
		if err != nil {
			return err
		}
		return GenerateMesh(logger, GenerateMeshConfig{
			Boundary:     args[0],
			Stub:         stub,
			OutputCRS:    outputCRS,
			PlanetRadius: Cfg.GetFloat64("planetRadius"),
			BoundaryID:   Cfg.GetInt("boundaryID"),
			Global:       Cfg.GetBool("global"),
			OnlyWrite:    Cfg.GetBool("onlyWrite"),
			Algorithm:    alg,
			MinArea:      Cfg.GetFloat64("minArea"),
			SurfaceID:    Cfg.GetInt("surfaceID"),
			RasterFile:   Cfg.GetString("raster"),
			RasterCRS:    Cfg.GetString("raster_crs"),
			PolygonFile:  Cfg.GetString("polygon"),
			GmshPath:     Cfg.GetString("gmshPath"),
		})
	},
}

var rst2fldCmd = &cobra.Command{
	Use:   "rst2fld input output",
	Short: "Convert a raster to a gmsh field file.",
	Long: `rst2fld converts a raster to a gmsh structured field file,
optionally reprojecting it into a target coordinate reference system
first.`,
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var xi, eta int
		if s := Cfg.GetString("gridShape"); s != "" {
			var err error
			xi, eta, err = parseGridShape(s)
			if err != nil {
				return err
			}
		}
		return Rst2Fld(logger, Rst2FldConfig{
			Input:     args[0],
			Output:    args[1],
			SourceCRS: Cfg.GetString("source_crs"),
			TargetCRS: Cfg.GetString("target_crs"),
			GridNx:    xi,
			GridNy:    eta,
		})
	},
}

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Print the license",
	Long:  "license prints the license QMesh is distributed under.",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info(qmesh.License())
	},
	DisableAutoGenTag: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of QMesh.",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Infof("QMesh v%s", qmesh.Version)
	},
	DisableAutoGenTag: true,
}

var gitSHACmd = &cobra.Command{
	Use:   "git_sha_key",
	Short: "Print the source revision",
	Long:  "git_sha_key prints the git SHA key this version of QMesh was built from.",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info(qmesh.GitSHA)
	},
	DisableAutoGenTag: true,
}
