package envcheck

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"hydroflow/internal/core/runconfig"
	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
)

// Toolchain is everything later stages need to run external tools
type Toolchain struct {
	GRASSLauncher string
	GRASSPython   string
	Warp          string
	Transform     string

	GDAL  execx.Context
	GRASS execx.Context
}

// Probe looks up files, directories and executables
// Tests swap it for a map-backed fake
type Probe struct {
	IsFile   func(string) bool
	IsDir    func(string) bool
	LookPath func(string) (string, error)
}

// OS is the real filesystem probe
func OS() Probe {
	return Probe{
		IsFile: func(p string) bool {
			st, err := os.Stat(p)
			return err == nil && !st.IsDir()
		},
		IsDir: func(p string) bool {
			st, err := os.Stat(p)
			return err == nil && st.IsDir()
		},
		LookPath: exec.LookPath,
	}
}

// Environment runs the tool checks and builds the toolchain on top of base
func Environment(ctx context.Context, cfg runconfig.Config, base execx.Context, probe Probe) (Toolchain, error) {
	if err := partial(cfg, perr.ErrorCodeEnvironment, "OpenTopographyAPIKey"); err != nil {
		return Toolchain{}, err
	}
	if err := partial(cfg, perr.ErrorCodeEnvironment, "GrassGISBase", "GrassCmd"); err != nil {
		return Toolchain{}, err
	}
	gisbase := runconfig.Str(cfg.GrassGISBase)

	launcher, err := Launcher(cfg, probe)
	if err != nil {
		return Toolchain{}, err
	}
	py := filepath.Join(gisbase, "etc", "python")
	if !probe.IsDir(py) {
		return Toolchain{}, perr.WithField(perr.Environmentf("GRASS python bindings not found at %s", py), "GRASS_GISBASE")
	}

	if err := partial(cfg, perr.ErrorCodeEnvironment, "GDALWarpCmd", "GDALDataExt", "ProjLibExt", "GDALBinExt"); err != nil {
		return Toolchain{}, err
	}

	tc := Toolchain{
		GRASSLauncher: launcher,
		GRASSPython:   py,
		Warp:          runconfig.Str(cfg.GDALWarpCmd),
		Transform:     transformTool(runconfig.Str(cfg.GDALBinExt), probe),
	}
	tc.GDAL = gdalContext(base, cfg, py, probe)
	tc.GRASS = grassContext(tc.GDAL, gisbase)

	logger.C(ctx).Info().Str("grass", launcher).Str("gdalwarp", tc.Warp).Msg("environment validated")
	return tc, nil
}

// Params checks the run parameters alone
func Params(cfg runconfig.Config) error {
	return partial(cfg, perr.ErrorCodeValidation,
		"Lat", "Lon", "BBoxSizeKm", "SiteName", "TargetEPSG", "NoDataValue",
		"StreamThresholdKm2", "OutputDir", "TempDir", "GrassDBDir")
}

// Launcher resolves the grass executable
// An explicit GRASS_CMD wins; then the OSGeo4W and GISBASE batch files,
// GISBASE/bin/grass and finally grass on PATH
func Launcher(cfg runconfig.Config, probe Probe) (string, error) {
	if c := runconfig.Str(cfg.GrassCmd); c != "" {
		return c, nil
	}
	cands := LauncherCandidates(runconfig.Str(cfg.GrassGISBase))
	for _, c := range cands {
		if probe.IsFile(c) {
			return c, nil
		}
	}
	if p, err := probe.LookPath("grass"); err == nil {
		return p, nil
	}
	return "", perr.WithField(perr.Environmentf("no GRASS launcher found among %v or on PATH", cands), "GRASS_CMD")
}

// LauncherCandidates lists the launcher paths tried for a GISBASE, in order
func LauncherCandidates(gisbase string) []string {
	root := osgeo4wRoot(gisbase)
	return []string{
		filepath.Join(root, "bin", "grass84.bat"),
		filepath.Join(gisbase, "bin", "grass84.bat"),
		filepath.Join(gisbase, "bin", "grass"),
	}
}

// osgeo4wRoot is three levels above GISBASE (<root>/apps/grass/grass84)
func osgeo4wRoot(gisbase string) string {
	return filepath.Dir(filepath.Dir(filepath.Dir(filepath.Clean(gisbase))))
}

func transformTool(binDir string, probe Probe) string {
	name := "gdaltransform"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if p := filepath.Join(binDir, name); probe.IsFile(p) {
		return p
	}
	return name
}

// gdalContext adds GDAL data locations, the GDAL bin dir and the GRASS
// python path to base
func gdalContext(base execx.Context, cfg runconfig.Config, grassPy string, probe Probe) execx.Context {
	ec := base.
		With("GDAL_DATA", runconfig.Str(cfg.GDALDataExt)).
		With("PROJ_LIB", runconfig.Str(cfg.ProjLibExt)).
		PrependPath(runconfig.Str(cfg.GDALBinExt))

	root := osgeo4wRoot(runconfig.Str(cfg.GrassGISBase))
	for _, v := range []string{"Python312", "Python311", "Python310"} {
		if home := filepath.Join(root, "apps", v); probe.IsDir(home) {
			ec = ec.With("PYTHONHOME", home)
			break
		}
	}
	return prependList(ec, "PYTHONPATH", grassPy)
}

// grassContext layers the GRASS variables over the GDAL context
func grassContext(gdal execx.Context, gisbase string) execx.Context {
	return gdal.
		With("GISBASE", gisbase).
		With("GRASS_VERBOSE", "0").
		PrependPath(filepath.Join(gisbase, "bin"), filepath.Join(gisbase, "scripts"))
}

func prependList(ec execx.Context, key, dir string) execx.Context {
	if cur := ec.Get(key); cur != "" {
		return ec.With(key, dir+string(filepath.ListSeparator)+cur)
	}
	return ec.With(key, dir)
}
