package runconfig

import (
	"os"
	"path/filepath"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"gopkg.in/yaml.v3"
)

// Minimal returns a copy of cfg with blank string fields cleared so they are
// omitted on output
func Minimal(cfg Config) Config {
	for _, p := range []**string{
		&cfg.SiteName, &cfg.GrassGISBase, &cfg.GrassCmd, &cfg.QGISPath, &cfg.GDALWarpCmd,
		&cfg.GDALDataExt, &cfg.ProjLibExt, &cfg.GDALBinExt, &cfg.OutputDir, &cfg.TempDir,
		&cfg.GrassDBDir, &cfg.OpenTopographyAPIKey,
	} {
		if *p != nil && Str(*p) == "" {
			*p = nil
		}
	}
	return cfg
}

// Marshal renders the minimal form of cfg as YAML in declaration order
func Marshal(cfg Config) ([]byte, error) {
	b, err := yaml.Marshal(Minimal(cfg))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "encode configuration")
	}
	return b, nil
}

// Save writes the minimal form of cfg to path
func Save(cfg Config, path string) error {
	b, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeFilesystem, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeFilesystem, "write configuration %s", path)
	}
	logger.Named("runconfig").Info().Str("path", path).Int("bytes", len(b)).Msg("configuration saved")
	return nil
}
