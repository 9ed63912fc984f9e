package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	pstrings "hydroflow/internal/platform/strings"
	ptime "hydroflow/internal/platform/time"
	"hydroflow/internal/services/pipeline/domain"
)

const mapset = "PERMANENT"

// SessionName is <slug(site)>_<YYYYmmdd_HHMMSS>
func SessionName(site string, at time.Time) string {
	return pstrings.Slug(site, "site") + "_" + ptime.Stamp(at)
}

// Plan derives every directory of a run from the configured roots
func Plan(cfg runconfig.Config, session string) domain.Layout {
	return domain.Layout{
		Output: filepath.Join(runconfig.Str(cfg.OutputDir), session),
		Temp:   filepath.Join(runconfig.Str(cfg.TempDir), session),
		Session: domain.Session{
			GISDB:    filepath.Join(runconfig.Str(cfg.GrassDBDir), "hydro_grass_db_"+session),
			Location: "hydro_loc_" + session,
			Mapset:   mapset,
			EPSG:     runconfig.Int(cfg.TargetEPSG, 0),
		},
	}
}

func makeDirs(lay domain.Layout) error {
	for _, d := range []string{lay.Output, lay.Temp} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return perr.WithField(perr.Wrapf(err, perr.ErrorCodeFilesystem, "create %s", d), d)
		}
	}
	return nil
}

// cleanup removes the temp dir and the terrain database, logging failures
func (s *Service) cleanup(ctx context.Context, lay domain.Layout) {
	log := logger.C(ctx)
	for _, d := range []string{lay.Temp, lay.Session.GISDB} {
		if err := os.RemoveAll(d); err != nil {
			log.Warn().Err(err).Str("dir", d).Msg("cleanup failed")
			continue
		}
		log.Debug().Str("dir", d).Msg("removed")
	}
}
