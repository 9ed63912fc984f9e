// Package grass drives a GRASS GIS database through its command-line
// launcher. Every operation is one `--exec` subprocess against the mapset.
package grass

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
)

// CreateTimeout bounds location creation
const CreateTimeout = 300 * time.Second

// DefaultMapset is the mapset every run works in
const DefaultMapset = "PERMANENT"

// Session names a location inside a GIS database and how to reach it
type Session struct {
	GISDB    string
	Location string
	Mapset   string
	EPSG     int

	// Launcher is the grass executable or batch file
	Launcher string
	Runner   execx.Runner
	Exec     execx.Context
}

// LocationPath is GISDB/Location
func (s Session) LocationPath() string { return filepath.Join(s.GISDB, s.Location) }

// MapsetPath is GISDB/Location/Mapset
func (s Session) MapsetPath() string {
	m := s.Mapset
	if m == "" {
		m = DefaultMapset
	}
	return filepath.Join(s.LocationPath(), m)
}

func (s Session) check() error {
	switch {
	case s.GISDB == "" || s.Location == "":
		return perr.Validationf("grass session needs a database and a location")
	case s.EPSG <= 0:
		return perr.Validationf("grass session needs an EPSG code, got %d", s.EPSG)
	case s.Launcher == "":
		return perr.Environmentf("grass launcher not configured")
	case s.Runner == nil:
		return perr.Internalf("grass session has no runner")
	}
	return nil
}

// Open creates the database directory and the location when missing, then
// returns an engine bound to the mapset
func Open(ctx context.Context, s Session) (*Engine, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	log := logger.C(ctx).With().Str("location", s.Location).Logger()

	if err := os.MkdirAll(s.GISDB, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeFilesystem, "create GIS database %s", s.GISDB)
	}

	loc := s.LocationPath()
	switch st, err := os.Stat(loc); {
	case err == nil && st.IsDir():
		log.Info().Msg("reusing existing location")
	case err == nil:
		return nil, perr.Newf(perr.ErrorCodeFilesystem, "location path %s is not a directory", loc)
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Int("epsg", s.EPSG).Msg("creating location")
		cmd := execx.Command{
			Name:  s.Launcher,
			Args:  []string{"--text", "-c", fmt.Sprintf("EPSG:%d", s.EPSG), loc},
			Stdin: "exit\n",
		}
		if _, err := s.Runner.Run(ctx, s.Exec.WithTimeout(CreateTimeout), cmd); err != nil {
			return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeEngine, "create location EPSG:%d", s.EPSG), "grass.create")
		}
	default:
		return nil, perr.Wrapf(err, perr.ErrorCodeFilesystem, "stat %s", loc)
	}

	e := &Engine{s: s}
	if _, err := e.run(ctx, "g.gisenv", false, "set=VERBOSE=0"); err != nil {
		log.Debug().Err(err).Msg("could not lower engine verbosity")
	}
	log.Info().Str("mapset", s.MapsetPath()).Msg("terrain session ready")
	return e, nil
}
