// Package repo is the Postgres run ledger
package repo

import (
	"context"

	"hydroflow/internal/core/geo"
	"hydroflow/internal/modkit/repokit"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/store"
	pstrings "hydroflow/internal/platform/strings"
	"hydroflow/internal/services/pipeline/domain"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: repokit.RequireQueryer(q)} }

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS hydro_runs (
		id          uuid PRIMARY KEY,
		site        text NOT NULL,
		session     text NOT NULL,
		status      text NOT NULL,
		started_at  timestamptz NOT NULL,
		finished_at timestamptz,
		bbox_west   double precision,
		bbox_south  double precision,
		bbox_east   double precision,
		bbox_north  double precision,
		epsg        integer NOT NULL DEFAULT 0,
		outlet_x    double precision,
		outlet_y    double precision,
		output_dir  text NOT NULL DEFAULT '',
		err_text    text
	);
	CREATE INDEX IF NOT EXISTS hydro_runs_started_idx ON hydro_runs (started_at DESC);
`

// EnsureSchema creates the ledger table when missing
func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaSQL)
	return perr.WithOp(err, "ledger.schema")
}

// Start records a run as running (idempotent on id)
func (r *queries) Start(ctx context.Context, run domain.Run) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO hydro_runs (id, site, session, status, started_at, bbox_west, bbox_south, bbox_east, bbox_north, epsg, output_dir)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, started_at = EXCLUDED.started_at, session = EXCLUDED.session,
			finished_at = null, err_text = null, outlet_x = null, outlet_y = null
	`,
		run.ID, run.Site, run.Session, string(run.Status), run.StartedAt.UTC(),
		run.BBox.West, run.BBox.South, run.BBox.East, run.BBox.North, run.EPSG, run.OutputDir,
	)
	return perr.WithOp(err, "ledger.start")
}

// Finish closes a run; a run that was never started is NotFound
func (r *queries) Finish(ctx context.Context, id uuid.UUID, f domain.Finish) error {
	var x, y *float64
	if f.Outlet != nil {
		ox, oy := f.Outlet.X(), f.Outlet.Y()
		x, y = &ox, &oy
	}
	err := store.ExecOne(ctx, r.q, `
		UPDATE hydro_runs SET
			finished_at = now(),
			status = $2,
			outlet_x = $3,
			outlet_y = $4,
			err_text = $5
		WHERE id = $1
	`, id, string(f.Status), x, y, pstrings.SQLNull(f.ErrText))
	return perr.WithOp(err, "ledger.finish")
}

const selectRun = `
	SELECT id, site, session, status, started_at, finished_at,
		COALESCE(bbox_west, 0), COALESCE(bbox_south, 0), COALESCE(bbox_east, 0), COALESCE(bbox_north, 0),
		epsg, outlet_x, outlet_y, output_dir, COALESCE(err_text, '')
	FROM hydro_runs
`

// Get returns one run by id
func (r *queries) Get(ctx context.Context, id uuid.UUID) (domain.Run, error) {
	run, err := store.One(ctx, r.q, scanRun, selectRun+` WHERE id = $1`, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Run{}, perr.WithField(perr.NotFoundf("run %s not found", id), "id")
	}
	return run, err
}

// List returns the latest runs, newest first
func (r *queries) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return store.Many(ctx, r.q, scanRun, selectRun+` ORDER BY started_at DESC LIMIT $1`, limit)
}

func scanRun(row store.Row) (domain.Run, error) {
	var (
		run    domain.Run
		status string
		b      geo.BBox
		x, y   *float64
	)
	if err := row.Scan(
		&run.ID, &run.Site, &run.Session, &status, &run.StartedAt, &run.FinishedAt,
		&b.West, &b.South, &b.East, &b.North,
		&run.EPSG, &x, &y, &run.OutputDir, &run.ErrText,
	); err != nil {
		return domain.Run{}, err
	}
	run.Status, run.BBox = domain.Status(status), b
	if x != nil && y != nil {
		run.Outlet = &orb.Point{*x, *y}
	}
	return run, nil
}
