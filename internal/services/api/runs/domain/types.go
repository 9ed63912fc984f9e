// Package domain holds the run service request and view types
package domain

import (
	"time"

	hydro "hydroflow/internal/services/hydro/domain"
	pipe "hydroflow/internal/services/pipeline/domain"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

// Input is the body of a run submission
// Fields overlay the server's base run configuration
type Input struct {
	Lat          *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon          *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	BBoxKm       *float64 `json:"bbox_km" validate:"required,gt=0"`
	Site         string   `json:"site" validate:"required"`
	ThresholdKm2 *float64 `json:"threshold_km2,omitempty" validate:"omitempty,gte=0"`
}

// View is the API shape of one run
type View struct {
	ID          uuid.UUID         `json:"id"`
	Site        string            `json:"site"`
	Session     string            `json:"session,omitempty"`
	Status      pipe.Status       `json:"status"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	BBox        geojson.BBox      `json:"bbox,omitempty"`
	EPSG        int               `json:"epsg,omitempty"`
	Outlet      *geojson.Geometry `json:"outlet,omitempty"`
	OutputDir   string            `json:"output_dir,omitempty"`
	Artifacts   *hydro.Artifacts  `json:"artifacts,omitempty"`
	Error       string            `json:"error,omitempty"`
	Logs        []string          `json:"logs,omitempty"`
}

// Clone returns a copy safe to hand out while the worker keeps writing
func (v View) Clone() View {
	c := v
	c.Logs = append([]string(nil), v.Logs...)
	if v.Artifacts != nil {
		a := *v.Artifacts
		c.Artifacts = &a
	}
	return c
}

// Sorted returns the time a view is ordered by in listings
func (v View) Sorted() time.Time {
	switch {
	case v.SubmittedAt != nil:
		return *v.SubmittedAt
	case v.StartedAt != nil:
		return *v.StartedAt
	}
	return time.Time{}
}

// FromLedger builds a view from a ledger row
// Ledger rows carry no logs or artifact paths
func FromLedger(r pipe.Run) View {
	started := r.StartedAt
	v := View{
		ID:         r.ID,
		Site:       r.Site,
		Session:    r.Session,
		Status:     r.Status,
		StartedAt:  &started,
		FinishedAt: r.FinishedAt,
		EPSG:       r.EPSG,
		OutputDir:  r.OutputDir,
		Error:      r.ErrText,
	}
	if r.BBox.Valid() {
		v.BBox = geojson.NewBBox(r.BBox.Bound())
	}
	if r.Outlet != nil {
		v.Outlet = geojson.NewGeometry(*r.Outlet)
	}
	return v
}
