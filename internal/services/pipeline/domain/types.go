// Package domain holds the pipeline run record and the ports the run
// service drives
package domain

import (
	"time"

	"hydroflow/internal/core/geo"
	hydro "hydroflow/internal/services/hydro/domain"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Status is the lifecycle state of a run
type Status string

// Run states
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is expected
func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

// Run is one row of the run ledger
type Run struct {
	ID         uuid.UUID
	Site       string
	Session    string
	Status     Status
	StartedAt  time.Time
	FinishedAt *time.Time
	BBox       geo.BBox
	EPSG       int
	Outlet     *orb.Point
	OutputDir  string
	ErrText    string
}

// Finish closes a run
type Finish struct {
	Status  Status
	Outlet  *orb.Point
	ErrText string
}

// Session names the terrain workspace of one run
type Session struct {
	GISDB    string
	Location string
	Mapset   string
	EPSG     int
}

// Layout is every directory a run touches
type Layout struct {
	Output  string
	Temp    string
	Session Session
}

// Report is what a finished run hands back to its caller
type Report struct {
	RunID          uuid.UUID
	Session        string
	BBox           geo.BBox
	OutputDir      string
	Outlet         orb.Point
	Input          orb.Point
	SnapDistance   float64
	ThresholdCells int
	Artifacts      hydro.Artifacts
	Elapsed        time.Duration
}
