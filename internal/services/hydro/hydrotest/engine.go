// Package hydrotest provides a recording in-memory TerrainEngine for tests
package hydrotest

import (
	"context"
	"sync"

	"hydroflow/internal/services/hydro/domain"

	"github.com/paulmach/orb"
)

// Call is one recorded engine operation
type Call struct {
	Op     string
	Params any
}

// Engine records every call and answers queries from its fields
// Fail makes the named operation return the given error
type Engine struct {
	mu sync.Mutex

	Grid    domain.Region
	Nearest []domain.Nearest
	Fail    map[string]error

	calls []Call
}

// NewEngine returns an engine on a 30 m grid whose nearest-feature query
// returns rows
func NewEngine(rows ...domain.Nearest) *Engine {
	return &Engine{
		Grid:    domain.Region{EWRes: 30, NSRes: 30, Rows: 400, Cols: 400},
		Nearest: rows,
		Fail:    map[string]error{},
	}
}

// Calls returns a copy of the recorded calls in order
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Ops returns the recorded operation names in order
func (e *Engine) Ops() []string {
	var out []string
	for _, c := range e.Calls() {
		out = append(out, c.Op)
	}
	return out
}

// Count returns how many times op was called
func (e *Engine) Count(op string) int {
	n := 0
	for _, c := range e.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns the params of the first call to op
func (e *Engine) Find(op string) (any, bool) {
	for _, c := range e.Calls() {
		if c.Op == op {
			return c.Params, true
		}
	}
	return nil, false
}

func (e *Engine) record(op string, p any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Op: op, Params: p})
	return e.Fail[op]
}

// ImportRaster records the call
func (e *Engine) ImportRaster(_ context.Context, p domain.ImportRasterParams) error {
	return e.record("ImportRaster", p)
}

// SetRegion records the call
func (e *Engine) SetRegion(_ context.Context, raster domain.Layer) error {
	return e.record("SetRegion", raster)
}

// Region returns Grid
func (e *Engine) Region(context.Context) (domain.Region, error) {
	if err := e.record("Region", nil); err != nil {
		return domain.Region{}, err
	}
	return e.Grid, nil
}

// FillDepressions records the call
func (e *Engine) FillDepressions(_ context.Context, p domain.FillParams) error {
	return e.record("FillDepressions", p)
}

// Accumulate records the call
func (e *Engine) Accumulate(_ context.Context, p domain.AccumulateParams) error {
	return e.record("Accumulate", p)
}

// ExtractStreams records the call
func (e *Engine) ExtractStreams(_ context.Context, p domain.StreamParams) error {
	return e.record("ExtractStreams", p)
}

// ImportPoints records the call
func (e *Engine) ImportPoints(_ context.Context, p domain.ImportPointsParams) error {
	return e.record("ImportPoints", p)
}

// NearestFeature returns Nearest
func (e *Engine) NearestFeature(_ context.Context, p domain.DistanceParams) ([]domain.Nearest, error) {
	if err := e.record("NearestFeature", p); err != nil {
		return nil, err
	}
	return append([]domain.Nearest(nil), e.Nearest...), nil
}

// DelineateWatershed records the call
func (e *Engine) DelineateWatershed(_ context.Context, p domain.WatershedParams) error {
	return e.record("DelineateWatershed", p)
}

// RasterToVector records the call
func (e *Engine) RasterToVector(_ context.Context, p domain.ToVectorParams) error {
	return e.record("RasterToVector", p)
}

// AddColumns records the call
func (e *Engine) AddColumns(_ context.Context, p domain.AddColumnsParams) error {
	return e.record("AddColumns", p)
}

// UpdateColumn records the call
func (e *Engine) UpdateColumn(_ context.Context, p domain.UpdateColumnParams) error {
	return e.record("UpdateColumn", p)
}

// ExtractByType records the call
func (e *Engine) ExtractByType(_ context.Context, p domain.ExtractParams) error {
	return e.record("ExtractByType", p)
}

// BuildTopology records the call
func (e *Engine) BuildTopology(_ context.Context, vector domain.Layer) error {
	return e.record("BuildTopology", vector)
}

// Dissolve records the call
func (e *Engine) Dissolve(_ context.Context, p domain.DissolveParams) error {
	return e.record("Dissolve", p)
}

// Clip records the call
func (e *Engine) Clip(_ context.Context, p domain.ClipParams) error {
	return e.record("Clip", p)
}

// SelectSpatial records the call
func (e *Engine) SelectSpatial(_ context.Context, p domain.SelectParams) error {
	return e.record("SelectSpatial", p)
}

// SetMask records the call
func (e *Engine) SetMask(_ context.Context, vector domain.Layer) error {
	return e.record("SetMask", vector)
}

// RemoveMask records the call
func (e *Engine) RemoveMask(context.Context) error {
	return e.record("RemoveMask", nil)
}

// MapCalc records the call
func (e *Engine) MapCalc(_ context.Context, p domain.MapCalcParams) error {
	return e.record("MapCalc", p)
}

// ExportVector records the call
func (e *Engine) ExportVector(_ context.Context, p domain.ExportVectorParams) error {
	return e.record("ExportVector", p)
}

// ExportRaster records the call
func (e *Engine) ExportRaster(_ context.Context, p domain.ExportRasterParams) error {
	return e.record("ExportRaster", p)
}

// Projector is a fixed PointProjector
type Projector struct {
	Point orb.Point
	Err   error
}

// Forward returns Point
func (p Projector) Forward(context.Context, float64, float64) (orb.Point, error) {
	return p.Point, p.Err
}

var _ domain.TerrainEngine = (*Engine)(nil)
