package grass

import (
	"context"
	"strconv"
	"strings"

	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/services/hydro/domain"
)

// Engine implements domain.TerrainEngine on one session
// Calls are sequential; the engine holds no state beyond the session
type Engine struct {
	s Session
}

// Session returns the session the engine is bound to
func (e *Engine) Session() Session { return e.s }

// run executes one module against the mapset
func (e *Engine) run(ctx context.Context, module string, overwrite bool, args ...string) (execx.Result, error) {
	full := make([]string, 0, len(args)+5)
	full = append(full, e.s.MapsetPath(), "--exec", module)
	full = append(full, args...)
	if overwrite {
		full = append(full, "--overwrite")
	}
	full = append(full, "--quiet")

	res, err := e.s.Runner.Run(ctx, e.s.Exec, execx.Command{Name: e.s.Launcher, Args: full})
	if err != nil {
		return res, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeEngine, "%s failed", module), module)
	}
	return res, nil
}

func kv(k string, v any) string {
	switch x := v.(type) {
	case domain.Layer:
		return k + "=" + string(x)
	case string:
		return k + "=" + x
	case int:
		return k + "=" + strconv.Itoa(x)
	case float64:
		return k + "=" + ftoa(x)
	default:
		panic("grass: unsupported parameter type for " + k)
	}
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func flag(on bool, f string) []string {
	if on {
		return []string{f}
	}
	return nil
}

// ImportRaster runs r.in.gdal
func (e *Engine) ImportRaster(ctx context.Context, p domain.ImportRasterParams) error {
	args := append(flag(p.OverrideProjection, "-o"), kv("input", p.Input), kv("output", p.Output))
	_, err := e.run(ctx, "r.in.gdal", true, args...)
	return err
}

// SetRegion aligns the computational region to a raster
func (e *Engine) SetRegion(ctx context.Context, raster domain.Layer) error {
	_, err := e.run(ctx, "g.region", false, kv("raster", raster))
	return err
}

// Region reads the active region with g.region -g
func (e *Engine) Region(ctx context.Context) (domain.Region, error) {
	res, err := e.run(ctx, "g.region", false, "-g")
	if err != nil {
		return domain.Region{}, err
	}
	return parseRegion(string(res.Stdout))
}

// FillDepressions runs r.fill.dir
func (e *Engine) FillDepressions(ctx context.Context, p domain.FillParams) error {
	_, err := e.run(ctx, "r.fill.dir", true,
		kv("input", p.Input), kv("output", p.Output), kv("direction", p.Direction))
	return err
}

// Accumulate runs r.watershed for accumulation and drainage
func (e *Engine) Accumulate(ctx context.Context, p domain.AccumulateParams) error {
	_, err := e.run(ctx, "r.watershed", true,
		kv("elevation", p.Elevation), kv("accumulation", p.Accumulation),
		kv("drainage", p.Drainage), kv("threshold", p.Threshold))
	return err
}

// ExtractStreams runs r.stream.extract
func (e *Engine) ExtractStreams(ctx context.Context, p domain.StreamParams) error {
	_, err := e.run(ctx, "r.stream.extract", true,
		kv("elevation", p.Elevation), kv("accumulation", p.Accumulation), kv("threshold", p.Threshold),
		kv("stream_raster", p.StreamRaster), kv("stream_vector", p.StreamVector))
	return err
}

// ImportPoints runs v.in.ascii in point mode
func (e *Engine) ImportPoints(ctx context.Context, p domain.ImportPointsParams) error {
	_, err := e.run(ctx, "v.in.ascii", true,
		kv("input", p.Input), kv("output", p.Output),
		kv("x", p.XColumn), kv("y", p.YColumn),
		kv("separator", p.Separator), kv("skip", p.SkipLines))
	return err
}

// NearestFeature runs v.distance and parses its table
func (e *Engine) NearestFeature(ctx context.Context, p domain.DistanceParams) ([]domain.Nearest, error) {
	res, err := e.run(ctx, "v.distance", false, "-p",
		kv("from", p.From), kv("to", p.To), kv("upload", "dist,to_x,to_y"), kv("to_type", p.ToType))
	if err != nil {
		return nil, err
	}
	return parseNearest(string(res.Stdout))
}

// DelineateWatershed runs r.water.outlet
func (e *Engine) DelineateWatershed(ctx context.Context, p domain.WatershedParams) error {
	_, err := e.run(ctx, "r.water.outlet", true,
		kv("input", p.Drainage), kv("output", p.Output),
		kv("coordinates", ftoa(p.Outlet.X())+","+ftoa(p.Outlet.Y())))
	return err
}

// RasterToVector runs r.to.vect
func (e *Engine) RasterToVector(ctx context.Context, p domain.ToVectorParams) error {
	args := append(flag(p.Smooth, "-s"), kv("input", p.Input), kv("output", p.Output), kv("type", p.Type))
	_, err := e.run(ctx, "r.to.vect", true, args...)
	return err
}

// AddColumns runs v.db.addcolumn
func (e *Engine) AddColumns(ctx context.Context, p domain.AddColumnsParams) error {
	defs := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		defs = append(defs, c.Name+" "+c.Type)
	}
	_, err := e.run(ctx, "v.db.addcolumn", false, kv("map", p.Map), kv("columns", strings.Join(defs, ",")))
	return err
}

// UpdateColumn runs v.db.update
func (e *Engine) UpdateColumn(ctx context.Context, p domain.UpdateColumnParams) error {
	_, err := e.run(ctx, "v.db.update", false, kv("map", p.Map), kv("column", p.Column), kv("value", p.Value))
	return err
}

// ExtractByType runs v.extract
func (e *Engine) ExtractByType(ctx context.Context, p domain.ExtractParams) error {
	_, err := e.run(ctx, "v.extract", true, kv("input", p.Input), kv("type", p.Type), kv("output", p.Output))
	return err
}

// BuildTopology runs v.build
func (e *Engine) BuildTopology(ctx context.Context, vector domain.Layer) error {
	_, err := e.run(ctx, "v.build", false, kv("map", vector))
	return err
}

// Dissolve runs v.dissolve
func (e *Engine) Dissolve(ctx context.Context, p domain.DissolveParams) error {
	_, err := e.run(ctx, "v.dissolve", true, kv("input", p.Input), kv("output", p.Output), kv("column", p.Column))
	return err
}

// Clip runs v.clip
func (e *Engine) Clip(ctx context.Context, p domain.ClipParams) error {
	_, err := e.run(ctx, "v.clip", true, kv("input", p.Input), kv("clip", p.Clip), kv("output", p.Output))
	return err
}

// SelectSpatial runs v.select
func (e *Engine) SelectSpatial(ctx context.Context, p domain.SelectParams) error {
	_, err := e.run(ctx, "v.select", true,
		kv("ainput", p.A), kv("binput", p.B), kv("output", p.Output), kv("operator", p.Operator))
	return err
}

// SetMask restricts raster output to a vector area
func (e *Engine) SetMask(ctx context.Context, vector domain.Layer) error {
	_, err := e.run(ctx, "r.mask", true, kv("vector", vector))
	return err
}

// RemoveMask drops the active mask
func (e *Engine) RemoveMask(ctx context.Context) error {
	_, err := e.run(ctx, "r.mask", false, "-r")
	return err
}

// MapCalc runs r.mapcalc with Output=Expression
func (e *Engine) MapCalc(ctx context.Context, p domain.MapCalcParams) error {
	_, err := e.run(ctx, "r.mapcalc", true, kv("expression", string(p.Output)+"="+p.Expression))
	return err
}

// ExportVector runs v.out.ogr
func (e *Engine) ExportVector(ctx context.Context, p domain.ExportVectorParams) error {
	args := append(flag(p.Append, "-a"),
		kv("input", p.Input), kv("output", p.Output), kv("format", p.Format), kv("output_layer", p.LayerName))
	_, err := e.run(ctx, "v.out.ogr", true, args...)
	return err
}

// ExportRaster runs r.out.gdal
func (e *Engine) ExportRaster(ctx context.Context, p domain.ExportRasterParams) error {
	args := append(flag(p.SkipRangeCheck, "-c"),
		kv("input", p.Input), kv("output", p.Output), kv("format", p.Format))
	if len(p.CreateOptions) > 0 {
		args = append(args, kv("createopt", strings.Join(p.CreateOptions, ",")))
	}
	_, err := e.run(ctx, "r.out.gdal", true, args...)
	return err
}

var _ domain.TerrainEngine = (*Engine)(nil)
