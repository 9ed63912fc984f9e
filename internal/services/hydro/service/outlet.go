package service

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/hydro/domain"

	"github.com/paulmach/orb"
)

// swatColumns is the outlet attribute schema and its single-outlet literals
var swatColumns = []struct {
	Name, Value string
}{
	{"PointId", "1"},
	{"RES", "0"},
	{"INLET", "0"},
	{"ID", "1"},
	{"PTSOURCE", "0"},
}

// snapOutlet projects the user point and moves it onto the nearest stream line
func (s *Service) snapOutlet(ctx context.Context, eng domain.TerrainEngine, req domain.Request, st domain.Streams) (domain.Outlet, error) {
	p, err := s.proj.Forward(ctx, req.Lon, req.Lat)
	if err != nil {
		return domain.Outlet{}, err
	}

	csvPath := filepath.Join(req.WorkDir, domain.InputPointCSV)
	if err := writePointCSV(csvPath, []string{"x", "y", "name"}, p, "input_location"); err != nil {
		return domain.Outlet{}, err
	}
	if err := eng.ImportPoints(ctx, pointImport(csvPath, domain.LayerInputPoint)); err != nil {
		return domain.Outlet{}, err
	}

	rows, err := eng.NearestFeature(ctx, domain.DistanceParams{
		From: domain.LayerInputPoint, To: st.Vector, ToType: "line",
	})
	if err != nil {
		return domain.Outlet{}, err
	}
	if len(rows) == 0 {
		return domain.Outlet{}, domain.ErrNoStreamNearPoint
	}

	o := domain.Outlet{Input: p, Snapped: rows[0].To, Distance: rows[0].Distance, InputLayer: domain.LayerInputPoint}
	logger.C(ctx).Info().
		Float64("x", o.Snapped.X()).Float64("y", o.Snapped.Y()).Float64("distance", o.Distance).
		Msg("outlet snapped to stream network")
	return o, nil
}

// prepareSWATOutlet materialises the snapped outlet with its fixed attributes
func prepareSWATOutlet(ctx context.Context, eng domain.TerrainEngine, workDir string, o domain.Outlet) (domain.SWATOutlet, error) {
	header := []string{"x", "y"}
	values := make([]string, 0, len(swatColumns))
	cols := make([]domain.Column, 0, len(swatColumns))
	for _, c := range swatColumns {
		header = append(header, c.Name)
		values = append(values, c.Value)
		cols = append(cols, domain.Column{Name: c.Name, Type: "INTEGER"})
	}

	csvPath := filepath.Join(workDir, domain.OutletPointCSV)
	if err := writePointCSV(csvPath, header, o.Snapped, values...); err != nil {
		return domain.SWATOutlet{}, err
	}

	out := domain.SWATOutlet{Layer: domain.LayerOutletPoint}
	if err := eng.ImportPoints(ctx, pointImport(csvPath, out.Layer)); err != nil {
		return domain.SWATOutlet{}, err
	}
	if err := eng.AddColumns(ctx, domain.AddColumnsParams{Map: out.Layer, Columns: cols}); err != nil {
		return domain.SWATOutlet{}, err
	}
	for _, c := range swatColumns {
		if err := eng.UpdateColumn(ctx, domain.UpdateColumnParams{Map: out.Layer, Column: c.Name, Value: c.Value}); err != nil {
			return domain.SWATOutlet{}, err
		}
	}
	return out, nil
}

func pointImport(path string, out domain.Layer) domain.ImportPointsParams {
	return domain.ImportPointsParams{Input: path, Output: out, XColumn: 1, YColumn: 2, Separator: "comma", SkipLines: 1}
}

// writePointCSV writes a header and one point row
func writePointCSV(path string, header []string, p orb.Point, rest ...string) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeFilesystem, "create %s", path)
	}
	w := csv.NewWriter(f)
	row := append([]string{formatCoord(p.X()), formatCoord(p.Y())}, rest...)
	_ = w.Write(header)
	_ = w.Write(row)
	w.Flush()
	werr := w.Error()
	cerr := f.Close()
	if werr != nil {
		return perr.Wrapf(werr, perr.ErrorCodeFilesystem, "write %s", path)
	}
	if cerr != nil {
		return perr.Wrapf(cerr, perr.ErrorCodeFilesystem, "close %s", path)
	}
	return nil
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
