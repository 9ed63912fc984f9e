package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"

	UTM "github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
)

// EPSGWGS84 is geographic WGS84, the CRS of user coordinates
const EPSGWGS84 = 4326

// utmFalseNorthing is added to southern-hemisphere UTM northings
const utmFalseNorthing = 10_000_000.0

// Transformer moves WGS84 (lon, lat) points into a target CRS
// WGS84/UTM targets are computed in-process; anything else goes through
// gdaltransform so PROJ handles the datum work
type Transformer struct {
	TargetEPSG int
	Runner     execx.Runner
	Exec       execx.Context
	Tool       string // gdaltransform binary
}

// UTMZone decodes EPSG 326zz / 327zz into (zone, northern)
func UTMZone(epsg int) (zone int, northern bool, ok bool) {
	switch {
	case epsg > 32600 && epsg <= 32660:
		return epsg - 32600, true, true
	case epsg > 32700 && epsg <= 32760:
		return epsg - 32700, false, true
	}
	return 0, false, false
}

// Forward transforms (lon, lat); axis order is always x=lon, y=lat
func (t Transformer) Forward(ctx context.Context, lon, lat float64) (orb.Point, error) {
	if t.TargetEPSG == EPSGWGS84 {
		return orb.Point{lon, lat}, nil
	}
	if p, ok := forwardUTM(t.TargetEPSG, lon, lat); ok {
		return p, nil
	}
	return t.viaTool(ctx, lon, lat)
}

// forwardUTM succeeds only when the point's natural zone is the target zone
func forwardUTM(epsg int, lon, lat float64) (orb.Point, bool) {
	zone, northern, ok := UTMZone(epsg)
	if !ok {
		return orb.Point{}, false
	}
	e, n, natural, _, err := UTM.FromLatLon(lat, lon, northern)
	if err != nil || natural != zone {
		return orb.Point{}, false
	}
	// FromLatLon picks the false northing from the sign of lat, not from northern
	switch {
	case northern && lat < 0:
		n -= utmFalseNorthing
	case !northern && lat >= 0:
		n += utmFalseNorthing
	}
	return orb.Point{e, n}, true
}

func (t Transformer) viaTool(ctx context.Context, lon, lat float64) (orb.Point, error) {
	if t.Runner == nil || t.Tool == "" {
		return orb.Point{}, perr.Enginef("no transform available to EPSG:%d", t.TargetEPSG)
	}
	cmd := execx.Command{
		Name:  t.Tool,
		Args:  []string{"-s_srs", fmt.Sprintf("EPSG:%d", EPSGWGS84), "-t_srs", fmt.Sprintf("EPSG:%d", t.TargetEPSG)},
		Stdin: strconv.FormatFloat(lon, 'f', -1, 64) + " " + strconv.FormatFloat(lat, 'f', -1, 64) + "\n",
	}
	res, err := t.Runner.Run(ctx, t.Exec, cmd)
	if err != nil {
		return orb.Point{}, perr.Wrapf(err, perr.ErrorCodeEngine, "transform to EPSG:%d", t.TargetEPSG)
	}
	return parseXY(string(res.Stdout))
}

// parseXY reads the first "x y [z]" line printed by gdaltransform
func parseXY(out string) (orb.Point, error) {
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		if len(f) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(f[0], 64)
		y, errY := strconv.ParseFloat(f[1], 64)
		if errX != nil || errY != nil {
			return orb.Point{}, perr.Enginef("unparseable transform output %q", line)
		}
		return orb.Point{x, y}, nil
	}
	return orb.Point{}, perr.Enginef("empty transform output")
}
