package grass

import (
	"bufio"
	"strconv"
	"strings"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/services/hydro/domain"

	"github.com/paulmach/orb"
)

// parseRegion reads the key=value shell form printed by g.region -g
func parseRegion(out string) (domain.Region, error) {
	var r domain.Region
	floats := map[string]*float64{
		"n": &r.North, "s": &r.South, "e": &r.East, "w": &r.West,
		"nsres": &r.NSRes, "ewres": &r.EWRes,
	}
	ints := map[string]*int{"rows": &r.Rows, "cols": &r.Cols}

	seen := 0
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		if dst, ok := floats[k]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return domain.Region{}, perr.Wrapf(err, perr.ErrorCodeEngine, "region value %s=%q", k, v)
			}
			*dst = f
			if k == "nsres" || k == "ewres" {
				seen++
			}
			continue
		}
		if dst, ok := ints[k]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return domain.Region{}, perr.Wrapf(err, perr.ErrorCodeEngine, "region value %s=%q", k, v)
			}
			*dst = n
		}
	}
	if seen < 2 {
		return domain.Region{}, perr.Enginef("region output missing resolution: %q", out)
	}
	return r, nil
}

// parseNearest reads the pipe table printed by v.distance -p
// The first line is a header; rows are from_cat|dist|to_x|to_y
func parseNearest(out string) ([]domain.Nearest, error) {
	var rows []domain.Nearest
	sc := bufio.NewScanner(strings.NewReader(out))
	header := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			return nil, perr.Enginef("unexpected distance row %q", line)
		}
		var vals [3]float64
		for i, s := range parts[1:4] {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeEngine, "distance row %q", line)
			}
			vals[i] = f
		}
		cat, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		rows = append(rows, domain.Nearest{FromCat: cat, Distance: vals[0], To: orb.Point{vals[1], vals[2]}})
	}
	return rows, nil
}
