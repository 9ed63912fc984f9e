package gdal

import (
	"context"
	stderrs "errors"
	"strings"
	"testing"

	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"
)

type recRunner struct {
	cmd execx.Command
	ec  execx.Context
	err error
}

func (r *recRunner) Run(_ context.Context, ec execx.Context, c execx.Command) (execx.Result, error) {
	r.cmd, r.ec = c, ec
	return execx.Result{}, r.err
}

func TestReprojectArgs(t *testing.T) {
	r := &recRunner{}
	w := Warper{Bin: "/opt/gdal/gdalwarp", Runner: r, Exec: execx.Context{}.With("GDAL_DATA", "/opt/gdal/data")}
	if err := w.Reproject(context.Background(), "/tmp/s/alos_raw.tif", "/tmp/s/cleaned_dem_temp.tif", 32631); err != nil {
		t.Fatalf("Reproject: %v", err)
	}
	want := "-overwrite -t_srs EPSG:32631 -r bilinear /tmp/s/alos_raw.tif /tmp/s/cleaned_dem_temp.tif"
	if got := strings.Join(r.cmd.Args, " "); got != want {
		t.Fatalf("args = %q", got)
	}
	if r.cmd.Name != "/opt/gdal/gdalwarp" || r.ec.Timeout != WarpTimeout || r.ec.Get("GDAL_DATA") != "/opt/gdal/data" {
		t.Fatalf("command/context mismatch: %+v %+v", r.cmd, r.ec)
	}
}

func TestReprojectFailureIsEngineError(t *testing.T) {
	cause := &execx.ExitError{Display: "gdalwarp", Code: 1, Stderr: "ERROR 4: no such file"}
	err := Warper{Bin: "gdalwarp", Runner: &recRunner{err: cause}}.Reproject(context.Background(), "a", "b", 2154)
	if !perr.IsCode(err, perr.ErrorCodeEngine) {
		t.Fatalf("want engine error, got %v", err)
	}
	var ee *execx.ExitError
	if !stderrs.As(err, &ee) || ee.Code != 1 {
		t.Fatalf("cause not preserved: %v", err)
	}
}
