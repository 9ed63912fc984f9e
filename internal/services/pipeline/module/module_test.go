package module

import (
	"context"
	"testing"
	"time"

	"hydroflow/internal/adapters/demsource/opentopo"
	"hydroflow/internal/adapters/gdal"
	"hydroflow/internal/modkit"
	"hydroflow/internal/platform/config"
	"hydroflow/internal/platform/execx"
	hydrosvc "hydroflow/internal/services/hydro/service"
	"hydroflow/internal/services/pipeline/envcheck"
	"hydroflow/internal/services/pipeline/service"
)

func TestFromConfigDefaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.Budgets.Download != 10*time.Minute || o.Budgets.Run != 0 || o.Progress || o.DEMType != "AW3D30" {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfigOverrides(t *testing.T) {
	t.Setenv("HYDRO_PIPELINE_RUN_TIMEOUT", "2h")
	t.Setenv("HYDRO_PIPELINE_PROGRESS", "true")
	t.Setenv("HYDRO_PIPELINE_DEM_TYPE", "COP30")

	o := FromConfig(config.New())
	if o.Budgets.Run != 2*time.Hour || !o.Progress || o.DEMType != "COP30" {
		t.Fatalf("overrides = %+v", o)
	}
}

func TestNewWithoutLedger(t *testing.T) {
	m := New(modkit.Deps{Cfg: config.New()}, WithProgress(true))
	if m.Ledger() != nil {
		t.Fatalf("ledger must be nil without PG")
	}
	svc, ok := m.Runner().(*service.Service)
	if !ok {
		t.Fatalf("runner is %T", m.Runner())
	}
	if svc.Ledger != nil || !svc.Cfg.Progress || m.Name() != "pipeline" {
		t.Fatalf("service = %+v", svc)
	}
	if err := m.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare without ledger: %v", err)
	}
}

func TestToolAdapters(t *testing.T) {
	a := toolAdapters{runner: execx.New(), demURL: "http://mirror/globaldem", demType: "COP30"}
	tc := envcheck.Toolchain{Warp: "/opt/bin/gdalwarp", GDAL: execx.Context{}.With("GDAL_DATA", "/d")}

	c, ok := a.DEMSource("key", false).(*opentopo.Client)
	if !ok || c.BaseURL != "http://mirror/globaldem" || c.DEMType != "COP30" || c.APIKey != "key" {
		t.Fatalf("dem source = %+v", c)
	}
	w, ok := a.Reprojector(tc).(gdal.Warper)
	if !ok || w.Bin != tc.Warp || w.Exec.Get("GDAL_DATA") != "/d" {
		t.Fatalf("reprojector = %+v", w)
	}
	if _, ok := a.Analyzer(tc, 32631).(*hydrosvc.Service); !ok {
		t.Fatalf("analyzer type")
	}
}
