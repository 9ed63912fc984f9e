package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hydroflow/internal/core/geo"
	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/platform/testkit"
	"hydroflow/internal/services/api/runs/domain"
	hydro "hydroflow/internal/services/hydro/domain"
	pipe "hydroflow/internal/services/pipeline/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

type runFunc func(ctx context.Context, id uuid.UUID, cfg runconfig.Config) (pipe.Report, error)

type fakeRunner struct {
	mu   sync.Mutex
	cfgs []runconfig.Config
	fn   runFunc
}

func (f *fakeRunner) Run(ctx context.Context, cfg runconfig.Config) (pipe.Report, error) {
	return f.RunAs(ctx, uuid.New(), cfg)
}

func (f *fakeRunner) RunAs(ctx context.Context, id uuid.UUID, cfg runconfig.Config) (pipe.Report, error) {
	f.mu.Lock()
	f.cfgs = append(f.cfgs, cfg)
	f.mu.Unlock()
	return f.fn(ctx, id, cfg)
}

type fakeLedger struct {
	pipe.LedgerRepo
	rows []pipe.Run
	err  error
}

func (f *fakeLedger) Get(_ context.Context, id uuid.UUID) (pipe.Run, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return pipe.Run{}, perr.NotFoundf("run %s not found", id)
}

func (f *fakeLedger) List(context.Context, int) ([]pipe.Run, error) { return f.rows, f.err }

var clock = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newSvc(t *testing.T, fn runFunc, ledger pipe.LedgerRepo, cfg Config) (*Service, *fakeRunner) {
	t.Helper()
	r := &fakeRunner{fn: fn}
	base := runconfig.Config{TargetEPSG: runconfig.Ptr(32631), StreamThresholdKm2: runconfig.Ptr(0.5)}
	s := New(r, ledger, base, cfg)
	s.Now = func() time.Time { return clock }
	return s, r
}

func input(site string) domain.Input {
	return domain.Input{
		Lat:    runconfig.Ptr(36.75),
		Lon:    runconfig.Ptr(3.06),
		BBoxKm: runconfig.Ptr(10.0),
		Site:   site,
	}
}

func startWorker(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitStatus(t *testing.T, s *Service, id uuid.UUID, want pipe.Status) domain.View {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v, err := s.Get(context.Background(), id)
		if err == nil && v.Status == want {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached %s", id, want)
	return domain.View{}
}

func TestSubmitRunsToSuccess(t *testing.T) {
	t.Parallel()

	s, r := newSvc(t, func(ctx context.Context, id uuid.UUID, _ runconfig.Config) (pipe.Report, error) {
		logger.C(ctx).Warn().Msg("downloading tile")
		logger.C(ctx).Debug().Msg("not captured")
		return pipe.Report{
			RunID:     id,
			Session:   "Alger_20261015_093000",
			BBox:      geo.BBox{West: 3, South: 36, East: 3.1, North: 36.1},
			OutputDir: "/out/Alger_20261015_093000",
			Outlet:    orb.Point{500050, 4000000},
			Artifacts: hydro.Artifacts{GeoPackage: "/out/a.gpkg", MaskedDEM: "/out/dem.tif"},
		}, nil
	}, nil, Config{})
	startWorker(t, s)

	v, err := s.Submit(context.Background(), input("Alger"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Status != pipe.StatusQueued || v.Site != "Alger" {
		t.Fatalf("queued view = %+v", v)
	}

	got := waitStatus(t, s, v.ID, pipe.StatusSucceeded)
	if got.Session != "Alger_20261015_093000" || got.EPSG != 32631 || got.Outlet == nil {
		t.Fatalf("final view = %+v", got)
	}
	if diff := cmp.Diff(orb.Point{500050, 4000000}, got.Outlet.Coordinates); diff != "" {
		t.Fatalf("outlet (-want +got):\n%s", diff)
	}
	if got.Artifacts == nil || got.Artifacts.GeoPackage != "/out/a.gpkg" {
		t.Fatalf("artifacts = %+v", got.Artifacts)
	}
	if len(got.Logs) != 1 || !strings.HasSuffix(got.Logs[0], "warn downloading tile") {
		t.Fatalf("logs = %q", got.Logs)
	}

	r.mu.Lock()
	cfg := r.cfgs[0]
	r.mu.Unlock()
	if runconfig.Str(cfg.SiteName) != "Alger" || *cfg.Lat != 36.75 || *cfg.BBoxSizeKm != 10 {
		t.Fatalf("overlay lost input: %+v", cfg)
	}
	if *cfg.StreamThresholdKm2 != 0.5 || *cfg.TargetEPSG != 32631 {
		t.Fatalf("overlay lost base: %+v", cfg)
	}
}

func TestThresholdOverridesBase(t *testing.T) {
	t.Parallel()

	in := input("x")
	in.ThresholdKm2 = runconfig.Ptr(2.0)
	cfg := overlay(runconfig.Config{StreamThresholdKm2: runconfig.Ptr(0.5)}, in)
	if *cfg.StreamThresholdKm2 != 2 {
		t.Fatalf("threshold = %v", *cfg.StreamThresholdKm2)
	}
}

func TestFailedRunKeepsError(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, func(context.Context, uuid.UUID, runconfig.Config) (pipe.Report, error) {
		return pipe.Report{Session: "x_1"}, perr.Environmentf("GRASS_GISBASE is not a directory")
	}, nil, Config{})
	startWorker(t, s)

	v, err := s.Submit(context.Background(), input("x"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := waitStatus(t, s, v.ID, pipe.StatusFailed)
	if got.Error != "GRASS_GISBASE is not a directory" || got.Outlet != nil || got.Artifacts != nil {
		t.Fatalf("failed view = %+v", got)
	}
}

func TestQueueFullIsUnavailable(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, func(context.Context, uuid.UUID, runconfig.Config) (pipe.Report, error) {
		return pipe.Report{}, nil
	}, nil, Config{QueueSize: 1})

	if _, err := s.Submit(context.Background(), input("a")); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := s.Submit(context.Background(), input("b"))
	if perr.CodeOf(err) != perr.ErrorCodeUnavailable {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if perr.HTTPStatus(err) != 503 {
		t.Fatalf("status = %d", perr.HTTPStatus(err))
	}
	list, _ := s.List(context.Background(), 0)
	if len(list) != 1 {
		t.Fatalf("rejected run should not be listed: %d", len(list))
	}
}

func TestRunsAreSequential(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var mu sync.Mutex
	active, peak := 0, 0
	s, _ := newSvc(t, func(context.Context, uuid.UUID, runconfig.Config) (pipe.Report, error) {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return pipe.Report{}, nil
	}, nil, Config{QueueSize: 4})
	startWorker(t, s)

	var ids []uuid.UUID
	for _, site := range []string{"a", "b", "c"} {
		v, err := s.Submit(context.Background(), input(site))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, v.ID)
	}
	waitStatus(t, s, ids[0], pipe.StatusRunning)
	if v, _ := s.Get(context.Background(), ids[1]); v.Status != pipe.StatusQueued {
		t.Fatalf("second run status = %s while first is running", v.Status)
	}
	close(release)
	for _, id := range ids {
		waitStatus(t, s, id, pipe.StatusSucceeded)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Fatalf("peak concurrency = %d", peak)
	}
}

func TestStopFailsWaitingRuns(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, func(context.Context, uuid.UUID, runconfig.Config) (pipe.Report, error) {
		return pipe.Report{}, nil
	}, nil, Config{})
	v, err := s.Submit(context.Background(), input("a"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := s.Get(context.Background(), v.ID)
	if got.Status != pipe.StatusFailed || got.Error == "" {
		t.Fatalf("after stop = %+v", got)
	}
}

func TestGetFallsBackToLedger(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("7b0d7c4e-0000-4000-8000-000000000001")
	outlet := orb.Point{1, 2}
	ledger := &fakeLedger{rows: []pipe.Run{{
		ID: id, Site: "old", Status: pipe.StatusSucceeded, StartedAt: clock.Add(-time.Hour),
		BBox: geo.BBox{West: 3, South: 36, East: 3.1, North: 36.1}, Outlet: &outlet,
	}}}
	s, _ := newSvc(t, nil, ledger, Config{})

	v, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Site != "old" || v.Outlet == nil || len(v.BBox) != 4 {
		t.Fatalf("ledger view = %+v", v)
	}

	_, err = s.Get(context.Background(), uuid.New())
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestGetWithoutLedgerIsNotFound(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, nil, nil, Config{})
	_, err := s.Get(context.Background(), uuid.New())
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeNotFound || e.Field() != "id" {
		t.Fatalf("err = %v", err)
	}
}

func TestListMergesNewestFirst(t *testing.T) {
	t.Parallel()

	old := pipe.Run{ID: uuid.New(), Site: "old", Status: pipe.StatusFailed, StartedAt: clock.Add(-time.Hour)}
	ledger := &fakeLedger{rows: []pipe.Run{old}}
	s, _ := newSvc(t, nil, ledger, Config{})

	v, err := s.Submit(context.Background(), input("new"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ledger.rows = append(ledger.rows, pipe.Run{ID: v.ID, Site: "new", Status: pipe.StatusRunning, StartedAt: clock})

	list, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var sites []string
	for _, l := range list {
		sites = append(sites, l.Site)
	}
	if diff := cmp.Diff([]string{"new", "old"}, sites); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}

	ledger.err = errors.New("down")
	list, err = s.List(context.Background(), 1)
	if err != nil || len(list) != 1 || list[0].Site != "new" {
		t.Fatalf("degraded list = %+v err %v", list, err)
	}
}

func TestEvictKeepsActive(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, nil, nil, Config{Keep: 1, QueueSize: 4})
	a, _ := s.Submit(context.Background(), input("a"))
	s.update(a.ID, func(v *domain.View) { v.Status = pipe.StatusSucceeded })
	b, _ := s.Submit(context.Background(), input("b"))
	c, _ := s.Submit(context.Background(), input("c"))

	if _, err := s.Get(context.Background(), a.ID); err == nil {
		t.Fatal("finished run should be evicted")
	}
	for _, id := range []uuid.UUID{b.ID, c.ID} {
		if _, err := s.Get(context.Background(), id); err != nil {
			t.Fatalf("queued run evicted: %v", err)
		}
	}
}

func TestLogLinesAreCapped(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t, nil, nil, Config{LogLines: 2})
	v, _ := s.Submit(context.Background(), input("a"))
	for _, l := range []string{"1", "2", "3"} {
		s.appendLog(v.ID, l)
	}
	got, _ := s.Get(context.Background(), v.ID)
	if diff := cmp.Diff([]string{"2", "3"}, got.Logs); diff != "" {
		t.Fatalf("logs (-want +got):\n%s", diff)
	}
}

func TestNewRequiresRunner(t *testing.T) {
	t.Parallel()

	testkit.MustPanic(t, func() { New(nil, nil, runconfig.Config{}, Config{}) })
}
