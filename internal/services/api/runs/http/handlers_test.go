package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "hydroflow/internal/platform/errors"
	phttp "hydroflow/internal/platform/net/http"
	"hydroflow/internal/services/api/runs/domain"
	pipe "hydroflow/internal/services/pipeline/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type fakeRuns struct {
	submitted []domain.Input
	limit     int
	views     map[uuid.UUID]domain.View
	submitErr error
}

func (f *fakeRuns) Submit(_ context.Context, in domain.Input) (domain.View, error) {
	if f.submitErr != nil {
		return domain.View{}, f.submitErr
	}
	f.submitted = append(f.submitted, in)
	return domain.View{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), Site: in.Site, Status: pipe.StatusQueued}, nil
}

func (f *fakeRuns) Get(_ context.Context, id uuid.UUID) (domain.View, error) {
	if v, ok := f.views[id]; ok {
		return v, nil
	}
	return domain.View{}, perr.NotFoundf("run %s not found", id)
}

func (f *fakeRuns) List(_ context.Context, limit int) ([]domain.View, error) {
	f.limit = limit
	out := make([]domain.View, 0, len(f.views))
	for _, v := range f.views {
		out = append(out, v)
	}
	return out, nil
}

func mount(f *fakeRuns) stdhttp.Handler {
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/api/runs", func(r phttp.Router) { Register(r, f) })
	return mux
}

func do(h stdhttp.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	f := &fakeRuns{}
	rec, env := do(mount(f), stdhttp.MethodPost, "/api/runs", `{"lat":36.75,"lon":3.06,"bbox_km":10,"site":"Alger","threshold_km2":1.5}`)
	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/runs/11111111-1111-4111-8111-111111111111" {
		t.Fatalf("Location = %q", loc)
	}
	if data := env["data"].(map[string]any); data["status"] != "queued" {
		t.Fatalf("data = %v", data)
	}
	if len(f.submitted) != 1 || *f.submitted[0].ThresholdKm2 != 1.5 {
		t.Fatalf("submitted = %+v", f.submitted)
	}
}

func TestSubmitRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"lat range", `{"lat":91,"lon":3,"bbox_km":10,"site":"a"}`, "lat"},
		{"lon missing", `{"lat":1,"bbox_km":10,"site":"a"}`, "lon"},
		{"bbox zero", `{"lat":1,"lon":3,"bbox_km":0,"site":"a"}`, "bbox_km"},
		{"site empty", `{"lat":1,"lon":3,"bbox_km":10,"site":""}`, "site"},
		{"threshold negative", `{"lat":1,"lon":3,"bbox_km":10,"site":"a","threshold_km2":-1}`, "threshold_km2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeRuns{}
			rec, env := do(mount(f), stdhttp.MethodPost, "/api/runs", tc.body)
			if rec.Code != stdhttp.StatusBadRequest || env["field"] != tc.field {
				t.Fatalf("status %d env %v", rec.Code, env)
			}
			if len(f.submitted) != 0 {
				t.Fatal("invalid input reached the service")
			}
		})
	}
}

func TestSubmitQueueFull(t *testing.T) {
	t.Parallel()

	f := &fakeRuns{submitErr: perr.Unavailablef("run queue is full (8 waiting)")}
	rec, env := do(mount(f), stdhttp.MethodPost, "/api/runs", `{"lat":1,"lon":3,"bbox_km":10,"site":"a"}`)
	if rec.Code != stdhttp.StatusServiceUnavailable || env["kind"] != "unavailable" {
		t.Fatalf("status %d env %v", rec.Code, env)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("22222222-2222-4222-8222-222222222222")
	f := &fakeRuns{views: map[uuid.UUID]domain.View{id: {
		ID:     id,
		Site:   "a",
		Status: pipe.StatusSucceeded,
		Outlet: geojson.NewGeometry(orb.Point{500050, 4000000}),
		Logs:   []string{"info outlet"},
	}}}
	h := mount(f)

	rec, env := do(h, stdhttp.MethodGet, "/api/runs/"+id.String(), "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	outlet := env["data"].(map[string]any)["outlet"].(map[string]any)
	if outlet["type"] != "Point" {
		t.Fatalf("outlet = %v", outlet)
	}
	if c := outlet["coordinates"].([]any); c[0] != 500050.0 || c[1] != 4000000.0 {
		t.Fatalf("coordinates = %v", c)
	}

	rec, _ = do(h, stdhttp.MethodGet, "/api/runs/"+uuid.NewString(), "")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
	rec, env = do(h, stdhttp.MethodGet, "/api/runs/not-a-uuid", "")
	if rec.Code != stdhttp.StatusBadRequest || env["field"] != "id" {
		t.Fatalf("bad id = %d %v", rec.Code, env)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	f := &fakeRuns{views: map[uuid.UUID]domain.View{id: {ID: id, Status: pipe.StatusRunning}}}
	h := mount(f)

	rec, env := do(h, stdhttp.MethodGet, "/api/runs", "")
	if rec.Code != stdhttp.StatusOK || f.limit != DefaultLimit {
		t.Fatalf("status %d limit %d", rec.Code, f.limit)
	}
	if page := env["page"].(map[string]any); page["total"] != 1.0 {
		t.Fatalf("page = %v", page)
	}

	do(h, stdhttp.MethodGet, "/api/runs?limit=5", "")
	if f.limit != 5 {
		t.Fatalf("limit = %d", f.limit)
	}
	for _, q := range []string{"0", "x", "501"} {
		rec, _ := do(h, stdhttp.MethodGet, "/api/runs?limit="+q, "")
		if rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("limit=%s status = %d", q, rec.Code)
		}
	}
}
