package http

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "hydroflow/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

type pingFunc func(stdctx.Context) error

func (f pingFunc) Ping(ctx stdctx.Context) error { return f(ctx) }

func get(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	d := Deps{StartedAt: start, Now: func() time.Time { return start.Add(90 * time.Second) }}

	var got HealthResponse
	if code := get(t, d, "/healthz", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := HealthResponse{OK: true, Service: "hydroflow", Started: "2026-10-15T09:00:00Z", Uptime: 90}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		pg     any
		status string
		check  string
	}{
		{"disabled", nil, "ok", "skipped"},
		{"up", pingFunc(func(stdctx.Context) error { return nil }), "ok", "ok"},
		{"down", pingFunc(func(stdctx.Context) error { return errors.New("refused") }), "fail", "fail"},
		{"opaque", struct{}{}, "ok", "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got ReadyResponse
			get(t, Deps{PG: tc.pg}, "/readyz", &got)
			if got.Status != tc.status || got.Checks[0].Status != tc.check {
				t.Fatalf("ready = %+v", got)
			}
		})
	}
}
