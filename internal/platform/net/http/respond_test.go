package http

import (
	"context"
	"encoding/json"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hydroflow/internal/platform/config"
	perr "hydroflow/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

type runIn struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Site string  `json:"site" validate:"required"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func serve(r Router, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestJSONHandlers(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	PostJSON(r, "/runs", func(_ *stdhttp.Request, in runIn) (any, error) {
		return Accepted(map[string]string{"site": in.Site}), nil
	})
	GetJSON(r, "/runs/{id}", func(req *stdhttp.Request) (any, error) {
		if URLParam(req, "id") == "missing" {
			return nil, perr.NotFoundf("run missing not found")
		}
		return map[string]string{"id": URLParam(req, "id")}, nil
	})

	rec := serve(r, stdhttp.MethodPost, "/runs", `{"lat":45,"site":"a"}`)
	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("post status = %d body %s", rec.Code, rec.Body)
	}

	rec = serve(r, stdhttp.MethodPost, "/runs", `{"lat":95,"site":"a"}`)
	env := decode(t, rec)
	if rec.Code != stdhttp.StatusBadRequest || env.Field != "lat" || env.Kind != "validation" {
		t.Fatalf("validation envelope = %d %+v", rec.Code, env)
	}
	if env.Error != "lat must be at most 90" {
		t.Fatalf("message = %q", env.Error)
	}

	rec = serve(r, stdhttp.MethodPost, "/runs", `{"site":"a","extra":1}`)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}
	rec = serve(r, stdhttp.MethodPost, "/runs", ``)
	if env := decode(t, rec); env.Error != "empty body" {
		t.Fatalf("empty body envelope = %+v", env)
	}
	rec = serve(r, stdhttp.MethodPost, "/runs", `{"site":"a"}{"site":"b"}`)
	if env := decode(t, rec); env.Error != "unexpected trailing data" {
		t.Fatalf("trailing envelope = %+v", env)
	}

	rec = serve(r, stdhttp.MethodGet, "/runs/missing", "")
	if rec.Code != stdhttp.StatusNotFound || decode(t, rec).Kind != "not_found" {
		t.Fatalf("not found = %d", rec.Code)
	}
	rec = serve(r, stdhttp.MethodGet, "/runs/r1", "")
	if env := decode(t, rec); rec.Code != stdhttp.StatusOK || env.Data.(map[string]any)["id"] != "r1" {
		t.Fatalf("get = %d %+v", rec.Code, env)
	}
}

func TestListCarriesPage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Handle(func(*stdhttp.Request) Response { return List([]int{1, 2}, 2, 50) }).
		ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	env := decode(t, rec)
	if env.Page == nil || env.Page.Total != 2 || env.Page.Limit != 50 {
		t.Fatalf("page = %+v", env.Page)
	}
}

func TestRouteAndGroup(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	r.Route("/api", func(api Router) {
		api.Group(func(g Router) {
			g.Get("/ping", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusNoContent) })
		})
	})
	if rec := serve(r, stdhttp.MethodGet, "/api/ping", ""); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServerStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.New().Prefix("HYDRO_TEST_UNSET_"))
	srv.Router().Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusOK) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := stdhttp.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
