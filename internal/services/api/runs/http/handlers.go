// Package http provides http transport for pipeline runs
package http

import (
	stdhttp "net/http"
	"strconv"

	perr "hydroflow/internal/platform/errors"
	phttp "hydroflow/internal/platform/net/http"
	"hydroflow/internal/services/api/runs/domain"

	"github.com/google/uuid"
)

// DefaultLimit and MaxLimit bound GET /runs
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Register mounts the run endpoints on r
func Register(r phttp.Router, s domain.RunsPort) {
	h := &handlers{svc: s}
	phttp.PostJSON(r, "/", h.submit)
	phttp.GetJSON(r, "/", h.list)
	phttp.GetJSON(r, "/{id}", h.get)
}

type handlers struct{ svc domain.RunsPort }

func (h *handlers) submit(r *stdhttp.Request, in domain.Input) (any, error) {
	v, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return phttp.Response{
		Status: stdhttp.StatusAccepted,
		Body:   v,
		Header: stdhttp.Header{"Location": []string{"/api/runs/" + v.ID.String()}},
	}, nil
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxLimit {
			return nil, perr.WithField(perr.Validationf("limit must be between 1 and %d", MaxLimit), "limit")
		}
		limit = n
	}
	views, err := h.svc.List(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	return phttp.List(views, len(views), limit), nil
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := uuid.Parse(phttp.URLParam(r, "id"))
	if err != nil {
		return nil, perr.WithField(perr.Validationf("id must be a UUID"), "id")
	}
	return h.svc.Get(r.Context(), id)
}
