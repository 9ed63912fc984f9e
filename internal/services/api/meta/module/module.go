// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "hydroflow/internal/modkit"
	phttp "hydroflow/internal/platform/net/http"

	metahttp "hydroflow/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps      modkit.Deps
	startedAt time.Time
}

// New constructs a meta module
func New(deps modkit.Deps) *Module {
	return &Module{deps: deps, startedAt: time.Now()}
}

// MountRoutes mounts health, readiness and version at the root
func (m *Module) MountRoutes(r phttp.Router) {
	var pg any
	if m.deps.PG != nil {
		pg = m.deps.PG
	}
	metahttp.Register(r, metahttp.Deps{StartedAt: m.startedAt, PG: pg})
}

// Ports returns nil; meta exposes nothing to other modules
func (m *Module) Ports() any { return nil }

// Name returns the module name
func (m *Module) Name() string { return "meta" }

var _ modkit.Module = (*Module)(nil)
