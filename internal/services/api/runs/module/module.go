// Package module wires the run queue into the API using modkit
package module

import (
	"context"

	"hydroflow/internal/core/runconfig"
	modkit "hydroflow/internal/modkit"
	phttp "hydroflow/internal/platform/net/http"
	"hydroflow/internal/services/api/runs/domain"
	runshttp "hydroflow/internal/services/api/runs/http"
	"hydroflow/internal/services/api/runs/service"
	pipe "hydroflow/internal/services/pipeline/domain"
)

// Ports defines the runs module ports
type Ports struct {
	Runs domain.RunsPort
}

// Module implements the modkit.Module interface
type Module struct {
	prefix string
	svc    *service.Service
}

// New builds the queue over the pipeline ports
// base is the run configuration each submission overlays
func New(deps modkit.Deps, runner pipe.RunnerPort, ledger pipe.LedgerRepo, base runconfig.Config) *Module {
	svc := service.New(runner, ledger, base, FromConfig(deps.Cfg))
	return &Module{prefix: "/runs", svc: svc}
}

// MountRoutes mounts the run endpoints under /runs
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route(m.prefix, func(rr phttp.Router) { runshttp.Register(rr, m.svc) })
}

// Run drives the background worker until ctx is done
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

// Ports returns the module ports
func (m *Module) Ports() any { return Ports{Runs: m.svc} }

// Name returns the module name
func (m *Module) Name() string { return "runs" }

var _ modkit.Module = (*Module)(nil)
