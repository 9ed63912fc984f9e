// Package module wires the pipeline run service
package module

import (
	"context"

	"hydroflow/internal/modkit"
	"hydroflow/internal/platform/execx"
	"hydroflow/internal/services/pipeline/domain"
	"hydroflow/internal/services/pipeline/repo"
	"hydroflow/internal/services/pipeline/service"
)

// Ports defines the pipeline module ports
type Ports struct {
	Runner domain.RunnerPort

	// Ledger is nil when no database is configured
	Ledger domain.LedgerRepo
}

// Module implements the pipeline module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the pipeline module from deps.Cfg (HYDRO_PIPELINE_*)
// The run ledger is wired only when deps.PG is set
// It does not mount any routes
func New(deps modkit.Deps, opts ...Option) *Module {
	o := FromConfig(deps.Cfg)
	for _, fn := range opts {
		fn(&o)
	}

	var ledger domain.LedgerRepo
	if deps.PG != nil {
		ledger = repo.NewPG().Bind(deps.PG)
	}

	ad := toolAdapters{runner: execx.New(), demURL: o.DEMURL, demType: o.DEMType}
	svc := service.New(ad, service.Config{Budgets: o.Budgets, Progress: o.Progress}, ledger)

	return &Module{deps: deps, ports: Ports{Runner: svc, Ledger: ledger}}
}

// Option overrides a value read from config
type Option func(*Options)

// WithProgress turns the terminal download bar on or off
func WithProgress(on bool) Option { return func(o *Options) { o.Progress = on } }

// Name returns the module name
func (m *Module) Name() string { return "pipeline" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Runner returns the typed run port
func (m *Module) Runner() domain.RunnerPort { return m.ports.Runner }

// Ledger returns the run ledger or nil
func (m *Module) Ledger() domain.LedgerRepo { return m.ports.Ledger }

// Prepare creates the ledger table when a ledger is configured
func (m *Module) Prepare(ctx context.Context) error {
	if m.ports.Ledger == nil {
		return nil
	}
	return m.ports.Ledger.EnsureSchema(ctx)
}
