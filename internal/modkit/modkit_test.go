package modkit

import (
	"testing"

	"hydroflow/internal/platform/config"
	phttp "hydroflow/internal/platform/net/http"
)

type stub struct {
	mounted bool
	ports   any
}

func (s *stub) MountRoutes(_ phttp.Router) { s.mounted = true }
func (s *stub) Ports() any                 { return s.ports }
func (s *stub) Name() string               { return "stub" }

var _ Module = (*stub)(nil)

func TestModuleSurface(t *testing.T) {
	t.Parallel()

	m := &stub{ports: 42}
	m.MountRoutes(nil)
	if !m.mounted {
		t.Fatal("expected MountRoutes to be called")
	}
	if got := m.Ports(); got != 42 {
		t.Fatalf("Ports = %v, want 42", got)
	}
}

func TestDepsLedgerOptional(t *testing.T) {
	t.Parallel()

	d := Deps{Cfg: config.New()}
	if d.PG != nil {
		t.Fatal("zero Deps should carry no ledger connection")
	}
}
