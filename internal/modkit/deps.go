// Package modkit provides module wiring and core deps
package modkit

import (
	"hydroflow/internal/modkit/repokit"
	"hydroflow/internal/platform/config"
	"hydroflow/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// PG is nil when the run ledger is disabled
	PG repokit.TxRunner
}
