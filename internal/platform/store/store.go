// Package store is the SQL seam behind the run ledger
//
// Postgres is the only backend. A zero Store is safe and does nothing,
// which is how the CLI runs when no ledger DSN is configured.
package store

import (
	"context"
	"errors"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
)

// Store is the facade over the configured backend
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// PG is the postgres seam, nil when disabled
	PG TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store; a disabled backend stays nil
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("app", cfg.AppName).Logger()

	if cfg.PG.Enabled {
		pgClient, err := openPG(ctx, cfg.AppName, cfg.PG, s)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "open run ledger database")
		}
		s.PG = pgClient
	}
	return s, nil
}

// Enabled reports whether a backend is configured
func (s *Store) Enabled() bool { return s != nil && s.PG != nil }

// Guard pings the configured backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "pg ping")
		}
	}
	return nil
}

// Close closes the backend; nil backends are ignored
func (s *Store) Close(context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
