package store

import "hydroflow/internal/platform/logger"

// Option adjusts a Store before any backend is dialed
type Option func(*Store) error

// WithLogger routes ping retries and SQL tracing to log
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
