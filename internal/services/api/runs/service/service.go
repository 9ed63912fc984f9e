// Package service queues run submissions and drives them through the
// pipeline one at a time
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/api/runs/domain"
	pipe "hydroflow/internal/services/pipeline/domain"

	"github.com/google/uuid"
)

// Config controls the queue
type Config struct {
	// QueueSize is the number of runs that may wait behind the active one
	QueueSize int
	// LogLines caps the captured log lines per run; oldest are dropped
	LogLines int
	// Keep caps the finished runs held in memory
	Keep int
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 8
	}
	if c.LogLines <= 0 {
		c.LogLines = 500
	}
	if c.Keep <= 0 {
		c.Keep = 100
	}
	return c
}

type job struct {
	id  uuid.UUID
	cfg runconfig.Config
}

// Service implements domain.RunsPort and the background worker
type Service struct {
	runner pipe.RunnerPort
	ledger pipe.LedgerRepo
	base   runconfig.Config
	cfg    Config

	// Now and NewID are seams for tests
	Now   func() time.Time
	NewID func() uuid.UUID

	mu    sync.Mutex
	runs  map[uuid.UUID]*domain.View
	order []uuid.UUID
	queue chan job
}

// New builds the service; ledger may be nil
func New(runner pipe.RunnerPort, ledger pipe.LedgerRepo, base runconfig.Config, cfg Config) *Service {
	if runner == nil {
		panic("runs service requires a pipeline runner")
	}
	cfg = cfg.withDefaults()
	return &Service{
		runner: runner,
		ledger: ledger,
		base:   base,
		cfg:    cfg,
		Now:    time.Now,
		NewID:  uuid.New,
		runs:   map[uuid.UUID]*domain.View{},
		queue:  make(chan job, cfg.QueueSize),
	}
}

// Submit overlays in on the base configuration and queues the run
func (s *Service) Submit(ctx context.Context, in domain.Input) (domain.View, error) {
	id := s.NewID()
	now := s.Now()
	v := &domain.View{ID: id, Site: in.Site, Status: pipe.StatusQueued, SubmittedAt: &now}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.queue <- job{id: id, cfg: overlay(s.base, in)}:
	default:
		return domain.View{}, perr.Unavailablef("run queue is full (%d waiting)", cap(s.queue))
	}
	s.runs[id] = v
	s.order = append(s.order, id)
	s.evict()

	logger.C(ctx).Info().Str("run_id", id.String()).Str("site", in.Site).Int("waiting", len(s.queue)).Msg("run queued")
	return v.Clone(), nil
}

// Get returns a run from memory, then from the ledger
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.View, error) {
	s.mu.Lock()
	v, ok := s.runs[id]
	var out domain.View
	if ok {
		out = v.Clone()
	}
	s.mu.Unlock()
	if ok {
		return out, nil
	}
	if s.ledger == nil {
		return domain.View{}, perr.WithField(perr.NotFoundf("run %s not found", id), "id")
	}
	r, err := s.ledger.Get(ctx, id)
	if err != nil {
		return domain.View{}, err
	}
	return domain.FromLedger(r), nil
}

// List returns the newest runs first, merging ledger rows not held in memory
func (s *Service) List(ctx context.Context, limit int) ([]domain.View, error) {
	s.mu.Lock()
	out := make([]domain.View, 0, len(s.order))
	seen := make(map[uuid.UUID]bool, len(s.order))
	for _, id := range s.order {
		v := s.runs[id].Clone()
		v.Logs = nil
		out = append(out, v)
		seen[id] = true
	}
	s.mu.Unlock()

	if s.ledger != nil {
		rows, err := s.ledger.List(ctx, limit)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Msg("run ledger list failed; serving memory only")
		}
		for _, r := range rows {
			if !seen[r.ID] {
				out = append(out, domain.FromLedger(r))
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Sorted().After(out[j].Sorted()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Waiting is the number of queued runs not yet picked up
func (s *Service) Waiting() int { return len(s.queue) }

// evict drops the oldest finished runs past Keep; callers hold mu
func (s *Service) evict() {
	over := len(s.order) - s.cfg.Keep
	if over <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if over > 0 && s.runs[id].Status.Terminal() {
			delete(s.runs, id)
			over--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func (s *Service) update(id uuid.UUID, fn func(v *domain.View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.runs[id]; ok {
		fn(v)
	}
}

func overlay(base runconfig.Config, in domain.Input) runconfig.Config {
	cfg := base
	cfg.Lat = in.Lat
	cfg.Lon = in.Lon
	cfg.BBoxSizeKm = in.BBoxKm
	cfg.SiteName = runconfig.Ptr(in.Site)
	if in.ThresholdKm2 != nil {
		cfg.StreamThresholdKm2 = in.ThresholdKm2
	}
	return cfg
}
