package service

import (
	"context"
	"time"

	"hydroflow/internal/platform/logger"
	ptime "hydroflow/internal/platform/time"
	"hydroflow/internal/services/api/runs/domain"
	pipe "hydroflow/internal/services/pipeline/domain"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
)

// Run processes queued runs one at a time until ctx is done
// Runs still waiting at shutdown are marked failed
func (s *Service) Run(ctx context.Context) error {
	log := logger.Named("runs-worker")
	log.Info().Int("queue", cap(s.queue)).Msg("run worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Int("dropped", s.drain()).Msg("run worker stopped")
			return nil
		}
		select {
		case <-ctx.Done():
		case j := <-s.queue:
			s.process(ctx, j)
		}
	}
}

func (s *Service) process(ctx context.Context, j job) {
	l := logger.Get().Hook(captureHook{s: s, id: j.id})
	rctx := logger.WithLogger(ctx, &l)

	started := ptime.Ptr(s.Now())
	s.update(j.id, func(v *domain.View) {
		v.Status = pipe.StatusRunning
		v.StartedAt = started
	})

	rep, err := s.runner.RunAs(rctx, j.id, j.cfg)

	finished := ptime.Ptr(s.Now())
	s.update(j.id, func(v *domain.View) {
		v.FinishedAt = finished
		v.Session = rep.Session
		v.OutputDir = rep.OutputDir
		if rep.BBox.Valid() {
			v.BBox = geojson.NewBBox(rep.BBox.Bound())
		}
		if j.cfg.TargetEPSG != nil {
			v.EPSG = *j.cfg.TargetEPSG
		}
		if err != nil {
			v.Status = pipe.StatusFailed
			v.Error = err.Error()
			return
		}
		v.Status = pipe.StatusSucceeded
		v.Outlet = geojson.NewGeometry(rep.Outlet)
		arts := rep.Artifacts
		v.Artifacts = &arts
	})
}

func (s *Service) drain() int {
	n := 0
	for {
		select {
		case j := <-s.queue:
			now := ptime.Ptr(s.Now())
			s.update(j.id, func(v *domain.View) {
				v.Status = pipe.StatusFailed
				v.FinishedAt = now
				v.Error = "service stopped before the run started"
			})
			n++
		default:
			return n
		}
	}
}

func (s *Service) appendLog(id uuid.UUID, line string) {
	s.update(id, func(v *domain.View) {
		v.Logs = append(v.Logs, line)
		if over := len(v.Logs) - s.cfg.LogLines; over > 0 {
			v.Logs = append(v.Logs[:0], v.Logs[over:]...)
		}
	})
}

// captureHook copies info and above messages into the run's log lines
type captureHook struct {
	s  *Service
	id uuid.UUID
}

func (h captureHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if msg == "" || level < zerolog.InfoLevel || level == zerolog.NoLevel {
		return
	}
	h.s.appendLog(h.id, h.s.Now().UTC().Format(time.RFC3339)+" "+level.String()+" "+msg)
}
