package usecase

import (
	"context"
	"log/slog"
	"time"

	"ReputationScanner/internal/ports"
)

// Scheduler wires the ticking driver with periodic refresh of every entity.
type Scheduler struct {
	driver       ports.Scheduler
	catalog      *Catalog
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring refreshes.
func NewScheduler(driver ports.Scheduler, catalog *Catalog, orchestrator *Orchestrator, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, catalog: catalog, orchestrator: orchestrator, logger: logger}
}

// Start registers the refresh with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.Refresh(ctx, trigger)
	})
}

// Refresh starts a job for every entity. Entities with a running job keep it.
func (s *Scheduler) Refresh(ctx context.Context, trigger time.Time) int {
	refs, err := s.catalog.EntityRefs(ctx)
	if err != nil {
		s.logger.Error("refresh: list entities", "error", err)
		return 0
	}

	started := 0
	for _, ref := range refs {
		_, created, err := s.orchestrator.Start(ctx, ref)
		if err != nil {
			s.logger.Warn("refresh: start job", "entity_id", ref.EntityID, "error", err)
			continue
		}
		if created {
			started++
		}
	}
	s.logger.Info("refresh triggered", "at", trigger, "entities", len(refs), "started", started)
	return started
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
