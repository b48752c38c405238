// Package scheduler wires up the cron job that periodically runs a full
// ingestion pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"jobfeed-engine/internal/service"
)

// Scheduler wraps robfig/cron around the engine's ingestion loop.
type Scheduler struct {
	cron   *cron.Cron
	engine *service.Engine
	spec   string // cron spec, e.g. "@every 30m"
}

// New creates a Scheduler that fires every intervalMinutes minutes.
func New(engine *service.Engine, intervalMinutes int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
		spec:   fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so the store is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runIngest(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] cron started spec=%s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runIngest(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] cron stopped")
}

func (s *Scheduler) runIngest(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rep, err := s.engine.Ingest(ctx)
	if err != nil {
		if errors.Is(err, service.ErrIngestRunning) {
			log.Println("[scheduler] skipping tick: ingest already running")
			return
		}
		log.Printf("[scheduler] ingest error: %v", err)
		return
	}
	log.Printf("[scheduler] ingest run=%s inserted=%d updated=%d deactivated=%d errors=%d",
		rep.RunID, rep.Inserted, rep.Updated, rep.Deactivated, len(rep.Errors))
}
