package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/config"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/pipeline"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/repository"
)

// Scheduler manages background analytics runs:
// - Poll the ledger files on a short interval, rerunning only on change
// - Nightly full recompute with a fresh team seed
type Scheduler struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	db       *repository.Database
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}

	// Ledger watermark, touched only by the poll goroutine
	lastModified time.Time
	lastSize     int64
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, p *pipeline.Pipeline, db *repository.Database) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		pipeline: p,
		db:       db,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Setup nightly full recompute cron job
	if _, err := s.cron.AddFunc(s.cfg.NightlyRefreshCron, func() {
		log.Info().Msg("Running nightly recompute...")
		if err := s.pipeline.Run(ctx, pipeline.TriggerNightly); err != nil {
			log.Error().Err(err).Msg("Nightly recompute failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly recompute: %w", err)
	}

	// Start cron scheduler
	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyRefreshCron).
		Msg("Nightly recompute scheduled")

	// Start ledger polling ticker
	s.ticker = time.NewTicker(s.cfg.LedgerPollInterval)
	log.Info().
		Dur("interval", s.cfg.LedgerPollInterval).
		Msg("Ledger polling started")

	// Start polling goroutine
	go s.pollLedger(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollLedger watches the ledger files and reruns the pipeline when they
// change. Unchanged files mean an unchanged store, so ticks are cheap.
func (s *Scheduler) pollLedger(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping ledger polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping ledger polling")
			return
		case <-s.ticker.C:
			if err := s.checkAndRun(ctx); err != nil {
				log.Error().Err(err).Msg("Ledger poll cycle failed")
			}
		}
	}
}

// checkAndRun runs the pipeline if the ledger files changed since the
// last observed watermark
func (s *Scheduler) checkAndRun(ctx context.Context) error {
	modified, size, err := s.ledgerStamp()
	if err != nil {
		return fmt.Errorf("failed to stat ledger files: %w", err)
	}

	if !modified.After(s.lastModified) && size == s.lastSize {
		log.Debug().Msg("Ledger unchanged, skipping run")
		return nil
	}

	// First tick after a restart: the initial sync usually already
	// ingested this ledger, so compare against the store watermark
	if s.lastModified.IsZero() {
		storeUpdated, err := s.db.Games.LastUpdatedAt(ctx)
		if err == nil && storeUpdated.After(modified) {
			s.lastModified = modified
			s.lastSize = size
			log.Debug().Msg("Store newer than ledger, skipping run")
			return nil
		}
	}

	log.Info().
		Time("modified", modified).
		Int64("size", size).
		Msg("Ledger change detected")

	if err := s.pipeline.Run(ctx, pipeline.TriggerPoll); err != nil {
		return err
	}

	s.lastModified = modified
	s.lastSize = size
	return nil
}

// ledgerStamp returns the newest modification time and combined size of
// every configured ledger file
func (s *Scheduler) ledgerStamp() (time.Time, int64, error) {
	paths := append([]string{s.cfg.GameLedgerPath}, s.cfg.PredictionPaths...)

	var latest time.Time
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, 0, err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		total += info.Size()
	}

	return latest, total, nil
}
