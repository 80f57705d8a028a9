// Package scheduler runs the recurring API key re-validation.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/credential"
)

// Scheduler wraps a cron instance with the validation job.
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	store     *credential.Store
	validator *credential.Validator
	timeout   time.Duration
}

// New registers the validation job on spec (standard cron syntax or descriptors like @hourly).
func New(spec string, db *gorm.DB, store *credential.Store, validator *credential.Validator) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		db:        db,
		store:     store,
		validator: validator,
		timeout:   time.Minute,
	}

	if _, err := s.cron.AddFunc(spec, s.RunValidation); err != nil {
		return nil, fmt.Errorf("invalid validation schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start the cron in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop the cron and wait for a running job up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler stop timed out")
	}
}

// RunValidation re-validates the stored API key on every run.
func (s *Scheduler) RunValidation() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.validator.Revalidate(ctx, s.db, s.store)
	if err != nil {
		log.Error().Err(err).Msg("scheduled API key validation failed")
		return
	}

	log.Info().Bool("valid", res.IsValid).Str("message", res.Message).Msg("scheduled API key validation")
}
