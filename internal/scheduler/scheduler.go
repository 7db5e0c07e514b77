package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vaultcal/config"
	"vaultcal/internal/service"
)

// Scheduler runs full sync passes on a cron schedule (daemon mode)
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.Config
	sync   *service.SyncService
	logger *zap.Logger
}

func New(cfg *config.Config, syncSvc *service.SyncService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:   c,
		cfg:    cfg,
		sync:   syncSvc,
		logger: logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.SyncSchedule, s.runPass); err != nil {
		return fmt.Errorf("add sync schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("schedule", s.cfg.SyncSchedule),
		zap.String("timezone", s.cfg.Timezone.String()))

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runPass() {
	pass, err := s.sync.SyncAll(context.Background())
	if err != nil {
		s.logger.Error("scheduled sync pass failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled sync pass finished",
		zap.Int("pushed", pass.Pushed),
		zap.Int("failed", pass.Failed),
		zap.Int("imported", pass.Imported),
		zap.Int("skipped", pass.Skipped),
		zap.Duration("duration", pass.Duration()))
}
