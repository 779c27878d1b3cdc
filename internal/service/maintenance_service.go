package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultMaintenanceSpec = "@hourly"

type tokenJanitor interface {
	PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type exportJanitor interface {
	Cleanup() ([]string, error)
}

// MaintenanceReport summarises one cleanup run.
type MaintenanceReport struct {
	RefreshTokens int64
	ResetTokens   int64
	ExportFiles   int
}

// MaintenanceService runs periodic cleanup of stale credentials and export files.
type MaintenanceService struct {
	tokens  tokenJanitor
	exports exportJanitor
	spec    string
	logger  *zap.Logger
	now     func() time.Time
	cron    *cron.Cron
}

// NewMaintenanceService constructs a MaintenanceService. An empty spec runs hourly.
func NewMaintenanceService(tokens tokenJanitor, exports exportJanitor, spec string, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = defaultMaintenanceSpec
	}
	return &MaintenanceService{tokens: tokens, exports: exports, spec: spec, logger: logger, now: time.Now}
}

// Start schedules RunOnce on the configured cron spec.
func (s *MaintenanceService) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("maintenance scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for a running job.
func (s *MaintenanceService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("maintenance scheduler stopped")
}

// RunOnce performs every cleanup task. Errors are logged and the remaining tasks still run; the first one is returned.
func (s *MaintenanceService) RunOnce(ctx context.Context) (MaintenanceReport, error) {
	var (
		report   MaintenanceReport
		firstErr error
	)
	record := func(task string, err error) {
		if err == nil {
			return
		}
		s.logger.Warn("maintenance task failed", zap.String("task", task), zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	now := s.now().UTC()

	if s.tokens != nil {
		n, err := s.tokens.PurgeRefreshTokens(ctx, now)
		record("refresh_tokens", err)
		report.RefreshTokens = n

		n, err = s.tokens.ClearExpiredResetTokens(ctx, now)
		record("reset_tokens", err)
		report.ResetTokens = n
	}
	if s.exports != nil {
		deleted, err := s.exports.Cleanup()
		record("exports", err)
		report.ExportFiles = len(deleted)
	}

	s.logger.Info("maintenance completed",
		zap.Int64("refresh_tokens", report.RefreshTokens),
		zap.Int64("reset_tokens", report.ResetTokens),
		zap.Int("export_files", report.ExportFiles),
	)
	return report, firstErr
}
