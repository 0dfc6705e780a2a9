package processor

import (
	"context"

	"iat/pkg/logger"
	"iat/reconciler-service/internal/app/reconciler/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодическая полная сверка
type CronScheduler struct {
	cron       *cron.Cron
	reconciler service.Reconciler
}

func NewCronScheduler(reconciler service.Reconciler) *CronScheduler {
	cronLogger := logger.With().Str("component", "cron").Logger()
	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
		cron.WithLogger(cron.PrintfLogger(&cronLogger)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&cronLogger))),
	)

	return &CronScheduler{
		cron:       c,
		reconciler: reconciler,
	}
}

// Start регистрирует задачу и запускает первую сверку сразу
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.sweep(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	s.sweep(ctx)
	return nil
}

func (s *CronScheduler) sweep(ctx context.Context) {
	report, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Int("repairs", report.Total()).
			Msg("Reconciliation sweep finished with errors")
		return
	}

	logger.Info().
		Int("joined_groups", report.JoinedGroups).
		Int("duplicate_membership", report.DuplicateMembership).
		Int("aggregates", report.Aggregates).
		Int("rating_history", report.RatingHistory).
		Msg("Reconciliation sweep completed")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
