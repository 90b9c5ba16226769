package challenge

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Scheduler struct {
	service *Service
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{service: svc}
}

// StartScheduler generates the current periods on boot, then re-runs shortly
// after each local midnight so a fresh day (and, on Mondays, a fresh week)
// always has its challenges. Generation is idempotent, so overlapping runs
// across replicas are harmless.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.generate(ctx)
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started challenge generation scheduler")

	for {
		now := time.Now().In(s.service.loc)
		next := nextRunTime(now, 0, 5) // 00:05 local

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.generate(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) generate(ctx context.Context) {
	start := time.Now()

	if _, err := s.service.GenerateDaily(ctx, start); err != nil {
		zap.L().Error("[Scheduler] daily bonus generation failed", zap.Error(err))
	}
	if _, err := s.service.GenerateWeekly(ctx, start); err != nil {
		zap.L().Error("[Scheduler] weekly challenge generation failed", zap.Error(err))
	}

	zap.L().Info("[Scheduler] challenge generation finished",
		zap.Duration("duration", time.Since(start)),
	)
}

// nextRunTime returns the next occurrence of the given wall-clock time.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
