package reminder

import (
	"context"
	"time"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/task"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Scheduler struct {
	enqueuer task.Enqueuer
	hour     int
	now      func() time.Time
}

func NewScheduler(enqueuer task.Enqueuer, cfg *config.Config) *Scheduler {
	return &Scheduler{
		enqueuer: enqueuer,
		hour:     cfg.Licensing.ScanHour,
		now:      time.Now,
	}
}

// StartScheduler runs the daily loop for the lifetime of the fx app.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
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
	zap.L().Info("[Scheduler] started license reminder scheduler", zap.Int("hour_utc", s.hour))

	for {
		now := s.now().UTC()
		next := nextRunTime(now, s.hour, 0)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	if err := s.enqueue(ctx, s.now()); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue reminder scan", zap.Error(err))
	}
}

func (s *Scheduler) enqueue(ctx context.Context, day time.Time) error {
	t, err := NewScanTask(day, TriggerScheduler)
	if err != nil {
		return err
	}

	info, err := s.enqueuer.Enqueue(ctx, t)
	if err != nil {
		if task.IsDuplicate(err) {
			zap.L().Info("[Scheduler] reminder scan already enqueued for today")
			return nil
		}
		return err
	}

	zap.L().Info("[Scheduler] reminder scan enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}

// nextRunTime returns the next occurrence of hour:minute strictly after now.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
