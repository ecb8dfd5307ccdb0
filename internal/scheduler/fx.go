package scheduler

import (
	"context"
	"fmt"

	"github.com/operisapp/billing/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(registerCron),
)

// registerCron wires the two daily sweeps onto cron entries. Disabled
// deployments (e.g. a read replica running only the API) skip registration
// entirely.
func registerCron(lc fx.Lifecycle, appCfg config.Config, cfg Config, sched *Scheduler, log *zap.Logger) error {
	if !appCfg.SchedulerEnabled {
		log.Named("scheduler").Info("scheduler disabled, cron entries not registered")
		return nil
	}

	c := cron.New()

	if _, err := c.AddFunc(cfg.OverdueSchedule, func() {
		if _, err := sched.MarkOverdueInstallments(context.Background()); err != nil {
			log.Named("scheduler").Error("overdue sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("overdue schedule %q: %w", cfg.OverdueSchedule, err)
	}

	if _, err := c.AddFunc(cfg.ReminderSchedule, func() {
		for _, window := range sched.reminderWindows() {
			if _, err := sched.ProcessReminders(context.Background(), window.DaysBefore); err != nil {
				log.Named("scheduler").Error("reminder pass failed",
					zap.String("window", window.Label),
					zap.Error(err),
				)
			}
		}
	}); err != nil {
		return fmt.Errorf("reminder schedule %q: %w", cfg.ReminderSchedule, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return nil
}
