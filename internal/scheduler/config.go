package scheduler

import (
	"time"

	"github.com/operisapp/billing/internal/config"
)

// Config controls the sweep schedules and per-job limits.
type Config struct {
	OverdueSchedule   string
	ReminderSchedule  string
	ReminderDaysAhead int
	JobTimeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		OverdueSchedule:   "0 6 * * *",
		ReminderSchedule:  "30 6 * * *",
		ReminderDaysAhead: 3,
		JobTimeout:        5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.OverdueSchedule == "" {
		c.OverdueSchedule = defaults.OverdueSchedule
	}
	if c.ReminderSchedule == "" {
		c.ReminderSchedule = defaults.ReminderSchedule
	}
	if c.ReminderDaysAhead <= 0 {
		c.ReminderDaysAhead = defaults.ReminderDaysAhead
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		OverdueSchedule:   cfg.OverdueSchedule,
		ReminderSchedule:  cfg.ReminderSchedule,
		ReminderDaysAhead: cfg.ReminderDaysAhead,
	}.withDefaults()
}
