package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReminderPolicy controls which upcoming-due windows get a reminder email.
// Operators tune this per deployment without redeploying the engine.
type ReminderPolicy struct {
	Windows []ReminderWindow `mapstructure:"windows"`
}

// ReminderWindow names one reminder pass, e.g. "3 days before due".
type ReminderWindow struct {
	Label      string `mapstructure:"label"`
	DaysBefore int    `mapstructure:"daysBefore"`
}

func DefaultReminderPolicy() ReminderPolicy {
	return ReminderPolicy{
		Windows: []ReminderWindow{
			{Label: "week-ahead", DaysBefore: 7},
			{Label: "final", DaysBefore: 3},
		},
	}
}

type ReminderPolicyHolder struct {
	current atomic.Value // holds ReminderPolicy
}

// NewReminderPolicyHolder reads reminders.yml and keeps it hot-reloaded so
// the daily sweep always sees the latest windows.
func NewReminderPolicyHolder() (*ReminderPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("reminders")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/billing/config")
	v.AddConfigPath("/etc/billing")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultReminderPolicy()
		v.SetDefault("reminders.windows", defaults.Windows)
	}

	var policy ReminderPolicy
	if err := v.UnmarshalKey("reminders", &policy); err != nil {
		return nil, err
	}
	if len(policy.Windows) == 0 {
		policy = DefaultReminderPolicy()
	}
	if err := validateReminderPolicy(policy); err != nil {
		return nil, err
	}

	holder := &ReminderPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReminderPolicy
		if err := v.UnmarshalKey("reminders", &updated); err != nil {
			log.Printf("[reminder-policy] reload failed: %v", err)
			return
		}
		if err := validateReminderPolicy(updated); err != nil {
			log.Printf("[reminder-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[reminder-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ReminderPolicyHolder) Get() ReminderPolicy {
	return h.current.Load().(ReminderPolicy)
}

func validateReminderPolicy(policy ReminderPolicy) error {
	if len(policy.Windows) == 0 {
		return errors.New("reminders.windows cannot be empty")
	}
	for _, w := range policy.Windows {
		if w.DaysBefore < 0 {
			return errors.New("reminders.windows daysBefore cannot be negative")
		}
	}
	return nil
}
