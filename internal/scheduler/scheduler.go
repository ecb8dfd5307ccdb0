// Package scheduler runs the daily billing sweeps: overdue marking and
// due-date reminders. Both are idempotent within a calendar day so a crashed
// or doubled run cannot duplicate their effects.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/operisapp/billing/internal/clock"
	"github.com/operisapp/billing/internal/config"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	"github.com/operisapp/billing/internal/observability/metrics"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	"github.com/operisapp/billing/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	InstallmentRepo installmentdomain.Repository
	ProjectRepo     projectdomain.Repository
	NotifierRepo    notifierdomain.Repository
	Notifier        notifierdomain.Notifier

	Policy *config.ReminderPolicyHolder `optional:"true"`
	Config Config                       `optional:"true"`
}

type Scheduler struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             Config
	genID           *snowflake.Node
	clock           clock.Clock
	installmentRepo installmentdomain.Repository
	projectRepo     projectdomain.Repository
	notifierRepo    notifierdomain.Repository
	notifier        notifierdomain.Notifier
	policy          *config.ReminderPolicyHolder
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil ||
		p.InstallmentRepo == nil || p.ProjectRepo == nil || p.NotifierRepo == nil || p.Notifier == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:              p.DB,
		log:             p.Log.Named("scheduler"),
		cfg:             p.Config.withDefaults(),
		genID:           p.GenID,
		clock:           p.Clock,
		installmentRepo: p.InstallmentRepo,
		projectRepo:     p.ProjectRepo,
		notifierRepo:    p.NotifierRepo,
		notifier:        p.Notifier,
		policy:          p.Policy,
	}, nil
}

// OverdueResult reports one overdue sweep.
type OverdueResult struct {
	Marked   int64
	Notified int
	Failed   int
}

// ReminderResult reports one reminder pass.
type ReminderResult struct {
	Found  int
	Sent   int
	Failed int
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	metrics.IncJobRun(name)
	err := fn(ctx)
	metrics.ObserveJobDuration(name, time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	metrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// MarkOverdueInstallments transitions every pending installment whose due
// date is strictly before today to vencida, then notifies each affected
// project. Re-running on the same day finds nothing pending and changes
// nothing.
func (s *Scheduler) MarkOverdueInstallments(ctx context.Context) (OverdueResult, error) {
	today := clock.Today(s.clock)
	now := s.clock.Now()

	// Select and mark in one transaction so the notify list is exactly the
	// set of rows the sweep flipped. Notifications go out after commit.
	var (
		rows   []installmentdomain.Installment
		marked int64
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = s.installmentRepo.FindPendingDueBefore(ctx, tx, today)
		if err != nil {
			return err
		}
		marked, err = s.installmentRepo.MarkOverdueDueBefore(ctx, tx, today, now)
		return err
	}); err != nil {
		return OverdueResult{}, err
	}
	metrics.AddMarkedOverdue(int(marked))

	result := OverdueResult{Marked: marked}
	for _, row := range rows {
		if s.notifyOverdue(ctx, row, today, now) {
			result.Notified++
		} else {
			result.Failed++
		}
	}

	s.log.Info("overdue sweep finished",
		zap.Int64("marked", result.Marked),
		zap.Int("notified", result.Notified),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ProcessReminders sends a reminder for every pending installment due exactly
// daysBefore days from today. The per-day notification log keeps a doubled
// run from sending twice.
func (s *Scheduler) ProcessReminders(ctx context.Context, daysBefore int) (ReminderResult, error) {
	today := clock.Today(s.clock)
	now := s.clock.Now()
	targetDay := today.AddDate(0, 0, daysBefore)

	rows, err := s.installmentRepo.FindPendingDueOn(ctx, s.db, targetDay)
	if err != nil {
		return ReminderResult{}, err
	}

	result := ReminderResult{Found: len(rows)}
	for _, row := range rows {
		sent, err := s.notifierRepo.SentOn(ctx, s.db, row.ID, notifierdomain.NotificationTypeReminder, today)
		if err != nil {
			s.log.Error("reminder dedupe check failed",
				zap.String("installment_id", row.ID.String()),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		if sent {
			continue
		}

		notice, ok := s.buildNotice(ctx, row)
		if !ok {
			result.Failed++
			continue
		}

		sendErr := s.notifier.SendReminder(ctx, notice)
		s.recordNotification(ctx, row.ID, notifierdomain.NotificationTypeReminder, notice.Recipient, today, now, sendErr)
		if sendErr != nil {
			s.log.Error("reminder delivery failed",
				zap.String("installment_id", row.ID.String()),
				zap.Error(sendErr),
			)
			result.Failed++
			continue
		}
		result.Sent++
	}

	s.log.Info("reminder pass finished",
		zap.Int("days_before", daysBefore),
		zap.Int("found", result.Found),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// reminderWindows resolves the active reminder policy: the hot-reloaded file
// when present, otherwise the single env-configured window.
func (s *Scheduler) reminderWindows() []config.ReminderWindow {
	if s.policy != nil {
		return s.policy.Get().Windows
	}
	return []config.ReminderWindow{{Label: "default", DaysBefore: s.cfg.ReminderDaysAhead}}
}

// RunOnce executes both sweeps, used by the cron entries and by operators
// triggering a manual catch-up run.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var errs error

	errs = errors.Join(errs, s.runJob(parent, "mark_overdue", func(ctx context.Context) error {
		_, err := s.MarkOverdueInstallments(ctx)
		return err
	}))

	for _, window := range s.reminderWindows() {
		window := window
		errs = errors.Join(errs, s.runJob(parent, "reminders", func(ctx context.Context) error {
			_, err := s.ProcessReminders(ctx, window.DaysBefore)
			return err
		}))
	}

	return errs
}

func (s *Scheduler) notifyOverdue(ctx context.Context, row installmentdomain.Installment, today, now time.Time) bool {
	sent, err := s.notifierRepo.SentOn(ctx, s.db, row.ID, notifierdomain.NotificationTypeOverdue, today)
	if err != nil {
		s.log.Error("overdue dedupe check failed",
			zap.String("installment_id", row.ID.String()),
			zap.Error(err),
		)
		return false
	}
	if sent {
		return true
	}

	notice, ok := s.buildNotice(ctx, row)
	if !ok {
		return false
	}

	sendErr := s.notifier.SendOverdueNotification(ctx, notice)
	s.recordNotification(ctx, row.ID, notifierdomain.NotificationTypeOverdue, notice.Recipient, today, now, sendErr)
	if sendErr != nil {
		s.log.Error("overdue notification failed",
			zap.String("installment_id", row.ID.String()),
			zap.Error(sendErr),
		)
		return false
	}
	return true
}

func (s *Scheduler) buildNotice(ctx context.Context, row installmentdomain.Installment) (notifierdomain.Notice, bool) {
	project, err := s.projectRepo.FindByID(ctx, s.db, row.ProjectID)
	if err != nil || project == nil {
		s.log.Error("project lookup failed for notification",
			zap.String("installment_id", row.ID.String()),
			zap.String("project_id", row.ProjectID.String()),
			zap.Error(err),
		)
		return notifierdomain.Notice{}, false
	}
	return notifierdomain.Notice{
		ProjectID:         project.ID,
		ProjectName:       project.Name,
		InstallmentID:     row.ID,
		InstallmentNumber: row.InstallmentNumber,
		Recipient:         project.ContactEmail,
		DueDate:           row.DueDate,
		Amount:            row.Amount,
	}, true
}

// recordNotification writes the delivery log row. A duplicate-key failure
// means a concurrent sweep already recorded this day's attempt; anything else
// is logged and dropped so the sweep keeps going.
func (s *Scheduler) recordNotification(ctx context.Context, installmentID snowflake.ID, kind notifierdomain.NotificationType, recipient string, day, now time.Time, sendErr error) {
	status := notifierdomain.NotificationStatusSent
	message := ""
	if sendErr != nil {
		status = notifierdomain.NotificationStatusFailed
		message = sendErr.Error()
	}

	metrics.IncNotification(string(kind), string(status))

	entry := notifierdomain.NotificationLog{
		ID:            s.genID.Generate(),
		InstallmentID: installmentID,
		Type:          kind,
		Recipient:     recipient,
		Status:        status,
		ErrorMessage:  message,
		SentDate:      day,
		SentAt:        now,
	}
	if err := s.notifierRepo.Insert(ctx, s.db, &entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Debug("notification already recorded today",
				zap.String("installment_id", installmentID.String()),
				zap.String("type", string(kind)),
			)
			return
		}
		s.log.Error("notification log insert failed",
			zap.String("installment_id", installmentID.String()),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
	}
}
