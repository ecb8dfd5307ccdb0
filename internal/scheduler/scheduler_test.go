package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/operisapp/billing/internal/clock"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	installmentrepository "github.com/operisapp/billing/internal/installment/repository"
	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	notifierrepository "github.com/operisapp/billing/internal/notifier/repository"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	projectrepository "github.com/operisapp/billing/internal/project/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	reminders []notifierdomain.Notice
	overdues  []notifierdomain.Notice
	fail      bool
}

func (f *fakeNotifier) SendReminder(ctx context.Context, notice notifierdomain.Notice) error {
	if f.fail {
		return errors.New("smtp unreachable")
	}
	f.reminders = append(f.reminders, notice)
	return nil
}

func (f *fakeNotifier) SendOverdueNotification(ctx context.Context, notice notifierdomain.Notice) error {
	if f.fail {
		return errors.New("smtp unreachable")
	}
	f.overdues = append(f.overdues, notice)
	return nil
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	notifier *fakeNotifier
	sched    *Scheduler
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&projectdomain.Project{},
		&installmentdomain.Installment{},
		&notifierdomain.NotificationLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(now)
	notifier := &fakeNotifier{}

	sched, err := New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		GenID:           node,
		Clock:           clk,
		InstallmentRepo: installmentrepository.Provide(),
		ProjectRepo:     projectrepository.Provide(),
		NotifierRepo:    notifierrepository.Provide(),
		Notifier:        notifier,
	})
	require.NoError(t, err)

	return &fixture{db: db, node: node, clk: clk, notifier: notifier, sched: sched}
}

func (f *fixture) seedProject(t *testing.T) projectdomain.Project {
	t.Helper()
	now := f.clk.Now()
	project := projectdomain.Project{
		ID:            f.node.Generate(),
		Name:          "Acme Website",
		ContactEmail:  "billing@acme.test",
		BillingStatus: projectdomain.BillingStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.db.Create(&project).Error)
	return project
}

func (f *fixture) seedInstallment(t *testing.T, projectID snowflake.ID, number int, due time.Time, status installmentdomain.InstallmentStatus) installmentdomain.Installment {
	t.Helper()
	now := f.clk.Now()
	row := installmentdomain.Installment{
		ID:                f.node.Generate(),
		ProjectID:         projectID,
		PlanID:            f.node.Generate(),
		InstallmentNumber: number,
		DueDate:           due,
		Amount:            100,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.db.Create(&row).Error)
	return row
}

func TestMarkOverdueSweep(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)

	pastDue := f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)
	dueToday := f.seedInstallment(t, project.ID, 2, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)
	future := f.seedInstallment(t, project.ID, 3, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	result, err := f.sched.MarkOverdueInstallments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Marked)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, 0, result.Failed)

	var stored installmentdomain.Installment
	require.NoError(t, f.db.First(&stored, "id = ?", pastDue.ID).Error)
	assert.Equal(t, installmentdomain.InstallmentStatusOverdue, stored.Status)

	// Due today and future installments stay pending.
	var storedDueToday installmentdomain.Installment
	require.NoError(t, f.db.First(&storedDueToday, "id = ?", dueToday.ID).Error)
	assert.Equal(t, installmentdomain.InstallmentStatusPending, storedDueToday.Status)
	var storedFuture installmentdomain.Installment
	require.NoError(t, f.db.First(&storedFuture, "id = ?", future.ID).Error)
	assert.Equal(t, installmentdomain.InstallmentStatusPending, storedFuture.Status)

	require.Len(t, f.notifier.overdues, 1)
	assert.Equal(t, "billing@acme.test", f.notifier.overdues[0].Recipient)
	assert.Equal(t, pastDue.ID, f.notifier.overdues[0].InstallmentID)
}

func TestMarkOverdueSweepIdempotentSameDay(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)
	f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	first, err := f.sched.MarkOverdueInstallments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Marked)

	second, err := f.sched.MarkOverdueInstallments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Marked)
	assert.Equal(t, 0, second.Notified)

	require.Len(t, f.notifier.overdues, 1)
}

func TestMarkOverdueSkipsPaidInstallments(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)
	paid := f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPaid)

	result, err := f.sched.MarkOverdueInstallments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Marked)

	// A settled row is neither marked nor notified.
	assert.Equal(t, 0, result.Notified)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, f.notifier.overdues)

	var stored installmentdomain.Installment
	require.NoError(t, f.db.First(&stored, "id = ?", paid.ID).Error)
	assert.Equal(t, installmentdomain.InstallmentStatusPaid, stored.Status)
}

func TestProcessReminders(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)

	target := f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)
	f.seedInstallment(t, project.ID, 2, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	result, err := f.sched.ProcessReminders(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, f.notifier.reminders, 1)
	assert.Equal(t, target.ID, f.notifier.reminders[0].InstallmentID)
	assert.Equal(t, int64(100), f.notifier.reminders[0].Amount)

	var logs []notifierdomain.NotificationLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, notifierdomain.NotificationTypeReminder, logs[0].Type)
	assert.Equal(t, notifierdomain.NotificationStatusSent, logs[0].Status)
}

func TestProcessRemindersDedupesSameDay(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)
	f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	first, err := f.sched.ProcessReminders(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	second, err := f.sched.ProcessReminders(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Found)
	assert.Equal(t, 0, second.Sent)

	require.Len(t, f.notifier.reminders, 1)

	// The next day the reminder may fire again.
	f.clk.Set(time.Date(2024, 5, 11, 6, 0, 0, 0, time.UTC))
	third, err := f.sched.ProcessReminders(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Sent)
	require.Len(t, f.notifier.reminders, 2)
}

func TestProcessRemindersRecordsDeliveryFailure(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()
	project := f.seedProject(t)
	f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	f.notifier.fail = true
	result, err := f.sched.ProcessReminders(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Failed)

	var logs []notifierdomain.NotificationLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, notifierdomain.NotificationStatusFailed, logs[0].Status)
	assert.NotEmpty(t, logs[0].ErrorMessage)
}

func TestRunOnceCoversBothSweeps(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC))
	project := f.seedProject(t)
	f.seedInstallment(t, project.ID, 1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)
	f.seedInstallment(t, project.ID, 2, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), installmentdomain.InstallmentStatusPending)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Len(t, f.notifier.overdues, 1)
	assert.Len(t, f.notifier.reminders, 1)
}
