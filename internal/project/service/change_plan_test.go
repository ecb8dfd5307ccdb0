package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/operisapp/billing/internal/audit/domain"
	auditrepository "github.com/operisapp/billing/internal/audit/repository"
	auditservice "github.com/operisapp/billing/internal/audit/service"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	catalogrepository "github.com/operisapp/billing/internal/catalog/repository"
	"github.com/operisapp/billing/internal/clock"
	"github.com/operisapp/billing/internal/errdef"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	installmentrepository "github.com/operisapp/billing/internal/installment/repository"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
	planrepository "github.com/operisapp/billing/internal/plan/repository"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	projectrepository "github.com/operisapp/billing/internal/project/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&plandomain.PaymentPlan{},
		&catalogdomain.BillingService{},
		&catalogdomain.ProjectService{},
		&projectdomain.Project{},
		&projectdomain.ProjectPlanHistory{},
		&installmentdomain.Installment{},
		&installmentdomain.Payment{},
		&auditdomain.AuditLog{},
	))
	return db
}

type fixture struct {
	db              *gorm.DB
	node            *snowflake.Node
	clk             *clock.FakeClock
	svc             projectdomain.Service
	planRepo        plandomain.Repository
	catalogRepo     catalogdomain.Repository
	installmentRepo installmentdomain.Repository
	projectRepo     projectdomain.Repository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(now)
	log := zap.NewNop()

	planRepo := planrepository.Provide()
	catalogRepo := catalogrepository.Provide()
	installmentRepo := installmentrepository.Provide()
	projectRepo := projectrepository.Provide()

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:              db,
		Log:             log,
		GenID:           node,
		Clock:           clk,
		Repo:            projectRepo,
		PlanRepo:        planRepo,
		CatalogRepo:     catalogRepo,
		InstallmentRepo: installmentRepo,
		Audit:           audit,
	})

	return &fixture{
		db:              db,
		node:            node,
		clk:             clk,
		svc:             svc,
		planRepo:        planRepo,
		catalogRepo:     catalogRepo,
		installmentRepo: installmentRepo,
		projectRepo:     projectRepo,
	}
}

func (f *fixture) createPlan(t *testing.T, name string, freq plandomain.Frequency, count int) plandomain.PaymentPlan {
	t.Helper()
	now := f.clk.Now()
	plan := plandomain.PaymentPlan{
		ID:               f.node.Generate(),
		Name:             name,
		Frequency:        freq,
		InstallmentCount: count,
		Status:           plandomain.PlanStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.planRepo.Insert(context.Background(), f.db, &plan))
	return plan
}

func (f *fixture) createProjectWithService(t *testing.T, priceMonthly int64) (projectdomain.Project, catalogdomain.BillingService) {
	t.Helper()
	ctx := context.Background()
	now := f.clk.Now()

	project := projectdomain.Project{
		ID:            f.node.Generate(),
		Name:          "Acme Website",
		BillingStatus: projectdomain.BillingStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.projectRepo.Insert(ctx, f.db, &project))

	svc := catalogdomain.BillingService{
		ID:           f.node.Generate(),
		Name:         "Hosting",
		PriceMonthly: priceMonthly,
		Status:       catalogdomain.ServiceStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.catalogRepo.InsertService(ctx, f.db, &svc))
	require.NoError(t, f.catalogRepo.InsertAttachment(ctx, f.db, &catalogdomain.ProjectService{
		ID:            f.node.Generate(),
		ProjectID:     project.ID,
		ServiceID:     svc.ID,
		Quantity:      1,
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))

	return project, svc
}

func installmentsByNumber(t *testing.T, db *gorm.DB, projectID snowflake.ID) map[int][]installmentdomain.Installment {
	t.Helper()
	var rows []installmentdomain.Installment
	require.NoError(t, db.Where("project_id = ?", projectID).Order("installment_number asc, id asc").Find(&rows).Error)
	byNumber := make(map[int][]installmentdomain.Installment)
	for _, row := range rows {
		byNumber[row.InstallmentNumber] = append(byNumber[row.InstallmentNumber], row)
	}
	return byNumber
}

func TestEnrollGeneratesFullSchedule(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	plan := f.createPlan(t, "Basic Monthly", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	result, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    plan.ID.String(),
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Nil(t, result.OldPlanID)
	assert.Equal(t, 3, result.NewCount)
	assert.Equal(t, 0, result.LastPaidNumber)
	assert.Equal(t, "2024-01-15", result.EffectiveDate)

	rows, err := f.installmentRepo.FindByProject(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i+1, row.InstallmentNumber)
		assert.Equal(t, int64(100), row.Amount)
		assert.Equal(t, installmentdomain.InstallmentStatusPending, row.Status)
		assert.Equal(t, start.AddDate(0, i, 0), row.DueDate.UTC())
	}

	stored, err := f.projectRepo.FindByID(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentPlanID)
	assert.Equal(t, plan.ID, *stored.CurrentPlanID)

	history, err := f.svc.GetPlanHistory(ctx, project.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldPlanID)
	assert.Equal(t, plan.ID, history[0].NewPlanID)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	plan := f.createPlan(t, "Basic Monthly", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    plan.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    plan.ID.String(),
	})
	assert.ErrorIs(t, err, projectdomain.ErrProjectAlreadyEnrolled)
}

func TestChangePlanPreservesPaidAndCancelsOpen(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	planA := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	planB := f.createPlan(t, "Plan B", plandomain.FrequencyMonthly, 5)
	project, _ := f.createProjectWithService(t, 100)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    planA.ID.String(),
		StartDate: &start,
	})
	require.NoError(t, err)

	// Installment #1 gets paid before the change.
	original, err := f.installmentRepo.FindByProject(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.Len(t, original, 3)
	require.NoError(t, f.installmentRepo.UpdateStatus(
		ctx, f.db, original[0].ID, installmentdomain.InstallmentStatusPaid, f.clk.Now(),
	))

	// The service is repriced before moving to the new plan.
	require.NoError(t, f.db.Exec(
		`UPDATE project_services SET custom_price = ? WHERE project_id = ?`, 150, project.ID,
	).Error)

	f.clk.Set(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	newStart := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	result, err := f.svc.ChangePlan(ctx, projectdomain.ChangePlanRequest{
		ProjectID:    project.ID.String(),
		NewPlanID:    planB.ID.String(),
		NewStartDate: &newStart,
		ChangeReason: "upgrade",
	})
	require.NoError(t, err)
	require.NotNil(t, result.OldPlanID)
	assert.Equal(t, planA.ID.String(), *result.OldPlanID)
	assert.Equal(t, planB.ID.String(), result.NewPlanID)
	assert.Equal(t, int64(2), result.CanceledCount)
	assert.Equal(t, 4, result.NewCount)
	assert.Equal(t, 1, result.LastPaidNumber)

	byNumber := installmentsByNumber(t, f.db, project.ID)

	// Paid installment #1 is untouched.
	require.Len(t, byNumber[1], 1)
	assert.Equal(t, installmentdomain.InstallmentStatusPaid, byNumber[1][0].Status)
	assert.Equal(t, int64(100), byNumber[1][0].Amount)
	assert.Equal(t, planA.ID, byNumber[1][0].PlanID)

	// Old #2 and #3 are canceled; new #2 and #3 are pending under plan B.
	for _, number := range []int{2, 3} {
		require.Len(t, byNumber[number], 2, "installment #%d", number)
		var statuses []installmentdomain.InstallmentStatus
		for _, row := range byNumber[number] {
			statuses = append(statuses, row.Status)
		}
		assert.ElementsMatch(t, []installmentdomain.InstallmentStatus{
			installmentdomain.InstallmentStatusCanceled,
			installmentdomain.InstallmentStatusPending,
		}, statuses)
	}

	// The continuation runs #2 through #5, monthly from the new start date.
	for offset, number := range []int{2, 3, 4, 5} {
		var row *installmentdomain.Installment
		for i := range byNumber[number] {
			if byNumber[number][i].Status == installmentdomain.InstallmentStatusPending {
				row = &byNumber[number][i]
			}
		}
		require.NotNil(t, row, "pending installment #%d", number)
		assert.Equal(t, planB.ID, row.PlanID)
		assert.Equal(t, int64(150), row.Amount)
		assert.Equal(t, newStart.AddDate(0, offset, 0), row.DueDate.UTC())
	}

	history, err := f.svc.GetPlanHistory(ctx, project.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first.
	last := history[0]
	require.NotNil(t, last.OldPlanID)
	assert.Equal(t, planA.ID, *last.OldPlanID)
	assert.Equal(t, planB.ID, last.NewPlanID)
	assert.Equal(t, newStart, last.NewStartDate.UTC())
	assert.Equal(t, "upgrade", last.ChangeReason)

	var auditCount int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", projectdomain.ActionPlanChanged).Count(&auditCount).Error)
	assert.Equal(t, int64(1), auditCount)
}

func TestChangePlanWithoutDateContinuesCadence(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	planA := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	planB := f.createPlan(t, "Plan B", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    planA.ID.String(),
		StartDate: &start,
	})
	require.NoError(t, err)

	original, err := f.installmentRepo.FindByProject(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.Len(t, original, 3)
	require.NoError(t, f.installmentRepo.UpdateStatus(
		ctx, f.db, original[0].ID, installmentdomain.InstallmentStatusPaid, f.clk.Now(),
	))

	// No explicit date: the enrollment anchor carries over and the
	// continuation picks up one period after the last paid installment.
	f.clk.Set(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
	result, err := f.svc.ChangePlan(ctx, projectdomain.ChangePlanRequest{
		ProjectID:    project.ID.String(),
		NewPlanID:    planB.ID.String(),
		ChangeReason: "switch",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.LastPaidNumber)
	assert.Equal(t, 2, result.NewCount)

	byNumber := installmentsByNumber(t, f.db, project.ID)
	for offset, number := range []int{2, 3} {
		var row *installmentdomain.Installment
		for i := range byNumber[number] {
			if byNumber[number][i].Status == installmentdomain.InstallmentStatusPending {
				row = &byNumber[number][i]
			}
		}
		require.NotNil(t, row, "pending installment #%d", number)
		assert.Equal(t, planB.ID, row.PlanID)
		assert.Equal(t, start.AddDate(0, 1+offset, 0), row.DueDate.UTC())
	}

	// The recorded anchor is still the enrollment start, not the advanced one.
	stored, err := f.projectRepo.FindByID(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.StartDate)
	assert.Equal(t, start, stored.StartDate.UTC())
}

func TestChangePlanUnknownPlanLeavesScheduleIntact(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	planA := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    planA.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.ChangePlan(ctx, projectdomain.ChangePlanRequest{
		ProjectID: project.ID.String(),
		NewPlanID: f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, plandomain.ErrPlanNotFound)

	rows, err := f.installmentRepo.FindByProject(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, installmentdomain.InstallmentStatusPending, row.Status)
	}
}

func TestChangePlanRequiresEnrollment(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	planA := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	_, err := f.svc.ChangePlan(ctx, projectdomain.ChangePlanRequest{
		ProjectID: project.ID.String(),
		NewPlanID: planA.ID.String(),
	})
	assert.ErrorIs(t, err, projectdomain.ErrProjectNotEnrolled)
}

func TestChangeStartDateKeepsPlanAndShiftsDates(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	plan := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	project, _ := f.createProjectWithService(t, 100)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    plan.ID.String(),
		StartDate: &start,
	})
	require.NoError(t, err)

	newStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := f.svc.ChangeStartDate(ctx, projectdomain.ChangeStartDateRequest{
		ProjectID:    project.ID.String(),
		NewStartDate: newStart,
	})
	require.NoError(t, err)
	assert.Equal(t, plan.ID.String(), result.NewPlanID)
	assert.Equal(t, int64(3), result.CanceledCount)
	assert.Equal(t, 3, result.NewCount)

	byNumber := installmentsByNumber(t, f.db, project.ID)
	for offset, number := range []int{1, 2, 3} {
		var pending *installmentdomain.Installment
		for i := range byNumber[number] {
			if byNumber[number][i].Status == installmentdomain.InstallmentStatusPending {
				pending = &byNumber[number][i]
			}
		}
		require.NotNil(t, pending, "pending installment #%d", number)
		assert.Equal(t, newStart.AddDate(0, offset, 0), pending.DueDate.UTC())
	}

	var auditCount int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", projectdomain.ActionStartDateChanged).Count(&auditCount).Error)
	assert.Equal(t, int64(1), auditCount)
}

func TestChangePlanFailureRollsBack(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	planA := f.createPlan(t, "Plan A", plandomain.FrequencyMonthly, 3)
	planB := f.createPlan(t, "Plan B", plandomain.FrequencyMonthly, 5)
	project, _ := f.createProjectWithService(t, 100)

	_, err := f.svc.Enroll(ctx, projectdomain.EnrollRequest{
		ProjectID: project.ID.String(),
		PlanID:    planA.ID.String(),
	})
	require.NoError(t, err)

	// Dropping the history table makes the first write of the change fail.
	require.NoError(t, f.db.Exec(`DROP TABLE project_plan_history`).Error)

	_, err = f.svc.ChangePlan(ctx, projectdomain.ChangePlanRequest{
		ProjectID: project.ID.String(),
		NewPlanID: planB.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, errdef.IsKind(err, errdef.KindTransaction))

	stored, err := f.projectRepo.FindByID(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentPlanID)
	assert.Equal(t, planA.ID, *stored.CurrentPlanID)

	rows, err := f.installmentRepo.FindByProject(ctx, f.db, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, installmentdomain.InstallmentStatusPending, row.Status)
		assert.Equal(t, planA.ID, row.PlanID)
	}
}
