package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/operisapp/billing/internal/audit/domain"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	"github.com/operisapp/billing/internal/clock"
	"github.com/operisapp/billing/internal/errdef"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	"github.com/operisapp/billing/internal/schedule"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            projectdomain.Repository
	planRepo        plandomain.Repository
	catalogRepo     catalogdomain.Repository
	installmentRepo installmentdomain.Repository
	audit           auditdomain.Service
}

type ServiceParam struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Repo            projectdomain.Repository
	PlanRepo        plandomain.Repository
	CatalogRepo     catalogdomain.Repository
	InstallmentRepo installmentdomain.Repository
	Audit           auditdomain.Service
}

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("project.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		planRepo:        p.PlanRepo,
		catalogRepo:     p.CatalogRepo,
		installmentRepo: p.InstallmentRepo,
		audit:           p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req projectdomain.CreateProjectRequest) (projectdomain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return projectdomain.Project{}, projectdomain.ErrInvalidProjectName
	}

	now := s.clock.Now()
	project := projectdomain.Project{
		ID:            s.genID.Generate(),
		Name:          name,
		ContactEmail:  strings.TrimSpace(req.ContactEmail),
		BillingStatus: projectdomain.BillingStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &project); err != nil {
		return projectdomain.Project{}, err
	}
	return project, nil
}

func (s *Service) Get(ctx context.Context, id string) (projectdomain.Project, error) {
	projectID, err := s.parseID(id)
	if err != nil {
		return projectdomain.Project{}, err
	}

	project, err := s.repo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return projectdomain.Project{}, err
	}
	if project == nil {
		return projectdomain.Project{}, projectdomain.ErrProjectNotFound
	}
	return *project, nil
}

func (s *Service) List(ctx context.Context, req projectdomain.ListProjectRequest) ([]projectdomain.Project, error) {
	f := projectdomain.ListProjectFilter{}
	if req.BillingStatus != "" {
		status := projectdomain.BillingStatus(req.BillingStatus)
		switch status {
		case projectdomain.BillingStatusActive, projectdomain.BillingStatusSuspended, projectdomain.BillingStatusClosed:
			f.BillingStatus = status
		default:
			return nil, projectdomain.ErrInvalidBillingStatus
		}
	}
	if req.PlanID != "" {
		planID, err := snowflake.ParseString(req.PlanID)
		if err != nil {
			return nil, plandomain.ErrInvalidPlanID
		}
		f.PlanID = &planID
	}
	return s.repo.List(ctx, s.db, f)
}

// Enroll puts an unenrolled project on its first plan and generates the full
// schedule from installment number 1.
func (s *Service) Enroll(ctx context.Context, req projectdomain.EnrollRequest) (projectdomain.ChangeResult, error) {
	projectID, err := s.parseID(req.ProjectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil || planID == 0 {
		return projectdomain.ChangeResult{}, plandomain.ErrInvalidPlanID
	}

	project, err := s.repo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	if project == nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectNotFound
	}
	if project.BillingStatus == projectdomain.BillingStatusClosed {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectClosed
	}
	if project.CurrentPlanID != nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectAlreadyEnrolled
	}

	return s.applyChange(ctx, project, planID, req.StartDate, "enrollment", req.ChangedBy)
}

// ChangePlan moves an enrolled project to a new plan. Paid installments stay
// untouched, open ones are canceled, and the new plan's schedule continues
// the numbering after the highest paid installment.
func (s *Service) ChangePlan(ctx context.Context, req projectdomain.ChangePlanRequest) (projectdomain.ChangeResult, error) {
	projectID, err := s.parseID(req.ProjectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	planID, err := snowflake.ParseString(strings.TrimSpace(req.NewPlanID))
	if err != nil || planID == 0 {
		return projectdomain.ChangeResult{}, plandomain.ErrInvalidPlanID
	}

	project, err := s.repo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	if project == nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectNotFound
	}
	if project.BillingStatus == projectdomain.BillingStatusClosed {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectClosed
	}
	if project.CurrentPlanID == nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectNotEnrolled
	}

	return s.applyChange(ctx, project, planID, req.NewStartDate, req.ChangeReason, req.ChangedBy)
}

// ChangeStartDate re-anchors the current plan's cadence on a new date. It is
// the same regeneration as a plan change, with the plan held constant.
func (s *Service) ChangeStartDate(ctx context.Context, req projectdomain.ChangeStartDateRequest) (projectdomain.ChangeResult, error) {
	projectID, err := s.parseID(req.ProjectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	if req.NewStartDate.IsZero() {
		return projectdomain.ChangeResult{}, projectdomain.ErrInvalidStartDate
	}

	project, err := s.repo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	if project == nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectNotFound
	}
	if project.BillingStatus == projectdomain.BillingStatusClosed {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectClosed
	}
	if project.CurrentPlanID == nil {
		return projectdomain.ChangeResult{}, projectdomain.ErrProjectNotEnrolled
	}

	startDate := req.NewStartDate
	return s.applyChange(ctx, project, *project.CurrentPlanID, &startDate, req.ChangeReason, req.ChangedBy)
}

func (s *Service) GetPlanHistory(ctx context.Context, projectID string) ([]projectdomain.ProjectPlanHistory, error) {
	id, err := s.parseID(projectID)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrProjectNotFound
	}
	return s.repo.FindHistoryByProject(ctx, s.db, id)
}

// applyChange runs the regeneration transaction shared by enrollment, plan
// changes and start-date changes: record history, repoint the project, cancel
// open installments and insert the continuation schedule. Any step failing
// rolls the whole change back.
func (s *Service) applyChange(ctx context.Context, project *projectdomain.Project, planID snowflake.ID, startDate *time.Time, reason string, changedBy *string) (projectdomain.ChangeResult, error) {
	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if err != nil {
		return projectdomain.ChangeResult{}, err
	}
	if plan == nil {
		return projectdomain.ChangeResult{}, plandomain.ErrPlanNotFound
	}
	if plan.Status == plandomain.PlanStatusArchived {
		return projectdomain.ChangeResult{}, plandomain.ErrPlanArchived
	}

	// Without an explicit date the change keeps the existing anchor, falling
	// back to today on first enrollment.
	now := s.clock.Now()
	effective := clock.Today(s.clock)
	defaulted := startDate == nil
	if startDate == nil {
		startDate = project.StartDate
	}
	if startDate != nil {
		effective = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	}

	oldPlanID := project.CurrentPlanID
	oldStartDate := project.StartDate

	history := projectdomain.ProjectPlanHistory{
		ID:           s.genID.Generate(),
		ProjectID:    project.ID,
		OldPlanID:    oldPlanID,
		NewPlanID:    planID,
		OldStartDate: oldStartDate,
		NewStartDate: effective,
		ChangeReason: strings.TrimSpace(reason),
		ChangedBy:    changedBy,
		CreatedAt:    now,
	}

	var (
		canceled int64
		lastPaid int
		rows     []installmentdomain.Installment
	)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertHistory(ctx, tx, &history); err != nil {
			return err
		}

		project.CurrentPlanID = &planID
		project.StartDate = &effective
		project.UpdatedAt = now
		if err := s.repo.UpdateEnrollment(ctx, tx, project); err != nil {
			return err
		}

		lastPaid, err = s.installmentRepo.LastPaidNumber(ctx, tx, project.ID)
		if err != nil {
			return err
		}

		canceled, err = s.installmentRepo.CancelOpenByProject(ctx, tx, project.ID, now)
		if err != nil {
			return err
		}

		services, err := s.catalogRepo.ListAttachedByProject(ctx, tx, project.ID)
		if err != nil {
			return err
		}

		// A defaulted date means the old anchor carries over; the continuation
		// epoch starts one period per paid installment past it, so the cadence
		// resumes where it left off instead of reissuing dates already paid.
		anchor := effective
		if defaulted {
			anchor = schedule.Advance(effective, plan.Frequency, lastPaid)
		}

		rows = schedule.Build(schedule.BuildInput{
			ProjectID:      project.ID,
			Plan:           *plan,
			Services:       services,
			StartDate:      anchor,
			LastPaidNumber: lastPaid,
		})
		for i := range rows {
			rows[i].ID = s.genID.Generate()
			rows[i].CreatedAt = now
			rows[i].UpdatedAt = now
		}
		if len(rows) == 0 {
			return nil
		}
		return s.installmentRepo.Insert(ctx, tx, rows)
	}); err != nil {
		return projectdomain.ChangeResult{}, errdef.Transaction(err)
	}

	s.log.Info("plan change applied",
		zap.String("project_id", project.ID.String()),
		zap.String("new_plan_id", planID.String()),
		zap.Int64("canceled", canceled),
		zap.Int("generated", len(rows)),
		zap.Int("last_paid_number", lastPaid),
	)

	s.emitAudit(ctx, project, oldPlanID, planID, effective, changedBy, canceled, len(rows))

	result := projectdomain.ChangeResult{
		NewPlanID:      planID.String(),
		CanceledCount:  canceled,
		NewCount:       len(rows),
		LastPaidNumber: lastPaid,
		EffectiveDate:  effective.Format("2006-01-02"),
	}
	if oldPlanID != nil {
		old := oldPlanID.String()
		result.OldPlanID = &old
	}
	return result, nil
}

// emitAudit runs after commit. Audit failures are logged, never propagated.
func (s *Service) emitAudit(ctx context.Context, project *projectdomain.Project, oldPlanID *snowflake.ID, newPlanID snowflake.ID, effective time.Time, changedBy *string, canceled int64, generated int) {
	action := projectdomain.ActionStartDateChanged
	if oldPlanID == nil || *oldPlanID != newPlanID {
		action = projectdomain.ActionPlanChanged
	}

	metadata := map[string]any{
		"new_plan_id":    newPlanID.String(),
		"effective_date": effective.Format("2006-01-02"),
		"canceled_count": canceled,
		"new_count":      generated,
	}
	if oldPlanID != nil {
		metadata["old_plan_id"] = oldPlanID.String()
	}

	targetID := project.ID.String()
	if err := s.audit.Log(ctx, action, "project", &targetID, changedBy, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, projectdomain.ErrInvalidProjectID
	}
	return id, nil
}
