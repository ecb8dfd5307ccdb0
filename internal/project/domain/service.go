package domain

import (
	"context"
	"time"

	"github.com/operisapp/billing/internal/errdef"
)

// Audit actions emitted after a successful plan or start-date change.
const (
	ActionPlanChanged      = "BILLING_PLAN_CHANGED"
	ActionStartDateChanged = "BILLING_START_DATE_CHANGED"
)

type CreateProjectRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// EnrollRequest puts a project on its first plan. StartDate is optional and
// defaults to today.
type EnrollRequest struct {
	ProjectID string     `json:"project_id"`
	PlanID    string     `json:"plan_id"`
	StartDate *time.Time `json:"start_date,omitempty"`
	ChangedBy *string    `json:"changed_by,omitempty"`
}

type ChangePlanRequest struct {
	ProjectID    string     `json:"project_id"`
	NewPlanID    string     `json:"new_plan_id"`
	NewStartDate *time.Time `json:"new_start_date,omitempty"`
	ChangeReason string     `json:"change_reason,omitempty"`
	ChangedBy    *string    `json:"changed_by,omitempty"`
}

type ChangeStartDateRequest struct {
	ProjectID    string    `json:"project_id"`
	NewStartDate time.Time `json:"new_start_date"`
	ChangeReason string    `json:"change_reason,omitempty"`
	ChangedBy    *string   `json:"changed_by,omitempty"`
}

// ChangeResult reports what a plan or start-date change produced.
type ChangeResult struct {
	OldPlanID      *string `json:"old_plan_id,omitempty"`
	NewPlanID      string  `json:"new_plan_id"`
	CanceledCount  int64   `json:"canceled_count"`
	NewCount       int     `json:"new_count"`
	LastPaidNumber int     `json:"last_paid_number"`
	EffectiveDate  string  `json:"effective_date"`
}

type ListProjectRequest struct {
	BillingStatus string
	PlanID        string
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context, req ListProjectRequest) ([]Project, error)
	Enroll(ctx context.Context, req EnrollRequest) (ChangeResult, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (ChangeResult, error)
	ChangeStartDate(ctx context.Context, req ChangeStartDateRequest) (ChangeResult, error)
	GetPlanHistory(ctx context.Context, projectID string) ([]ProjectPlanHistory, error)
}

var (
	ErrInvalidProjectID       = errdef.Validation("invalid_project_id")
	ErrInvalidProjectName     = errdef.Validation("invalid_project_name")
	ErrInvalidStartDate       = errdef.Validation("invalid_start_date")
	ErrInvalidBillingStatus   = errdef.Validation("invalid_billing_status")
	ErrProjectNotFound        = errdef.NotFound("project_not_found")
	ErrProjectAlreadyEnrolled = errdef.Conflict("project_already_enrolled")
	ErrProjectNotEnrolled     = errdef.Conflict("project_not_enrolled")
	ErrProjectClosed          = errdef.Conflict("project_closed")
)
