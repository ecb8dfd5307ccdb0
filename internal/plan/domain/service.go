package domain

import (
	"context"

	"github.com/operisapp/billing/internal/errdef"
)

type CreatePlanRequest struct {
	Name                   string    `json:"name"`
	Frequency              Frequency `json:"frequency"`
	InstallmentCount       int       `json:"installment_count"`
	ContractDurationMonths int       `json:"contract_duration_months,omitempty"`
}

type ListPlanRequest struct {
	Status string
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (PaymentPlan, error)
	Get(ctx context.Context, id string) (PaymentPlan, error)
	List(ctx context.Context, req ListPlanRequest) ([]PaymentPlan, error)
	Archive(ctx context.Context, id string) error
}

var (
	ErrInvalidPlanID           = errdef.Validation("invalid_plan_id")
	ErrInvalidPlanName         = errdef.Validation("invalid_plan_name")
	ErrInvalidFrequency        = errdef.Validation("invalid_frequency")
	ErrInvalidInstallmentCount = errdef.Validation("invalid_installment_count")
	ErrInvalidPlanStatus       = errdef.Validation("invalid_plan_status")
	ErrPlanNotFound            = errdef.NotFound("plan_not_found")
	ErrPlanArchived            = errdef.Conflict("plan_archived")
)
