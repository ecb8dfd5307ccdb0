package domain

import (
	"context"

	"github.com/operisapp/billing/internal/errdef"
)

type CreateServiceRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PriceMonthly int64  `json:"price_monthly"`
	PriceYearly  int64  `json:"price_yearly"`
	PriceOneTime int64  `json:"price_one_time"`
}

type UpdateServiceRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PriceMonthly int64  `json:"price_monthly"`
	PriceYearly  int64  `json:"price_yearly"`
	PriceOneTime int64  `json:"price_one_time"`
}

type AttachServiceRequest struct {
	ProjectID     string        `json:"project_id"`
	ServiceID     string        `json:"service_id"`
	CustomPrice   *int64        `json:"custom_price,omitempty"`
	Quantity      int           `json:"quantity,omitempty"`
	BillingPeriod BillingPeriod `json:"billing_period"`
}

type Service interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (BillingService, error)
	UpdateService(ctx context.Context, req UpdateServiceRequest) (BillingService, error)
	ArchiveService(ctx context.Context, id string) error
	GetService(ctx context.Context, id string) (BillingService, error)
	ListServices(ctx context.Context, status string) ([]BillingService, error)

	AttachService(ctx context.Context, req AttachServiceRequest) (ProjectService, error)
	DetachService(ctx context.Context, projectID, serviceID string) error
	ListByProject(ctx context.Context, projectID string) ([]AttachedService, error)
}

var (
	ErrInvalidServiceID       = errdef.Validation("invalid_service_id")
	ErrInvalidServiceName     = errdef.Validation("invalid_service_name")
	ErrInvalidServicePrice    = errdef.Validation("invalid_service_price")
	ErrInvalidServiceStatus   = errdef.Validation("invalid_service_status")
	ErrInvalidProjectID       = errdef.Validation("invalid_project_id")
	ErrInvalidQuantity        = errdef.Validation("invalid_quantity")
	ErrInvalidBillingPeriod   = errdef.Validation("invalid_billing_period")
	ErrServiceNotFound        = errdef.NotFound("service_not_found")
	ErrAttachmentNotFound     = errdef.NotFound("attachment_not_found")
	ErrServiceArchived        = errdef.Conflict("service_archived")
	ErrServiceAlreadyAttached = errdef.Conflict("service_already_attached")
)
