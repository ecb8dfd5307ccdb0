package domain

import (
	"context"

	"github.com/operisapp/billing/internal/errdef"
)

type PayRequest struct {
	InstallmentID string `json:"installment_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type ReportPaymentRequest struct {
	InstallmentID string `json:"installment_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type UpcomingRequest struct {
	Days  int
	Limit int
}

type Service interface {
	// Pay records an admin-entered payment: the Payment is approved on
	// creation and the installment goes straight to pagada.
	Pay(ctx context.Context, req PayRequest) (Payment, error)
	// Report records a client-reported payment held pending approval; the
	// installment status is untouched until Approve.
	Report(ctx context.Context, req ReportPaymentRequest) (Payment, error)
	Approve(ctx context.Context, paymentID string) (Payment, error)
	Reject(ctx context.Context, paymentID, reason string) (Payment, error)

	GetByID(ctx context.Context, id string) (Installment, error)
	GetByProject(ctx context.Context, projectID string) ([]Installment, error)
	GetUpcoming(ctx context.Context, req UpcomingRequest) ([]Installment, error)
	GetOverdue(ctx context.Context, limit int) ([]Installment, error)
	GetPayments(ctx context.Context, installmentID string) ([]Payment, error)
	GetPaymentByID(ctx context.Context, id string) (Payment, error)
}

var (
	ErrInvalidInstallmentID   = errdef.Validation("invalid_installment_id")
	ErrInvalidPaymentID       = errdef.Validation("invalid_payment_id")
	ErrInvalidAmount          = errdef.Validation("invalid_amount")
	ErrInvalidRejectionReason = errdef.Validation("invalid_rejection_reason")
	ErrInvalidWindow          = errdef.Validation("invalid_window")
	ErrInstallmentNotFound    = errdef.NotFound("installment_not_found")
	ErrPaymentNotFound        = errdef.NotFound("payment_not_found")
	ErrInstallmentPaid        = errdef.Conflict("installment_already_paid")
	ErrInstallmentCanceled    = errdef.Conflict("installment_canceled")
	ErrPaymentResolved        = errdef.Conflict("payment_already_resolved")
)
