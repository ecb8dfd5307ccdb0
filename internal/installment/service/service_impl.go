package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/operisapp/billing/internal/clock"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  installmentdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  installmentdomain.Repository
}

func NewService(p ServiceParam) installmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("installment.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Pay(ctx context.Context, req installmentdomain.PayRequest) (installmentdomain.Payment, error) {
	installmentID, err := s.parseID(req.InstallmentID, installmentdomain.ErrInvalidInstallmentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if req.Amount <= 0 {
		return installmentdomain.Payment{}, installmentdomain.ErrInvalidAmount
	}

	installment, err := s.repo.FindByID(ctx, s.db, installmentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if installment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentNotFound
	}
	if installment.Status == installmentdomain.InstallmentStatusPaid {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentPaid
	}
	if !installmentdomain.CanTransition(installment.Status, installmentdomain.InstallmentStatusPaid) {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentCanceled
	}

	now := s.clock.Now()
	payment := installmentdomain.Payment{
		ID:            s.genID.Generate(),
		InstallmentID: installmentID,
		Amount:        req.Amount,
		Method:        strings.TrimSpace(req.Method),
		Reference:     strings.TrimSpace(req.Reference),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        installmentdomain.PaymentStatusApproved,
		PaymentDate:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, tx, installmentID, installmentdomain.InstallmentStatusPaid, now)
	}); err != nil {
		return installmentdomain.Payment{}, err
	}

	s.log.Info("installment paid",
		zap.String("installment_id", installmentID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Int64("amount", req.Amount),
	)

	return payment, nil
}

func (s *Service) Report(ctx context.Context, req installmentdomain.ReportPaymentRequest) (installmentdomain.Payment, error) {
	installmentID, err := s.parseID(req.InstallmentID, installmentdomain.ErrInvalidInstallmentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if req.Amount <= 0 {
		return installmentdomain.Payment{}, installmentdomain.ErrInvalidAmount
	}

	installment, err := s.repo.FindByID(ctx, s.db, installmentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if installment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentNotFound
	}
	if installment.Status == installmentdomain.InstallmentStatusPaid {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentPaid
	}

	now := s.clock.Now()
	payment := installmentdomain.Payment{
		ID:            s.genID.Generate(),
		InstallmentID: installmentID,
		Amount:        req.Amount,
		Method:        strings.TrimSpace(req.Method),
		Reference:     strings.TrimSpace(req.Reference),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        installmentdomain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertPayment(ctx, s.db, &payment); err != nil {
		return installmentdomain.Payment{}, err
	}

	return payment, nil
}

// Approve settles a reported payment. The installment goes to pagada
// regardless of amount reconciliation; partial balances are not modeled.
func (s *Service) Approve(ctx context.Context, paymentID string) (installmentdomain.Payment, error) {
	id, err := s.parseID(paymentID, installmentdomain.ErrInvalidPaymentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}

	payment, err := s.repo.FindPaymentByID(ctx, s.db, id)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if payment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrPaymentNotFound
	}
	if !installmentdomain.CanTransitionPayment(payment.Status, installmentdomain.PaymentStatusApproved) {
		return installmentdomain.Payment{}, installmentdomain.ErrPaymentResolved
	}

	// The installment may have reached a terminal state since the payment was
	// reported, e.g. canceled by a plan change.
	installment, err := s.repo.FindByID(ctx, s.db, payment.InstallmentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if installment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentNotFound
	}
	if installment.Status == installmentdomain.InstallmentStatusPaid {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentPaid
	}
	if !installmentdomain.CanTransition(installment.Status, installmentdomain.InstallmentStatusPaid) {
		return installmentdomain.Payment{}, installmentdomain.ErrInstallmentCanceled
	}

	now := s.clock.Now()
	payment.Status = installmentdomain.PaymentStatusApproved
	payment.PaymentDate = &now
	payment.UpdatedAt = now

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdatePayment(ctx, tx, payment); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, tx, payment.InstallmentID, installmentdomain.InstallmentStatusPaid, now)
	}); err != nil {
		return installmentdomain.Payment{}, err
	}

	return *payment, nil
}

// Reject leaves the installment in its prior status: still collectible.
func (s *Service) Reject(ctx context.Context, paymentID, reason string) (installmentdomain.Payment, error) {
	id, err := s.parseID(paymentID, installmentdomain.ErrInvalidPaymentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return installmentdomain.Payment{}, installmentdomain.ErrInvalidRejectionReason
	}

	payment, err := s.repo.FindPaymentByID(ctx, s.db, id)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if payment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrPaymentNotFound
	}
	if !installmentdomain.CanTransitionPayment(payment.Status, installmentdomain.PaymentStatusRejected) {
		return installmentdomain.Payment{}, installmentdomain.ErrPaymentResolved
	}

	now := s.clock.Now()
	payment.Status = installmentdomain.PaymentStatusRejected
	payment.RejectionReason = reason
	payment.UpdatedAt = now

	if err := s.repo.UpdatePayment(ctx, s.db, payment); err != nil {
		return installmentdomain.Payment{}, err
	}

	return *payment, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (installmentdomain.Installment, error) {
	installmentID, err := s.parseID(id, installmentdomain.ErrInvalidInstallmentID)
	if err != nil {
		return installmentdomain.Installment{}, err
	}

	installment, err := s.repo.FindByID(ctx, s.db, installmentID)
	if err != nil {
		return installmentdomain.Installment{}, err
	}
	if installment == nil {
		return installmentdomain.Installment{}, installmentdomain.ErrInstallmentNotFound
	}

	return *installment, nil
}

func (s *Service) GetByProject(ctx context.Context, projectID string) ([]installmentdomain.Installment, error) {
	id, err := s.parseID(projectID, installmentdomain.ErrInvalidInstallmentID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByProject(ctx, s.db, id)
}

func (s *Service) GetUpcoming(ctx context.Context, req installmentdomain.UpcomingRequest) ([]installmentdomain.Installment, error) {
	if req.Days < 0 {
		return nil, installmentdomain.ErrInvalidWindow
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	today := clock.Today(s.clock)
	return s.repo.FindUpcoming(ctx, s.db, today, today.AddDate(0, 0, req.Days), limit)
}

func (s *Service) GetOverdue(ctx context.Context, limit int) ([]installmentdomain.Installment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.FindOverdue(ctx, s.db, clock.Today(s.clock), limit)
}

func (s *Service) GetPayments(ctx context.Context, installmentID string) ([]installmentdomain.Payment, error) {
	id, err := s.parseID(installmentID, installmentdomain.ErrInvalidInstallmentID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindPaymentsByInstallment(ctx, s.db, id)
}

func (s *Service) GetPaymentByID(ctx context.Context, id string) (installmentdomain.Payment, error) {
	paymentID, err := s.parseID(id, installmentdomain.ErrInvalidPaymentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}

	payment, err := s.repo.FindPaymentByID(ctx, s.db, paymentID)
	if err != nil {
		return installmentdomain.Payment{}, err
	}
	if payment == nil {
		return installmentdomain.Payment{}, installmentdomain.ErrPaymentNotFound
	}

	return *payment, nil
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
