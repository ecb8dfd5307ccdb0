package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() installmentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, installments []installmentdomain.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	for _, row := range installments {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO installments (
				id, project_id, plan_id, installment_number, due_date, amount, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID,
			row.ProjectID,
			row.PlanID,
			row.InstallmentNumber,
			row.DueDate,
			row.Amount,
			row.Status,
			row.CreatedAt,
			row.UpdatedAt,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*installmentdomain.Installment, error) {
	var row installmentdomain.Installment
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM installments WHERE id = ? LIMIT 1`, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) FindByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]installmentdomain.Installment, error) {
	var rows []installmentdomain.Installment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM installments WHERE project_id = ? ORDER BY installment_number ASC, created_at ASC`,
		projectID,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindUpcoming(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]installmentdomain.Installment, error) {
	var rows []installmentdomain.Installment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM installments
		 WHERE status = ? AND due_date >= ? AND due_date <= ?
		 ORDER BY due_date ASC
		 LIMIT ?`,
		installmentdomain.InstallmentStatusPending,
		from,
		to,
		limit,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]installmentdomain.Installment, error) {
	var rows []installmentdomain.Installment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM installments
		 WHERE status = ? OR (status = ? AND due_date < ?)
		 ORDER BY due_date ASC
		 LIMIT ?`,
		installmentdomain.InstallmentStatusOverdue,
		installmentdomain.InstallmentStatusPending,
		asOf,
		limit,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindPendingDueBefore(ctx context.Context, db *gorm.DB, day time.Time) ([]installmentdomain.Installment, error) {
	var rows []installmentdomain.Installment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM installments WHERE status = ? AND due_date < ? ORDER BY due_date ASC`,
		installmentdomain.InstallmentStatusPending,
		day,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindPendingDueOn(ctx context.Context, db *gorm.DB, day time.Time) ([]installmentdomain.Installment, error) {
	var rows []installmentdomain.Installment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM installments WHERE status = ? AND due_date = ? ORDER BY due_date ASC`,
		installmentdomain.InstallmentStatusPending,
		day,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) LastPaidNumber(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (int, error) {
	var number *int
	if err := db.WithContext(ctx).Raw(
		`SELECT MAX(installment_number) FROM installments WHERE project_id = ? AND status = ?`,
		projectID,
		installmentdomain.InstallmentStatusPaid,
	).Scan(&number).Error; err != nil {
		return 0, err
	}
	if number == nil {
		return 0, nil
	}
	return *number, nil
}

// CancelOpenByProject closes the old epoch: every non-paid installment is
// marked cancelada. Paid rows are excluded by the predicate, never rewritten.
func (r *repo) CancelOpenByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE installments SET status = ?, updated_at = ?
		 WHERE project_id = ? AND status IN (?, ?)`,
		installmentdomain.InstallmentStatusCanceled,
		now,
		projectID,
		installmentdomain.InstallmentStatusPending,
		installmentdomain.InstallmentStatusOverdue,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkOverdueDueBefore(ctx context.Context, db *gorm.DB, day, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE installments SET status = ?, updated_at = ?
		 WHERE status = ? AND due_date < ?`,
		installmentdomain.InstallmentStatusOverdue,
		now,
		installmentdomain.InstallmentStatusPending,
		day,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status installmentdomain.InstallmentStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE installments SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		now,
		id,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *installmentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, installment_id, amount, method, reference, notes, status, rejection_reason, payment_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.InstallmentID,
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.Notes,
		payment.Status,
		payment.RejectionReason,
		payment.PaymentDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*installmentdomain.Payment, error) {
	var payment installmentdomain.Payment
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM payments WHERE id = ? LIMIT 1`, id).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindPaymentsByInstallment(ctx context.Context, db *gorm.DB, installmentID snowflake.ID) ([]installmentdomain.Payment, error) {
	var payments []installmentdomain.Payment
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE installment_id = ? ORDER BY created_at ASC`,
		installmentID,
	).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, payment *installmentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, rejection_reason = ?, payment_date = ?, updated_at = ? WHERE id = ?`,
		payment.Status,
		payment.RejectionReason,
		payment.PaymentDate,
		payment.UpdatedAt,
		payment.ID,
	).Error
}
