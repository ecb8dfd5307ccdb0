package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *plandomain.PaymentPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_plans (
			id, name, frequency, installment_count, contract_duration_months, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Name,
		plan.Frequency,
		plan.InstallmentCount,
		plan.ContractDurationMonths,
		plan.Status,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.PaymentPlan, error) {
	var plan plandomain.PaymentPlan
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM payment_plans WHERE id = ? LIMIT 1`, id).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status plandomain.PlanStatus) ([]plandomain.PaymentPlan, error) {
	var plans []plandomain.PaymentPlan
	query := `SELECT * FROM payment_plans`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status plandomain.PlanStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_plans SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	).Error
}
