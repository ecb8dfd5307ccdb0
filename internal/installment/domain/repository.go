package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, installments []Installment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Installment, error)
	FindByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]Installment, error)
	FindUpcoming(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]Installment, error)
	FindOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]Installment, error)
	FindPendingDueBefore(ctx context.Context, db *gorm.DB, day time.Time) ([]Installment, error)
	FindPendingDueOn(ctx context.Context, db *gorm.DB, day time.Time) ([]Installment, error)
	LastPaidNumber(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (int, error)
	CancelOpenByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID, now time.Time) (int64, error)
	MarkOverdueDueBefore(ctx context.Context, db *gorm.DB, day, now time.Time) (int64, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InstallmentStatus, now time.Time) error

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindPaymentsByInstallment(ctx context.Context, db *gorm.DB, installmentID snowflake.ID) ([]Payment, error)
	UpdatePayment(ctx context.Context, db *gorm.DB, payment *Payment) error
}
