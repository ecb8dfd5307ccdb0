package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *PaymentPlan) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentPlan, error)
	List(ctx context.Context, db *gorm.DB, status PlanStatus) ([]PaymentPlan, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status PlanStatus) error
}
