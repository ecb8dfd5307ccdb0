package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListProjectFilter struct {
	BillingStatus BillingStatus
	PlanID        *snowflake.ID
	Limit         int
	Offset        int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	List(ctx context.Context, db *gorm.DB, f ListProjectFilter) ([]Project, error)
	UpdateEnrollment(ctx context.Context, db *gorm.DB, project *Project) error

	InsertHistory(ctx context.Context, db *gorm.DB, row *ProjectPlanHistory) error
	FindHistoryByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]ProjectPlanHistory, error)
}
