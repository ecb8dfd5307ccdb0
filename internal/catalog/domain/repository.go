package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertService(ctx context.Context, db *gorm.DB, svc *BillingService) error
	UpdateService(ctx context.Context, db *gorm.DB, svc *BillingService) error
	FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingService, error)
	ListServices(ctx context.Context, db *gorm.DB, status ServiceStatus) ([]BillingService, error)
	UpdateServiceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ServiceStatus) error
	CountAttachments(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (int64, error)

	InsertAttachment(ctx context.Context, db *gorm.DB, ps *ProjectService) error
	DeleteAttachment(ctx context.Context, db *gorm.DB, projectID, serviceID snowflake.ID) (int64, error)
	FindAttachment(ctx context.Context, db *gorm.DB, projectID, serviceID snowflake.ID) (*ProjectService, error)
	ListAttachedByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]AttachedService, error)
}
