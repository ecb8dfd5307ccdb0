package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Notifier is the outbound email/notification collaborator. Implementations
// return an error on delivery failure; callers log and record the failure,
// they never let it abort a sweep or revert a status change.
type Notifier interface {
	SendReminder(ctx context.Context, notice Notice) error
	SendOverdueNotification(ctx context.Context, notice Notice) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *NotificationLog) error
	SentOn(ctx context.Context, db *gorm.DB, installmentID snowflake.ID, kind NotificationType, day time.Time) (bool, error)
	ListByInstallment(ctx context.Context, db *gorm.DB, installmentID snowflake.ID) ([]NotificationLog, error)
}
