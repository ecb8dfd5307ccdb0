package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	notifierdomain "github.com/operisapp/billing/internal/notifier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() notifierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *notifierdomain.NotificationLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notification_logs (
			id, installment_id, type, recipient, status, error_message, sent_date, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.InstallmentID,
		entry.Type,
		entry.Recipient,
		entry.Status,
		entry.ErrorMessage,
		entry.SentDate,
		entry.SentAt,
	).Error
}

func (r *repo) SentOn(ctx context.Context, db *gorm.DB, installmentID snowflake.ID, kind notifierdomain.NotificationType, day time.Time) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM notification_logs
		 WHERE installment_id = ? AND type = ? AND sent_date = ?`,
		installmentID,
		kind,
		day,
	).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByInstallment(ctx context.Context, db *gorm.DB, installmentID snowflake.ID) ([]notifierdomain.NotificationLog, error) {
	var entries []notifierdomain.NotificationLog
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM notification_logs WHERE installment_id = ? ORDER BY sent_at ASC`,
		installmentID,
	).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
