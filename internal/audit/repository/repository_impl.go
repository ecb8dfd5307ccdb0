package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/operisapp/billing/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (
			id, action, target_type, target_id, actor_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.ActorID,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req auditdomain.ListAuditLogRequest, afterID snowflake.ID, limit int) ([]auditdomain.AuditLog, error) {
	query := `SELECT * FROM audit_logs WHERE 1=1`
	args := []any{}

	if req.Action != "" {
		query += ` AND action = ?`
		args = append(args, req.Action)
	}
	if req.TargetType != "" {
		query += ` AND target_type = ?`
		args = append(args, req.TargetType)
	}
	if req.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, req.TargetID)
	}
	if afterID != 0 {
		query += ` AND id < ?`
		args = append(args, afterID)
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var entries []auditdomain.AuditLog
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
