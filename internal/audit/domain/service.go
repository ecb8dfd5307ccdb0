package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/operisapp/billing/internal/errdef"
	"github.com/operisapp/billing/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Log appends one event. Callers treat it as fire-and-forget: a logging
	// failure is reported but must never fail the business operation.
	Log(ctx context.Context, action, targetType string, targetID *string, actorID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListAuditLogRequest, afterID snowflake.ID, limit int) ([]AuditLog, error)
}

var (
	ErrInvalidAction    = errdef.Validation("invalid_action")
	ErrInvalidPageToken = errdef.Validation("invalid_page_token")
)
