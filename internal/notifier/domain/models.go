// Package domain contains the notification contract and its delivery log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type NotificationType string

const (
	NotificationTypeReminder NotificationType = "reminder"
	NotificationTypeOverdue  NotificationType = "overdue"
)

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationLog records one delivery attempt, success or failure. The
// unique index over (installment_id, type, sent_date) is what makes the
// reminder sweep safe to run twice on the same day.
type NotificationLog struct {
	ID            snowflake.ID       `gorm:"primaryKey"`
	InstallmentID snowflake.ID       `gorm:"not null;uniqueIndex:ux_notification_per_day,priority:1"`
	Type          NotificationType   `gorm:"type:text;not null;uniqueIndex:ux_notification_per_day,priority:2"`
	Recipient     string             `gorm:"type:text"`
	Status        NotificationStatus `gorm:"type:text;not null"`
	ErrorMessage  string             `gorm:"type:text"`
	SentDate      time.Time          `gorm:"not null;uniqueIndex:ux_notification_per_day,priority:3"`
	SentAt        time.Time          `gorm:"not null"`
}

// TableName sets the database table name.
func (NotificationLog) TableName() string { return "notification_logs" }

// Notice carries everything a sender needs to compose one message.
type Notice struct {
	ProjectID         snowflake.ID
	ProjectName       string
	InstallmentID     snowflake.ID
	InstallmentNumber int
	Recipient         string
	DueDate           time.Time
	Amount            int64
}
