// Package domain contains the billing-relevant slice of projects and the
// append-only record of their plan changes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type BillingStatus string

const (
	BillingStatusActive    BillingStatus = "active"
	BillingStatusSuspended BillingStatus = "suspended"
	BillingStatusClosed    BillingStatus = "closed"
)

// Project is the billed entity. CurrentPlanID and StartDate are nil until the
// project is enrolled; afterwards only the plan change orchestrator mutates
// them.
type Project struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	Name          string        `gorm:"type:text;not null"`
	ContactEmail  string        `gorm:"type:text"`
	CurrentPlanID *snowflake.ID `gorm:"index"`
	StartDate     *time.Time    `gorm:""`
	BillingStatus BillingStatus `gorm:"type:text;not null;default:'active'"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

// ProjectPlanHistory records one plan or start-date change, appended before
// the mutation inside the same transaction. One row per change, never edited.
type ProjectPlanHistory struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	ProjectID    snowflake.ID  `gorm:"not null;index"`
	OldPlanID    *snowflake.ID `gorm:""`
	NewPlanID    snowflake.ID  `gorm:"not null"`
	OldStartDate *time.Time    `gorm:""`
	NewStartDate time.Time     `gorm:"not null"`
	ChangeReason string        `gorm:"type:text"`
	ChangedBy    *string       `gorm:"type:text"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProjectPlanHistory) TableName() string { return "project_plan_history" }
