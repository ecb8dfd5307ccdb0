// Package domain contains persistence models for payment plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Frequency is the cadence a plan bills on.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyOneTime Frequency = "one_time"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyYearly, FrequencyOneTime:
		return true
	default:
		return false
	}
}

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusArchived PlanStatus = "archived"
)

// PaymentPlan is a named schedule shape. Plans referenced by projects are
// never edited in place; edits only affect future generations.
type PaymentPlan struct {
	ID                     snowflake.ID `gorm:"primaryKey"`
	Name                   string       `gorm:"type:text;not null"`
	Frequency              Frequency    `gorm:"type:text;not null"`
	InstallmentCount       int          `gorm:"not null"`
	ContractDurationMonths int          `gorm:"not null;default:0"`
	Status                 PlanStatus   `gorm:"type:text;not null;default:'active'"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentPlan) TableName() string { return "payment_plans" }
