// Package domain contains persistence models for the billing catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingPeriod is the cadence one attached service is charged on,
// independent of the plan's own frequency.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
	BillingPeriodOneTime BillingPeriod = "one_time"
)

func (p BillingPeriod) Valid() bool {
	switch p {
	case BillingPeriodMonthly, BillingPeriodYearly, BillingPeriodOneTime:
		return true
	default:
		return false
	}
}

type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusArchived ServiceStatus = "archived"
)

// BillingService is a catalog item with a price per billing period, in minor
// currency units. Archived services stay in place while referenced.
type BillingService struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Name         string        `gorm:"type:text;not null"`
	Description  string        `gorm:"type:text"`
	PriceMonthly int64         `gorm:"not null;default:0"`
	PriceYearly  int64         `gorm:"not null;default:0"`
	PriceOneTime int64         `gorm:"not null;default:0"`
	Status       ServiceStatus `gorm:"type:text;not null;default:'active'"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingService) TableName() string { return "billing_services" }

// ProjectService attaches one catalog item to a project. CustomPrice, when
// set, overrides the catalog price selected by BillingPeriod.
type ProjectService struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	ProjectID     snowflake.ID  `gorm:"not null;index"`
	ServiceID     snowflake.ID  `gorm:"not null;index"`
	CustomPrice   *int64        `gorm:""`
	Quantity      int           `gorm:"not null;default:1"`
	BillingPeriod BillingPeriod `gorm:"type:text;not null"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProjectService) TableName() string { return "project_services" }

// AttachedService is a ProjectService joined with its catalog prices, the
// shape the installment scheduler consumes.
type AttachedService struct {
	ProjectService
	ServiceName  string `gorm:"column:service_name"`
	PriceMonthly int64  `gorm:"column:price_monthly"`
	PriceYearly  int64  `gorm:"column:price_yearly"`
	PriceOneTime int64  `gorm:"column:price_one_time"`
}

// UnitPrice resolves the effective unit price: the custom override when set,
// otherwise the catalog price matching the attachment's billing period.
func (a AttachedService) UnitPrice() int64 {
	if a.CustomPrice != nil {
		return *a.CustomPrice
	}
	switch a.BillingPeriod {
	case BillingPeriodMonthly:
		return a.PriceMonthly
	case BillingPeriodYearly:
		return a.PriceYearly
	case BillingPeriodOneTime:
		return a.PriceOneTime
	default:
		return 0
	}
}

// LineTotal is the unit price times quantity.
func (a AttachedService) LineTotal() int64 {
	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}
	return a.UnitPrice() * int64(qty)
}
