// Package domain contains persistence models for installments and payments.
// Status values keep the platform's original Spanish vocabulary; they are
// wire/data format, not display text.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InstallmentStatus string

const (
	InstallmentStatusPending  InstallmentStatus = "pendiente"
	InstallmentStatusPaid     InstallmentStatus = "pagada"
	InstallmentStatusOverdue  InstallmentStatus = "vencida"
	InstallmentStatusCanceled InstallmentStatus = "cancelada"
)

// Terminal reports whether no further transition may leave the status.
func (s InstallmentStatus) Terminal() bool {
	return s == InstallmentStatusPaid || s == InstallmentStatusCanceled
}

// CanTransition is the single source of truth for installment transitions.
// pendiente → pagada|vencida|cancelada; vencida → pagada|cancelada.
func CanTransition(from, to InstallmentStatus) bool {
	switch from {
	case InstallmentStatusPending:
		return to == InstallmentStatusPaid || to == InstallmentStatusOverdue || to == InstallmentStatusCanceled
	case InstallmentStatusOverdue:
		return to == InstallmentStatusPaid || to == InstallmentStatusCanceled
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

func CanTransitionPayment(from, to PaymentStatus) bool {
	if from != PaymentStatusPending {
		return false
	}
	return to == PaymentStatusApproved || to == PaymentStatusRejected
}

// Installment is one scheduled, dated charge in a project's schedule.
// A paid installment is immutable: neither the scheduler, the plan change
// orchestrator nor the overdue sweep may touch it.
type Installment struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	ProjectID         snowflake.ID      `gorm:"not null;index:idx_installments_project_status_due,priority:1"`
	PlanID            snowflake.ID      `gorm:"not null;index"`
	InstallmentNumber int               `gorm:"not null"`
	DueDate           time.Time         `gorm:"not null;index:idx_installments_project_status_due,priority:3"`
	Amount            int64             `gorm:"not null"`
	Status            InstallmentStatus `gorm:"type:text;not null;default:'pendiente';index:idx_installments_project_status_due,priority:2"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Installment) TableName() string { return "installments" }

// Payment is one money movement against an installment. Admin-entered
// payments are approved on creation; client-reported ones start pending.
type Payment struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	InstallmentID   snowflake.ID  `gorm:"not null;index"`
	Amount          int64         `gorm:"not null"`
	Method          string        `gorm:"type:text"`
	Reference       string        `gorm:"type:text"`
	Notes           string        `gorm:"type:text"`
	Status          PaymentStatus `gorm:"type:text;not null;default:'pending'"`
	RejectionReason string        `gorm:"type:text"`
	PaymentDate     *time.Time    `gorm:""`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
