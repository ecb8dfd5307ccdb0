// Package schedule derives installment rows from a plan and a project's
// attached services. It is pure computation: persistence belongs to the
// caller, which lets plan changes regenerate inside their own transaction.
package schedule

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/operisapp/billing/internal/catalog/domain"
	installmentdomain "github.com/operisapp/billing/internal/installment/domain"
	plandomain "github.com/operisapp/billing/internal/plan/domain"
)

// BuildInput describes one generation pass. LastPaidNumber is 0 for a first
// enrollment; for a continuation after a plan change it is the highest paid
// installment number, and generation resumes at LastPaidNumber+1 with the
// cadence anchored on StartDate.
type BuildInput struct {
	ProjectID      snowflake.ID
	Plan           plandomain.PaymentPlan
	Services       []catalogdomain.AttachedService
	StartDate      time.Time
	LastPaidNumber int
}

// Build returns the installments the plan produces, ordered by number.
// Indices whose computed amount is zero are omitted, leaving a gap in the
// sequence; this mirrors the platform's observed behavior for services that
// contribute nothing in some periods.
func Build(in BuildInput) []installmentdomain.Installment {
	firstIndex := in.LastPaidNumber + 1
	start := truncateToDay(in.StartDate)

	var rows []installmentdomain.Installment
	for i := firstIndex; i <= in.Plan.InstallmentCount; i++ {
		var amount int64
		for _, svc := range in.Services {
			amount += contribution(svc, in.Plan.Frequency, i, firstIndex)
		}
		if amount == 0 {
			continue
		}

		rows = append(rows, installmentdomain.Installment{
			ProjectID:         in.ProjectID,
			PlanID:            in.Plan.ID,
			InstallmentNumber: i,
			DueDate:           dueDate(start, in.Plan.Frequency, i-firstIndex),
			Amount:            amount,
			Status:            installmentdomain.InstallmentStatusPending,
		})
	}

	return rows
}

// contribution applies the temporal billing rule: each service follows its
// own billing period, reconciled against the plan's frequency.
func contribution(svc catalogdomain.AttachedService, freq plandomain.Frequency, index, firstIndex int) int64 {
	switch svc.BillingPeriod {
	case catalogdomain.BillingPeriodOneTime:
		// Charged once, on the first installment of the epoch.
		if index == firstIndex {
			return svc.LineTotal()
		}
		return 0

	case catalogdomain.BillingPeriodMonthly:
		switch freq {
		case plandomain.FrequencyMonthly:
			return svc.LineTotal()
		case plandomain.FrequencyYearly:
			// A full year prepaid per yearly installment.
			return 12 * svc.LineTotal()
		default:
			return svc.LineTotal()
		}

	case catalogdomain.BillingPeriodYearly:
		switch freq {
		case plandomain.FrequencyYearly:
			return svc.LineTotal()
		case plandomain.FrequencyMonthly:
			// Falls due every 12th installment: 1, 13, 25, …
			if (index-1)%12 == 0 {
				return svc.LineTotal()
			}
			return 0
		default:
			return svc.LineTotal()
		}
	}

	return 0
}

func dueDate(start time.Time, freq plandomain.Frequency, offset int) time.Time {
	return Advance(start, freq, offset)
}

// Advance moves an anchor forward by n billing periods. One-time plans have
// no cadence, so the anchor stays put.
func Advance(start time.Time, freq plandomain.Frequency, n int) time.Time {
	switch freq {
	case plandomain.FrequencyMonthly:
		return start.AddDate(0, n, 0)
	case plandomain.FrequencyYearly:
		return start.AddDate(n, 0, 0)
	default:
		return start
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
