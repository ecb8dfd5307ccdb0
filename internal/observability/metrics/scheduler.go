// Package metrics exposes prometheus instruments for the background sweeps.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_scheduler_job_runs_total",
		Help: "Number of scheduler job executions.",
	}, []string{"job"})

	jobErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_scheduler_job_errors_total",
		Help: "Number of scheduler job executions that returned an error.",
	}, []string{"job"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_scheduler_job_duration_seconds",
		Help:    "Wall-clock duration of scheduler job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_notifications_total",
		Help: "Reminder and overdue notifications attempted, by outcome.",
	}, []string{"type", "status"})

	installmentsMarkedOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_installments_marked_overdue_total",
		Help: "Installments transitioned to overdue by the daily sweep.",
	})
)

func IncJobRun(job string) { jobRuns.WithLabelValues(job).Inc() }

func IncJobError(job string) { jobErrors.WithLabelValues(job).Inc() }

func ObserveJobDuration(job string, seconds float64) {
	jobDuration.WithLabelValues(job).Observe(seconds)
}

func IncNotification(kind, status string) {
	notifications.WithLabelValues(kind, status).Inc()
}

func AddMarkedOverdue(n int) { installmentsMarkedOverdue.Add(float64(n)) }
