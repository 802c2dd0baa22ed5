// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the email pipeline and rate limiter update.
type Metrics struct {
	EmailsClaimed      prometheus.Counter
	EmailsSent         prometheus.Counter
	EmailsRetried      prometheus.Counter
	EmailsDeadLettered prometheus.Counter
	LeasesReleased     prometheus.Counter
	DispatchDuration   prometheus.Histogram

	RateLimitDecisions *prometheus.CounterVec
	RateLimitFailOpen  prometheus.Counter

	DetachedTasks *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EmailsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "email_jobs_claimed_total",
			Help: "Total email jobs claimed by the dispatcher",
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "email_jobs_sent_total",
			Help: "Total email jobs delivered",
		}),
		EmailsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "email_jobs_retried_total",
			Help: "Total email jobs rescheduled after a failure",
		}),
		EmailsDeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "email_jobs_dead_lettered_total",
			Help: "Total email jobs that reached the failed state",
		}),
		LeasesReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "email_jobs_leases_released_total",
			Help: "Total processing jobs returned to the queue after their lease expired",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "email_dispatch_duration_seconds",
			Help:    "Duration of a single dispatcher invocation",
			Buckets: prometheus.DefBuckets,
		}),
		RateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limiter decisions by route",
		}, []string{"route", "decision"}),
		RateLimitFailOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_fail_open_total",
			Help: "Requests allowed because the counter store was unavailable",
		}),
		DetachedTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detached_tasks_total",
			Help: "Background tasks started outside the request lifecycle",
		}, []string{"task", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.EmailsClaimed,
			m.EmailsSent,
			m.EmailsRetried,
			m.EmailsDeadLettered,
			m.LeasesReleased,
			m.DispatchDuration,
			m.RateLimitDecisions,
			m.RateLimitFailOpen,
			m.DetachedTasks,
		)
	}

	return m
}
