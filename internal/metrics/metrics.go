package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kanva"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Background job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Job attempts by outcome (completed, retry, failed)",
		},
		[]string{"type", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job execution time distribution",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"type"},
	)
)

// Business metrics (no user label to avoid cardinality)
var (
	TeamSlotsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_slots_created_total",
			Help:      "Total number of team slots created",
		},
	)

	TeamSlotsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_slots_deleted_total",
			Help:      "Total number of team slots deleted by their owner",
		},
	)

	TeamSlotRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_slot_rejections_total",
			Help:      "Team slot changes rejected by policy",
		},
		[]string{"reason"}, // "quota" or "cooldown"
	)

	CreditsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_consumed_total",
			Help:      "Credit consumption attempts",
		},
		[]string{"status"}, // "debited" or "denied"
	)

	RoleChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_changes_total",
			Help:      "Role changes applied by subscription sync",
		},
		[]string{"from", "to"},
	)

	AccountsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_deleted_total",
			Help:      "Account deletions",
		},
		[]string{"status"}, // "complete", "partial" or "failed"
	)

	TemplatesMigrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_migrated_total",
			Help:      "Template payload migrations",
		},
		[]string{"status"},
	)
)

// Upstream metrics
var (
	SportsAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sports_api_requests_total",
			Help:      "Requests to upstream sports APIs",
		},
		[]string{"sport", "status"},
	)

	SportsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sports_cache_lookups_total",
			Help:      "Sports data cache lookups",
		},
		[]string{"result"}, // "hit", "miss" or "error"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published",
		},
		[]string{"event", "status"},
	)
)
