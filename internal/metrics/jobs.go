package metrics

import "time"

// Job outcome labels on kanva_jobs_total.
const (
	jobCompleted = "completed"
	jobRetry     = "retry"
	jobFailed    = "failed"
)

// JobCompleted records a finished job and how long it ran.
func JobCompleted(jobType string, duration time.Duration) {
	JobsTotal.WithLabelValues(jobType, jobCompleted).Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// JobFailed records a failed attempt. Retryable failures are counted
// separately so a Stripe outage shows up as retries, not failures.
func JobFailed(jobType string, permanent bool) {
	status := jobRetry
	if permanent {
		status = jobFailed
	}
	JobsTotal.WithLabelValues(jobType, status).Inc()
}
