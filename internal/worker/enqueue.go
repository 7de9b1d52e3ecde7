package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
)

// Job types. Each must match the Type() of the handler registered for it.
const (
	JobTypeSyncSubscription = "sync_subscription"
	JobTypePurgeUserFiles   = "purge_user_files"
)

// Higher priorities are dequeued first.
const (
	PriorityLow    int32 = 0
	PriorityNormal int32 = 10
	PriorityHigh   int32 = 20
)

const defaultMaxAttempts int32 = 3

// purgeMaxAttempts is higher than the default because an orphaned prefix is
// never revisited once the account is gone.
const purgeMaxAttempts int32 = 5

type SyncSubscriptionPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type PurgeUserFilesPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Prefix string    `json:"prefix"`
}

// EnqueueOption adjusts a job before it is inserted.
type EnqueueOption func(*repository.EnqueueJobParams)

func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.Priority = priority }
}

func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.MaxAttempts = attempts }
}

// WithDelay holds the job back for d.
func WithDelay(d time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.ScheduledAt = p.ScheduledAt.Add(d) }
}

// EnqueueJob inserts a pending job. Pass a transaction-bound querier to
// make the job visible only if the surrounding work commits.
func EnqueueJob(ctx context.Context, q repository.Querier, jobType string, payload any, opts ...EnqueueOption) (repository.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal %s payload: %w", jobType, err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     raw,
		Priority:    PriorityNormal,
		MaxAttempts: defaultMaxAttempts,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := q.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return job, nil
}

// EnqueueSyncSubscription schedules a Stripe re-read for one user.
func EnqueueSyncSubscription(ctx context.Context, q repository.Querier, userID uuid.UUID, opts ...EnqueueOption) (repository.Job, error) {
	return EnqueueJob(ctx, q, JobTypeSyncSubscription, SyncSubscriptionPayload{UserID: userID}, opts...)
}

// EnqueuePurgeUserFiles schedules removal of everything below prefix.
// opts apply after the purge defaults.
func EnqueuePurgeUserFiles(ctx context.Context, q repository.Querier, userID uuid.UUID, prefix string, opts ...EnqueueOption) (repository.Job, error) {
	opts = append([]EnqueueOption{WithMaxAttempts(purgeMaxAttempts)}, opts...)
	return EnqueueJob(ctx, q, JobTypePurgeUserFiles, PurgeUserFilesPayload{UserID: userID, Prefix: prefix}, opts...)
}
