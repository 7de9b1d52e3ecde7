// Package worker runs background jobs from a PostgreSQL-backed queue.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
)

// abortGrace bounds the wait for canceled jobs to return.
const abortGrace = 5 * time.Second

// Worker polls the jobs table and runs registered handlers. Several
// replicas may share a queue; DequeueJob hands each job to one of them.
type Worker struct {
	store    repository.Store
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
	// abort cancels in-flight jobs once ShutdownTimeout has passed.
	abort context.CancelFunc
}

func New(store repository.Store, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Worker{
		store:    store,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger.With("component", "worker"),
		stopCh:   make(chan struct{}),
		abort:    func() {},
	}, nil
}

// Register must be called before Start. A second handler for the same
// type replaces the first.
func (w *Worker) Register(handler JobHandler) {
	if _, dup := w.handlers[handler.Type()]; dup {
		w.logger.Warn("Replacing job handler", "job_type", handler.Type())
	}
	w.handlers[handler.Type()] = handler
}

// Start launches Concurrency pollers plus a reaper that requeues jobs
// orphaned by crashed replicas. Jobs keep running after ctx is canceled
// until Stop gives up on them.
func (w *Worker) Start(ctx context.Context) {
	jobCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	w.abort = abort

	w.reapStaleJobs(jobCtx)

	w.wg.Add(w.config.Concurrency + 1)
	for i := range w.config.Concurrency {
		go w.poll(ctx, jobCtx, i+1)
	}
	go w.reaper(ctx, jobCtx)

	w.logger.Info("Worker started",
		"concurrency", w.config.Concurrency,
		"job_types", len(w.handlers),
	)
}

// Stop stops polling and waits up to ShutdownTimeout for running jobs.
// Jobs still running after that are canceled; their rows stay 'running'
// until a reaper requeues them.
func (w *Worker) Stop() {
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timed out, canceling running jobs")
		w.abort()
		select {
		case <-done:
		case <-time.After(abortGrace):
			w.logger.Error("Jobs ignored cancellation, exiting anyway")
		}
	}
	w.abort()
}

func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-w.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// poll drains the queue on every tick. Stop is checked between jobs so a
// long backlog does not delay shutdown.
func (w *Worker) poll(ctx, jobCtx context.Context, id int) {
	defer w.wg.Done()
	logger := w.logger.With("worker_id", id)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for !w.stopping(ctx) {
			err := w.processNextJob(jobCtx, logger)
			if errors.Is(err, sql.ErrNoRows) {
				break
			}
			if err != nil {
				logger.Error("Failed to process job", "error", err)
				break
			}
		}
	}
}

func (w *Worker) reaper(ctx, jobCtx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.StaleJobThreshold / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reapStaleJobs(jobCtx)
		}
	}
}

func (w *Worker) reapStaleJobs(ctx context.Context) {
	n, err := w.store.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		w.logger.Error("Failed to requeue stale jobs", "error", err)
		return
	}
	if n > 0 {
		w.logger.Warn("Requeued stale jobs", "count", n, "threshold", w.config.StaleJobThreshold)
	}
}

// processNextJob runs one due job. It returns sql.ErrNoRows when the
// queue is empty; job failures are recorded, not returned.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	var job repository.Job
	err := w.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		job, err = q.DequeueJob(ctx)
		if err != nil {
			return err
		}
		if err := q.UpdateJobStarted(ctx, job.ID); err != nil {
			return fmt.Errorf("mark job started: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("Processing job")

	start := time.Now()
	if err := w.executeJob(ctx, job); err != nil {
		permanent := IsPermanent(err) || job.Attempts+1 >= job.MaxAttempts
		metrics.JobFailed(job.JobType, permanent)
		logger.Error("Job failed", "error", err, "permanent", permanent)
		w.markJobFailed(ctx, job.ID, err)
		return nil
	}

	metrics.JobCompleted(job.JobType, time.Since(start))
	logger.Info("Job completed", "duration", time.Since(start))
	if err := w.store.UpdateJobCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("update job completed: %w", err)
	}
	return nil
}

// executeJob runs the job's handler under JobTimeout. Unknown types fail
// permanently; a deploy that drops a handler should not spin on retries.
func (w *Worker) executeJob(ctx context.Context, job repository.Job) error {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler for job type %q", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed stores the error. UpdateJobFailed reschedules with backoff
// unless the error is permanent or attempts are used up.
func (w *Worker) markJobFailed(ctx context.Context, jobID uuid.UUID, jobErr error) {
	params := repository.UpdateJobFailedParams{
		ID:        jobID,
		Permanent: IsPermanent(jobErr),
		ErrorMessage: sql.NullString{
			String: jobErr.Error(),
			Valid:  true,
		},
	}

	if err := w.store.UpdateJobFailed(ctx, params); err != nil {
		w.logger.Error("Failed to mark job as failed", "job_id", jobID, "error", err)
	}
}
