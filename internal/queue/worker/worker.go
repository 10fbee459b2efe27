package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kwameasante/lingomate/internal/jobs"
	"github.com/kwameasante/lingomate/internal/notifications"
	"github.com/kwameasante/lingomate/internal/observability"
	"github.com/kwameasante/lingomate/internal/queue/redisclient"
)

// Queue is what the worker consumes from and requeues into. Satisfied by
// redisclient.Client.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error)
	Enqueue(ctx context.Context, j jobs.Job) error
}

type Config struct {
	DequeueTimeout time.Duration
}

type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 5 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil
		default:
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			w.log.Error("process error", "error", err)

			// most likely a queue outage; pause before the next pop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}

		_ = processed
	}
}

// ProcessOne pops a single job and executes it. The bool reports whether a
// job was actually claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.queue.Dequeue(ctx, w.cfg.DequeueTimeout)

	if err != nil {
		if errors.Is(err, redisclient.ErrEmpty) {
			return false, nil
		}

		if ctx.Err() != nil {
			return false, nil
		}

		return false, err
	}

	w.log.Info("claimed job", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)

	start := time.Now()
	err = w.execute(ctx, j)

	if w.prom != nil {
		outcome := "done"
		if err != nil {
			outcome = "failed"
		}
		w.prom.ObserveJob(string(j.Type), outcome, time.Since(start))
	}

	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	switch j.Type {
	case jobs.JobVerificationEmail:
		decoded, err := jobs.DecodePayload(j)

		if err != nil {
			return err
		}

		p, ok := decoded.(jobs.VerificationEmailPayload)

		if !ok {
			return jobs.ErrPayloadTypeMismatch
		}

		return w.notifier.SendVerificationEmail(ctx, notifications.SendVerificationEmailInput{
			UserID: p.UserID,
			Email:  p.Email,
			Token:  p.Token,
		})
	default:
		return fmt.Errorf("unknown job type: %s", j.Type)
	}
}

// handleFailure either requeues the job after a backoff delay or drops it
// once attempts are exhausted.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error) {
	j.Attempts++
	j.UpdatedAt = time.Now().UTC()

	if j.Attempts >= j.MaxTries {
		w.log.Error("job exhausted retries, dropping",
			"job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "error", cause)
		return
	}

	delay := ExponentialBackoff(j.Attempts - 1)

	w.log.Warn("job failed, requeueing",
		"job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "delay", delay, "error", cause)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return
	}

	if err := w.queue.Enqueue(ctx, j); err != nil {
		w.log.Error("requeue failed", "job_id", j.ID, "error", err)
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
