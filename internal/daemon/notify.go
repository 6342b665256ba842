package daemon

import (
	"context"
	"log/slog"
	"sync"

	"subremux/internal/jobs"
	"subremux/internal/logging"
	"subremux/internal/notifications"
)

const notifyQueueSize = 64

type jobNotification struct {
	jobID   int64
	event   notifications.Event
	payload notifications.Payload
}

// notifyingRunner publishes an ntfy event after each job reaches a terminal
// state. Events are delivered in order by a dispatcher goroutine so a slow
// ntfy endpoint never holds up the next remux. Delivery failures are logged
// and never change the job outcome.
type notifyingRunner struct {
	inner    jobs.JobRunner
	notifier notifications.Service
	logger   *slog.Logger

	queue     chan jobNotification
	done      chan struct{}
	closeOnce sync.Once
}

// newNotifyingRunner returns nil when notifications are disabled.
func newNotifyingRunner(inner jobs.JobRunner, notifier notifications.Service, logger *slog.Logger) *notifyingRunner {
	if notifier == nil || !notifier.Enabled() {
		return nil
	}
	r := &notifyingRunner{
		inner:    inner,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "notifications"),
		queue:    make(chan jobNotification, notifyQueueSize),
		done:     make(chan struct{}),
	}
	go r.dispatch()
	return r
}

func (r *notifyingRunner) Run(ctx context.Context, job *jobs.Job) error {
	err := r.inner.Run(ctx, job)
	if ctx.Err() != nil {
		return err
	}

	state, detail := job.State()
	var event notifications.Event
	switch state {
	case jobs.StateSucceeded:
		event = notifications.EventRemuxCompleted
	case jobs.StateFailed:
		event = notifications.EventRemuxFailed
	default:
		return err
	}
	n := jobNotification{
		jobID: job.ID(),
		event: event,
		payload: notifications.Payload{
			"name":        job.Name(),
			"destination": job.Destination(),
			"detail":      detail,
		},
	}
	select {
	case r.queue <- n:
	default:
		logging.WarnWithContext(r.logger, "notification queue full; dropping event", "notification_dropped",
			logging.Int64(logging.FieldJobID, n.jobID),
			logging.String("event", string(event)),
			logging.String(logging.FieldErrorHint, "check that the ntfy endpoint is reachable"),
		)
	}
	return err
}

func (r *notifyingRunner) dispatch() {
	defer close(r.done)
	for n := range r.queue {
		// Bounded by the service's request timeout; the worker context may
		// already be cancelled while the queue drains on shutdown.
		if err := r.notifier.Publish(context.Background(), n.event, n.payload); err != nil {
			logging.WarnWithContext(r.logger, "job notification failed", "notification_failed",
				logging.Int64(logging.FieldJobID, n.jobID),
				logging.String("event", string(n.event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}
}

// close stops accepting events and waits for queued ones to be delivered.
// Callers must stop the job worker first. Safe on a nil receiver.
func (r *notifyingRunner) close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() { close(r.queue) })
	<-r.done
}
