package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"subremux/internal/logging"
)

// JobRunner executes one job to completion.
type JobRunner interface {
	Run(ctx context.Context, job *Job) error
}

// Worker drains the queue one job at a time.
type Worker struct {
	queue  *Queue
	runner JobRunner
	logger *slog.Logger

	mu        sync.RWMutex
	current   *Job
	processed int
}

// NewWorker constructs a worker over queue using runner.
func NewWorker(queue *Queue, runner JobRunner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		queue:  queue,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "worker"),
	}
}

// Run processes jobs until ctx is cancelled. A failed or panicking job does
// not stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug("worker loop started")
	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			w.logger.Debug("worker loop stopped", logging.Error(err))
			return err
		}
		w.process(ctx, job)
	}
}

// Current returns the job being processed, if any.
func (w *Worker) Current() *Job {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Processed reports how many jobs the worker has finished handling.
func (w *Worker) Processed() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.processed
}

func (w *Worker) setCurrent(job *Job) {
	w.mu.Lock()
	w.current = job
	if job == nil {
		w.processed++
	}
	w.mu.Unlock()
}

func (w *Worker) process(ctx context.Context, job *Job) {
	w.setCurrent(job)
	returned := false
	defer func() {
		r := recover()
		switch {
		case r != nil:
			logging.ErrorWithContext(w.logger, "remux job panicked", "remux_panic",
				logging.Int64(logging.FieldJobID, job.ID()),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this failure with the log excerpt"),
			)
			w.abandon(job, fmt.Sprintf("internal error: %v", r))
		case !returned:
			// The goroutine is exiting via runtime.Goexit.
			w.abandon(job, "worker terminated during run")
		}
		w.setCurrent(nil)
	}()

	err := w.runner.Run(ctx, job)
	returned = true
	if err != nil {
		state, detail := job.State()
		w.logger.Warn("remux job failed",
			logging.Int64(logging.FieldJobID, job.ID()),
			logging.String("name", job.Name()),
			logging.String("state", string(state)),
			logging.String("detail", detail),
			logging.Error(err),
			logging.String(logging.FieldEventType, "remux_failed"),
			logging.String(logging.FieldErrorHint, "check that the source video and subtitle exist and ffmpeg can read them"),
			logging.String(logging.FieldImpact, "no output file was produced for this job"),
		)
	}
}

// abandon fails a job left in running after an abnormal exit from the runner.
func (w *Worker) abandon(job *Job, detail string) {
	if state, _ := job.State(); state == StateRunning {
		_ = job.fail(detail, time.Now())
	}
}
