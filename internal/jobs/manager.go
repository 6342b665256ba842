package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"subremux/internal/config"
	"subremux/internal/logging"
	"subremux/internal/services"
)

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("job manager already started")

// Health summarises the job subsystem for status reporting.
type Health struct {
	WorkerRunning bool
	WorkerFatal   string
	QueueDepth    int
	ActiveJobID   int64
	Processed     int
	Total         int
	Counts        map[State]int
}

// Manager is the entry point for submitting and listing remux jobs. It owns
// the single worker.
type Manager struct {
	logger    *slog.Logger
	registry  *Registry
	queue     *Queue
	worker    *Worker
	nameLimit int

	mu      sync.Mutex
	started bool
	running bool
	fatal   error
	cancel  context.CancelFunc
	done    chan struct{}
}

// ManagerOption customises a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	runner JobRunner
}

// WithRunner replaces the ffmpeg-backed runner.
func WithRunner(runner JobRunner) ManagerOption {
	return func(o *managerOptions) {
		o.runner = runner
	}
}

// NewManager wires a registry, queue, runner, and worker from configuration.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	var options managerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.runner == nil {
		options.runner = NewRunner(cfg, logger)
	}
	historyLimit := 0
	nameLimit := 60
	if cfg != nil {
		historyLimit = cfg.Jobs.HistoryLimit
		if cfg.Jobs.NameMaxLength > 0 {
			nameLimit = cfg.Jobs.NameMaxLength
		}
	}
	queue := NewQueue()
	return &Manager{
		logger:    logging.NewComponentLogger(logger, "jobs"),
		registry:  NewRegistry(historyLimit),
		queue:     queue,
		worker:    NewWorker(queue, options.runner, logger),
		nameLimit: nameLimit,
	}
}

// Start launches the worker. It may be called once per Manager.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(runCtx)
	return nil
}

func (m *Manager) loop(ctx context.Context) {
	exited := false
	defer func() {
		var fatal error
		if r := recover(); r != nil {
			fatal = fmt.Errorf("worker panic: %v", r)
		} else if !exited {
			fatal = errors.New("worker exited unexpectedly")
		}
		m.finish(fatal)
	}()
	err := m.worker.Run(ctx)
	exited = true
	if err != nil && ctx.Err() == nil {
		m.finish(fmt.Errorf("worker stopped: %w", err))
	}
}

func (m *Manager) finish(fatal error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	if fatal != nil {
		m.fatal = fatal
		logging.ErrorWithContext(m.logger, "remux worker stopped; no further jobs will run", "worker_fatal",
			logging.Error(fatal),
			logging.String(logging.FieldErrorHint, "restart the daemon to resume processing"),
		)
	}
	close(m.done)
}

// Stop cancels the worker and waits for it to exit. A job in progress is
// interrupted because its ffmpeg process is tied to the worker context.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Submit records a new job and queues it. It returns immediately; the outcome
// is visible only through listings.
func (m *Manager) Submit(source, subtitle, destination string) (Snapshot, error) {
	source = strings.TrimSpace(source)
	subtitle = strings.TrimSpace(subtitle)
	destination = strings.TrimSpace(destination)
	if source == "" || subtitle == "" || destination == "" {
		return Snapshot{}, services.Wrap(services.ErrValidation, "jobs", "submit", "source, subtitle, and destination are required", nil)
	}
	job := NewJob(source, subtitle, destination, m.nameLimit)
	id := m.registry.Register(job)
	m.queue.Push(job)

	attrs := []logging.Attr{
		logging.Int64(logging.FieldJobID, id),
		logging.String("name", job.Name()),
		logging.String("destination", destination),
		logging.Int("queue_depth", m.queue.Len()),
	}
	if h := m.Health(); !h.WorkerRunning {
		logging.WarnWithContext(m.logger, "job queued but worker is not running", "job_queued_stalled",
			append(attrs,
				logging.String(logging.FieldErrorHint, "restart the daemon"),
				logging.String(logging.FieldImpact, "job will stay idle"),
			)...,
		)
	} else {
		m.logger.Info("job queued", logging.Args(attrs...)...)
	}
	return job.Snapshot(), nil
}

// List describes every known job in submission order.
func (m *Manager) List() []string {
	return m.registry.ListAll()
}

// Snapshots returns every known job in submission order.
func (m *Manager) Snapshots() []Snapshot {
	return m.registry.Snapshots()
}

// Job returns a snapshot of one job.
func (m *Manager) Job(id int64) (Snapshot, bool) {
	job, ok := m.registry.Get(id)
	if !ok {
		return Snapshot{}, false
	}
	return job.Snapshot(), true
}

// Health reports worker liveness and queue statistics.
func (m *Manager) Health() Health {
	m.mu.Lock()
	h := Health{WorkerRunning: m.running}
	if m.fatal != nil {
		h.WorkerFatal = m.fatal.Error()
	}
	m.mu.Unlock()

	h.QueueDepth = m.queue.Len()
	h.Processed = m.worker.Processed()
	if current := m.worker.Current(); current != nil {
		h.ActiveJobID = current.ID()
	}
	h.Counts = make(map[State]int, len(allStates))
	for _, state := range allStates {
		h.Counts[state] = 0
	}
	for _, job := range m.registry.all() {
		state, _ := job.State()
		h.Counts[state]++
		h.Total++
	}
	return h
}
