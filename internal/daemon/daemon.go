package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"subremux/internal/config"
	"subremux/internal/deps"
	"subremux/internal/jobs"
	"subremux/internal/library"
	"subremux/internal/logging"
	"subremux/internal/notifications"
	"subremux/internal/preflight"
	"subremux/internal/services"
	"subremux/internal/subtitles"
)

// Daemon owns the job manager, the HTTP API, and the single-instance lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	jobs      *jobs.Manager
	uploads   *subtitles.Store
	browser   *library.Browser
	inspector *library.Inspector
	notifier  notifications.Service
	notify    *notifyingRunner
	api       *apiServer
	lockPath  string
	lock      *flock.Flock

	mu        sync.Mutex
	running   bool
	stopped   bool
	startedAt time.Time
	cancel    context.CancelFunc
	deps      []deps.Status
	checks    []preflight.Result
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	Jobs         jobs.Health
	Dependencies []deps.Status
	Checks       []preflight.Result
}

// Option customises a Daemon.
type Option func(*options)

type options struct {
	runner   jobs.JobRunner
	notifier notifications.Service
}

// WithJobRunner replaces the ffmpeg-backed job runner.
func WithJobRunner(runner jobs.JobRunner) Option {
	return func(o *options) {
		o.runner = runner
	}
}

// WithNotifier replaces the configured notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	runner := o.runner
	if runner == nil {
		runner = jobs.NewRunner(cfg, logger)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	uploads, err := subtitles.NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	browser := library.NewBrowser(cfg, logger)
	notify := newNotifyingRunner(runner, notifier, logger)
	if notify != nil {
		runner = notify
	}
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		jobs:      jobs.NewManager(cfg, logger, jobs.WithRunner(runner)),
		uploads:   uploads,
		browser:   browser,
		inspector: library.NewInspector(cfg, browser),
		notifier:  notifier,
		notify:    notify,
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the job worker, and then the API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}
	if d.stopped {
		return errors.New("daemon cannot be restarted")
	}

	if err := os.MkdirAll(d.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subremux daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.jobs.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start job worker: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.jobs.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running = true
	d.startedAt = time.Now()
	d.deps = preflight.CheckSystemDeps(runCtx, d.cfg)
	d.checks = preflight.RunAll(runCtx, d.cfg)
	d.logPreflight()
	d.logger.Info("subremux daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.addr()),
		logging.String("media_dir", d.cfg.Paths.MediaDir),
		logging.String("upload_dir", d.cfg.Paths.UploadDir),
	)
	return nil
}

func (d *Daemon) logPreflight() {
	for _, result := range preflight.Failed(d.checks) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the path or install the missing tool, then restart"),
			logging.String(logging.FieldImpact, "remux jobs depending on it will fail"),
		)
	}
}

// Stop shuts down the API, stops the job worker, and releases the lock. A
// running remux is interrupted.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.jobs.Stop()
	d.notify.close()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start reports a running instance"),
		)
	}
	d.running = false
	d.stopped = true
	d.logger.Info("subremux daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.notify.close()
	return nil
}

// Addr returns the API listen address once started.
func (d *Daemon) Addr() string { return d.api.addr() }

// Handler exposes the API routes without a listener.
func (d *Daemon) Handler() http.Handler { return d.api.handler }

// Status reports daemon runtime information.
func (d *Daemon) Status(context.Context) Status {
	d.mu.Lock()
	status := Status{
		Running:      d.running,
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		LockFilePath: d.lockPath,
		Dependencies: append([]deps.Status(nil), d.deps...),
		Checks:       append([]preflight.Result(nil), d.checks...),
	}
	d.mu.Unlock()
	status.Jobs = d.jobs.Health()
	return status
}

// Submit stores an uploaded subtitle and queues a remux of video, a path
// relative to the media directory. The video does not have to exist; a
// missing source shows up as a failed job.
func (d *Daemon) Submit(ctx context.Context, video, subtitleName string, data []byte) (jobs.Snapshot, subtitles.Saved, error) {
	if video == "" {
		return jobs.Snapshot{}, subtitles.Saved{}, services.Wrap(services.ErrValidation, "daemon", "submit", "video path is required", nil)
	}
	source, err := d.browser.Resolve(video)
	if err != nil {
		return jobs.Snapshot{}, subtitles.Saved{}, err
	}
	saved, err := d.uploads.Save(ctx, subtitleName, data)
	if err != nil {
		return jobs.Snapshot{}, subtitles.Saved{}, err
	}
	destination := subtitles.DestinationFor(d.uploads.Dir(), source)
	snap, err := d.jobs.Submit(source, saved.Path, destination)
	if err != nil {
		return jobs.Snapshot{}, saved, err
	}
	return snap, saved, nil
}

// TestNotification publishes a test event. It reports false when
// notifications are disabled.
func (d *Daemon) TestNotification(ctx context.Context) (bool, error) {
	if d.notifier == nil || !d.notifier.Enabled() {
		return false, nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "daemon", "test notification", "ntfy delivery failed", err)
	}
	return true, nil
}
