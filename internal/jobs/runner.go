package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"subremux/internal/config"
	"subremux/internal/logging"
	"subremux/internal/services"
	"subremux/internal/textutil"
)

const (
	defaultProgressInterval = 5 * time.Second
	defaultStderrLimit      = 64 * 1024
	defaultDetailLength     = 200
	stderrDetailLines       = 3
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// CommandError describes a failed external command. Launched is false when
// the process could not be started at all.
type CommandError struct {
	Launched bool
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if !e.Launched {
		return fmt.Sprintf("launch failed: %v", e.Err)
	}
	return fmt.Sprintf("exit status %d", e.ExitCode)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes a single remux job synchronously.
type Runner struct {
	binary           string
	progressInterval time.Duration
	stderrLimit      int
	detailLength     int
	logger           *slog.Logger
	run              commandRunner
	now              func() time.Time
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		binary:           "ffmpeg",
		progressInterval: defaultProgressInterval,
		stderrLimit:      defaultStderrLimit,
		detailLength:     defaultDetailLength,
		logger:           logging.NewComponentLogger(logger, "runner"),
		now:              time.Now,
	}
	if cfg != nil {
		r.binary = cfg.FFmpegBinary()
		if cfg.FFmpeg.ProgressInterval > 0 {
			r.progressInterval = time.Duration(cfg.FFmpeg.ProgressInterval) * time.Second
		}
		if cfg.FFmpeg.StderrLimitKiB > 0 {
			r.stderrLimit = cfg.FFmpeg.StderrLimitKiB * 1024
		}
		if cfg.Jobs.ErrorDetailLength > 0 {
			r.detailLength = cfg.Jobs.ErrorDetailLength
		}
	}
	r.run = r.execCommand
	return r
}

// WithCommandRunner overrides how external commands are executed. Intended
// for tests.
func (r *Runner) WithCommandRunner(run commandRunner) {
	if run == nil {
		r.run = r.execCommand
		return
	}
	r.run = run
}

// WithProgressInterval overrides how often progress is sampled.
func (r *Runner) WithProgressInterval(interval time.Duration) {
	if interval > 0 {
		r.progressInterval = interval
	}
}

// BuildRemuxArgs returns the ffmpeg arguments that copy every non-subtitle
// stream of source and add subtitle as the only subtitle track.
func BuildRemuxArgs(source, subtitle, destination string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-fflags", "+genpts",
		"-y",
		"-i", source,
		"-i", subtitle,
		"-map", "0",
		"-map", "-0:s",
		"-map", "1",
		"-c", "copy",
		destination,
	}
}

// Run moves job to running, invokes ffmpeg, and records the outcome. It
// returns an error when the job failed; the job's state already reflects it.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "runner", "run", "nil job", nil)
	}
	ctx = services.WithJobID(ctx, job.ID())
	logger := logging.WithContext(ctx, r.logger)

	if err := job.start(r.now()); err != nil {
		return services.Wrap(services.ErrValidation, "runner", "start", "job cannot start", err)
	}
	logger.Info("remux started",
		logging.String(logging.FieldEventType, "remux_started"),
		logging.String("name", job.Name()),
		logging.String("source", job.Source()),
		logging.String("subtitle", job.Subtitle()),
		logging.String("destination", job.Destination()),
	)

	started := r.now()
	stop := r.watchProgress(logger, job)
	err := r.run(ctx, r.binary, BuildRemuxArgs(job.Source(), job.Subtitle(), job.Destination())...)
	stop()
	elapsed := r.now().Sub(started)

	if err == nil {
		if terr := job.succeed(r.now()); terr != nil {
			return services.Wrap(services.ErrValidation, "runner", "complete", "job cannot complete", terr)
		}
		logger.Info("remux completed",
			logging.String(logging.FieldEventType, "remux_completed"),
			logging.Duration("elapsed", elapsed),
			logging.Int("progress_percent", job.Progress()),
		)
		return nil
	}

	detail := r.failureDetail(err)
	if terr := job.fail(detail, r.now()); terr != nil {
		return services.Wrap(services.ErrValidation, "runner", "fail", "job cannot fail", terr)
	}
	return services.Wrap(services.ErrExternalTool, "runner", "ffmpeg", detail, err)
}

func (r *Runner) failureDetail(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Launched {
			if tail := lastLines(cmdErr.Stderr, stderrDetailLines); tail != "" {
				return textutil.Abbreviate(tail, r.detailLength)
			}
		}
		return textutil.Abbreviate(cmdErr.Error(), r.detailLength)
	}
	detail := textutil.Abbreviate(err.Error(), r.detailLength)
	if detail == "" {
		detail = "remux failed"
	}
	return detail
}

// watchProgress logs progress at bucket boundaries until the returned stop
// function is called.
func (r *Runner) watchProgress(logger *slog.Logger, job *Job) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.progressInterval)
		defer ticker.Stop()
		sampler := logging.NewProgressSampler(10)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				percent := job.Progress()
				if sampler.ShouldLog(percent) {
					logger.Info("remux progress",
						logging.String(logging.FieldEventType, "remux_progress"),
						logging.Int("progress_percent", percent),
					)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func (r *Runner) execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	stderr := newTailBuffer(r.stderrLimit)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return &CommandError{Launched: false, ExitCode: -1, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		cmdErr := &CommandError{Launched: true, ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return cmdErr
	}
	return nil
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "; ")
}

// tailBuffer keeps the most recent limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = defaultStderrLimit
	}
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(p)
	if n >= b.limit {
		b.buf = append(b.buf[:0], p[n-b.limit:]...)
		return n, nil
	}
	if overflow := len(b.buf) + n - b.limit; overflow > 0 {
		b.buf = append(b.buf[:0], b.buf[overflow:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
