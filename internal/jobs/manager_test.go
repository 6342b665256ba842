package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subremux/internal/config"
)

// recordingRunner drives job state like the real runner without spawning
// processes. It records execution order and the peak number of concurrent runs.
type recordingRunner struct {
	mu      sync.Mutex
	order   []string
	active  atomic.Int32
	peak    atomic.Int32
	gate    chan struct{}
	failFor string
}

func (r *recordingRunner) Run(_ context.Context, job *Job) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if err := job.start(time.Now()); err != nil {
		return err
	}
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.order = append(r.order, job.Name())
	r.mu.Unlock()
	if r.failFor != "" && job.Name() == r.failFor {
		_ = job.fail("simulated failure", time.Now())
		return errors.New("simulated failure")
	}
	return job.succeed(time.Now())
}

func (r *recordingRunner) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func allTerminal(m *Manager) func() bool {
	return func() bool {
		for _, snap := range m.Snapshots() {
			if !snap.State.IsTerminal() {
				return false
			}
		}
		return true
	}
}

func startManager(t *testing.T, cfg *config.Config, runner JobRunner) *Manager {
	t.Helper()
	var opts []ManagerOption
	if runner != nil {
		opts = append(opts, WithRunner(runner))
	}
	m := NewManager(cfg, nil, opts...)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func TestManagerRunsJobsInSubmissionOrderOneAtATime(t *testing.T) {
	runner := &recordingRunner{}
	m := startManager(t, nil, runner)

	var want []string
	for i := range 10 {
		name := fmt.Sprintf("job-%02d.mkv", i)
		want = append(want, name)
		if _, err := m.Submit("/m/"+name, "/s/x.srt", "/o/"+name); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	waitFor(t, "all jobs to finish", func() bool { return len(runner.executed()) == len(want) })

	got := runner.executed()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("execution order %v, want %v", got, want)
		}
	}
	if peak := runner.peak.Load(); peak != 1 {
		t.Fatalf("peak concurrent runs = %d, want 1", peak)
	}
}

func TestManagerSubmitReturnsIdleSnapshot(t *testing.T) {
	runner := &recordingRunner{gate: make(chan struct{})}
	m := startManager(t, nil, runner)
	defer close(runner.gate)

	first, err := m.Submit("/m/first.mkv", "/s/first.srt", "/o/first.mkv")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.ID != 1 || first.Name != "first.mkv" {
		t.Fatalf("snapshot = %+v", first)
	}
	second, _ := m.Submit("/m/second.mkv", "/s/second.srt", "/o/second.mkv")
	if second.State != StateIdle {
		t.Fatalf("second job state = %s, want idle while first is blocked", second.State)
	}
	waitFor(t, "first job to be running", func() bool {
		h := m.Health()
		return h.ActiveJobID == 1 && h.Counts[StateRunning] == 1
	})
	if h := m.Health(); h.QueueDepth != 1 || h.Counts[StateRunning] != 1 || h.Counts[StateIdle] != 1 {
		t.Fatalf("health = %+v", h)
	}
}

func TestManagerSubmitRejectsEmptyPaths(t *testing.T) {
	m := NewManager(nil, nil, WithRunner(&recordingRunner{}))
	if _, err := m.Submit("", "/s.srt", "/o.mkv"); err == nil {
		t.Fatal("expected validation error")
	}
	if len(m.List()) != 0 {
		t.Fatal("rejected submission must not be registered")
	}
}

func TestManagerListDuringConcurrentWork(t *testing.T) {
	runner := &recordingRunner{gate: make(chan struct{})}
	m := startManager(t, nil, runner)
	var release sync.Once
	openGate := func() { release.Do(func() { close(runner.gate) }) }
	t.Cleanup(openGate)

	const total = 40
	for i := range total {
		if _, err := m.Submit(fmt.Sprintf("/m/%d.mkv", i), "/s.srt", fmt.Sprintf("/o/%d.mkv", i)); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, "first job to run", func() bool {
		snap, ok := m.Job(1)
		return ok && snap.State == StateRunning && m.Health().ActiveJobID == 1
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				snaps := m.Snapshots()
				lines := m.List()
				if len(snaps) != total || len(lines) != total {
					t.Errorf("got %d snapshots and %d lines, want %d", len(snaps), len(lines), total)
					return
				}
				seen := make(map[int64]bool, total)
				running := 0
				for i, snap := range snaps {
					if seen[snap.ID] {
						t.Errorf("duplicate job id %d", snap.ID)
						return
					}
					seen[snap.ID] = true
					if lines[i] != snap.Describe() {
						t.Errorf("line %d = %q, snapshot describes %q", i, lines[i], snap.Describe())
						return
					}
					if snap.State == StateRunning {
						running++
					}
				}
				if running != 1 || !strings.Contains(lines[0], "[running]") {
					t.Errorf("expected only the first job running, got %q", lines)
					return
				}
			}
		}()
	}
	wg.Wait()

	openGate()
	waitFor(t, "jobs to finish", allTerminal(m))
	lines := m.List()
	if len(lines) != total {
		t.Fatalf("final list = %d entries", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "[OK]") {
			t.Fatalf("unfinished job in final list: %q", line)
		}
	}
}

func TestManagerContinuesAfterFailure(t *testing.T) {
	runner := &recordingRunner{failFor: "bad.mkv"}
	m := startManager(t, nil, runner)

	_, _ = m.Submit("/m/bad.mkv", "/s.srt", "/o/bad.mkv")
	_, _ = m.Submit("/m/good.mkv", "/s.srt", "/o/good.mkv")
	waitFor(t, "jobs to finish", func() bool { return len(runner.executed()) == 2 })
	waitFor(t, "states to settle", allTerminal(m))

	lines := m.List()
	if lines[0] != "bad.mkv: [Err: simulated failure] 0%" {
		t.Fatalf("bad line = %q", lines[0])
	}
	if lines[1] != "good.mkv: [OK] 0%" {
		t.Fatalf("good line = %q", lines[1])
	}
	if h := m.Health(); !h.WorkerRunning || h.WorkerFatal != "" {
		t.Fatalf("worker should still be healthy: %+v", h)
	}
}

func TestManagerWithFFmpegStub(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARGS_FILE", filepath.Join(dir, "args.txt"))
	cfg := config.Default()
	cfg.FFmpeg.Binary = writeStub(t, dir, fakeFFmpeg)
	m := startManager(t, &cfg, nil)

	media := filepath.Join(dir, "media")
	out := filepath.Join(dir, "out")
	for _, d := range []string{media, out} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	srcA := filepath.Join(media, "a.mkv")
	srcB := filepath.Join(media, "b.mkv")
	writeSized(t, srcA, 100)
	writeSized(t, srcB, 300)
	sub := filepath.Join(media, "a.srt")
	writeSized(t, sub, 5)
	shared := filepath.Join(out, "shared.mkv")

	missing, _ := m.Submit(filepath.Join(media, "missing.mkv"), sub, filepath.Join(out, "missing.mkv"))
	first, _ := m.Submit(srcA, sub, shared)
	second, _ := m.Submit(srcB, sub, shared)
	waitFor(t, "jobs to finish", allTerminal(m))

	snap, ok := m.Job(missing.ID)
	if !ok || snap.State != StateFailed || strings.TrimSpace(snap.Detail) == "" {
		t.Fatalf("missing source job = %+v", snap)
	}
	for _, id := range []int64{first.ID, second.ID} {
		if snap, _ := m.Job(id); snap.State != StateSucceeded {
			t.Fatalf("job %d = %+v", id, snap)
		}
	}
	info, err := os.Stat(shared)
	if err != nil {
		t.Fatalf("stat shared output: %v", err)
	}
	if info.Size() != 300 {
		t.Fatalf("later job should overwrite shared destination, size = %d", info.Size())
	}
}

func TestManagerStartTwice(t *testing.T) {
	m := startManager(t, nil, &recordingRunner{})
	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second start err = %v", err)
	}
}

type panicRunner struct{ calls atomic.Int32 }

func (p *panicRunner) Run(_ context.Context, job *Job) error {
	if err := job.start(time.Now()); err != nil {
		return err
	}
	if p.calls.Add(1) == 1 {
		panic("boom")
	}
	return job.succeed(time.Now())
}

func TestManagerRecoversRunnerPanic(t *testing.T) {
	runner := &panicRunner{}
	m := startManager(t, nil, runner)
	first, _ := m.Submit("/m/a.mkv", "/s.srt", "/o/a.mkv")
	second, _ := m.Submit("/m/b.mkv", "/s.srt", "/o/b.mkv")
	waitFor(t, "jobs to finish", allTerminal(m))

	a, _ := m.Job(first.ID)
	if a.State != StateFailed || !strings.Contains(a.Detail, "boom") {
		t.Fatalf("panicking job = %+v", a)
	}
	b, _ := m.Job(second.ID)
	if b.State != StateSucceeded {
		t.Fatalf("following job = %+v", b)
	}
	waitFor(t, "worker to finish both jobs", func() bool { return m.Health().Processed == 2 })
	if h := m.Health(); !h.WorkerRunning {
		t.Fatalf("health = %+v", h)
	}
}

type exitRunner struct{}

func (exitRunner) Run(_ context.Context, job *Job) error {
	_ = job.start(time.Now())
	runtime.Goexit()
	return nil
}

func TestManagerReportsFatalWorkerExit(t *testing.T) {
	m := startManager(t, nil, exitRunner{})
	snap, _ := m.Submit("/m/a.mkv", "/s.srt", "/o/a.mkv")
	waitFor(t, "worker to stop", func() bool { return !m.Health().WorkerRunning })

	h := m.Health()
	if h.WorkerFatal == "" {
		t.Fatalf("expected fatal worker condition, got %+v", h)
	}
	job, _ := m.Job(snap.ID)
	if job.State != StateFailed {
		t.Fatalf("interrupted job = %+v", job)
	}

	later, err := m.Submit("/m/b.mkv", "/s.srt", "/o/b.mkv")
	if err != nil {
		t.Fatalf("submission must still be accepted: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if job, _ := m.Job(later.ID); job.State != StateIdle {
		t.Fatalf("job after fatal exit = %+v", job)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager(nil, nil, WithRunner(&recordingRunner{}))
	m.Stop()
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.Stop()
	m.Stop()
	if h := m.Health(); h.WorkerRunning || h.WorkerFatal != "" {
		t.Fatalf("health after stop = %+v", h)
	}
}
