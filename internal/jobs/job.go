package jobs

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"subremux/internal/fileutil"
	"subremux/internal/textutil"
)

// Job is a single remux request. Its identity is fixed at construction; only
// the state cell changes, and only through the Runner.
type Job struct {
	id          int64
	name        string
	source      string
	subtitle    string
	destination string
	createdAt   time.Time

	mu         sync.RWMutex
	state      State
	detail     string
	startedAt  time.Time
	finishedAt time.Time
}

// Snapshot is a point-in-time copy of a Job suitable for rendering.
type Snapshot struct {
	ID          int64
	Name        string
	Source      string
	Subtitle    string
	Destination string
	State       State
	Detail      string
	Progress    int
	CreatedAt   time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewJob constructs an idle job. The display name is the source's base name
// truncated to nameLimit runes; a non-positive limit keeps the full name.
func NewJob(source, subtitle, destination string, nameLimit int) *Job {
	name := filepath.Base(source)
	if nameLimit > 0 {
		name = textutil.Truncate(name, nameLimit)
	}
	return &Job{
		name:        name,
		source:      source,
		subtitle:    subtitle,
		destination: destination,
		createdAt:   time.Now(),
		state:       StateIdle,
	}
}

// ID returns the registry handle, or 0 if the job was never registered.
func (j *Job) ID() int64 { return j.id }

func (j *Job) Name() string        { return j.name }
func (j *Job) Source() string      { return j.source }
func (j *Job) Subtitle() string    { return j.subtitle }
func (j *Job) Destination() string { return j.destination }

// State returns the current state and, for failed jobs, the failure detail.
func (j *Job) State() (State, string) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state, j.detail
}

func (j *Job) transition(next State, detail string, now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.state.canTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.state, next)
	}
	j.state = next
	switch next {
	case StateRunning:
		j.startedAt = now
	case StateFailed:
		j.detail = detail
		j.finishedAt = now
	case StateSucceeded:
		j.finishedAt = now
	}
	return nil
}

func (j *Job) start(now time.Time) error { return j.transition(StateRunning, "", now) }

func (j *Job) succeed(now time.Time) error { return j.transition(StateSucceeded, "", now) }

func (j *Job) fail(detail string, now time.Time) error {
	return j.transition(StateFailed, detail, now)
}

// Progress estimates completion as floor(100 * destination size / source
// size). It returns 0 when either file cannot be read or the source is empty.
// The estimate tracks stream-copy output growth and may exceed 100.
func (j *Job) Progress() int {
	dst, err := fileutil.FileSize(j.destination)
	if err != nil {
		return 0
	}
	src, err := fileutil.FileSize(j.source)
	if err != nil || src <= 0 {
		return 0
	}
	return int(100 * dst / src)
}

// Tag renders the state the way listings show it.
func (j *Job) Tag() string {
	state, detail := j.State()
	return stateTag(state, detail)
}

func stateTag(state State, detail string) string {
	switch state {
	case StateSucceeded:
		return "OK"
	case StateFailed:
		if detail == "" {
			return "Err"
		}
		return "Err: " + detail
	default:
		return string(state)
	}
}

// Describe renders "<name>: [<state>] <progress>%".
func (j *Job) Describe() string {
	return fmt.Sprintf("%s: [%s] %d%%", j.name, j.Tag(), j.Progress())
}

func (j *Job) String() string { return j.Describe() }

// Snapshot captures the job's current state and progress.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	snap := Snapshot{
		ID:          j.id,
		Name:        j.name,
		Source:      j.source,
		Subtitle:    j.subtitle,
		Destination: j.destination,
		State:       j.state,
		Detail:      j.detail,
		CreatedAt:   j.createdAt,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
	}
	j.mu.RUnlock()
	snap.Progress = j.Progress()
	return snap
}

// Describe renders the snapshot in the same form as Job.Describe.
func (s Snapshot) Describe() string {
	return fmt.Sprintf("%s: [%s] %d%%", s.Name, stateTag(s.State, s.Detail), s.Progress)
}
