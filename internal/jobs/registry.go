package jobs

import "sync"

// Registry records every submitted job so it can be listed. IDs are assigned
// in submission order starting at 1.
type Registry struct {
	mu     sync.RWMutex
	nextID int64
	jobs   []*Job
	byID   map[int64]*Job
	limit  int
}

// NewRegistry creates a registry. A positive historyLimit bounds how many
// jobs are retained; only finished jobs are ever evicted to honour it.
func NewRegistry(historyLimit int) *Registry {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &Registry{byID: make(map[int64]*Job), limit: historyLimit}
}

// Register assigns job an ID and records it. Registering the same job twice
// returns its existing ID.
func (r *Registry) Register(job *Job) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.id != 0 {
		if existing, ok := r.byID[job.id]; ok && existing == job {
			return job.id
		}
	}
	r.nextID++
	job.id = r.nextID
	r.jobs = append(r.jobs, job)
	r.byID[job.id] = job
	r.evictLocked()
	return job.id
}

func (r *Registry) evictLocked() {
	if r.limit <= 0 || len(r.jobs) <= r.limit {
		return
	}
	excess := len(r.jobs) - r.limit
	kept := r.jobs[:0]
	for _, job := range r.jobs {
		if excess > 0 {
			if state, _ := job.State(); state.IsTerminal() {
				delete(r.byID, job.id)
				excess--
				continue
			}
		}
		kept = append(kept, job)
	}
	for i := len(kept); i < len(r.jobs); i++ {
		r.jobs[i] = nil
	}
	r.jobs = kept
}

// Get returns the job with the given ID.
func (r *Registry) Get(id int64) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[id]
	return job, ok
}

// Len reports how many jobs are retained.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// ListAll describes every retained job in ID order.
func (r *Registry) ListAll() []string {
	jobs := r.all()
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Describe())
	}
	return out
}

// Snapshots returns a snapshot of every retained job in ID order.
func (r *Registry) Snapshots() []Snapshot {
	jobs := r.all()
	out := make([]Snapshot, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Snapshot())
	}
	return out
}

// all copies the job list so descriptions (which stat files) run unlocked.
func (r *Registry) all() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Job(nil), r.jobs...)
}
