// Package registry holds the in-memory map of repair jobs.
//
// Concurrency contract: many readers (status polling) and a single writer
// per entry (the job's own orchestrator goroutine). Readers always get deep
// copies so no caller can observe a job mid-mutation. The registry has
// process lifetime; entries are never evicted here.
package registry

import (
	"errors"
	"sort"
	"sync"

	"fixplane/internal/repair"
)

// ErrNotFound is returned when a job ID has no entry.
var ErrNotFound = errors.New("job not found")

// Registry is the process-wide job store. Construct once in main and pass
// by reference; there is no package-level instance.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*repair.Job
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]*repair.Job)}
}

// Put stores a snapshot of the job, replacing any existing entry.
func (r *Registry) Put(job *repair.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job.Clone()
}

// Get returns a deep copy of the job or ErrNotFound.
func (r *Registry) Get(id string) (*repair.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies fn to the stored job under the write lock. It is the only
// mutation path for an existing entry; fn must not retain the pointer.
func (r *Registry) Update(id string, fn func(*repair.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	return nil
}

// List returns copies of all jobs ordered by creation time, newest first.
func (r *Registry) List() []*repair.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*repair.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Running returns the number of jobs still in the RUNNING state.
func (r *Registry) Running() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, job := range r.jobs {
		if job.Status == repair.JobStatusRunning {
			n++
		}
	}
	return n
}
