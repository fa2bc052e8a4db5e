package usecase

import (
	"sort"
	"sync"
	"time"

	"ReputationScanner/internal/domain"
)

// JobRegistry holds active and recently finished jobs. Reads return copies,
// so a reader may observe a job between two stage transitions but never a
// half-written field.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewJobRegistry builds an empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: map[string]*domain.Job{}}
}

// Reserve stores job unless its entity already has a running one, in which
// case the running job is returned with false.
func (r *JobRegistry) Reserve(job domain.Job) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runningFor(job.Entity); ok {
		return *existing, false
	}
	stored := job
	r.jobs[job.ID] = &stored
	return job, true
}

// RunningFor returns the running job of an entity.
func (r *JobRegistry) RunningFor(ref domain.EntityRef) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if job, ok := r.runningFor(ref); ok {
		return *job, true
	}
	return domain.Job{}, false
}

func (r *JobRegistry) runningFor(ref domain.EntityRef) (*domain.Job, bool) {
	for _, job := range r.jobs {
		if job.Entity == ref && job.Status == domain.JobRunning {
			return job, true
		}
	}
	return nil, false
}

// Get returns a copy of the job.
func (r *JobRegistry) Get(id string) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// List returns every retained job, oldest first.
func (r *JobRegistry) List() []domain.Job {
	r.mu.RLock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Advance records progress of a running job. Terminal jobs are left untouched.
func (r *JobRegistry) Advance(id string, progress int, stage string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}
	job.Progress = progress
	job.Stage = stage
	return true
}

// Complete moves a running job to completed with its result.
func (r *JobRegistry) Complete(id string, result domain.Parsing, at time.Time) (domain.Job, bool) {
	return r.finish(id, at, func(job *domain.Job) {
		job.Status = domain.JobCompleted
		job.Progress = 100
		job.Stage = "completed"
		job.Result = &result
	})
}

// Fail moves a running job to error with a message.
func (r *JobRegistry) Fail(id string, message string, at time.Time) (domain.Job, bool) {
	return r.finish(id, at, func(job *domain.Job) {
		job.Status = domain.JobError
		job.Stage = "failed"
		job.Error = message
	})
}

func (r *JobRegistry) finish(id string, at time.Time, apply func(job *domain.Job)) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return domain.Job{}, false
	}
	apply(job)
	completed := at
	job.CompletedAt = &completed
	return *job, true
}

// Remove drops a job from the registry.
func (r *JobRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}
