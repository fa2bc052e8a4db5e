package domain

import "time"

// JobStatus enumerates the job lifecycle.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// Terminal reports whether no further transition can happen.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// Job is one execution of the retrieve, classify, aggregate and persist pipeline.
type Job struct {
	ID          string     `json:"id"`
	Entity      EntityRef  `json:"entity"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Stage       string     `json:"stage"`
	Result      *Parsing   `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
