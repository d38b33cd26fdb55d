package model

import "time"

// PlanRequest is one travel request as received by the API.
type PlanRequest struct {
	Query       string   `json:"query" validate:"required,nonblank,max=2000"`
	Origin      string   `json:"origin,omitempty" validate:"max=64"`
	Destination string   `json:"destination,omitempty" validate:"max=64"`
	Interests   []string `json:"interests,omitempty" validate:"max=10,dive,nonblank,max=64"`
}

// JobStatus is the lifecycle state of an asynchronous planning job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job reached a terminal state.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is an asynchronous planning run. Result holds the final state only.
type Job struct {
	ID        string         `json:"id"`
	Status    JobStatus      `json:"status"`
	Request   PlanRequest    `json:"request"`
	Result    *PlanningState `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewJob creates a pending job.
func NewJob(id string, req PlanRequest, now time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    JobPending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
