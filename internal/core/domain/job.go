package domain

import (
	"errors"
	"time"
)

// ErrJobNotFound reports an unknown or expired render job ID.
var ErrJobNotFound = errors.New("render job not found")

// JobState is the lifecycle of a queued render job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// RenderJob is the message published to the render queue.
type RenderJob struct {
	ID         string        `json:"id"`
	Request    PosterRequest `json:"request"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// JobStatus is the persisted state of a render job, updated by the worker
// as the pipeline advances.
type JobStatus struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Stage     Stage     `json:"stage,omitempty"`
	File      string    `json:"file,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressEvent is broadcast while a job renders, relayed to WebSocket
// subscribers.
type ProgressEvent struct {
	JobID   string    `json:"job_id"`
	State   JobState  `json:"state"`
	Stage   Stage     `json:"stage,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}
