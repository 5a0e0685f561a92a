package domain

import (
	"strings"
	"time"
)

// JobKind enumerates the media job categories accepted by the render service.
type JobKind string

const (
	JobKindImage JobKind = "image"
	JobKindVideo JobKind = "video"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ParseJobStatus maps a remote status string to a JobStatus. Anything that is
// not terminal is reported as running.
func ParseJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed":
		return JobStatusCompleted
	case "failed":
		return JobStatusFailed
	default:
		return JobStatusRunning
	}
}

// Terminal reports whether no further polling is needed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GenerationJob tracks one submitted media job. It is owned by the caller that
// submitted it and mutated only while awaiting completion.
type GenerationJob struct {
	ID          string
	Kind        JobKind
	Request     map[string]any
	Status      JobStatus
	SubmittedAt time.Time
	Result      *MediaResult
	Error       string
}

// MediaResult is the retrieved output of a completed job. LocalPath is empty
// when nothing was downloaded.
type MediaResult struct {
	RemoteURL string
	LocalPath string
}
