package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrSubmission = errors.New("submission failed")
	ErrProtocol   = errors.New("protocol violation")
	ErrGeneration = errors.New("generation failed")
	ErrTimeout    = errors.New("timed out")
	ErrValidation = errors.New("validation failed")
	ErrRetrieval  = errors.New("retrieval failed")
)

var kindNames = []struct {
	err  error
	name string
}{
	{ErrSubmission, "submission"},
	{ErrProtocol, "protocol"},
	{ErrGeneration, "generation"},
	{ErrTimeout, "timeout"},
	{ErrValidation, "validation"},
	{ErrRetrieval, "retrieval"},
}

// JobError describes a failed media or text job. Kind is one of the sentinel
// errors above so callers can match with errors.Is.
type JobError struct {
	Kind       error
	Op         string
	JobID      string
	StatusCode int
	Detail     string
	Err        error
}

func (e *JobError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("job error")
	}
	if e.JobID != "" {
		fmt.Fprintf(&b, " (job %s)", e.JobID)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *JobError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewValidationError builds a validation JobError with the given detail.
func NewValidationError(op, detail string) error {
	return &JobError{Kind: ErrValidation, Op: op, Detail: detail}
}

// KindOf names the error kind for logs and asset outcomes.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
