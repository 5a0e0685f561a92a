package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout", &JobError{Kind: ErrTimeout, JobID: "j1"}, "timeout"},
		{"wrapped", fmt.Errorf("outer: %w", &JobError{Kind: ErrRetrieval}), "retrieval"},
		{"validation helper", NewValidationError("sanitize", "empty prompt"), "validation"},
		{"plain", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJobErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := &JobError{Kind: ErrSubmission, Op: "wavespeed: submit image", StatusCode: 502, Err: cause}

	if !errors.Is(err, ErrSubmission) {
		t.Fatalf("expected errors.Is ErrSubmission")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is cause")
	}
	if errors.Is(err, ErrGeneration) {
		t.Fatalf("submission error must not match ErrGeneration")
	}
	want := "wavespeed: submit image: submission failed status 502: connection reset"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestParseJobStatus(t *testing.T) {
	cases := map[string]JobStatus{
		"completed":  JobStatusCompleted,
		"FAILED":     JobStatusFailed,
		"created":    JobStatusRunning,
		"processing": JobStatusRunning,
		"":           JobStatusRunning,
	}
	for raw, want := range cases {
		if got := ParseJobStatus(raw); got != want {
			t.Fatalf("ParseJobStatus(%q) = %q, want %q", raw, got, want)
		}
	}
	if JobStatusRunning.Terminal() || !JobStatusFailed.Terminal() {
		t.Fatalf("Terminal() mismatch")
	}
}
