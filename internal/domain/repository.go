package domain

import "context"

// RunRepository persists run records for the HTTP API and CLI.
type RunRepository interface {
	Create(ctx context.Context, run *RunRecord) error
	UpdateStatus(ctx context.Context, runID string, status RunStatus, errMsg *string, summary *RunSummary) error
	GetByID(ctx context.Context, runID string) (*RunRecord, error)
}
