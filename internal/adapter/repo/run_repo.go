package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
	"contentgen/internal/sqlinline"
)

// RunRepositoryPG implements domain.RunRepository on PostgreSQL.
type RunRepositoryPG struct {
	db infra.SQLExecutor
}

// NewRunRepository creates a run repository over the marker-aware executor.
func NewRunRepository(db infra.SQLExecutor) *RunRepositoryPG {
	return &RunRepositoryPG{db: db}
}

// EnsureSchema creates the runs table when it does not exist.
func (r *RunRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, sqlinline.QRunsEnsureSchema)
	return err
}

// Create inserts a new run record.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.RunRecord) error {
	summary, err := encodeSummary(run.Summary)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sqlinline.QRunsInsert,
		run.ID,
		run.Subject,
		run.Status,
		summary,
		nullableString(run.Error),
		run.CreatedAt,
	)
	return err
}

// UpdateStatus sets the status and optionally the error and summary.
func (r *RunRepositoryPG) UpdateStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg *string, summary *domain.RunSummary) error {
	raw, err := encodeSummary(summary)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlinline.QRunsUpdateStatus, runID, status, errMsg, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a run by its identifier.
func (r *RunRepositoryPG) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	var (
		run     domain.RunRecord
		summary []byte
	)
	if err := r.db.QueryRow(ctx, sqlinline.QRunsGetByID, runID).Scan(
		&run.ID,
		&run.Subject,
		&run.Status,
		&summary,
		&run.Error,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(summary) > 0 {
		var s domain.RunSummary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("repo: decode run summary: %w", err)
		}
		run.Summary = &s
	}
	return &run, nil
}

func encodeSummary(s *domain.RunSummary) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("repo: encode run summary: %w", err)
	}
	return raw, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)
