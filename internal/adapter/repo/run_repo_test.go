package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"contentgen/internal/domain"
	"contentgen/internal/sqlinline"
)

func TestRunRepositoryPGCreateEncodesSummary(t *testing.T) {
	exec := &recordingExec{}
	r := NewRunRepository(exec)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := &domain.RunRecord{
		ID:        "run-1",
		Subject:   "Ada Lovelace",
		Status:    domain.RunStatusQueued,
		Summary:   &domain.RunSummary{RunID: "run-1", Success: true},
		CreatedAt: created,
	}
	if err := r.Create(context.Background(), run); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if exec.queries[0] != sqlinline.QRunsInsert {
		t.Fatalf("unexpected query %q", exec.queries[0])
	}
	args := exec.args[0]
	raw, ok := args[3].([]byte)
	if !ok {
		t.Fatalf("summary arg = %T", args[3])
	}
	var decoded domain.RunSummary
	if err := json.Unmarshal(raw, &decoded); err != nil || !decoded.Success {
		t.Fatalf("summary = %s, %v", raw, err)
	}
	if args[4].(*string) != nil {
		t.Fatalf("empty error should be stored as NULL")
	}
}

func TestRunRepositoryPGUpdateStatusNotFound(t *testing.T) {
	exec := &recordingExec{affected: 0}
	r := NewRunRepository(exec)
	if err := r.UpdateStatus(context.Background(), "missing", domain.RunStatusFailed, nil, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	exec.affected = 1
	if err := r.UpdateStatus(context.Background(), "run-1", domain.RunStatusSucceeded, nil, nil); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
}

func TestRunRepositoryPGGetByID(t *testing.T) {
	summary, _ := json.Marshal(domain.RunSummary{RunID: "run-1", Subject: "Ada Lovelace"})
	now := time.Now().UTC()
	exec := &recordingExec{row: simpleRow{scan: func(dest ...any) error {
		*dest[0].(*string) = "run-1"
		*dest[1].(*string) = "Ada Lovelace"
		*dest[2].(*domain.RunStatus) = domain.RunStatusSucceeded
		*dest[3].(*[]byte) = summary
		*dest[4].(*string) = ""
		*dest[5].(*time.Time) = now
		*dest[6].(*time.Time) = now
		return nil
	}}}
	r := NewRunRepository(exec)

	run, err := r.GetByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if run.Status != domain.RunStatusSucceeded || run.Summary == nil || run.Summary.Subject != "Ada Lovelace" {
		t.Fatalf("run = %+v", run)
	}

	exec.row = simpleRow{}
	if _, err := r.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRepositoryMemory(t *testing.T) {
	r := NewRunRepositoryMemory()
	ctx := context.Background()
	if err := r.Create(ctx, &domain.RunRecord{ID: "a", Subject: "Ada", Status: domain.RunStatusQueued}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := r.Create(ctx, &domain.RunRecord{ID: "a"}); err == nil {
		t.Fatalf("duplicate create should fail")
	}
	msg := "boom"
	if err := r.UpdateStatus(ctx, "a", domain.RunStatusFailed, &msg, &domain.RunSummary{RunID: "a"}); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	got, err := r.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Status != domain.RunStatusFailed || got.Error != "boom" || got.Summary == nil || got.CreatedAt.IsZero() {
		t.Fatalf("run = %+v", got)
	}
	if _, err := r.GetByID(ctx, "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := r.UpdateStatus(ctx, "b", domain.RunStatusRunning, nil, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
