package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contentgen/internal/domain"
	"contentgen/internal/pipeline"
)

const maxRunBody = 1 << 20

type createRunRequest struct {
	Subject    string `json:"subject"`
	SourceText string `json:"source_text"`
}

type runResponse struct {
	RunID  string           `json:"run_id"`
	Status domain.RunStatus `json:"status"`
}

// CreateRun records a queued run and executes it in the background.
func (a *App) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.SourceText != "" && req.Subject == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "subject required with source_text")
		return
	}

	rec := &domain.RunRecord{
		ID:        uuid.NewString(),
		Subject:   req.Subject,
		Status:    domain.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Runs.Create(r.Context(), rec); err != nil {
		a.Logger.Error().Err(err).Msg("create run record")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue run")
		return
	}

	go a.execute(pipeline.RunRequest{RunID: rec.ID, Subject: req.Subject, SourceText: req.SourceText})
	a.json(w, http.StatusAccepted, runResponse{RunID: rec.ID, Status: rec.Status})
}

func (a *App) execute(req pipeline.RunRequest) {
	if a.wait != nil {
		defer a.wait()
	}
	ctx := a.BaseCtx
	logger := a.Logger.With().Str("run_id", req.RunID).Logger()

	if err := a.Runs.UpdateStatus(ctx, req.RunID, domain.RunStatusRunning, nil, nil); err != nil {
		logger.Error().Err(err).Msg("mark run running")
	}

	summary, err := a.Runner.Run(ctx, req)
	status := domain.RunStatusSucceeded
	var errMsg *string
	switch {
	case err != nil:
		status = domain.RunStatusFailed
		msg := err.Error()
		errMsg = &msg
	case !summary.Success:
		status = domain.RunStatusFailed
	}

	// The base context may already be cancelled by shutdown; the final
	// status still has to land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.Runs.UpdateStatus(writeCtx, req.RunID, status, errMsg, summary); err != nil {
		logger.Error().Err(err).Msg("record run outcome")
		return
	}
	logger.Info().Str("status", string(status)).Msg("run finished")
}

// GetRun returns the stored record for a run.
func (a *App) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if runID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "run_id required")
		return
	}
	rec, err := a.Runs.GetByID(r.Context(), runID)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("load run")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	a.json(w, http.StatusOK, rec)
}
