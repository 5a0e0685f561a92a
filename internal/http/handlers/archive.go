package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contentgen/internal/domain"
	"contentgen/internal/pipeline"
	"contentgen/pkg/zip"
)

// RunArchive streams the files a finished run wrote as a zip archive.
func (a *App) RunArchive(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	rec, err := a.Runs.GetByID(r.Context(), runID)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	if rec.Status == domain.RunStatusQueued || rec.Status == domain.RunStatusRunning {
		a.error(w, http.StatusConflict, "run_in_progress", "run has not finished")
		return
	}
	if rec.Summary == nil || rec.Summary.Subject == "" || a.OutputDir == "" {
		a.error(w, http.StatusNotFound, "not_found", "run produced no files")
		return
	}

	folder := pipeline.PathSafe(rec.Summary.Subject)
	var buf bytes.Buffer
	if err := zip.ArchiveDir(&buf, filepath.Join(a.OutputDir, folder), folder); err != nil {
		a.Logger.Warn().Err(err).Str("run_id", runID).Msg("archive run output")
		a.error(w, http.StatusNotFound, "not_found", "run produced no files")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+runID+`.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
