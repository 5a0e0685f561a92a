package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
	"contentgen/internal/pipeline"
)

// Runner executes one content run.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*domain.RunSummary, error)
}

type App struct {
	Runner Runner
	Runs   domain.RunRepository
	Logger *infra.Logger
	// OutputDir is the root the runner writes packages under.
	OutputDir string
	// BaseCtx outlives individual requests; accepted runs execute under it.
	BaseCtx context.Context

	// wait, when set, is called after a background run finishes. Tests use it.
	wait func()
}

func NewApp(ctx context.Context, runner Runner, runs domain.RunRepository, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &App{Runner: runner, Runs: runs, Logger: logger, BaseCtx: ctx}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
