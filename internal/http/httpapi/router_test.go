package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentgen/internal/adapter/repo"
	"contentgen/internal/domain"
	"contentgen/internal/http/handlers"
	"contentgen/internal/middleware"
	"contentgen/internal/pipeline"
)

type blockingRunner struct{ release chan struct{} }

func (b blockingRunner) Run(ctx context.Context, req pipeline.RunRequest) (*domain.RunSummary, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return &domain.RunSummary{RunID: req.RunID, Success: true}, nil
}

func TestRouterRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := blockingRunner{release: make(chan struct{})}
	defer close(runner.release)
	app := handlers.NewApp(ctx, runner, repo.NewRunRepositoryMemory(), nil)
	srv := httptest.NewServer(NewRouter(app, Options{RateLimitPerMin: 1}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("healthz = %d, request id %q", resp.StatusCode, resp.Header.Get(middleware.RequestIDHeader))
	}

	resp, err = http.Post(srv.URL+"/v1/runs", "application/json", strings.NewReader(`{"subject":"Ada Lovelace"}`))
	if err != nil {
		t.Fatalf("post run: %v", err)
	}
	var created struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	err = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusAccepted || created.RunID == "" {
		t.Fatalf("post run = %d %+v (%v)", resp.StatusCode, created, err)
	}

	resp, err = http.Get(srv.URL + "/v1/runs/" + created.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	var rec domain.RunRecord
	err = json.NewDecoder(resp.Body).Decode(&rec)
	resp.Body.Close()
	if err != nil || rec.ID != created.RunID || rec.Subject != "Ada Lovelace" {
		t.Fatalf("get run = %+v (%v)", rec, err)
	}

	resp, err = http.Post(srv.URL+"/v1/runs", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second post = %d, want 429", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/runs/unknown")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown run = %d, want 404", resp.StatusCode)
	}
}
