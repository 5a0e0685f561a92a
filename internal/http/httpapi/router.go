package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contentgen/internal/http/handlers"
	"contentgen/internal/infra"
	"contentgen/internal/middleware"
)

// Options tunes the router.
type Options struct {
	// RateLimitPerMin caps run submissions per client IP. Zero disables it.
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/runs", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.CreateRun)
		r.Get("/{run_id}", app.GetRun)
		r.Get("/{run_id}/archive", app.RunArchive)
	})

	return r
}

// OptionsFromConfig maps configuration onto router options.
func OptionsFromConfig(cfg *infra.Config) Options {
	return Options{RateLimitPerMin: cfg.RateLimitPerMin}
}
