package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
	"contentgen/internal/sources"
)

// RunRequest selects the subject of a run. Empty fields are resolved from
// the runner's sources.
type RunRequest struct {
	RunID      string
	Subject    string
	SourceText string
}

// Runner drives one subject through every package format.
type Runner struct {
	orchestrator *Orchestrator
	names        sources.NameSource
	documents    sources.DocumentSource
	logger       *infra.Logger
}

// NewRunner wires a Runner. names and documents may be nil when every request
// carries its own subject and text.
func NewRunner(o *Orchestrator, names sources.NameSource, documents sources.DocumentSource, logger *infra.Logger) *Runner {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Runner{orchestrator: o, names: names, documents: documents, logger: logger}
}

// Run produces the post, short and long packages in that order. It returns an
// error only when the subject or its source text cannot be resolved; package
// failures are reported on the summary.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*domain.RunSummary, error) {
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := r.logger.With().Str("run_id", runID).Logger()

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		if r.names == nil {
			return nil, sources.ErrNoSubject
		}
		name, err := r.names.Name(ctx)
		if err != nil {
			return nil, fmt.Errorf("pipeline: resolve subject: %w", err)
		}
		subject = strings.TrimSpace(name)
	}

	text := strings.TrimSpace(req.SourceText)
	if text == "" {
		if r.documents == nil {
			return nil, fmt.Errorf("pipeline: %w: %s", sources.ErrNoDocument, subject)
		}
		doc, err := r.documents.Document(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("pipeline: fetch source text: %w", err)
		}
		text = strings.TrimSpace(doc)
		if text == "" {
			return nil, fmt.Errorf("pipeline: %w: %s", sources.ErrNoDocument, subject)
		}
	}

	summary := &domain.RunSummary{
		RunID:       runID,
		Subject:     subject,
		SourceChars: len([]rune(text)),
		StartedAt:   time.Now().UTC(),
	}
	logger.Info().Str("subject", subject).Int("source_chars", summary.SourceChars).Msg("pipeline: run started")

	o := r.orchestrator.WithLogger(&logger)
	root := PathSafe(subject)
	steps := []func(context.Context, string, string, string) (domain.PackageResult, error){
		o.GeneratePostPackage,
		o.GenerateShortPackage,
		o.GenerateLongPackage,
	}
	summary.Success = true
	for _, step := range steps {
		result, err := step(ctx, subject, text, root)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("pipeline: package did not complete")
		}
		summary.Packages = append(summary.Packages, result)
		summary.Success = summary.Success && result.OverallSuccess
	}
	summary.FinishedAt = time.Now().UTC()

	logger.Info().
		Bool("success", summary.Success).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("pipeline: run finished")
	return summary, nil
}

// PathSafe turns a subject name into a single directory name.
func PathSafe(subject string) string {
	s := strings.TrimSpace(subject)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if strings.Trim(s, ". ") == "" {
		return "unnamed"
	}
	return s
}
