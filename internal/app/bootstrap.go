// Package app assembles the pipeline and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentgen/internal/adapter/repo"
	"contentgen/internal/domain"
	"contentgen/internal/infra"
	"contentgen/internal/pipeline"
	"contentgen/internal/prompt"
	"contentgen/internal/providers/textgen"
	"contentgen/internal/providers/wavespeed"
	"contentgen/internal/sources"
	"contentgen/internal/storage"
)

// Overrides replace configuration values for a single invocation.
type Overrides struct {
	Subject          string
	NamesFile        string
	OutputDir        string
	MediaConcurrency int
}

func (o Overrides) apply(cfg infra.Config) infra.Config {
	if s := strings.TrimSpace(o.Subject); s != "" {
		cfg.SubjectName = s
	}
	if o.NamesFile != "" {
		cfg.NamesFile = o.NamesFile
	}
	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}
	if o.MediaConcurrency > 0 {
		cfg.MediaConcurrency = o.MediaConcurrency
	}
	return cfg
}

// BuildRunner wires text generation, media rendering, sanitizing, storage and
// subject sources into a Runner.
func BuildRunner(cfg *infra.Config, overrides Overrides, logger *infra.Logger) (*pipeline.Runner, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	c := overrides.apply(*cfg)

	store, err := storage.NewFileStore(c.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("app: output dir: %w", err)
	}

	var terms []string
	if c.RestrictedTermsFile != "" {
		terms, err = prompt.LoadRestrictedTerms(c.RestrictedTermsFile)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	text := textgen.NewOpenAI(textgen.OpenAIOptions{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   c.OpenAIModel,
		Logger:  logger,
	})

	settings := pipeline.DefaultSettings()
	settings.Model = c.OpenAIModel
	settings.Temperature = c.OpenAITemperature
	settings.MaxTokens = c.OpenAIMaxTokens
	settings.MaxSourceChars = c.MaxSourceChars
	settings.MediaConcurrency = c.MediaConcurrency
	settings.RenderMedia = c.RenderMedia()
	settings.ImagePolicy = wavespeed.PollPolicy{Interval: c.ImagePollInterval, MaxAttempts: c.ImagePollMaxAttempts}
	settings.VideoPolicy = wavespeed.PollPolicy{Interval: c.VideoPollInterval, BackoffAfter: c.VideoPollBackoff, Timeout: c.VideoPollTimeout}

	deps := pipeline.Deps{
		Text:      text,
		Sanitizer: prompt.NewSanitizer(prompt.Options{RestrictedTerms: terms}),
		Store:     store,
		Logger:    logger,
	}
	if settings.RenderMedia {
		deps.Media = wavespeed.NewClient(wavespeed.Options{
			APIKey:  c.WavespeedAPIKey,
			BaseURL: c.WavespeedBaseURL,
			Writer:  store,
			Logger:  logger,
		})
	} else {
		logger.Warn().Msg("WAVESPEED_API_KEY not set; media will not be rendered")
	}

	orchestrator, err := pipeline.NewOrchestrator(deps, settings)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(orchestrator, nameSource(c), documentSource(c, logger), logger), nil
}

func nameSource(c infra.Config) sources.NameSource {
	if c.SubjectName != "" {
		return sources.StaticName(c.SubjectName)
	}
	if c.NamesFile != "" {
		return sources.FileName{Path: c.NamesFile, Sheet: c.NamesSheet}
	}
	return nil
}

func documentSource(c infra.Config, logger *infra.Logger) sources.DocumentSource {
	if c.SourceDir != "" {
		return sources.FileDocuments{Dir: c.SourceDir}
	}
	return sources.NewWikipedia(sources.WikipediaOptions{
		BaseURL:      c.WikipediaBaseURL,
		RequestDelay: c.WikipediaRequestDelay,
		Logger:       logger,
	})
}

// OpenRunRepository returns the PostgreSQL ledger when DATABASE_URL is set
// and an in-memory ledger otherwise. The returned func releases resources.
func OpenRunRepository(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (domain.RunRepository, func(), error) {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if errors.Is(err, infra.ErrNoDatabase) {
		logger.Info().Msg("DATABASE_URL not set; using in-memory run ledger")
		return repo.NewRunRepositoryMemory(), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	runs := repo.NewRunRepository(infra.NewSQLRunner(pool, *logger))
	if err := runs.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("app: ensure schema: %w", err)
	}
	return runs, pool.Close, nil
}
