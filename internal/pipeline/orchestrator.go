// Package pipeline sequences the text, prompt and media stages that turn a
// subject's source text into post, short video and long video packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
	"contentgen/internal/providers/textgen"
	"contentgen/internal/providers/wavespeed"
)

// Stages a package moves through. The last one reached is reported on the
// PackageResult.
const (
	StageInit             = "init"
	StageScriptGenerated  = "script_generated"
	StageSectioned        = "sectioned"
	StagePromptsGenerated = "prompts_generated"
	StagePromptsSanitized = "prompts_sanitized"
	StageMediaSubmitted   = "media_submitted"
	StageDone             = "done"
)

const headerRule = "=================================================="

// MediaClient submits render jobs and waits for their results.
type MediaClient interface {
	SubmitImage(ctx context.Context, req wavespeed.ImageRequest) (*domain.GenerationJob, error)
	SubmitVideo(ctx context.Context, req wavespeed.VideoRequest) (*domain.GenerationJob, error)
	AwaitCompletion(ctx context.Context, job *domain.GenerationJob, opts wavespeed.AwaitOptions) (*domain.MediaResult, error)
}

// PromptCleaner turns a raw generated prompt into one safe to render.
type PromptCleaner interface {
	Sanitize(spec domain.PromptSpec) string
}

// Store persists package files relative to its root.
type Store interface {
	WriteFile(ctx context.Context, dir, name string, data []byte) (string, error)
	WriteText(ctx context.Context, dir, name, text string) (string, error)
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Text      textgen.Generator
	Media     MediaClient
	Sanitizer PromptCleaner
	Store     Store
	Logger    *infra.Logger
}

// Settings tune text calls and media rendering.
type Settings struct {
	Model       string
	Temperature float64
	// MaxTokens caps every text call when positive.
	MaxTokens int

	MaxSourceChars   int
	MediaConcurrency int
	RenderMedia      bool
	ImagePolicy      wavespeed.PollPolicy
	VideoPolicy      wavespeed.PollPolicy
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Model:            "gpt-4o-mini",
		Temperature:      0.7,
		MaxSourceChars:   20000,
		MediaConcurrency: 1,
		RenderMedia:      true,
		ImagePolicy:      wavespeed.ImagePollPolicy(),
		VideoPolicy:      wavespeed.VideoPollPolicy(),
	}
}

// Orchestrator produces content packages for a subject.
type Orchestrator struct {
	deps     Deps
	settings Settings
	logger   *infra.Logger
}

// NewOrchestrator validates deps and applies defaults to settings.
func NewOrchestrator(deps Deps, settings Settings) (*Orchestrator, error) {
	if deps.Text == nil {
		return nil, errors.New("pipeline: text generator is required")
	}
	if deps.Sanitizer == nil {
		return nil, errors.New("pipeline: sanitizer is required")
	}
	if deps.Store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	if settings.RenderMedia && deps.Media == nil {
		return nil, errors.New("pipeline: media client is required when rendering media")
	}
	if settings.MediaConcurrency < 1 {
		settings.MediaConcurrency = 1
	}
	if settings.MaxSourceChars <= 0 {
		settings.MaxSourceChars = 20000
	}
	logger := deps.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Orchestrator{
		deps:     deps,
		settings: settings,
		logger:   logger,
	}, nil
}

// WithLogger returns a shallow copy that logs through logger.
func (o *Orchestrator) WithLogger(logger *infra.Logger) *Orchestrator {
	if logger == nil {
		return o
	}
	clone := *o
	clone.logger = logger
	return &clone
}

// packageRun tracks one package while it is being built.
type packageRun struct {
	result  domain.PackageResult
	subject string
	dir     string
	logger  infra.Logger
}

func (o *Orchestrator) newRun(format domain.Format, subject, outputRoot, dirName string) *packageRun {
	pr := &packageRun{
		result:  domain.PackageResult{Format: format, Stage: StageInit},
		subject: subject,
		dir:     path.Join(outputRoot, dirName),
		logger:  o.logger.With().Str("format", string(format)).Str("subject", subject).Logger(),
	}
	pr.logger.Info().Str("stage", StageInit).Msg("pipeline: package started")
	return pr
}

func (pr *packageRun) advance(stage string) {
	pr.result.Stage = stage
	pr.logger.Info().Str("stage", stage).Msg("pipeline: stage reached")
}

// abort records a failure of the main text call. No assets are reported.
func (pr *packageRun) abort(err error) (domain.PackageResult, error) {
	pr.result.Aborted = true
	pr.result.OverallSuccess = false
	pr.result.Assets = nil
	pr.result.Error = err.Error()
	pr.logger.Error().
		Err(err).
		Str("stage", pr.result.Stage).
		Str("error_kind", domain.KindOf(err)).
		Msg("pipeline: package aborted")
	return pr.result, fmt.Errorf("pipeline: %s package aborted: %w", pr.result.Format, err)
}

func (pr *packageRun) finish(assets []domain.AssetOutcome) domain.PackageResult {
	pr.result.Assets = assets
	ok := len(assets) > 0
	for _, a := range assets {
		if a.Status != domain.AssetSuccess {
			ok = false
		}
		ev := pr.logger.Info()
		if a.Status != domain.AssetSuccess {
			ev = pr.logger.Warn().Str("error_kind", a.ErrorKind).Str("error", a.Error)
		}
		ev.Str("asset", a.Name).Str("status", string(a.Status)).Msg("pipeline: asset finished")
	}
	pr.result.OverallSuccess = ok
	pr.advance(StageDone)
	pr.logger.Info().
		Bool("success", ok).
		Int("succeeded", pr.result.Succeeded()).
		Int("assets", len(assets)).
		Msg("pipeline: package finished")
	return pr.result
}

func (o *Orchestrator) generate(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if o.settings.MaxTokens > 0 && maxTokens > o.settings.MaxTokens {
		maxTokens = o.settings.MaxTokens
	}
	return o.deps.Text.Generate(ctx, textgen.Request{
		System:      system,
		User:        user,
		Model:       o.settings.Model,
		Temperature: o.settings.Temperature,
		MaxTokens:   maxTokens,
	})
}

func (o *Orchestrator) truncate(source string) string {
	source = strings.TrimSpace(source)
	if utf8.RuneCountInString(source) <= o.settings.MaxSourceChars {
		return source
	}
	runes := []rune(source)
	return string(runes[:o.settings.MaxSourceChars])
}

// writeHeaded persists body under a "<title> for <Subject>" banner.
func (o *Orchestrator) writeHeaded(ctx context.Context, pr *packageRun, name, title, body string) (string, error) {
	// A Caser keeps state, so one is built per call.
	subject := cases.Title(language.English).String(pr.subject)
	text := fmt.Sprintf("%s for %s\n%s\n\n%s\n", title, subject, headerRule, body)
	return o.deps.Store.WriteText(ctx, pr.dir, name, text)
}

// assetPlan describes one media asset from raw prompt to rendered file.
type assetPlan struct {
	Name         string
	Category     domain.PromptCategory
	Raw          string
	Err          error
	RetainName   bool
	SectionIndex *int
	PromptFile   string
	MediaFile    string
	Width        int
	Height       int
	Aspect       string
	Duration     int
}

type preparedAsset struct {
	plan    assetPlan
	outcome domain.AssetOutcome
	prompt  string
	video   wavespeed.VideoMetadata
	ready   bool
}

// renderPlans sanitizes, persists and renders every plan. Each plan fails on
// its own; the returned outcomes keep plan order.
func (o *Orchestrator) renderPlans(ctx context.Context, pr *packageRun, plans []assetPlan) []domain.AssetOutcome {
	prepared := make([]*preparedAsset, len(plans))
	for i, plan := range plans {
		prepared[i] = o.prepare(ctx, pr, plan)
	}
	pr.advance(StagePromptsSanitized)

	if o.settings.RenderMedia {
		var g errgroup.Group
		g.SetLimit(o.settings.MediaConcurrency)
		for _, p := range prepared {
			if !p.ready {
				continue
			}
			g.Go(func() error {
				o.render(ctx, pr, p)
				return nil
			})
		}
		_ = g.Wait()
		pr.advance(StageMediaSubmitted)
	}

	outcomes := make([]domain.AssetOutcome, len(prepared))
	for i, p := range prepared {
		outcomes[i] = p.outcome
	}
	return outcomes
}

func (o *Orchestrator) prepare(ctx context.Context, pr *packageRun, plan assetPlan) *preparedAsset {
	p := &preparedAsset{
		plan:    plan,
		outcome: domain.AssetOutcome{Name: plan.Name, Kind: string(plan.Category)},
	}
	if plan.Err != nil {
		fail(&p.outcome, plan.Err)
		return p
	}

	raw := plan.Raw
	if plan.Category == domain.PromptCategoryVideo {
		p.video = wavespeed.ParseVideoMetadataDefaults(raw, plan.Duration, plan.Aspect)
		raw = p.video.Prompt
	}
	cleaned := o.deps.Sanitizer.Sanitize(domain.PromptSpec{
		RawText:           raw,
		SubjectName:       pr.subject,
		Category:          plan.Category,
		SectionIndex:      plan.SectionIndex,
		RetainSubjectName: plan.RetainName,
	})
	if cleaned == "" {
		fail(&p.outcome, domain.NewValidationError("pipeline: sanitize "+plan.Name, "prompt is empty after sanitization"))
		return p
	}
	p.prompt = cleaned

	promptPath, err := o.deps.Store.WriteText(ctx, pr.dir, plan.PromptFile, cleaned+"\n")
	if err != nil {
		fail(&p.outcome, fmt.Errorf("pipeline: persist prompt: %w", err))
		return p
	}
	p.outcome.PromptPath = promptPath

	if !o.settings.RenderMedia {
		p.outcome.Status = domain.AssetSuccess
		return p
	}
	p.ready = true
	return p
}

func (o *Orchestrator) render(ctx context.Context, pr *packageRun, p *preparedAsset) {
	var (
		job *domain.GenerationJob
		err error
	)
	opts := wavespeed.AwaitOptions{Policy: o.settings.ImagePolicy}
	switch p.plan.Category {
	case domain.PromptCategoryVideo:
		opts.Policy = o.settings.VideoPolicy
		job, err = o.deps.Media.SubmitVideo(ctx, wavespeed.VideoRequest{
			Prompt:      p.prompt,
			AspectRatio: p.video.AspectRatio,
			Duration:    p.video.Duration,
		})
	default:
		opts.Dir = pr.dir
		opts.FileName = p.plan.MediaFile
		job, err = o.deps.Media.SubmitImage(ctx, wavespeed.ImageRequest{
			Prompt: p.prompt,
			Width:  p.plan.Width,
			Height: p.plan.Height,
		})
	}
	if err != nil {
		fail(&p.outcome, err)
		return
	}
	pr.logger.Info().Str("asset", p.plan.Name).Str("job_id", job.ID).Msg("pipeline: media job submitted")

	res, err := o.deps.Media.AwaitCompletion(ctx, job, opts)
	if err != nil {
		fail(&p.outcome, err)
		return
	}
	p.outcome.MediaURL = res.RemoteURL
	p.outcome.MediaPath = res.LocalPath

	if p.plan.Category == domain.PromptCategoryVideo {
		urlPath, err := o.deps.Store.WriteText(ctx, pr.dir, p.plan.MediaFile, res.RemoteURL+"\n")
		if err != nil {
			fail(&p.outcome, fmt.Errorf("pipeline: persist video url: %w", err))
			return
		}
		p.outcome.MediaPath = urlPath
	}
	p.outcome.Status = domain.AssetSuccess
}

func fail(outcome *domain.AssetOutcome, err error) {
	outcome.Status = domain.AssetFailure
	outcome.ErrorKind = domain.KindOf(err)
	outcome.Error = err.Error()
}

// textOutcome records an asset that consists of a persisted text file only.
func textOutcome(name, filePath string, err error) domain.AssetOutcome {
	out := domain.AssetOutcome{Name: name, Kind: "text"}
	if err != nil {
		fail(&out, err)
		return out
	}
	out.Status = domain.AssetSuccess
	out.MediaPath = filePath
	return out
}
