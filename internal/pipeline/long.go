package pipeline

import (
	"context"
	"fmt"

	"contentgen/internal/domain"
	"contentgen/internal/sections"
)

const (
	longDir          = "long video"
	longVideoAspect  = "16:9"
	longVideoSeconds = 5
)

// videoSections are rendered as clips; every other section gets a still.
var videoSections = map[int]bool{3: true, 6: true, 9: true, 12: true}

// GenerateLongPackage writes a documentary package: a sectioned script, one
// image or video per section and a description. The error is non-nil only
// when the script call fails.
func (o *Orchestrator) GenerateLongPackage(ctx context.Context, subject, sourceText, outputRoot string) (domain.PackageResult, error) {
	pr := o.newRun(domain.FormatLong, subject, outputRoot, longDir)
	source := o.truncate(sourceText)

	script, err := o.generate(ctx, systemLong, longScriptPrompt(subject, source), longScriptMaxTokens)
	if err != nil {
		return pr.abort(err)
	}
	if _, err := o.writeHeaded(ctx, pr, "complete_response.txt", "Complete AI Response", script); err != nil {
		pr.logger.Warn().Err(err).Msg("pipeline: persist complete response")
	}
	if _, err := o.writeHeaded(ctx, pr, "script.txt", "Documentary Script", script); err != nil {
		pr.logger.Warn().Err(err).Msg("pipeline: persist script")
	}
	pr.advance(StageScriptGenerated)

	split := sections.Split(script, longSectionCount)
	if len(split.Missing) > 0 {
		pr.logger.Warn().Ints("missing", split.Missing).Str("strategy", string(split.Strategy)).Msg("pipeline: script has gaps")
	}
	pr.logger.Info().Int("sections", len(split.Sections)).Str("strategy", string(split.Strategy)).Msg("pipeline: script sectioned")
	pr.advance(StageSectioned)

	plans := make([]assetPlan, 0, longSectionCount)
	for i := 1; i <= longSectionCount; i++ {
		plans = append(plans, o.sectionPlan(ctx, split, i))
	}
	description, descErr := o.generate(ctx, systemDescription, longDescriptionPrompt(subject, script), descriptionMaxTokens)
	pr.advance(StagePromptsGenerated)

	assets := o.renderPlans(ctx, pr, plans)

	var descPath string
	if descErr == nil {
		descPath, descErr = o.writeHeaded(ctx, pr, "description.txt", "Description", description)
	}
	assets = append(assets, textOutcome("description", descPath, descErr))
	return pr.finish(assets), nil
}

func (o *Orchestrator) sectionPlan(ctx context.Context, split sections.Result, index int) assetPlan {
	idx := index
	plan := assetPlan{SectionIndex: &idx}
	if videoSections[index] {
		plan.Name = fmt.Sprintf("section_%02d_video", index)
		plan.Category = domain.PromptCategoryVideo
		plan.PromptFile = plan.Name + "_prompt.txt"
		plan.MediaFile = plan.Name + "_url.txt"
		plan.Aspect = longVideoAspect
		plan.Duration = longVideoSeconds
	} else {
		plan.Name = fmt.Sprintf("section_%02d_image", index)
		plan.Category = domain.PromptCategoryImage
		plan.PromptFile = plan.Name + "_prompt.txt"
		plan.MediaFile = plan.Name + ".jpg"
		plan.Width = 1344
		plan.Height = 768
	}

	section, ok := split.Lookup(index)
	if !ok || section.Body == "" {
		plan.Err = domain.NewValidationError("pipeline: "+plan.Name, fmt.Sprintf("script has no section %d", index))
		return plan
	}

	system, user := systemImagePrompt, sectionImagePrompt(section.Body)
	if plan.Category == domain.PromptCategoryVideo {
		system, user = systemVideoPrompt, sectionVideoPrompt(section.Body)
	}
	plan.Raw, plan.Err = o.generate(ctx, system, user, sectionPromptMaxTokens)
	return plan
}
