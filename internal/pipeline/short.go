package pipeline

import (
	"context"

	"contentgen/internal/domain"
	"contentgen/internal/sections"
)

const (
	shortDir          = "short video"
	shortVideoAspect  = "9:16"
	shortVideoSeconds = 5
)

// shortTags are the blocks the short package prompt asks for.
var shortTags = []string{"SCRIPT", "DESCRIPTION", "IMAGE_PROMPT_1", "IMAGE_PROMPT_2", "VIDEO_PROMPT"}

// GenerateShortPackage writes a short video package: script, description,
// two images, one vertical video clip and a thumbnail. Exactly four assets
// are reported. The error is non-nil only when the package call fails.
func (o *Orchestrator) GenerateShortPackage(ctx context.Context, subject, sourceText, outputRoot string) (domain.PackageResult, error) {
	pr := o.newRun(domain.FormatShort, subject, outputRoot, shortDir)
	source := o.truncate(sourceText)

	content, err := o.generate(ctx, systemShort, shortPackagePrompt(subject, source), shortPackageMaxTokens)
	if err != nil {
		return pr.abort(err)
	}
	if _, err := o.writeHeaded(ctx, pr, "complete_response.txt", "Complete AI Response", content); err != nil {
		pr.logger.Warn().Err(err).Msg("pipeline: persist complete response")
	}
	pr.advance(StageScriptGenerated)

	components := sections.ParseTagged(content, shortTags...)
	script, hasScript := sections.Lookup(components, "SCRIPT")
	if hasScript && script != "" {
		if _, err := o.writeHeaded(ctx, pr, "script.txt", "Script", script); err != nil {
			pr.logger.Warn().Err(err).Msg("pipeline: persist script")
		}
	} else {
		pr.logger.Warn().Msg("pipeline: response has no [SCRIPT] block")
	}
	if description, ok := sections.Lookup(components, "DESCRIPTION"); ok && description != "" {
		if _, err := o.writeHeaded(ctx, pr, "description.txt", "Description", description); err != nil {
			pr.logger.Warn().Err(err).Msg("pipeline: persist description")
		}
	}
	pr.advance(StageSectioned)

	plans := []assetPlan{
		taggedPlan(components, "IMAGE_PROMPT_1", assetPlan{
			Name: "image_1", Category: domain.PromptCategoryImage,
			PromptFile: "image_prompt_1.txt", MediaFile: "image_1.jpg",
			Width: 768, Height: 1344,
		}),
		taggedPlan(components, "IMAGE_PROMPT_2", assetPlan{
			Name: "image_2", Category: domain.PromptCategoryImage,
			PromptFile: "image_prompt_2.txt", MediaFile: "image_2.jpg",
			Width: 768, Height: 1344,
		}),
		taggedPlan(components, "VIDEO_PROMPT", assetPlan{
			Name: "video", Category: domain.PromptCategoryVideo,
			PromptFile: "video_prompt.txt", MediaFile: "video_url.txt",
			Aspect: shortVideoAspect, Duration: shortVideoSeconds,
		}),
	}

	thumb := assetPlan{
		Name:       "thumbnail",
		Category:   domain.PromptCategoryImage,
		RetainName: true,
		PromptFile: "thumbnail_prompt.txt",
		MediaFile:  "thumbnail.jpg",
		Width:      1280,
		Height:     720,
	}
	if script == "" {
		script = content
	}
	thumb.Raw, thumb.Err = o.generate(ctx, systemThumbnail, thumbnailPrompt(subject, script), imagePromptMaxTokens)
	plans = append(plans, thumb)
	pr.advance(StagePromptsGenerated)

	return pr.finish(o.renderPlans(ctx, pr, plans)), nil
}

// taggedPlan fills plan.Raw from the tagged block, or marks the plan invalid
// when the block is missing or empty.
func taggedPlan(components []sections.Component, tag string, plan assetPlan) assetPlan {
	body, ok := sections.Lookup(components, tag)
	if !ok || body == "" {
		plan.Err = domain.NewValidationError("pipeline: "+plan.Name, "response has no ["+tag+"] block")
		return plan
	}
	plan.Raw = body
	return plan
}
