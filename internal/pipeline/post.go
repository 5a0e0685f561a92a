package pipeline

import (
	"context"

	"contentgen/internal/domain"
)

const postDir = "post"

// GeneratePostPackage writes a caption and a single square image for subject.
// The error is non-nil only when the caption call fails and the package is
// aborted.
func (o *Orchestrator) GeneratePostPackage(ctx context.Context, subject, sourceText, outputRoot string) (domain.PackageResult, error) {
	pr := o.newRun(domain.FormatPost, subject, outputRoot, postDir)
	source := o.truncate(sourceText)

	caption, err := o.generate(ctx, systemCaption, captionPrompt(subject, source), captionMaxTokens)
	if err != nil {
		return pr.abort(err)
	}
	captionPath, err := o.writeHeaded(ctx, pr, "youtube_caption.txt", "YouTube Caption", caption)
	pr.advance(StageScriptGenerated)

	plan := assetPlan{
		Name:       "image",
		Category:   domain.PromptCategoryImage,
		PromptFile: "ai_image_prompt.txt",
		MediaFile:  "post_image.jpg",
		Width:      1024,
		Height:     1024,
	}
	plan.Raw, plan.Err = o.generate(ctx, systemImagePrompt, postImagePrompt(subject, source), imagePromptMaxTokens)
	pr.advance(StagePromptsGenerated)

	assets := []domain.AssetOutcome{textOutcome("caption", captionPath, err)}
	assets = append(assets, o.renderPlans(ctx, pr, []assetPlan{plan})...)
	return pr.finish(assets), nil
}
