package pipeline

import (
	"fmt"
	"strings"
)

const (
	captionMaxTokens       = 800
	imagePromptMaxTokens   = 500
	shortPackageMaxTokens  = 2500
	longScriptMaxTokens    = 4000
	sectionPromptMaxTokens = 400
	descriptionMaxTokens   = 800

	longSectionCount = 14
)

const (
	systemCaption     = "You are a creative social media content creator who uses emojis effectively."
	systemImagePrompt = "You are an expert at creating detailed AI image generation prompts."
	systemVideoPrompt = "You are an expert at creating short cinematic AI video generation prompts."
	systemShort       = "You are a professional video content creator specializing in short-form content."
	systemLong        = "You are a documentary filmmaker creating detailed long-form content."
	systemDescription = "You write professional YouTube video descriptions."
	systemThumbnail   = "You design bold, readable YouTube thumbnails."
)

func basedOn(subject, source string) string {
	return fmt.Sprintf("Based EXCLUSIVELY on the following information about %s:\n\n%s\n\n", subject, source)
}

func captionPrompt(subject, source string) string {
	return basedOn(subject, source) + `Create an engaging YouTube caption (200-300 words) that includes:
- Key highlights and interesting facts
- Relevant emojis throughout the text
- Hashtags related to the content
- A call to action for viewers
- Engaging and social media friendly tone

Use ONLY the information provided above.`
}

func postImagePrompt(subject, source string) string {
	return basedOn(subject, source) + `Create a detailed professional AI image generation prompt that includes:
- Visual description of the scene and its setting
- Style and artistic direction (photorealistic, cinematic, illustration)
- Lighting and mood
- Camera angle and composition

Do not name real people. Return only the prompt text.`
}

func shortPackagePrompt(subject, source string) string {
	return basedOn(subject, source) + `Create a short YouTube video package with the following components:

1. SCRIPT: 200-word script starting with a HOOK and ending with a QUESTION asking viewers to comment
2. DESCRIPTION: Professional video description with relevant hashtags and emojis
3. IMAGE_PROMPTS: 2 detailed AI image generation prompts for visuals (specify which word they appear with)
4. VIDEO_PROMPT: 1 detailed AI video generation prompt for a 5-second vertical clip (specify which word it appears with)

Format your response EXACTLY like this:

[SCRIPT]
Your script content here...

[DESCRIPTION]
Your description content here...

[IMAGE_PROMPT_1]
Your first image prompt here...
[APPEARS_AT: specific word or phrase]

[IMAGE_PROMPT_2]
Your second image prompt here...
[APPEARS_AT: specific word or phrase]

[VIDEO_PROMPT]
Your video prompt here...
[APPEARS_AT: specific word or phrase]`
}

func thumbnailPrompt(subject, script string) string {
	return fmt.Sprintf(`Write one AI image generation prompt for a YouTube thumbnail about %s.
The thumbnail should show the title text "%s" in large bold letters over a striking scene.

Short video script for context:
%s

Return only the prompt text.`, subject, subject, script)
}

func longScriptPrompt(subject, source string) string {
	var b strings.Builder
	b.WriteString(basedOn(subject, source))
	fmt.Fprintf(&b, "Write a documentary script of about 3000 words divided into exactly %d sections.\n", longSectionCount)
	b.WriteString("Start with an introduction and end with a call to action.\n")
	b.WriteString("Begin every section on its own line with a marker and a short title, like this:\n\n")
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b, "[SECTION %d] Section title\nSection narration...\n\n", i)
	}
	fmt.Fprintf(&b, "Continue up to [SECTION %d].", longSectionCount)
	return b.String()
}

func sectionImagePrompt(section string) string {
	return `Write one detailed AI image generation prompt that illustrates this documentary section.
Describe setting, style, lighting and composition. Do not name real people. Return only the prompt text.

Section:
` + section
}

func sectionVideoPrompt(section string) string {
	return `Write one AI video generation prompt for a 5-second cinematic clip that illustrates this documentary section.
Describe the motion and camera movement. You may add [duration:N] and [aspect:W:H] tags. Do not name real people. Return only the prompt text.

Section:
` + section
}

func longDescriptionPrompt(subject, script string) string {
	return fmt.Sprintf(`Write a professional YouTube description for a long documentary video about %s, with relevant hashtags and emojis.

Script:
%s`, subject, script)
}
