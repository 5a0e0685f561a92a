package wavespeed

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultVideoDuration = 5
	DefaultVideoAspect   = "16:9"
)

var (
	durationTag = regexp.MustCompile(`(?i)\[(?:duration|length|time)\s*:\s*(\d+)\s*(?:s|sec|seconds)?\s*\]`)
	aspectTag   = regexp.MustCompile(`(?i)\[(?:aspect|ratio|size)\s*:\s*(\d+)\s*:\s*(\d+)\s*\]`)
	blankRuns   = regexp.MustCompile(`[ \t]{2,}`)
)

// VideoMetadata holds render hints embedded in a raw video prompt.
type VideoMetadata struct {
	Duration    int
	AspectRatio string
	Prompt      string
}

// ParseVideoMetadata extracts duration and aspect tags from a video prompt and
// returns the prompt with the tags removed. Missing tags fall back to 5
// seconds and 16:9.
func ParseVideoMetadata(prompt string) VideoMetadata {
	return ParseVideoMetadataDefaults(prompt, DefaultVideoDuration, DefaultVideoAspect)
}

// ParseVideoMetadataDefaults is ParseVideoMetadata with caller supplied
// fallbacks.
func ParseVideoMetadataDefaults(prompt string, duration int, aspect string) VideoMetadata {
	if duration <= 0 {
		duration = DefaultVideoDuration
	}
	if aspect == "" {
		aspect = DefaultVideoAspect
	}
	meta := VideoMetadata{Duration: duration, AspectRatio: aspect}

	if m := durationTag.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			meta.Duration = n
		}
	}
	if m := aspectTag.FindStringSubmatch(prompt); m != nil {
		meta.AspectRatio = m[1] + ":" + m[2]
	}

	cleaned := durationTag.ReplaceAllString(prompt, "")
	cleaned = aspectTag.ReplaceAllString(cleaned, "")
	cleaned = blankRuns.ReplaceAllString(cleaned, " ")
	meta.Prompt = strings.TrimSpace(cleaned)
	return meta
}
