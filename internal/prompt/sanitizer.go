package prompt

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"contentgen/internal/domain"
)

// maxPasses bounds the fixpoint loop in Sanitize. Each pass only removes
// text, so the loop converges long before this.
const maxPasses = 8

var (
	introLine      = regexp.MustCompile(`(?im)^[ \t]*(?:here(?:'s|’s| is| are)\b[^\n]*:|sure[!,.][^\n]*|certainly[!,.][^\n]*)[ \t]*$`)
	markdownHeader = regexp.MustCompile(`(?im)^[ \t]*(?:#+[^\n]*\bprompts?\b[^\n]*|\*\*[^\n]*\bprompts?\b[^\n]*\*\*[ \t]*:?)[ \t]*$`)
	promptLabel    = regexp.MustCompile(`(?im)^[ \t]*(?:(?:ai|image|video|thumbnail|visual|final)[ \t]+)?prompt[ \t]*(?:\d+[ \t]*)?:[ \t]*`)
	separatorLine  = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|={3,}|\*{3,})[ \t]*$`)
	placementNote  = regexp.MustCompile(`(?i)\[APPEARS_AT:[^\]]*\]`)

	yearRef    = regexp.MustCompile(`(?i)\b(?:(?:in|from|during|of|circa)\s+)?\d{4}s?\b`)
	centuryRef = regexp.MustCompile(`(?i)\b(?:the\s+)?\d{1,2}(?:st|nd|rd|th)[\s-]+century\b`)

	imperativeLead = regexp.MustCompile(`(?i)^(?:create|generate|make|design|produce)\s+`)
	articleLead    = regexp.MustCompile(`^(?:a|an|the)\b`)

	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	spaceBeforeMark = regexp.MustCompile(` +([,.;:!?])`)
)

// Options configures a Sanitizer.
type Options struct {
	// RestrictedTerms replaces the built-in vocabulary when non-nil.
	RestrictedTerms []string
}

// Sanitizer strips boilerplate, identifying details and restricted vocabulary
// from generated prompts before they reach a render service. A Sanitizer is
// safe for concurrent use.
type Sanitizer struct {
	restricted *regexp.Regexp
}

// NewSanitizer compiles the restricted vocabulary once.
func NewSanitizer(opts Options) *Sanitizer {
	terms := opts.RestrictedTerms
	if terms == nil {
		terms = DefaultRestrictedTerms()
	}
	return &Sanitizer{restricted: compileTerms(terms)}
}

func compileTerms(terms []string) *regexp.Regexp {
	cleaned := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return nil
	}
	// Longest first so "dead body" wins over a shorter overlapping term.
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })
	alts := make([]string, len(cleaned))
	for i, t := range cleaned {
		alts[i] = wordsPattern(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// wordsPattern quotes each whitespace-separated field and lets any run of
// whitespace separate them.
func wordsPattern(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(fields, `\s+`)
}

func namePattern(name string) *regexp.Regexp {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)` + wordsPattern(name))
}

// Sanitize returns the cleaned prompt. It never fails; an empty result means
// nothing usable was left.
func (s *Sanitizer) Sanitize(spec domain.PromptSpec) string {
	var name *regexp.Regexp
	if !spec.RetainSubjectName {
		name = namePattern(spec.SubjectName)
	}

	out := spec.RawText
	for i := 0; i < maxPasses; i++ {
		next := s.pass(out, name)
		if next == out {
			break
		}
		out = next
	}

	// Collapsing whitespace can join the fragments of a repeated name back
	// together, so keep removing until it is gone.
	for name != nil && name.MatchString(out) {
		out = capitalizeArticle(normalize(name.ReplaceAllString(out, " ")))
	}
	return out
}

func (s *Sanitizer) pass(text string, name *regexp.Regexp) string {
	text = introLine.ReplaceAllString(text, "")
	text = markdownHeader.ReplaceAllString(text, "")
	text = separatorLine.ReplaceAllString(text, "")
	text = promptLabel.ReplaceAllString(text, "")
	text = placementNote.ReplaceAllString(text, "")

	if name != nil {
		text = name.ReplaceAllString(text, " ")
	}

	text = centuryRef.ReplaceAllString(text, " ")
	text = yearRef.ReplaceAllString(text, " ")

	if s.restricted != nil {
		text = s.restricted.ReplaceAllString(text, " ")
	}

	text = imperativeLead.ReplaceAllString(strings.TrimSpace(text), "")
	text = normalize(text)
	return capitalizeArticle(text)
}

// normalize drops empty lines, collapses horizontal whitespace and trims.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = horizontalSpace.ReplaceAllString(line, " ")
		line = spaceBeforeMark.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func capitalizeArticle(text string) string {
	if !articleLead.MatchString(text) {
		return text
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:]
}
