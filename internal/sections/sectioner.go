// Package sections divides generated scripts into numbered sections and
// parses tagged component responses.
package sections

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"contentgen/internal/domain"
)

// Strategy names how a script was divided.
type Strategy string

const (
	StrategyBracket  Strategy = "bracket"
	StrategySection  Strategy = "section"
	StrategyPart     Strategy = "part"
	StrategyHashed   Strategy = "hashed"
	StrategyFallback Strategy = "fallback"
)

const maxLabelRunes = 80

type marker struct {
	strategy Strategy
	re       *regexp.Regexp
}

// Patterns are tried in order; the first with at least one match wins.
var markers = []marker{
	{StrategyBracket, regexp.MustCompile(`(?i)\[SECTION\s+(\d+)\]`)},
	{StrategySection, regexp.MustCompile(`(?im)^[ \t]*Section\s+(\d+)\s*:`)},
	{StrategyPart, regexp.MustCompile(`(?im)^[ \t]*Part\s+(\d+)\s*:`)},
	{StrategyHashed, regexp.MustCompile(`(?i)###\s*Section\s+(\d+)\s*###`)},
}

// Result is the outcome of Split.
type Result struct {
	Sections []domain.ScriptSection
	Strategy Strategy
	// Missing lists indices absent between 1 and the highest index found,
	// looking no further than max(expectedCount, number of sections).
	Missing []int
}

// Split divides text into sections using explicit markers, or into
// expectedCount positional chunks of lines when no marker is present.
// It never fails and always returns the same result for the same input.
func Split(text string, expectedCount int) Result {
	if expectedCount < 1 {
		expectedCount = 1
	}
	for _, m := range markers {
		locs := m.re.FindAllStringSubmatchIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		secs := byMarkers(text, locs)
		return Result{Sections: secs, Strategy: m.strategy, Missing: missing(secs, expectedCount)}
	}
	return Result{Sections: byLines(text, expectedCount), Strategy: StrategyFallback}
}

func byMarkers(text string, locs [][]int) []domain.ScriptSection {
	seen := make(map[int]struct{}, len(locs))
	out := make([]domain.ScriptSection, 0, len(locs))
	for i, loc := range locs {
		idx, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || idx < 1 {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		label, body := splitLabel(text[loc[1]:end])
		out = append(out, domain.ScriptSection{Index: idx, Label: label, Body: body})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// splitLabel treats the remainder of the marker line as a label when it is
// short and more text follows it.
func splitLabel(span string) (string, string) {
	first, rest, found := strings.Cut(span, "\n")
	label := strings.Trim(strings.TrimSpace(first), "-:*# ")
	rest = strings.TrimSpace(rest)
	if found && label != "" && rest != "" && utf8.RuneCountInString(label) < maxLabelRunes {
		return label, rest
	}
	return "", strings.TrimSpace(span)
}

// missing bounds the scan because indices come from model output and may be
// arbitrarily large.
func missing(secs []domain.ScriptSection, expectedCount int) []int {
	if len(secs) == 0 {
		return nil
	}
	limit := min(secs[len(secs)-1].Index, max(expectedCount, len(secs)))
	present := make(map[int]struct{}, len(secs))
	for _, s := range secs {
		present[s.Index] = struct{}{}
	}
	var gaps []int
	for i := 1; i <= limit; i++ {
		if _, ok := present[i]; !ok {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

func byLines(text string, n int) []domain.ScriptSection {
	lines := strings.Split(text, "\n")
	per := len(lines) / n
	out := make([]domain.ScriptSection, 0, n)
	start := 0
	for i := 1; i <= n; i++ {
		end := start + per
		if i == n {
			end = len(lines)
		}
		out = append(out, domain.ScriptSection{Index: i, Body: strings.Join(lines[start:end], "\n")})
		start = end
	}
	return out
}

// Lookup returns the section with the given index.
func (r Result) Lookup(index int) (domain.ScriptSection, bool) {
	for _, s := range r.Sections {
		if s.Index == index {
			return s, true
		}
	}
	return domain.ScriptSection{}, false
}
