package sections

import (
	"regexp"
	"strings"
)

var tagToken = regexp.MustCompile(`\[([A-Z][A-Z0-9_]*)\]`)

// Component is one tagged block of a structured response.
type Component struct {
	Tag  string
	Body string
}

// ParseTagged slices text into components at [UPPER_TAG] tokens. Text
// before the first token is ignored. When known is empty every token starts a
// component; otherwise only the listed tags do and any other bracketed token,
// such as a [PAUSE] stage direction, stays inside the surrounding body.
func ParseTagged(text string, known ...string) []Component {
	locs := tagToken.FindAllStringSubmatchIndex(text, -1)
	if len(known) > 0 {
		allowed := make(map[string]struct{}, len(known))
		for _, k := range known {
			allowed[k] = struct{}{}
		}
		kept := locs[:0]
		for _, loc := range locs {
			if _, ok := allowed[text[loc[2]:loc[3]]]; ok {
				kept = append(kept, loc)
			}
		}
		locs = kept
	}
	out := make([]Component, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, Component{
			Tag:  text[loc[2]:loc[3]],
			Body: strings.TrimSpace(text[loc[1]:end]),
		})
	}
	return out
}

// Lookup returns the body of the first component carrying tag.
func Lookup(components []Component, tag string) (string, bool) {
	for _, c := range components {
		if c.Tag == tag {
			return c.Body, true
		}
	}
	return "", false
}
