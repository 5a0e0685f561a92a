package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var defaultRestrictedTerms = []string{
	// violence
	"violence", "violent", "blood", "bloody", "gore", "weapon", "weapons", "gun", "guns",
	"knife", "sword", "kill", "killed", "killing", "murder", "murdered", "assassination",
	"war", "battle", "combat", "explosion", "bomb", "attack", "massacre", "execution",
	"torture", "corpse", "dead body",
	// self-harm
	"suicide", "self-harm", "overdose", "hanging",
	// illegal activity
	"drugs", "cocaine", "heroin", "smuggling", "theft", "robbery", "kidnapping", "terrorist",
	"terrorism", "arrest", "prison", "crime", "criminal",
	// explicit content
	"nude", "naked", "nudity", "sexual", "sex", "erotic", "lingerie", "seductive",
	// medical / disease
	"disease", "illness", "sick", "cancer", "tuberculosis", "plague", "pandemic", "epidemic",
	"hospital", "surgery", "injury", "wound", "wounded", "death", "dying", "funeral",
}

// DefaultRestrictedTerms returns a fresh copy of the built-in vocabulary.
func DefaultRestrictedTerms() []string {
	out := make([]string, len(defaultRestrictedTerms))
	copy(out, defaultRestrictedTerms)
	return out
}

// LoadRestrictedTerms reads one term per line from path, skipping blanks and
// lines starting with '#'.
func LoadRestrictedTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: open restricted terms: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("prompt: read restricted terms: %w", err)
	}
	return terms, nil
}
