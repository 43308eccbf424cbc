package retrieval

import (
	"regexp"
	"sort"
)

// referencePatterns match explicit statute citations in question text.
//
// Covered variants: "article 1240", "art. 1240", "Article 1240-1",
// "articles 1240 à 1242". For ranges, only the two written endpoints are
// captured; intervening numbers are not synthesized.
var referencePatterns = []*regexp.Regexp{
	// "articles 1240 à 1242" — both endpoints
	regexp.MustCompile(`(?i)\barticles?\s+(\d+(?:-\d+)*)\s+à\s+(\d+(?:-\d+)*)`),
	// "article 1240", "art. 1240", "art 1240-1"
	regexp.MustCompile(`(?i)\bart(?:icle)?s?\.?\s+(\d+(?:-\d+)*)`),
}

// ExtractReferences scans question text for explicit article citations and
// returns the deduplicated set of article numbers, sorted for determinism.
// No matches (or empty input) yields an empty result, never an error.
func ExtractReferences(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var refs []string
	for _, re := range referencePatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			for _, group := range match[1:] {
				if group == "" {
					continue
				}
				if _, dup := seen[group]; dup {
					continue
				}
				seen[group] = struct{}{}
				refs = append(refs, group)
			}
		}
	}

	sort.Strings(refs)
	return refs
}
