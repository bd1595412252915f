package scraper

import (
	"strings"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// Extracted pairs the validated raw match with the page entry it came
// from, so the pipeline can open the detail view later.
type Extracted struct {
	Raw   models.RawMatch
	Entry MatchEntry
}

// Extract turns an expanded league view into raw match records. Candidates
// with fewer than two usable team labels are headers or placeholders, not
// matches, and are dropped without logging. Labels are trimmed; empty ones
// don't count. The date stays empty when the view doesn't render one, the
// matcher rejects such rows instead of assuming today.
func Extract(entries []MatchEntry) []Extracted {
	var out []Extracted
	for _, e := range entries {
		raw, ok := extractOne(e)
		if !ok {
			continue
		}
		out = append(out, Extracted{Raw: raw, Entry: e})
	}
	return out
}

func extractOne(e MatchEntry) (models.RawMatch, bool) {
	var teams []string
	for _, label := range e.Teams() {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		teams = append(teams, label)
	}
	if len(teams) < 2 {
		return models.RawMatch{}, false
	}

	return models.RawMatch{
		Teams:      teams,
		Time:       strings.TrimSpace(e.Time()),
		Date:       strings.TrimSpace(e.Date()),
		ExternalID: strings.TrimSpace(e.ExternalID()),
	}, true
}
