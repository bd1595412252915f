package scraper

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// Normalizer maps a source-shaped odds payload onto the canonical
// market/outcome taxonomy. Policy is partial success: a group whose market
// is unknown is skipped whole, an outcome miss skips only that outcome,
// siblings are still attempted.
type Normalizer struct {
	ref     RefData
	aliases *Aliases
}

func NewNormalizer(ref RefData, aliases *Aliases) *Normalizer {
	return &Normalizer{ref: ref, aliases: aliases}
}

// Normalize produces one OddsRecord per resolvable (market, outcome,
// coefficient) triple of the payload for the given fixture.
func (n *Normalizer) Normalize(payload models.OddsPayload, fixtureID int64, externalFixtureID string) []models.OddsRecord {
	var records []models.OddsRecord
	for _, group := range payload.Groups {
		records = append(records, n.normalizeGroup(group, fixtureID, externalFixtureID)...)
	}
	return records
}

func (n *Normalizer) normalizeGroup(group models.OddsGroup, fixtureID int64, externalFixtureID string) []models.OddsRecord {
	marketName := n.aliases.Market(group.Label)
	market, ok := n.ref.Market(marketName)
	if !ok {
		slog.Warn("Unknown market, skipping group", "label", group.Label, "canonical", marketName)
		return nil
	}

	var records []models.OddsRecord
	for label, rawCoef := range group.Outcomes {
		outcomeName := n.aliases.Outcome(label)
		marketType, ok := n.ref.MarketType(market.ID, outcomeName)
		if !ok {
			slog.Warn("Unknown outcome, skipping",
				"market", market.Name, "label", label, "canonical", outcomeName)
			continue
		}

		coef, ok := parseCoefficient(rawCoef)
		if !ok {
			// the source renders a placeholder for suspended outcomes;
			// those never reach the sink
			slog.Warn("Non-numeric coefficient, skipping outcome",
				"market", market.Name, "outcome", marketType.Name, "raw", rawCoef)
			continue
		}

		records = append(records, models.OddsRecord{
			MarketID:          market.ID,
			MarketTypeID:      marketType.ID,
			FixtureID:         fixtureID,
			SourceID:          n.ref.SourceID,
			ExternalFixtureID: externalFixtureID,
			Coefficient:       coef,
		})
	}
	return records
}

// parseCoefficient parses a decimal-odds string. Anything that isn't a
// finite value above 1.0 is unusable.
func parseCoefficient(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 1.0 {
		return 0, false
	}
	return v, true
}
