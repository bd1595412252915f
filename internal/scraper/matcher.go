package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pmikheev/betline/internal/pkg/models"
	"github.com/pmikheev/betline/internal/pkg/storage"
)

const kickoffLayout = "02.01.2006 15:04"

// Matcher resolves a scraped match to a canonical fixture id. Misses are an
// expected steady-state condition (friendlies, postponed or renamed
// entries), so every skip here is a warning, never an error.
type Matcher struct {
	store   storage.Store
	aliases *Aliases
	loc     *time.Location

	now func() time.Time // overridable in tests
}

func NewMatcher(store storage.Store, aliases *Aliases, loc *time.Location) *Matcher {
	if loc == nil {
		loc = time.Local
	}
	return &Matcher{
		store:   store,
		aliases: aliases,
		loc:     loc,
		now:     time.Now,
	}
}

// Match resolves one raw match within the given league. Returns false when
// the row is malformed, stale, unknown to the schedule, or ambiguous.
func (m *Matcher) Match(ctx context.Context, leagueExternalID string, raw models.RawMatch) (models.Fixture, bool) {
	home := m.aliases.Team(raw.Teams[0])
	away := m.aliases.Team(raw.Teams[1])

	kickoff, ok := m.parseKickoff(raw)
	if !ok {
		slog.Warn("Unparseable kickoff, skipping match",
			"home", home, "away", away, "date", raw.Date, "time", raw.Time)
		return models.Fixture{}, false
	}

	dayStart := m.startOfToday()
	if kickoff.Before(dayStart) {
		slog.Warn("Kickoff before today, skipping match",
			"home", home, "away", away, "kickoff", kickoff)
		return models.Fixture{}, false
	}

	candidates, err := m.store.FindFixtures(ctx, storage.FixtureQuery{
		LeagueExternalID: leagueExternalID,
		Home:             home,
		Away:             away,
		NotBefore:        dayStart,
	})
	if err != nil {
		slog.Warn("Fixture lookup failed, skipping match",
			"home", home, "away", away, "league", leagueExternalID, "error", err)
		return models.Fixture{}, false
	}
	if len(candidates) == 0 {
		slog.Warn("No canonical fixture for match",
			"home", home, "away", away, "league", leagueExternalID, "kickoff", kickoff)
		return models.Fixture{}, false
	}

	fixture, ok := nearestKickoff(candidates, kickoff)
	if !ok {
		slog.Warn("Ambiguous fixture resolution, skipping match",
			"home", home, "away", away, "league", leagueExternalID,
			"kickoff", kickoff, "candidates", len(candidates))
		return models.Fixture{}, false
	}
	return fixture, true
}

// parseKickoff combines the raw date and time into one absolute timestamp.
// The date must have exactly three dot-separated components; an empty date
// never defaults to today.
func (m *Matcher) parseKickoff(raw models.RawMatch) (time.Time, bool) {
	if len(strings.Split(raw.Date, ".")) != 3 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(kickoffLayout, raw.Date+" "+raw.Time, m.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m *Matcher) startOfToday() time.Time {
	now := m.now().In(m.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc)
}

// nearestKickoff picks the candidate closest in time to the scraped
// kickoff. An exact distance tie between two different fixtures means the
// names don't discriminate, so the resolution is rejected as ambiguous
// rather than decided by row order.
func nearestKickoff(candidates []models.Fixture, kickoff time.Time) (models.Fixture, bool) {
	best := candidates[0]
	bestDist := absDuration(best.ScheduledAt.Sub(kickoff))
	tied := false
	for _, c := range candidates[1:] {
		d := absDuration(c.ScheduledAt.Sub(kickoff))
		switch {
		case d < bestDist:
			best, bestDist, tied = c, d, false
		case d == bestDist && c.ID != best.ID:
			tied = true
		}
	}
	if tied {
		return models.Fixture{}, false
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
