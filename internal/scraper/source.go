package scraper

import (
	"context"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// Source is the rendered page behind the pipeline. Implementations drive
// one shared session, so expansions must happen in the order the nodes are
// consumed, and a node re-queries the current view instead of holding on to
// element references that a navigation would invalidate.
//
// Tests substitute canned implementations for all four interfaces.
type Source interface {
	// Open navigates to the hierarchy page. Failure here is the only
	// fatal error of a run.
	Open(ctx context.Context) error

	// Countries enumerates the country nodes in display order.
	Countries(ctx context.Context) ([]CountryNode, error)
}

// CountryNode is one country in the source hierarchy. Leagues expands the
// node, which is assumed expensive; callers must filter against the active
// set before expanding.
type CountryNode interface {
	Name(ctx context.Context) (string, error)
	Leagues(ctx context.Context) ([]LeagueNode, error)
}

// LeagueNode is one league under an expanded country.
type LeagueNode interface {
	Name(ctx context.Context) (string, error)
	Matches(ctx context.Context) ([]MatchEntry, error)
}

// MatchEntry is one candidate row of an expanded league view. Teams, Time
// and Date are as scraped, untrimmed and unvalidated; the extractor decides
// what is a real match. Odds opens the detail view with a bounded wait and
// returns an empty payload when the odds panel never renders.
type MatchEntry interface {
	Teams() []string
	Time() string
	Date() string
	ExternalID() string
	Odds(ctx context.Context) (models.OddsPayload, error)
}
