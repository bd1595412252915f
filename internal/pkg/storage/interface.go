package storage

import (
	"context"
	"time"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// FixtureQuery scopes a canonical fixture lookup. Home and Away are
// alias-normalized labels matched case-insensitively as substrings of the
// stored team names. NotBefore excludes fixtures already in the past.
type FixtureQuery struct {
	LeagueExternalID string
	Home             string
	Away             string
	NotBefore        time.Time
}

// Store is the persistence collaborator of the pipeline: reference reads,
// fixture lookup and the odds upsert.
type Store interface {
	ActiveCountries(ctx context.Context) ([]models.Country, error)
	ActiveLeagues(ctx context.Context) ([]models.League, error)
	Markets(ctx context.Context) ([]models.Market, error)
	MarketTypes(ctx context.Context) ([]models.MarketType, error)
	SourceID(ctx context.Context, name string) (int64, error)

	// FindFixtures returns all candidates matching the query, ordered by
	// scheduled time ascending. Tie-breaking between candidates is the
	// caller's job.
	FindFixtures(ctx context.Context, q FixtureQuery) ([]models.Fixture, error)

	// UpsertOdds writes one coefficient. On key collision only the
	// coefficient is overwritten.
	UpsertOdds(ctx context.Context, rec models.OddsRecord) error

	Close() error
}
