package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmikheev/betline/internal/pkg/models"
	"github.com/pmikheev/betline/internal/pkg/storage"
)

// fakeStore is an in-memory Store with the same contains/ordering
// semantics as the Postgres fixture query.
type fakeStore struct {
	countries []models.Country
	leagues   []models.League
	markets   []models.Market
	types     []models.MarketType
	fixtures  []models.Fixture

	odds       map[models.OddsKey]float64
	upserts    int
	failUpsert func(rec models.OddsRecord) bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{odds: make(map[models.OddsKey]float64)}
}

func (s *fakeStore) ActiveCountries(ctx context.Context) ([]models.Country, error) {
	return s.countries, nil
}

func (s *fakeStore) ActiveLeagues(ctx context.Context) ([]models.League, error) {
	return s.leagues, nil
}

func (s *fakeStore) Markets(ctx context.Context) ([]models.Market, error) {
	return s.markets, nil
}

func (s *fakeStore) MarketTypes(ctx context.Context) ([]models.MarketType, error) {
	return s.types, nil
}

func (s *fakeStore) SourceID(ctx context.Context, name string) (int64, error) {
	return 7, nil
}

func (s *fakeStore) FindFixtures(ctx context.Context, q storage.FixtureQuery) ([]models.Fixture, error) {
	var out []models.Fixture
	for _, f := range s.fixtures {
		if f.LeagueExternalID != q.LeagueExternalID {
			continue
		}
		if f.ScheduledAt.Before(q.NotBefore) {
			continue
		}
		if !strings.Contains(strings.ToLower(f.HomeTeam), strings.ToLower(q.Home)) {
			continue
		}
		if !strings.Contains(strings.ToLower(f.AwayTeam), strings.ToLower(q.Away)) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (s *fakeStore) UpsertOdds(ctx context.Context, rec models.OddsRecord) error {
	if s.failUpsert != nil && s.failUpsert(rec) {
		return fmt.Errorf("upsert refused")
	}
	s.odds[rec.Key()] = rec.Coefficient
	s.upserts++
	return nil
}

func (s *fakeStore) Close() error { return nil }

// canned source hierarchy

type fakeSource struct {
	countries []*fakeCountry
	openErr   error
	opened    int
}

func (s *fakeSource) Open(ctx context.Context) error {
	s.opened++
	return s.openErr
}

func (s *fakeSource) Countries(ctx context.Context) ([]CountryNode, error) {
	nodes := make([]CountryNode, len(s.countries))
	for i, c := range s.countries {
		nodes[i] = c
	}
	return nodes, nil
}

type fakeCountry struct {
	name       string
	leagues    []*fakeLeague
	leaguesErr error
	expanded   int
}

func (c *fakeCountry) Name(ctx context.Context) (string, error) { return c.name, nil }

func (c *fakeCountry) Leagues(ctx context.Context) ([]LeagueNode, error) {
	c.expanded++
	if c.leaguesErr != nil {
		return nil, c.leaguesErr
	}
	nodes := make([]LeagueNode, len(c.leagues))
	for i, l := range c.leagues {
		nodes[i] = l
	}
	return nodes, nil
}

type fakeLeague struct {
	name       string
	entries    []*fakeEntry
	matchesErr error
	expanded   int
}

func (l *fakeLeague) Name(ctx context.Context) (string, error) { return l.name, nil }

func (l *fakeLeague) Matches(ctx context.Context) ([]MatchEntry, error) {
	l.expanded++
	if l.matchesErr != nil {
		return nil, l.matchesErr
	}
	entries := make([]MatchEntry, len(l.entries))
	for i, e := range l.entries {
		entries[i] = e
	}
	return entries, nil
}

type fakeEntry struct {
	teams     []string
	timeStr   string
	dateStr   string
	extID     string
	payload   models.OddsPayload
	oddsErr   error
	oddsCalls int
}

func (e *fakeEntry) Teams() []string    { return e.teams }
func (e *fakeEntry) Time() string       { return e.timeStr }
func (e *fakeEntry) Date() string       { return e.dateStr }
func (e *fakeEntry) ExternalID() string { return e.extID }

func (e *fakeEntry) Odds(ctx context.Context) (models.OddsPayload, error) {
	e.oddsCalls++
	if e.oddsErr != nil {
		return models.OddsPayload{}, e.oddsErr
	}
	return e.payload, nil
}
