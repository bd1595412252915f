package models

import (
	"time"
)

// Country is reference data owned by the store. Inactive countries are
// never expanded on the source page.
type Country struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

// League belongs to exactly one country. ExternalID is the join key used
// when resolving fixtures.
type League struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	ExternalID  string `json:"external_id"`
	Active      bool   `json:"active"`
}

// Fixture is a canonical schedule record, read-only to the pipeline.
type Fixture struct {
	ID               int64     `json:"id"`
	LeagueExternalID string    `json:"league_external_id"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	ScheduledAt      time.Time `json:"scheduled_at"`
}

// Market is a betting question, e.g. "1X2".
type Market struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Ordering int    `json:"ordering"`
}

// MarketType is one outcome of a market, e.g. "Home Win" under "1X2".
type MarketType struct {
	ID       int64  `json:"id"`
	MarketID int64  `json:"market_id"`
	Name     string `json:"name"`
	Ordering int    `json:"ordering"`
}

// OddsRecord is one persisted coefficient. At most one row exists per
// (MarketID, MarketTypeID, FixtureID, SourceID, ExternalFixtureID);
// re-ingestion overwrites only the coefficient.
type OddsRecord struct {
	MarketID          int64   `json:"market_id"`
	MarketTypeID      int64   `json:"market_type_id"`
	FixtureID         int64   `json:"fixture_id"`
	SourceID          int64   `json:"source_id"`
	ExternalFixtureID string  `json:"external_fixture_id"`
	Coefficient       float64 `json:"coefficient"`
}

// Key returns the composite uniqueness key of the record.
func (r OddsRecord) Key() OddsKey {
	return OddsKey{
		MarketID:          r.MarketID,
		MarketTypeID:      r.MarketTypeID,
		FixtureID:         r.FixtureID,
		SourceID:          r.SourceID,
		ExternalFixtureID: r.ExternalFixtureID,
	}
}

// OddsKey is the composite key of an OddsRecord, usable as a map key.
type OddsKey struct {
	MarketID          int64
	MarketTypeID      int64
	FixtureID         int64
	SourceID          int64
	ExternalFixtureID string
}

// RawMatch is one match row as scraped: ordered team labels plus the raw
// time ("HH:MM") and date ("dd.mm.yyyy") strings. Date may be empty when
// the list view doesn't render it; the matcher rejects such rows instead
// of guessing.
type RawMatch struct {
	Teams      []string `json:"teams"`
	Time       string   `json:"time"`
	Date       string   `json:"date"`
	ExternalID string   `json:"external_id"`
}

// OddsGroup is one source-shaped market block: the label the source prints
// above it and its outcome label -> coefficient string pairs.
type OddsGroup struct {
	Label    string            `json:"label"`
	Outcomes map[string]string `json:"outcomes"`
}

// OddsPayload is everything scraped from one match detail view. Empty when
// the odds panel never rendered within the wait budget.
type OddsPayload struct {
	Groups []OddsGroup `json:"groups"`
}
