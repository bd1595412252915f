package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmikheev/betline/internal/pkg/models"
	"github.com/pmikheev/betline/internal/pkg/storage"
)

// RefData is the immutable reference context of one run: active entities,
// the market taxonomy and the source id, loaded once from the store and
// passed by value into the stages.
type RefData struct {
	SourceID int64

	countries   map[string]models.Country
	leagues     map[leagueKey]models.League
	markets     map[string]models.Market
	marketTypes map[typeKey]models.MarketType
}

type leagueKey struct {
	name        string
	countryCode string
}

type typeKey struct {
	marketID int64
	name     string // lowercased
}

// NewRefData builds the context from already-fetched rows.
func NewRefData(sourceID int64, countries []models.Country, leagues []models.League, markets []models.Market, types []models.MarketType) RefData {
	ref := RefData{
		SourceID:    sourceID,
		countries:   make(map[string]models.Country),
		leagues:     make(map[leagueKey]models.League),
		markets:     make(map[string]models.Market),
		marketTypes: make(map[typeKey]models.MarketType),
	}
	for _, c := range countries {
		ref.countries[c.Name] = c
	}
	for _, l := range leagues {
		ref.leagues[leagueKey{name: l.Name, countryCode: l.CountryCode}] = l
	}
	for _, m := range markets {
		ref.markets[m.Name] = m
	}
	for _, t := range types {
		ref.marketTypes[typeKey{marketID: t.MarketID, name: strings.ToLower(t.Name)}] = t
	}
	return ref
}

// LoadRefData fetches everything reference-shaped in one pass.
func LoadRefData(ctx context.Context, store storage.Store, sourceName string) (RefData, error) {
	countries, err := store.ActiveCountries(ctx)
	if err != nil {
		return RefData{}, fmt.Errorf("failed to load active countries: %w", err)
	}
	leagues, err := store.ActiveLeagues(ctx)
	if err != nil {
		return RefData{}, fmt.Errorf("failed to load active leagues: %w", err)
	}
	markets, err := store.Markets(ctx)
	if err != nil {
		return RefData{}, fmt.Errorf("failed to load markets: %w", err)
	}
	types, err := store.MarketTypes(ctx)
	if err != nil {
		return RefData{}, fmt.Errorf("failed to load market types: %w", err)
	}
	sourceID, err := store.SourceID(ctx, sourceName)
	if err != nil {
		return RefData{}, fmt.Errorf("failed to resolve source id: %w", err)
	}
	return NewRefData(sourceID, countries, leagues, markets, types), nil
}

// Country returns the active country with this exact name.
func (r RefData) Country(name string) (models.Country, bool) {
	c, ok := r.countries[name]
	return c, ok
}

// League returns the active league with this canonical name and country code.
func (r RefData) League(name, countryCode string) (models.League, bool) {
	l, ok := r.leagues[leagueKey{name: name, countryCode: countryCode}]
	return l, ok
}

// Market returns the market with this exact canonical name.
func (r RefData) Market(name string) (models.Market, bool) {
	m, ok := r.markets[name]
	return m, ok
}

// MarketType returns the outcome row matched case-insensitively by name
// within one market.
func (r RefData) MarketType(marketID int64, name string) (models.MarketType, bool) {
	t, ok := r.marketTypes[typeKey{marketID: marketID, name: strings.ToLower(name)}]
	return t, ok
}
