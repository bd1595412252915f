package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/pmikheev/betline/internal/pkg/models"
	"github.com/pmikheev/betline/internal/pkg/storage"
)

// Sink is where one pipeline run lands. Two implementations: the store
// sink persists normalized outcomes, the file sink serializes the
// discovered hierarchy when no persistence target is configured.
type Sink interface {
	// Fixture records one discovered raw match under its country/league.
	Fixture(ctx context.Context, country, league string, raw models.RawMatch) error

	// Outcome accepts one normalized coefficient.
	Outcome(ctx context.Context, rec models.OddsRecord) error

	// Flush finalizes the run output.
	Flush(ctx context.Context) error
}

// StoreSink upserts outcomes into the store. A configured coefficient
// cache suppresses writes that wouldn't change the stored value.
type StoreSink struct {
	store storage.Store
	cache *storage.CoefficientCache
}

func NewStoreSink(store storage.Store, cache *storage.CoefficientCache) *StoreSink {
	return &StoreSink{store: store, cache: cache}
}

func (s *StoreSink) Fixture(ctx context.Context, country, league string, raw models.RawMatch) error {
	return nil
}

func (s *StoreSink) Outcome(ctx context.Context, rec models.OddsRecord) error {
	if s.cache != nil && s.cache.Unchanged(ctx, rec) {
		return nil
	}
	if err := s.store.UpsertOdds(ctx, rec); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Remember(ctx, rec); err != nil {
			slog.Debug("Failed to cache coefficient", "error", err)
		}
	}
	return nil
}

func (s *StoreSink) Flush(ctx context.Context) error {
	return nil
}

// FileSink accumulates the country -> league -> fixtures hierarchy and
// writes it as JSON on Flush, sorted by country then league name.
type FileSink struct {
	path      string
	countries map[string]map[string][]models.RawMatch
}

func NewFileSink(path string) *FileSink {
	return &FileSink{
		path:      path,
		countries: make(map[string]map[string][]models.RawMatch),
	}
}

type hierarchyExport struct {
	Timestamp string          `json:"timestamp"`
	Countries []countryExport `json:"countries"`
}

type countryExport struct {
	Name    string         `json:"name"`
	Leagues []leagueExport `json:"leagues"`
}

type leagueExport struct {
	Name     string            `json:"name"`
	Fixtures []models.RawMatch `json:"fixtures"`
}

func (s *FileSink) Fixture(ctx context.Context, country, league string, raw models.RawMatch) error {
	leagues, ok := s.countries[country]
	if !ok {
		leagues = make(map[string][]models.RawMatch)
		s.countries[country] = leagues
	}
	leagues[league] = append(leagues[league], raw)
	return nil
}

func (s *FileSink) Outcome(ctx context.Context, rec models.OddsRecord) error {
	return nil
}

func (s *FileSink) Flush(ctx context.Context) error {
	export := hierarchyExport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	countryNames := make([]string, 0, len(s.countries))
	for name := range s.countries {
		countryNames = append(countryNames, name)
	}
	sort.Strings(countryNames)

	for _, cname := range countryNames {
		leagues := s.countries[cname]
		leagueNames := make([]string, 0, len(leagues))
		for name := range leagues {
			leagueNames = append(leagueNames, name)
		}
		sort.Strings(leagueNames)

		ce := countryExport{Name: cname}
		for _, lname := range leagueNames {
			ce.Leagues = append(ce.Leagues, leagueExport{
				Name:     lname,
				Fixtures: leagues[lname],
			})
		}
		export.Countries = append(export.Countries, ce)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hierarchy export: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write hierarchy export: %w", err)
	}

	slog.Info("Hierarchy export written", "path", s.path, "countries", len(export.Countries))
	return nil
}
