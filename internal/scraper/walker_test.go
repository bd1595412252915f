package scraper

import (
	"context"
	"testing"

	"github.com/pmikheev/betline/internal/pkg/models"
)

func walkerRefData() RefData {
	countries := []models.Country{
		{Name: "England", Code: "EN", Active: true},
		{Name: "Spain", Code: "ES", Active: true},
	}
	leagues := []models.League{
		{Name: "Premier League", CountryCode: "EN", ExternalID: "L1", Active: true},
		{Name: "La Liga", CountryCode: "ES", ExternalID: "L2", Active: true},
	}
	return NewRefData(7, countries, leagues, nil, nil)
}

func TestWalker_InactiveCountryNeverExpanded(t *testing.T) {
	england := &fakeCountry{name: "England", leagues: []*fakeLeague{{name: "Premier League"}}}
	atlantis := &fakeCountry{name: "Atlantis", leagues: []*fakeLeague{{name: "Sunken League"}}}
	src := &fakeSource{countries: []*fakeCountry{atlantis, england}}

	w := NewWalker(walkerRefData(), EmptyAliases())
	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(refs) != 1 {
		t.Fatalf("Walk() returned %d leagues, want 1", len(refs))
	}
	if refs[0].League.ExternalID != "L1" {
		t.Errorf("league external id = %q, want L1", refs[0].League.ExternalID)
	}
	if atlantis.expanded != 0 {
		t.Errorf("inactive country was expanded %d times, want 0", atlantis.expanded)
	}
	if england.expanded != 1 {
		t.Errorf("active country expanded %d times, want 1", england.expanded)
	}
}

func TestWalker_LeagueMustMatchCountryCode(t *testing.T) {
	// "La Liga" is active, but under ES; listing it under England must skip it
	england := &fakeCountry{name: "England", leagues: []*fakeLeague{
		{name: "La Liga"},
		{name: "Premier League"},
	}}
	src := &fakeSource{countries: []*fakeCountry{england}}

	w := NewWalker(walkerRefData(), EmptyAliases())
	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(refs) != 1 {
		t.Fatalf("Walk() returned %d leagues, want 1", len(refs))
	}
	if refs[0].League.ExternalID != "L1" {
		t.Errorf("league external id = %q, want L1", refs[0].League.ExternalID)
	}
}

func TestWalker_LeagueAliasResolution(t *testing.T) {
	england := &fakeCountry{name: "England", leagues: []*fakeLeague{
		{name: "England. Premier League"},
	}}
	src := &fakeSource{countries: []*fakeCountry{england}}

	aliases := &Aliases{Leagues: map[string]string{"England. Premier League": "Premier League"}}
	w := NewWalker(walkerRefData(), aliases)

	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Walk() returned %d leagues, want 1", len(refs))
	}
	if refs[0].RawLabel != "England. Premier League" {
		t.Errorf("raw label = %q, want source label preserved", refs[0].RawLabel)
	}
	if refs[0].League.ExternalID != "L1" {
		t.Errorf("league external id = %q, want L1", refs[0].League.ExternalID)
	}
}

func TestWalker_EmptyCountrySkipped(t *testing.T) {
	empty := &fakeCountry{name: "England"} // expands to no league container
	spain := &fakeCountry{name: "Spain", leagues: []*fakeLeague{{name: "La Liga"}}}
	src := &fakeSource{countries: []*fakeCountry{empty, spain}}

	w := NewWalker(walkerRefData(), EmptyAliases())
	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(refs) != 1 || refs[0].League.ExternalID != "L2" {
		t.Fatalf("Walk() = %v, want only La Liga", refs)
	}
}

func TestWalker_DiscoveryOrderPreserved(t *testing.T) {
	src := &fakeSource{countries: []*fakeCountry{
		{name: "Spain", leagues: []*fakeLeague{{name: "La Liga"}}},
		{name: "England", leagues: []*fakeLeague{{name: "Premier League"}}},
	}}

	w := NewWalker(walkerRefData(), EmptyAliases())
	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Walk() returned %d leagues, want 2", len(refs))
	}
	if refs[0].League.ExternalID != "L2" || refs[1].League.ExternalID != "L1" {
		t.Errorf("order = [%s %s], want source order [L2 L1]",
			refs[0].League.ExternalID, refs[1].League.ExternalID)
	}
}

func TestUnfilteredWalker_KeepsEverything(t *testing.T) {
	src := &fakeSource{countries: []*fakeCountry{
		{name: "Atlantis", leagues: []*fakeLeague{{name: "Sunken League"}}},
	}}

	w := NewUnfilteredWalker(EmptyAliases())
	refs, err := w.Walk(context.Background(), src)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Walk() returned %d leagues, want 1", len(refs))
	}
	if refs[0].Country.Name != "Atlantis" || refs[0].League.Name != "Sunken League" {
		t.Errorf("unexpected ref: %+v", refs[0])
	}
}
