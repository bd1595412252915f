package scraper

import (
	"testing"

	"github.com/pmikheev/betline/internal/pkg/models"
)

func testRefData() RefData {
	markets := []models.Market{
		{ID: 1, Name: "1X2"},
		{ID: 2, Name: "Both Teams To Score"},
		{ID: 3, Name: "Total 2.5"},
	}
	types := []models.MarketType{
		{ID: 11, MarketID: 1, Name: "Home Win"},
		{ID: 12, MarketID: 1, Name: "Draw"},
		{ID: 13, MarketID: 1, Name: "Away Win"},
		{ID: 21, MarketID: 2, Name: "Yes"},
		{ID: 22, MarketID: 2, Name: "No"},
		{ID: 31, MarketID: 3, Name: "Over"},
		{ID: 32, MarketID: 3, Name: "Under"},
	}
	return NewRefData(7, nil, nil, markets, types)
}

func testAliases() *Aliases {
	return &Aliases{
		Markets: map[string]string{
			"Match Result":      "1X2",
			"Both Teams Score":  "Both Teams To Score",
			"Total Goals (2.5)": "Total 2.5",
		},
		Outcomes: map[string]string{
			"1":         "Home Win",
			"X":         "Draw",
			"2":         "Away Win",
			"Over 2.5":  "Over",
			"Under 2.5": "Under",
		},
	}
}

func recordsByType(records []models.OddsRecord) map[int64]float64 {
	out := make(map[int64]float64)
	for _, r := range records {
		out[r.MarketTypeID] = r.Coefficient
	}
	return out
}

func TestNormalizer_MatchResultGroup(t *testing.T) {
	n := NewNormalizer(testRefData(), testAliases())

	payload := models.OddsPayload{Groups: []models.OddsGroup{
		{Label: "Match Result", Outcomes: map[string]string{
			"1": "1.80", "X": "3.40", "2": "4.20",
		}},
	}}

	records := n.Normalize(payload, 42, "m-100")
	if len(records) != 3 {
		t.Fatalf("Normalize() returned %d records, want 3", len(records))
	}

	byType := recordsByType(records)
	want := map[int64]float64{11: 1.80, 12: 3.40, 13: 4.20}
	for typeID, coef := range want {
		if byType[typeID] != coef {
			t.Errorf("type %d: coefficient = %v, want %v", typeID, byType[typeID], coef)
		}
	}

	for _, r := range records {
		if r.MarketID != 1 || r.FixtureID != 42 || r.SourceID != 7 || r.ExternalFixtureID != "m-100" {
			t.Errorf("unexpected key fields: %+v", r)
		}
	}
}

func TestNormalizer_UnknownMarketSkipsWholeGroup(t *testing.T) {
	n := NewNormalizer(testRefData(), testAliases())

	payload := models.OddsPayload{Groups: []models.OddsGroup{
		{Label: "Asian Handicap", Outcomes: map[string]string{"1": "1.95", "2": "1.95"}},
		{Label: "Match Result", Outcomes: map[string]string{"1": "1.80"}},
	}}

	records := n.Normalize(payload, 42, "m-100")
	if len(records) != 1 {
		t.Fatalf("Normalize() returned %d records, want 1 (unknown group dropped whole)", len(records))
	}
	if records[0].MarketTypeID != 11 {
		t.Errorf("surviving record type = %d, want 11", records[0].MarketTypeID)
	}
}

func TestNormalizer_UnknownOutcomeSkipsOnlyItself(t *testing.T) {
	n := NewNormalizer(testRefData(), testAliases())

	payload := models.OddsPayload{Groups: []models.OddsGroup{
		{Label: "Match Result", Outcomes: map[string]string{
			"1": "1.80", "Weird": "2.00", "2": "4.20",
		}},
	}}

	records := n.Normalize(payload, 42, "m-100")
	if len(records) != 2 {
		t.Fatalf("Normalize() returned %d records, want 2 (siblings survive)", len(records))
	}
	byType := recordsByType(records)
	if _, ok := byType[11]; !ok {
		t.Error("Home Win sibling missing")
	}
	if _, ok := byType[13]; !ok {
		t.Error("Away Win sibling missing")
	}
}

func TestNormalizer_PlaceholderCoefficientDropped(t *testing.T) {
	n := NewNormalizer(testRefData(), testAliases())

	payload := models.OddsPayload{Groups: []models.OddsGroup{
		{Label: "Match Result", Outcomes: map[string]string{
			"1": "1.80", "X": "3.40", "2": "4.20",
		}},
		{Label: "Both Teams Score", Outcomes: map[string]string{
			"Yes": "1.70", "No": "2.10",
		}},
		{Label: "Total Goals (2.5)", Outcomes: map[string]string{
			"Over 2.5": "N/A", "Under 2.5": "1.95",
		}},
	}}

	records := n.Normalize(payload, 42, "m-100")
	// the N/A outcome is dropped, everything else in all three groups lands
	if len(records) != 6 {
		t.Fatalf("Normalize() returned %d records, want 6", len(records))
	}
	byType := recordsByType(records)
	if _, ok := byType[31]; ok {
		t.Error("placeholder Over coefficient was forwarded, want dropped")
	}
	if byType[32] != 1.95 {
		t.Errorf("Under coefficient = %v, want 1.95", byType[32])
	}
}

func TestParseCoefficient(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1.80", 1.80, true},
		{" 2.05 ", 2.05, true},
		{"N/A", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"1.0", 0, false}, // not a real odd
		{"0.5", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCoefficient(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseCoefficient(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
