package scraper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAliases_ResolvePrecedence(t *testing.T) {
	a := &Aliases{
		Teams:   map[string]string{"Arsenal (London)": "Arsenal"},
		Leagues: map[string]string{"England. Premier League": "Premier League"},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"Arsenal (London)", "Arsenal"},
		{"  Arsenal (London)  ", "Arsenal"}, // trimmed before lookup
		{"Chelsea", "Chelsea"},              // no entry: raw label passes through
	}
	for _, tt := range tests {
		got := a.Team(tt.in)
		if got != tt.want {
			t.Errorf("Team(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := a.League("England. Premier League"); got != "Premier League" {
		t.Errorf("League() = %q, want %q", got, "Premier League")
	}
}

func TestAliases_EmptyResolvesToRaw(t *testing.T) {
	a := EmptyAliases()
	if got := a.Market("1x2"); got != "1x2" {
		t.Errorf("Market() = %q, want raw label back", got)
	}
	if got := a.Outcome("Over 2.5"); got != "Over 2.5" {
		t.Errorf("Outcome() = %q, want raw label back", got)
	}
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	content := `
teams:
  "Spartak M": "Spartak Moscow"
markets:
  "Match Result": "1X2"
outcomes:
  "1": "Home Win"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases() error: %v", err)
	}
	if got := a.Team("Spartak M"); got != "Spartak Moscow" {
		t.Errorf("Team() = %q, want %q", got, "Spartak Moscow")
	}
	if got := a.Market("Match Result"); got != "1X2" {
		t.Errorf("Market() = %q, want %q", got, "1X2")
	}
	if got := a.Outcome("1"); got != "Home Win" {
		t.Errorf("Outcome() = %q, want %q", got, "Home Win")
	}
}

func TestLoadAliases_MissingFile(t *testing.T) {
	if _, err := LoadAliases(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing aliases file")
	}
}
