package scraper

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Aliases are the static mapping tables from the source's raw labels to the
// canonical labels used for matching. Loaded once at pipeline start.
type Aliases struct {
	Teams    map[string]string `yaml:"teams"`
	Leagues  map[string]string `yaml:"leagues"`
	Markets  map[string]string `yaml:"markets"`
	Outcomes map[string]string `yaml:"outcomes"`
}

// LoadAliases reads the alias tables from a yaml file.
func LoadAliases(path string) (*Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aliases file: %w", err)
	}

	var a Aliases
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse aliases file: %w", err)
	}
	return &a, nil
}

// EmptyAliases returns alias tables with no entries; every label resolves
// to itself.
func EmptyAliases() *Aliases {
	return &Aliases{}
}

func resolve(table map[string]string, raw string) string {
	raw = strings.TrimSpace(raw)
	if canonical, ok := table[raw]; ok {
		return canonical
	}
	return raw
}

// Team resolves a raw team label. Alias takes precedence over the raw
// label even when the raw label would match on its own.
func (a *Aliases) Team(raw string) string {
	return resolve(a.Teams, raw)
}

// League resolves a raw league label.
func (a *Aliases) League(raw string) string {
	return resolve(a.Leagues, raw)
}

// Market resolves a source market label to the canonical market name.
func (a *Aliases) Market(raw string) string {
	return resolve(a.Markets, raw)
}

// Outcome resolves a source outcome label to the canonical outcome name.
func (a *Aliases) Outcome(raw string) string {
	return resolve(a.Outcomes, raw)
}
