package scraper

import (
	"context"
	"log/slog"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// LeagueRef is one traversal result: an active league discovered on the
// page together with the canonical row it resolved to. Node stays
// unexpanded until the pipeline asks it for matches.
type LeagueRef struct {
	Country  models.Country
	RawLabel string
	League   models.League
	Node     LeagueNode
}

// Walker discovers the country -> league hierarchy and filters it against
// the active reference set. Inactive entities are never expanded.
type Walker struct {
	ref        RefData
	aliases    *Aliases
	unfiltered bool
}

func NewWalker(ref RefData, aliases *Aliases) *Walker {
	return &Walker{ref: ref, aliases: aliases}
}

// NewUnfilteredWalker walks the whole discovered hierarchy. Used for the
// file export mode, where no store (and thus no active set) exists.
func NewUnfilteredWalker(aliases *Aliases) *Walker {
	return &Walker{aliases: aliases, unfiltered: true}
}

// Walk returns the active leagues in discovery order: countries as listed,
// then leagues within each country. Unknown or inactive subtrees are
// skipped with a warning; a country whose expansion yields nothing is
// skipped entirely.
func (w *Walker) Walk(ctx context.Context, src Source) ([]LeagueRef, error) {
	countryNodes, err := src.Countries(ctx)
	if err != nil {
		return nil, err
	}

	var refs []LeagueRef
	for _, cn := range countryNodes {
		name, err := cn.Name(ctx)
		if err != nil {
			slog.Warn("Failed to read country label, skipping", "error", err)
			continue
		}

		country := models.Country{Name: name, Active: true}
		if !w.unfiltered {
			var ok bool
			country, ok = w.ref.Country(name)
			if !ok {
				slog.Warn("Country not in active set, skipping subtree", "country", name)
				continue
			}
		}

		leagueNodes, err := cn.Leagues(ctx)
		if err != nil {
			slog.Warn("Failed to expand country, skipping", "country", name, "error", err)
			continue
		}
		if len(leagueNodes) == 0 {
			slog.Warn("Country expanded to no league container, skipping", "country", name)
			continue
		}

		for _, ln := range leagueNodes {
			rawLabel, err := ln.Name(ctx)
			if err != nil {
				slog.Warn("Failed to read league label, skipping", "country", name, "error", err)
				continue
			}

			canonical := w.aliases.League(rawLabel)
			league := models.League{Name: canonical, CountryCode: country.Code, Active: true}
			if !w.unfiltered {
				var ok bool
				league, ok = w.ref.League(canonical, country.Code)
				if !ok {
					slog.Warn("League not in active set for country, skipping",
						"country", name, "league", rawLabel, "canonical", canonical)
					continue
				}
			}

			refs = append(refs, LeagueRef{
				Country:  country,
				RawLabel: rawLabel,
				League:   league,
				Node:     ln,
			})
		}
	}

	return refs, nil
}
