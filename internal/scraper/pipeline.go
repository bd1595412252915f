package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pmikheev/betline/internal/pkg/models"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Countries int
	Leagues   int
	Matches   int
	Matched   int
	Outcomes  int
	Skipped   int
	Duration  time.Duration
}

// Pipeline drives one full ingestion run over a single shared source
// session: walker -> extractor -> matcher -> normalizer -> sink, strictly
// in discovery order. Every per-unit failure is logged and skipped; only a
// source that can't be opened at all is fatal.
type Pipeline struct {
	src        Source
	walker     *Walker
	matcher    *Matcher    // nil when running hierarchy-export only
	normalizer *Normalizer // nil when matcher is nil
	sink       Sink
}

func NewPipeline(src Source, walker *Walker, matcher *Matcher, normalizer *Normalizer, sink Sink) *Pipeline {
	return &Pipeline{
		src:        src,
		walker:     walker,
		matcher:    matcher,
		normalizer: normalizer,
		sink:       sink,
	}
}

// Run executes one ingestion cycle.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	started := time.Now()
	var stats Stats

	if err := p.src.Open(ctx); err != nil {
		return stats, fmt.Errorf("failed to open source page: %w", err)
	}

	leagues, err := p.walker.Walk(ctx, p.src)
	if err != nil {
		return stats, fmt.Errorf("failed to walk taxonomy: %w", err)
	}

	seenCountries := make(map[string]struct{})
	for _, ref := range leagues {
		if ctx.Err() != nil {
			break
		}
		seenCountries[ref.Country.Code] = struct{}{}
		stats.Leagues++

		entries, err := ref.Node.Matches(ctx)
		if err != nil {
			slog.Warn("Failed to expand league, skipping",
				"country", ref.Country.Name, "league", ref.RawLabel, "error", err)
			continue
		}

		for _, ex := range Extract(entries) {
			if ctx.Err() != nil {
				break
			}
			stats.Matches++
			p.processMatch(ctx, ref, ex, &stats)
		}
	}
	stats.Countries = len(seenCountries)

	if err := p.sink.Flush(ctx); err != nil {
		return stats, fmt.Errorf("failed to flush sink: %w", err)
	}

	stats.Duration = time.Since(started)
	slog.Info("Pipeline run finished",
		"countries", stats.Countries, "leagues", stats.Leagues,
		"matches", stats.Matches, "matched", stats.Matched,
		"outcomes", stats.Outcomes, "skipped", stats.Skipped,
		"duration", stats.Duration)
	return stats, nil
}

func (p *Pipeline) processMatch(ctx context.Context, ref LeagueRef, ex Extracted, stats *Stats) {
	if err := p.sink.Fixture(ctx, ref.Country.Name, ref.RawLabel, ex.Raw); err != nil {
		slog.Warn("Failed to record fixture in sink", "error", err)
	}

	if p.matcher == nil {
		return
	}

	fixture, ok := p.matcher.Match(ctx, ref.League.ExternalID, ex.Raw)
	if !ok {
		stats.Skipped++
		return
	}
	stats.Matched++

	payload, err := ex.Entry.Odds(ctx)
	if err != nil {
		// bounded wait expired or the view went away; partial data, not fatal
		slog.Warn("Failed to extract odds, continuing with empty payload",
			"home", ex.Raw.Teams[0], "away", ex.Raw.Teams[1], "error", err)
		payload = models.OddsPayload{}
	}

	for _, rec := range p.normalizer.Normalize(payload, fixture.ID, ex.Raw.ExternalID) {
		if err := p.sink.Outcome(ctx, rec); err != nil {
			slog.Warn("Failed to persist outcome, continuing",
				"fixture_id", rec.FixtureID, "market_id", rec.MarketID,
				"market_type_id", rec.MarketTypeID, "error", err)
			continue
		}
		stats.Outcomes++
	}
}
