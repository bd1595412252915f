package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/pmikheev/betline/internal/pkg/models"
	"github.com/pmikheev/betline/internal/scraper"
)

// Site drives the bookmaker's prematch hierarchy page through the shared
// session. Nodes address elements by selector and index, never by element
// reference: after any navigation the previous view is stale and must be
// re-queried.
type Site struct {
	sess *Session
}

var _ scraper.Source = (*Site)(nil)

func NewSource(sess *Session) *Site {
	return &Site{sess: sess}
}

// Open navigates to the hierarchy page and waits for the country tree.
func (s *Site) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sel := s.sess.cfg.Selectors
	err := s.sess.run(s.sess.navTimeout,
		chromedp.Navigate(s.sess.cfg.BaseURL),
		chromedp.WaitVisible(sel.CountryList, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.sess.cfg.BaseURL, err)
	}
	return nil
}

func (s *Site) Countries(ctx context.Context) ([]scraper.CountryNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.sess.countOf(s.sess.cfg.Selectors.CountryList)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate countries: %w", err)
	}

	nodes := make([]scraper.CountryNode, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, &countryNode{site: s, index: i})
	}
	return nodes, nil
}

type countryNode struct {
	site  *Site
	index int
}

func (c *countryNode) Name(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sel := c.site.sess.cfg.Selectors
	expr := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%q);
		if (%d >= els.length) return "";
		const label = els[%d].querySelector(%q);
		return (label ? label.textContent : els[%d].textContent).trim();
	})()`, sel.CountryList, c.index, c.index, sel.CountryName, c.index)

	var name string
	if err := c.site.sess.eval(c.site.sess.navTimeout, expr, &name); err != nil {
		return "", fmt.Errorf("failed to read country label: %w", err)
	}
	return name, nil
}

// Leagues expands the country node and enumerates its league labels.
func (c *countryNode) Leagues(ctx context.Context) ([]scraper.LeagueNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := c.site.sess.cfg.Selectors

	if err := c.site.sess.clickNth(sel.CountryList, c.index); err != nil {
		return nil, fmt.Errorf("failed to expand country: %w", err)
	}

	expr := fmt.Sprintf(`(() => {
		const c = document.querySelectorAll(%q)[%d];
		if (!c) return [];
		return Array.from(c.querySelectorAll(%q)).map(l => {
			const label = l.querySelector(%q);
			return (label ? label.textContent : l.textContent).trim();
		});
	})()`, sel.CountryList, c.index, sel.LeagueList, sel.LeagueName)

	var names []string
	if err := c.site.sess.eval(c.site.sess.navTimeout, expr, &names); err != nil {
		return nil, fmt.Errorf("failed to enumerate leagues: %w", err)
	}

	nodes := make([]scraper.LeagueNode, 0, len(names))
	for i, name := range names {
		nodes = append(nodes, &leagueNode{site: c.site, countryIndex: c.index, index: i, name: name})
	}
	return nodes, nil
}

type leagueNode struct {
	site         *Site
	countryIndex int
	index        int
	name         string
}

func (l *leagueNode) Name(ctx context.Context) (string, error) {
	return l.name, nil
}

// Matches expands the league and reads all candidate rows in one pass.
// Row contents are captured eagerly: opening any detail view afterwards
// invalidates the list, so nothing may be read from it lazily.
func (l *leagueNode) Matches(ctx context.Context) ([]scraper.MatchEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := l.site.sess.cfg.Selectors

	clickExpr := fmt.Sprintf(`(() => {
		const c = document.querySelectorAll(%q)[%d];
		if (!c) return false;
		const ls = c.querySelectorAll(%q);
		if (%d >= ls.length) return false;
		ls[%d].click();
		return true;
	})()`, sel.CountryList, l.countryIndex, sel.LeagueList, l.index, l.index)

	var clicked bool
	if err := l.site.sess.eval(l.site.sess.navTimeout, clickExpr, &clicked); err != nil {
		return nil, fmt.Errorf("failed to open league: %w", err)
	}
	if !clicked {
		return nil, fmt.Errorf("league %q disappeared from the expanded country", l.name)
	}

	if err := l.site.sess.run(l.site.sess.waitTimeout,
		chromedp.WaitVisible(sel.MatchList, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("match list never rendered for %q: %w", l.name, err)
	}

	rowsExpr := fmt.Sprintf(`(() => {
		const rows = [];
		document.querySelectorAll(%q).forEach(row => {
			const t = row.querySelector(%q);
			const d = row.querySelector(%q);
			const a = row.querySelector(%q);
			rows.push({
				teams: Array.from(row.querySelectorAll(%q)).map(e => e.textContent.trim()),
				time: t ? t.textContent.trim() : "",
				date: d ? d.textContent.trim() : "",
				link: a ? a.href : ""
			});
		});
		return rows;
	})()`, sel.MatchList, sel.MatchTime, sel.MatchDate, sel.MatchLink, sel.TeamLabel)

	var rows []struct {
		Teams []string `json:"teams"`
		Time  string   `json:"time"`
		Date  string   `json:"date"`
		Link  string   `json:"link"`
	}
	if err := l.site.sess.eval(l.site.sess.navTimeout, rowsExpr, &rows); err != nil {
		return nil, fmt.Errorf("failed to enumerate matches: %w", err)
	}

	entries := make([]scraper.MatchEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &matchEntry{
			site:    l.site,
			league:  l,
			index:   i,
			teams:   row.Teams,
			timeStr: row.Time,
			dateStr: row.Date,
			link:    row.Link,
		})
	}
	return entries, nil
}

type matchEntry struct {
	site    *Site
	league  *leagueNode
	index   int
	teams   []string
	timeStr string
	dateStr string
	link    string
}

func (m *matchEntry) Teams() []string { return m.teams }
func (m *matchEntry) Time() string    { return m.timeStr }
func (m *matchEntry) Date() string    { return m.dateStr }

func (m *matchEntry) ExternalID() string {
	return externalIDFromLink(m.link)
}

// Odds opens the detail view, waits bounded for the odds panel and scrapes
// the rendered groups. On panel timeout it returns an empty payload: a
// match without odds is partial data, not a failure. Either way it
// navigates back and re-awaits the list view.
func (m *matchEntry) Odds(ctx context.Context) (models.OddsPayload, error) {
	if err := ctx.Err(); err != nil {
		return models.OddsPayload{}, err
	}
	sess := m.site.sess
	sel := sess.cfg.Selectors

	if m.link != "" {
		if err := sess.run(sess.navTimeout, chromedp.Navigate(m.link)); err != nil {
			return models.OddsPayload{}, fmt.Errorf("failed to open detail view: %w", err)
		}
	} else {
		if err := sess.clickNth(sel.MatchList, m.index); err != nil {
			return models.OddsPayload{}, fmt.Errorf("failed to open detail view: %w", err)
		}
	}
	defer m.goBack()

	if err := sess.run(sess.waitTimeout,
		chromedp.WaitVisible(sel.OddsPanel, chromedp.ByQuery),
	); err != nil {
		// odds panel never rendered within the budget
		return models.OddsPayload{}, nil
	}

	groupsExpr := fmt.Sprintf(`(() => {
		const groups = [];
		document.querySelectorAll(%q).forEach(g => {
			const label = g.querySelector(%q);
			const names = g.querySelectorAll(%q);
			const values = g.querySelectorAll(%q);
			const outcomes = {};
			for (let i = 0; i < Math.min(names.length, values.length); i++) {
				outcomes[names[i].textContent.trim()] = values[i].textContent.trim();
			}
			groups.push({
				label: label ? label.textContent.trim() : "",
				outcomes: outcomes
			});
		});
		return groups;
	})()`, sel.OddsGroup, sel.OddsLabel, sel.OutcomeName, sel.OutcomeValue)

	var groups []models.OddsGroup
	if err := sess.eval(sess.navTimeout, groupsExpr, &groups); err != nil {
		return models.OddsPayload{}, fmt.Errorf("failed to scrape odds groups: %w", err)
	}
	return models.OddsPayload{Groups: groups}, nil
}

func (m *matchEntry) goBack() {
	sess := m.site.sess
	_ = sess.run(sess.navTimeout, chromedp.NavigateBack())
	_ = sess.run(sess.waitTimeout,
		chromedp.WaitVisible(sess.cfg.Selectors.MatchList, chromedp.ByQuery),
	)
}

// externalIDFromLink derives the source's fixture id from the detail URL:
// the last non-empty path segment.
func externalIDFromLink(link string) string {
	link = strings.TrimSuffix(link, "/")
	if link == "" {
		return ""
	}
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = strings.TrimSuffix(link[:i], "/")
	}
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}
