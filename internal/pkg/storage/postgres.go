package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/pmikheev/betline/internal/pkg/config"
	"github.com/pmikheev/betline/internal/pkg/models"
)

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

// PostgresStore holds the reference tables and the odds table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the connection, pings it and bootstraps the schema.
func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL store initialized successfully")
	return s, nil
}

// normalizeDSN handles failover DSNs from managed Postgres where the host
// part is a comma-separated list. lib/pq can't dial host lists, so we keep
// the first host and let the operator reorder on failover.
func normalizeDSN(dsn string) (string, error) {
	if !strings.Contains(dsn, ",") {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		at := strings.Index(dsn, "@")
		if at < 0 {
			return "", fmt.Errorf("multi-host DSN without credentials part: %q", dsn)
		}
		rest := dsn[at+1:]
		end := strings.IndexAny(rest, "/?")
		hostPart := rest
		if end >= 0 {
			hostPart = rest[:end]
		}
		first := strings.SplitN(hostPart, ",", 2)[0]
		return dsn[:at+1] + first + rest[len(hostPart):], nil
	}
	// keyword/value form: host=a,b port=...
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "host=") && strings.Contains(f, ",") {
			fields[i] = "host=" + strings.SplitN(strings.TrimPrefix(f, "host="), ",", 2)[0]
		}
	}
	return strings.Join(fields, " "), nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS countries (
		code VARCHAR(8) PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS leagues (
		external_id VARCHAR(100) PRIMARY KEY,
		name VARCHAR(300) NOT NULL,
		country_code VARCHAR(8) NOT NULL REFERENCES countries(code),
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS fixtures (
		id SERIAL PRIMARY KEY,
		league_external_id VARCHAR(100) NOT NULL REFERENCES leagues(external_id),
		home_team VARCHAR(300) NOT NULL,
		away_team VARCHAR(300) NOT NULL,
		scheduled_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS markets (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL UNIQUE,
		ordering INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS market_types (
		id SERIAL PRIMARY KEY,
		market_id INT NOT NULL REFERENCES markets(id),
		name VARCHAR(200) NOT NULL,
		ordering INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sources (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS odds (
		id SERIAL PRIMARY KEY,
		market_id INT NOT NULL REFERENCES markets(id),
		market_type_id INT NOT NULL REFERENCES market_types(id),
		fixture_id INT NOT NULL REFERENCES fixtures(id),
		source_id INT NOT NULL REFERENCES sources(id),
		external_fixture_id VARCHAR(200) NOT NULL,
		coefficient DECIMAL(10, 4) NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(market_id, market_type_id, fixture_id, source_id, external_fixture_id)
	);

	CREATE INDEX IF NOT EXISTS idx_fixtures_league_scheduled ON fixtures(league_external_id, scheduled_at);
	CREATE INDEX IF NOT EXISTS idx_odds_fixture ON odds(fixture_id);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// ActiveCountries returns countries flagged active.
func (s *PostgresStore) ActiveCountries(ctx context.Context) ([]models.Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, code, active FROM countries WHERE active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active countries: %w", err)
	}
	defer rows.Close()

	var countries []models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.Name, &c.Code, &c.Active); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// ActiveLeagues returns leagues flagged active.
func (s *PostgresStore) ActiveLeagues(ctx context.Context) ([]models.League, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, country_code, external_id, active FROM leagues WHERE active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.League
	for rows.Next() {
		var l models.League
		if err := rows.Scan(&l.Name, &l.CountryCode, &l.ExternalID, &l.Active); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

// Markets returns the full market taxonomy.
func (s *PostgresStore) Markets(ctx context.Context) ([]models.Market, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, ordering FROM markets ORDER BY ordering, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	var markets []models.Market
	for rows.Next() {
		var m models.Market
		if err := rows.Scan(&m.ID, &m.Name, &m.Ordering); err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// MarketTypes returns all outcomes of all markets.
func (s *PostgresStore) MarketTypes(ctx context.Context) ([]models.MarketType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, market_id, name, ordering FROM market_types ORDER BY market_id, ordering, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query market types: %w", err)
	}
	defer rows.Close()

	var types []models.MarketType
	for rows.Next() {
		var t models.MarketType
		if err := rows.Scan(&t.ID, &t.MarketID, &t.Name, &t.Ordering); err != nil {
			return nil, fmt.Errorf("failed to scan market type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SourceID resolves the source row, creating it on first run.
func (s *PostgresStore) SourceID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sources (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve source %q: %w", name, err)
	}
	return id, nil
}

// FindFixtures looks up canonical fixtures by league, freshness window and
// case-insensitive contains match on both team names.
func (s *PostgresStore) FindFixtures(ctx context.Context, q FixtureQuery) ([]models.Fixture, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, league_external_id, home_team, away_team, scheduled_at
		FROM fixtures
		WHERE league_external_id = $1
		  AND scheduled_at >= $2
		  AND LOWER(home_team) LIKE '%' || LOWER($3) || '%'
		  AND LOWER(away_team) LIKE '%' || LOWER($4) || '%'
		ORDER BY scheduled_at
	`, q.LeagueExternalID, q.NotBefore, q.Home, q.Away)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []models.Fixture
	for rows.Next() {
		var f models.Fixture
		if err := rows.Scan(&f.ID, &f.LeagueExternalID, &f.HomeTeam, &f.AwayTeam, &f.ScheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

// UpsertOdds saves one coefficient. One row per composite key; the key
// fields are immutable once written, only the coefficient moves.
func (s *PostgresStore) UpsertOdds(ctx context.Context, rec models.OddsRecord) error {
	query := `
	INSERT INTO odds (
		market_id, market_type_id, fixture_id, source_id,
		external_fixture_id, coefficient, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (market_id, market_type_id, fixture_id, source_id, external_fixture_id) DO UPDATE SET
		coefficient = EXCLUDED.coefficient,
		updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.MarketID, rec.MarketTypeID, rec.FixtureID, rec.SourceID,
		rec.ExternalFixtureID, rec.Coefficient,
	)
	return err
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
