package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses yaml duration strings ("30s", "1h") as well as plain
// integer nanoseconds. gopkg.in/yaml.v3 can't decode either form into
// time.Duration directly.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Logging  LoggingConfig  `yaml:"logging"`
	Telegram TelegramConfig `yaml:"telegram"`
	Export   ExportConfig   `yaml:"export"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"` // how long a written coefficient suppresses identical upserts
}

type ScraperConfig struct {
	BaseURL     string    `yaml:"base_url"`
	SourceName  string    `yaml:"source_name"`  // row in the sources table odds are attributed to
	UserAgent   string    `yaml:"user_agent"`
	Timezone    string    `yaml:"timezone"`     // IANA name the site renders kickoff times in
	NavTimeout  Duration  `yaml:"nav_timeout"`  // page navigation budget
	WaitTimeout Duration  `yaml:"wait_timeout"` // bounded wait for the odds panel
	ClickPause  Duration  `yaml:"click_pause"`  // settle pause after expanding a node
	AliasesPath string    `yaml:"aliases_path"`
	Selectors   Selectors `yaml:"selectors"`
}

// Selectors are the CSS patterns the site driver queries. Kept in config
// because the site markup changes more often than the code does.
type Selectors struct {
	CountryList  string `yaml:"country_list"`
	CountryName  string `yaml:"country_name"`
	LeagueList   string `yaml:"league_list"`
	LeagueName   string `yaml:"league_name"`
	MatchList    string `yaml:"match_list"`
	TeamLabel    string `yaml:"team_label"`
	MatchTime    string `yaml:"match_time"`
	MatchDate    string `yaml:"match_date"`
	MatchLink    string `yaml:"match_link"`
	OddsPanel    string `yaml:"odds_panel"`
	OddsGroup    string `yaml:"odds_group"`
	OddsLabel    string `yaml:"odds_label"`
	OutcomeName  string `yaml:"outcome_name"`
	OutcomeValue string `yaml:"outcome_value"`
}

type LoggingConfig struct {
	Enabled       bool     `yaml:"enabled"`        // ship logs to the remote ingester
	Endpoint      string   `yaml:"endpoint"`       // ingester write URL
	Token         string   `yaml:"token"`          // bearer token (or LOG_INGEST_TOKEN env)
	Stream        string   `yaml:"stream"`         // log stream/group name
	Level         string   `yaml:"level"`          // DEBUG, INFO, WARN, ERROR
	BatchSize     int      `yaml:"batch_size"`     // default 10
	FlushInterval Duration `yaml:"flush_interval"` // default 5s
	ServiceLabel  string   `yaml:"service_label"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"` // file sink target; used when postgres.dsn is empty
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}
