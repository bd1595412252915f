package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmikheev/betline/internal/browser"
	pkgconfig "github.com/pmikheev/betline/internal/pkg/config"
	"github.com/pmikheev/betline/internal/pkg/logging"
	"github.com/pmikheev/betline/internal/pkg/notify"
	"github.com/pmikheev/betline/internal/pkg/storage"
	"github.com/pmikheev/betline/internal/scraper"
)

const defaultConfigPath = "configs/production.yaml"

type config struct {
	configPath string
	runFor     time.Duration
	exportPath string // force the file sink even when postgres is configured
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	slog.Info("Starting scraper...")

	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, err = logging.SetupLogger(&appConfig.Logging, "scraper")
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	aliases := scraper.EmptyAliases()
	if appConfig.Scraper.AliasesPath != "" {
		aliases, err = scraper.LoadAliases(appConfig.Scraper.AliasesPath)
		if err != nil {
			return fmt.Errorf("failed to load aliases: %w", err)
		}
	}

	loc := time.Local
	if appConfig.Scraper.Timezone != "" {
		loc, err = time.LoadLocation(appConfig.Scraper.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone %q: %w", appConfig.Scraper.Timezone, err)
		}
	}

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(cancel)

	var (
		walker     *scraper.Walker
		matcher    *scraper.Matcher
		normalizer *scraper.Normalizer
		sink       scraper.Sink
	)

	exportPath := cfg.exportPath
	if exportPath == "" && appConfig.Postgres.DSN == "" {
		exportPath = appConfig.Export.Path
	}

	if exportPath != "" {
		// no persistence target: walk everything, dump the hierarchy
		walker = scraper.NewUnfilteredWalker(aliases)
		sink = scraper.NewFileSink(exportPath)
		slog.Info("Running in export mode", "path", exportPath)
	} else {
		store, err := storage.NewPostgresStore(&appConfig.Postgres)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		ref, err := scraper.LoadRefData(ctx, store, appConfig.Scraper.SourceName)
		if err != nil {
			return fmt.Errorf("failed to load reference data: %w", err)
		}

		var cache *storage.CoefficientCache
		if appConfig.Redis.Addr != "" {
			cache, err = storage.NewCoefficientCache(
				appConfig.Redis.Addr, appConfig.Redis.Password,
				appConfig.Redis.DB, appConfig.Redis.TTL.Duration(),
			)
			if err != nil {
				slog.Warn("Failed to connect coefficient cache, writing without it", "error", err)
			} else {
				defer cache.Close()
			}
		}

		walker = scraper.NewWalker(ref, aliases)
		matcher = scraper.NewMatcher(store, aliases, loc)
		normalizer = scraper.NewNormalizer(ref, aliases)
		sink = scraper.NewStoreSink(store, cache)
	}

	sess, err := browser.NewSession(ctx, appConfig.Scraper)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer sess.Close()

	pipeline := scraper.NewPipeline(browser.NewSource(sess), walker, matcher, normalizer, sink)
	stats, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if appConfig.Telegram.BotToken != "" && appConfig.Telegram.ChatID != 0 {
		notifier, err := notify.NewTelegramNotifier(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID)
		if err != nil {
			slog.Warn("Failed to create telegram notifier", "error", err)
		} else if err := notifier.SendRunSummary(appConfig.Scraper.SourceName, stats); err != nil {
			slog.Warn("Failed to send run summary", "error", err)
		}
	}

	return nil
}

func parseFlags() config {
	var cfg config

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "path to config file")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "optional run deadline (e.g. 30m); 0 means no deadline")
	flag.StringVar(&cfg.exportPath, "export", "", "write the discovered hierarchy to this file instead of persisting odds")
	flag.Parse()

	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
	}()
}
