package logging

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/pmikheev/betline/internal/pkg/config"
)

// SetupLogger настраивает глобальный logger: stdout всегда, плюс отправка
// в удалённый ingester, если она включена в конфиге.
func SetupLogger(cfg *config.LoggingConfig, serviceName string) (*slog.Logger, error) {
	var handlers []slog.Handler

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	handlers = append(handlers, textHandler)

	if cfg.Enabled {
		ingestHandler, err := NewIngestHandler(*cfg)
		if err != nil {
			log.Printf("Warning: failed to initialize log ingester: %v", err)
			log.Println("Continuing with stdout logging only")
		} else {
			handlers = append(handlers, ingestHandler)
		}
	}

	logger := slog.New(&MultiHandler{handlers: handlers})

	service := cfg.ServiceLabel
	if service == "" {
		service = serviceName
	}
	logger = logger.With("service", service)

	slog.SetDefault(logger)

	return logger, nil
}

// MultiHandler отправляет логи в несколько handlers
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var lastErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
