package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pmikheev/betline/internal/pkg/config"
)

// IngestHandler реализует slog.Handler, который батчами отправляет записи
// в удалённый лог-ingester по HTTP.
type IngestHandler struct {
	config      config.LoggingConfig
	client      *http.Client
	buffer      []logEntry
	bufferMutex sync.Mutex
	ticker      *time.Ticker
	done        chan struct{}
	wg          sync.WaitGroup
	level       slog.Level
}

type logEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Stream    string         `json:"stream,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewIngestHandler создает handler для удалённого логирования.
func NewIngestHandler(cfg config.LoggingConfig) (*IngestHandler, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("log ingester endpoint is required")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("LOG_INGEST_TOKEN")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("log ingester token is required (set LOG_INGEST_TOKEN env var or in config)")
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	flushInterval := cfg.FlushInterval.Duration()
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	var level slog.Level
	switch cfg.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := &IngestHandler{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		buffer: make([]logEntry, 0, cfg.BatchSize),
		ticker: time.NewTicker(flushInterval),
		done:   make(chan struct{}),
		level:  level,
	}

	handler.wg.Add(1)
	go handler.flushLoop()

	return handler, nil
}

func (h *IngestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *IngestHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.Enabled(ctx, record.Level) {
		return nil
	}

	entry := logEntry{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Stream:    h.config.Stream,
		Message:   record.Message,
		Payload:   make(map[string]any),
	}
	record.Attrs(func(a slog.Attr) bool {
		entry.Payload[a.Key] = a.Value.Any()
		return true
	})

	h.bufferMutex.Lock()
	h.buffer = append(h.buffer, entry)
	shouldFlush := len(h.buffer) >= h.config.BatchSize
	h.bufferMutex.Unlock()

	if shouldFlush {
		go h.flush()
	}

	return nil
}

func (h *IngestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Атрибуты уровня logger попадают в payload каждой записи через Handle
	return h
}

func (h *IngestHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *IngestHandler) flushLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			return
		}
	}
}

func (h *IngestHandler) flush() {
	h.bufferMutex.Lock()
	if len(h.buffer) == 0 {
		h.bufferMutex.Unlock()
		return
	}
	entries := make([]logEntry, len(h.buffer))
	copy(entries, h.buffer)
	h.buffer = h.buffer[:0]
	h.bufferMutex.Unlock()

	if err := h.sendBatch(entries); err != nil {
		// stderr, чтобы не зациклить логирование
		fmt.Fprintf(os.Stderr, "Failed to ship logs to ingester: %v\n", err)
	}
}

func (h *IngestHandler) sendBatch(entries []logEntry) error {
	body, err := json.Marshal(map[string]any{"entries": entries})
	if err != nil {
		return fmt.Errorf("failed to marshal log batch: %w", err)
	}

	req, err := http.NewRequest("POST", h.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.Token)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ingester returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Close останавливает фоновую отправку и доотправляет буфер.
func (h *IngestHandler) Close() error {
	close(h.done)
	h.ticker.Stop()
	h.wg.Wait()
	h.flush()
	return nil
}
