package notify

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pmikheev/betline/internal/scraper"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier sends the per-run ingestion summary.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// SendRunSummary posts one message with the run counters.
func (n *TelegramNotifier) SendRunSummary(sourceName string, stats scraper.Stats) error {
	text := fmt.Sprintf(
		"Odds ingestion: %s\n"+
			"Countries: %d\n"+
			"Leagues: %d\n"+
			"Matches: %d (matched %d, skipped %d)\n"+
			"Outcomes written: %d\n"+
			"Duration: %s",
		sourceName,
		stats.Countries, stats.Leagues,
		stats.Matches, stats.Matched, stats.Skipped,
		stats.Outcomes,
		stats.Duration.Round(time.Second),
	)
	return n.send(text)
}

func (n *TelegramNotifier) send(text string) error {
	n.mu.Lock()
	if wait := telegramSendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
