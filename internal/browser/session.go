package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pmikheev/betline/internal/pkg/config"
)

// Session owns the one headless Chrome the whole run is driven through.
// Every stage mutates it by navigating, so there is exactly one per run
// and no parallel use.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	cfg     config.ScraperConfig

	navTimeout  time.Duration
	waitTimeout time.Duration
	clickPause  time.Duration
}

// NewSession starts headless Chrome under the given parent context.
func NewSession(parent context.Context, cfg config.ScraperConfig) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         ctx,
		cancels:     []context.CancelFunc{cancelCtx, cancelAlloc},
		cfg:         cfg,
		navTimeout:  cfg.NavTimeout.Duration(),
		waitTimeout: cfg.WaitTimeout.Duration(),
		clickPause:  cfg.ClickPause.Duration(),
	}
	if s.navTimeout <= 0 {
		s.navTimeout = 30 * time.Second
	}
	if s.waitTimeout <= 0 {
		s.waitTimeout = 10 * time.Second
	}

	// materialize the browser process before the first navigation
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// Close tears the browser down.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes actions against the shared session with a bounded timeout.
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// eval runs a JS expression and unmarshals the JSON result into res.
func (s *Session) eval(timeout time.Duration, expr string, res any) error {
	return s.run(timeout, chromedp.Evaluate(expr, res))
}

// clickNth clicks the i-th element matching sel via JS, so a stale element
// reference can never be reused across navigations.
func (s *Session) clickNth(sel string, i int) error {
	expr := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%q);
		if (%d >= els.length) return false;
		els[%d].click();
		return true;
	})()`, sel, i, i)

	var clicked bool
	if err := s.eval(s.navTimeout, expr, &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("element %d matching %q not present anymore", i, sel)
	}
	if s.clickPause > 0 {
		time.Sleep(s.clickPause)
	}
	return nil
}

// countOf returns how many elements currently match sel.
func (s *Session) countOf(sel string) (int, error) {
	var n int
	err := s.eval(s.navTimeout, fmt.Sprintf(`document.querySelectorAll(%q).length`, sel), &n)
	return n, err
}
