package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/scraper"
)

// Browser owns one Chromium process for the lifetime of a run.
type Browser struct {
	browser *rod.Browser
	cfg     *config.Config
	logger  *observability.Logger
}

// Launch starts Chromium and connects to it.
func Launch(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.Browser.ChromePath != "" {
		l = l.Bin(cfg.Browser.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if d := cfg.GetBrowserSlowMotion(); d > 0 {
		browser = browser.SlowMotion(d)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b := &Browser{
		browser: browser,
		cfg:     cfg,
		logger:  logger.With("component", "browser"),
	}
	b.logger.Info("Browser ready",
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)
	return b, nil
}

// Open navigates a new tab to the configured site and returns a session on it.
func (b *Browser) Open(ctx context.Context, selectors *scraper.Selectors, clean func(string) string) (*Session, error) {
	var (
		page *rod.Page
		err  error
	)
	if b.cfg.Browser.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if ua := b.cfg.HTTP.UserAgent; ua != "" && !b.cfg.Browser.Stealth {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			b.logger.Warn("Failed to set user agent", "error", err.Error())
		}
	}

	b.logger.Info("Opening site", "url", b.cfg.Browser.SiteURL)
	nav := page.Context(ctx).Timeout(b.cfg.GetBrowserPageTimeout())
	defer nav.CancelTimeout()
	if err := nav.Navigate(b.cfg.Browser.SiteURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", b.cfg.Browser.SiteURL, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", b.cfg.Browser.SiteURL, err)
	}

	return newSession(page, selectors, clean, b.cfg, b.logger), nil
}

func (b *Browser) Close() error {
	if b.browser == nil {
		return nil
	}
	return b.browser.Close()
}
