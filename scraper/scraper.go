// Package scraper is the interactive document provider: a headless Chromium
// driven through go-rod that loads a listing page, dismisses the first popup,
// scrolls to trigger lazy loading and hands back the rendered HTML.
package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/models"
)

// Scraper owns one browser process and a bounded pool of pages.
// It is safe for concurrent use.
type Scraper struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	maxPages    int
	scraperCfg  config.ScraperConfig
	blocker     *blocker
	activePages atomic.Int32
	startTime   time.Time
}

// chromeFlags hide the usual automation fingerprints and keep background
// tabs from being throttled while a listing scrolls.
var chromeFlags = map[flags.Flag]string{
	"disable-blink-features":              "AutomationControlled",
	"disable-features":                    "TranslateUI",
	"disable-renderer-backgrounding":      "",
	"disable-background-timer-throttling": "",
	"disable-dev-shm-usage":               "",
	"disable-extensions":                  "",
	"no-first-run":                        "",
	"lang":                                "en-US",
}

func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}
	l.Delete(flags.Flag("enable-automation"))
	for name, value := range chromeFlags {
		if value == "" {
			l.Set(name)
			continue
		}
		l.Set(name, value)
	}
	return l
}

// NewScraper launches the browser. It fails with BROWSER_CRASH when Chrome
// cannot be started or reached.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	l := newLauncher(browserCfg)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	maxPages := max(browserCfg.MaxPages, 1)
	slog.Info("page pool created", "maxPages", maxPages)

	return &Scraper{
		launcher:   l,
		browser:    browser,
		pagePool:   rod.NewPagePool(maxPages),
		maxPages:   maxPages,
		scraperCfg: scraperCfg,
		blocker:    newBlocker(scraperCfg.BlockedResourceTypes, scraperCfg.BlockAds),
		startTime:  time.Now(),
	}, nil
}

// Stats reports the pool size and how many pages are in use.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.maxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close closes pooled pages, then the browser, then makes sure the process
// is gone.
func (s *Scraper) Close() {
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	s.launcher.Kill()
	slog.Info("browser stopped", "uptime", time.Since(s.startTime).Round(time.Second).String())
}
