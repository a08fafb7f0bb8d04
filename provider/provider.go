// Package provider builds the document provider selected by configuration:
// a static HTTP fetch, an interactive browser session, or a race between
// the two.
package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/scraper"
)

// Provider is a ready engine plus whatever it owns.
type Provider struct {
	Engine engine.Engine

	// Scraper is nil in http mode.
	Scraper *scraper.Scraper
}

// Close releases the browser, if any.
func (p *Provider) Close() {
	if p.Scraper != nil {
		p.Scraper.Close()
	}
}

// Build creates the provider for cfg.Provider.
func Build(cfg *config.Config) (*Provider, error) {
	switch cfg.Provider {
	case config.ProviderHTTP:
		return &Provider{Engine: newHTTPEngine(cfg, false)}, nil

	case config.ProviderBrowser:
		sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
		if err != nil {
			return nil, err
		}
		return &Provider{
			Engine:  engine.NewRodEngine(sc.SessionFunc(), true),
			Scraper: sc,
		}, nil

	case config.ProviderAuto:
		sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
		if err != nil {
			return nil, err
		}
		session := sc.SessionFunc()

		// Shell pages are rejected so the race moves on to the browser.
		engines := []engine.Engine{
			newHTTPEngine(cfg, true),
			engine.NewRodEngine(session, false),
			engine.NewRodEngine(session, true),
		}
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
		return &Provider{
			Engine:  engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, engine.NewDomainMemory(memoryTTL(cfg))),
			Scraper: sc,
		}, nil

	default:
		return nil, fmt.Errorf("provider: unknown mode %q", cfg.Provider)
	}
}

func newHTTPEngine(cfg *config.Config, rejectShells bool) *engine.HTTPEngine {
	return engine.NewHTTPEngine(engine.HTTPEngineConfig{
		Timeout:      cfg.Engine.HTTPTimeout,
		RejectShells: rejectShells,
	})
}

func memoryTTL(cfg *config.Config) time.Duration {
	if cfg.Engine.MemoryTTL > 0 {
		return cfg.Engine.MemoryTTL
	}
	return 24 * time.Hour
}
