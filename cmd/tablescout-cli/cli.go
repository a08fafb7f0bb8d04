package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/harvest"
	"github.com/use-agent/tablescout/store"
)

// Dependencies holds services and writers for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	BuildEngine EngineBuilder
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL       string        `help:"Listing page to scrape" default:"${target}" env:"TABLESCOUT_TARGET_URL"`
	Provider  string        `short:"p" enum:"http,browser,auto" default:"http" help:"Document provider: http, browser or auto"`
	Out       string        `short:"o" default:"restaurants.json" help:"File to write the result to"`
	Preview   int           `short:"n" default:"20" help:"Number of restaurants to print"`
	Timeout   time.Duration `default:"60s" help:"Bound for the whole scrape"`
	Threshold int           `help:"Override the early-exit candidate threshold"`
	MinLength int           `name:"min-length" help:"Override the minimum name length"`
	LogLevel  string        `name:"log-level" enum:"debug,info,warn,error" default:"warn" help:"Log level"`
}

// Run scrapes once, saves the envelope and prints a preview.
func (c *CLI) Run(deps *Dependencies) error {
	cfg := config.Load()
	cfg.Provider = c.Provider
	cfg.Target.URL = c.URL
	cfg.Scraper.Timeout = c.Timeout

	eng, closeEngine, err := deps.BuildEngine(cfg)
	if err != nil {
		if c.Provider != config.ProviderHTTP {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --provider http")
		}
		return fmt.Errorf("failed to start provider: %w", err)
	}
	defer closeEngine()

	st := store.New(c.Out)
	h := harvest.New(eng, harvest.Options{
		TargetURL: c.URL,
		Timeout:   c.Timeout,
		Threshold: c.Threshold,
		MinLength: c.MinLength,
		Store:     st,
	})

	run := h.Run(deps.Ctx)
	if !run.Result.OK() {
		return fmt.Errorf("scraping failed: %s", run.Result.Err().Message)
	}

	env := run.Envelope()
	fmt.Fprintf(deps.Stdout, "Scraped %d restaurants (provider %s, saved to %s)\n", env.Count, run.Provider, st.Path())

	n := c.Preview
	if n < 0 || n > len(env.Restaurants) {
		n = len(env.Restaurants)
	}
	if n == 0 {
		return nil
	}
	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env.Restaurants[:n]); err != nil {
		return fmt.Errorf("format preview: %w", err)
	}
	return nil
}
