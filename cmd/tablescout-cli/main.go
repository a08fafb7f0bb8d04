package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/provider"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// EngineBuilder creates the provider engine for cfg and a func releasing it.
type EngineBuilder func(cfg *config.Config) (engine.Engine, func(), error)

// Main represents the program.
type Main struct {
	// BuildEngine is swapped out in tests.
	BuildEngine EngineBuilder
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{BuildEngine: buildEngine}
}

func buildEngine(cfg *config.Config) (engine.Engine, func(), error) {
	p, err := provider.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return p.Engine, p.Close, nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:         ctx,
		Stdout:      stdout,
		Stderr:      stderr,
		BuildEngine: m.BuildEngine,
	}

	cli := &CLI{}
	helped := false
	parser, err := kong.New(cli,
		kong.Name("tablescout-cli"),
		kong.Description("Scrape a restaurant listing page once and save the names."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { helped = true }), // Don't exit on help
		kong.Vars{"target": config.DefaultTargetURL},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 1 && args[0] == "help" {
		args = []string{"--help"}
	}

	// Help must not fall through to a scrape.
	kongCtx, err := parser.Parse(args)
	if helped {
		return nil
	}
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel(cli.LogLevel)})))

	return kongCtx.Run(deps)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
