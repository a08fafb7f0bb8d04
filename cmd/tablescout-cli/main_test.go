package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	main "github.com/use-agent/tablescout/cmd/tablescout-cli"
	"github.com/use-agent/tablescout/config"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageEngine struct {
	html string
	err  error
	got  *engine.FetchRequest
}

func (p *pageEngine) Name() string { return "http" }

func (p *pageEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	p.got = req
	if p.err != nil {
		return nil, p.err
	}
	return &engine.FetchResult{HTML: p.html, StatusCode: 200, EngineName: "http"}, nil
}

func newMain(eng engine.Engine, gotCfg **config.Config) *main.Main {
	return &main.Main{
		BuildEngine: func(cfg *config.Config) (engine.Engine, func(), error) {
			if gotCfg != nil {
				*gotCfg = cfg
			}
			return eng, func() {}, nil
		},
	}
}

func listing(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<a href="/hyderabad/r/spot-%d">Biryani Spot %d</a>`, i, i)
	}
	return b.String()
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("scrapes, saves and previews", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "restaurants.json")
		eng := &pageEngine{html: listing(5)}
		var cfg *config.Config
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain(eng, &cfg).Run(context.Background(),
			[]string{"--url", "https://example.com/list", "--out", out, "--preview", "2"},
			stdout, stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Scraped 5 restaurants")
		assert.Contains(t, stdout.String(), "Biryani Spot 1")
		assert.NotContains(t, stdout.String(), "Biryani Spot 2")
		assert.Equal(t, "https://example.com/list", eng.got.URL)
		assert.Equal(t, config.ProviderHTTP, cfg.Provider)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var env models.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, 5, env.Count)
	})

	t.Run("reports provider failure", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "restaurants.json")
		eng := &pageEngine{err: &engine.StatusError{StatusCode: 503}}

		err := newMain(eng, nil).Run(context.Background(), []string{"--out", out}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Status code: 503")
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("build failure hints at http", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{BuildEngine: func(*config.Config) (engine.Engine, func(), error) {
			return nil, nil, errors.New("chromium not found")
		}}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"--provider", "browser"}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "--provider http")
	})

	t.Run("help does not scrape", func(t *testing.T) {
		t.Parallel()

		eng := &pageEngine{html: listing(1)}
		stdout := &bytes.Buffer{}

		err := newMain(eng, nil).Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Nil(t, eng.got)
		assert.Contains(t, stdout.String(), "--preview")
	})

	t.Run("help as a flag value is not a help request", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "restaurants.json")
		eng := &pageEngine{html: listing(1)}

		err := newMain(eng, nil).Run(context.Background(),
			[]string{"--url", "help", "--out", out}, &bytes.Buffer{}, &bytes.Buffer{})

		require.NoError(t, err)
		require.NotNil(t, eng.got)
		assert.Equal(t, "help", eng.got.URL)
	})

	t.Run("short help flag after other flags", func(t *testing.T) {
		t.Parallel()

		eng := &pageEngine{html: listing(1)}
		stdout := &bytes.Buffer{}

		err := newMain(eng, nil).Run(context.Background(), []string{"--preview", "3", "-h"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Nil(t, eng.got)
		assert.Contains(t, stdout.String(), "--preview")
	})

	t.Run("preview keeps ampersands", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "restaurants.json")
		eng := &pageEngine{html: `<a href="/hyderabad/r/1">Chicken & Grill</a>`}
		stdout := &bytes.Buffer{}

		err := newMain(eng, nil).Run(context.Background(), []string{"--out", out}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), `"Chicken & Grill"`)
		assert.NotContains(t, stdout.String(), `\u0026`)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		t.Parallel()

		err := newMain(&pageEngine{}, nil).Run(context.Background(), []string{"--provider", "fax"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
