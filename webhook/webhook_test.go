package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/tablescout/models"
	"github.com/use-agent/tablescout/webhook"
)

type delivery struct {
	body      []byte
	signature string
}

func receiver(t *testing.T, status int) (*httptest.Server, <-chan delivery) {
	t.Helper()
	got := make(chan delivery, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- delivery{body: body, signature: r.Header.Get(webhook.SignatureHeader)}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewNotifier_EmptyURL(t *testing.T) {
	t.Parallel()

	n := webhook.NewNotifier("", "secret")
	assert.Nil(t, n)

	// A nil notifier swallows events.
	n.Completed("run", "http", &models.Envelope{})
	n.Failed("run", "http", models.NewScrapeError(models.ErrCodeFetch, "boom", nil))
	n.Wait()
}

func TestNotifier_CompletedIsSigned(t *testing.T) {
	t.Parallel()

	srv, got := receiver(t, http.StatusOK)
	n := webhook.NewNotifier(srv.URL, "s3cret")

	n.Completed("run-1", "rod", &models.Envelope{
		LastUpdated: "2026-10-16T09:30:00Z",
		Count:       1,
		Restaurants: []models.Restaurant{{Name: "Spice Villa"}},
	})
	n.Wait()

	var d delivery
	select {
	case d = <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}

	assert.Equal(t, "sha256="+webhook.Sign("s3cret", d.body), d.signature)

	var ev struct {
		Type  string `json:"type"`
		RunID string `json:"run_id"`
		Data  struct {
			Provider string          `json:"provider"`
			Result   models.Envelope `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(d.body, &ev))
	assert.Equal(t, webhook.EventCompleted, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "rod", ev.Data.Provider)
	assert.Equal(t, "Spice Villa", ev.Data.Result.Restaurants[0].Name)
}

func TestNotifier_DeliverReportsStatus(t *testing.T) {
	t.Parallel()

	srv, got := receiver(t, http.StatusInternalServerError)
	n := webhook.NewNotifier(srv.URL, "")

	err := n.Deliver(context.Background(), &webhook.Event{Type: webhook.EventFailed, RunID: "run-2"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	d := <-got
	assert.Empty(t, d.signature)
}
