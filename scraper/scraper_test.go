package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/tablescout/models"
)

func TestBlocker(t *testing.T) {
	t.Parallel()

	b := newBlocker([]string{"Image", "Font", "Bogus"}, true)

	tests := []struct {
		name string
		rt   proto.NetworkResourceType
		url  string
		want bool
	}{
		{"blocked type", proto.NetworkResourceTypeImage, "https://www.zomato.com/logo.png", true},
		{"allowed document", proto.NetworkResourceTypeDocument, "https://www.zomato.com/hyderabad/restaurants", false},
		{"tracker subdomain", proto.NetworkResourceTypeScript, "https://pagead2.googlesyndication.com/tag.js", true},
		{"tracker exact", proto.NetworkResourceTypeXHR, "https://hotjar.com/c", true},
		{"lookalike host", proto.NetworkResourceTypeScript, "https://nothotjar.com/c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, b.blocks(tt.rt, tt.url))
		})
	}
}

func TestBlocker_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, newBlocker(nil, false).empty())
	assert.True(t, newBlocker([]string{"Unknown"}, false).empty())
	assert.False(t, newBlocker(nil, true).empty())
	assert.False(t, newBlocker(nil, false).blocks(proto.NetworkResourceTypeScript, "https://doubleclick.net/x"))
}

func TestSessionHeaders(t *testing.T) {
	t.Parallel()

	t.Run("adds search referer", func(t *testing.T) {
		t.Parallel()
		h := sessionHeaders(&models.SessionRequest{URL: "https://www.zomato.com/hyderabad/restaurants"})
		assert.Equal(t, "https://www.google.com/search?q=www.zomato.com", h["Referer"])
	})

	t.Run("custom referer wins", func(t *testing.T) {
		t.Parallel()
		h := sessionHeaders(&models.SessionRequest{
			URL:     "https://www.zomato.com/",
			Headers: map[string]string{"Referer": "https://example.com", "X-Trace": "1"},
		})
		assert.Equal(t, "https://example.com", h["Referer"])
		assert.Equal(t, "1", h["X-Trace"])
	})
}

func TestSessionRequestDefaults(t *testing.T) {
	t.Parallel()

	req := &models.SessionRequest{URL: "https://www.zomato.com/"}
	req.Defaults()

	assert.Equal(t, models.DefaultSessionTimeout, req.Timeout)
	assert.Equal(t, 3, req.Scrolls)
	assert.Equal(t, 2*time.Second, req.ScrollPause)
	assert.Equal(t, []string{"button[aria-label='Close']", ".sc-1kx5g6g-2", ".modal-close"}, req.CloseSelectors)

	off := &models.SessionRequest{Scrolls: -1}
	off.Defaults()
	assert.Equal(t, -1, off.Scrolls)
}

func TestCategorizeError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.Canceled, "x").Code)

	err := categorizeError(errors.New("net::ERR_NAME_NOT_RESOLVED"), "navigation to target URL failed")
	assert.Equal(t, models.ErrCodeNavigation, err.Code)
	assert.Equal(t, "navigation to target URL failed", err.Message)
}

func TestSleepCtx(t *testing.T) {
	t.Parallel()

	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

// fakePopup records clicks; clicks on hang block until ctx ends, like a
// close button stuck under an overlay.
type fakePopup struct {
	present map[string]bool
	hang    map[string]bool
	waitErr error
	clicked []string
}

func (f *fakePopup) waitAny(ctx context.Context, _ []string) error {
	if f.waitErr != nil {
		<-ctx.Done()
		return f.waitErr
	}
	return nil
}

func (f *fakePopup) click(ctx context.Context, selector string) (bool, error) {
	if !f.present[selector] {
		return false, nil
	}
	f.clicked = append(f.clicked, selector)
	if f.hang[selector] {
		<-ctx.Done()
		return true, ctx.Err()
	}
	return true, nil
}

func TestDismissPopup(t *testing.T) {
	t.Parallel()

	selectors := models.DefaultCloseSelectors

	t.Run("clicks the first present selector in list order", func(t *testing.T) {
		t.Parallel()

		pc := &fakePopup{present: map[string]bool{selectors[1]: true, selectors[2]: true}}

		got := dismissPopup(context.Background(), pc, selectors, time.Second)

		assert.Equal(t, selectors[1], got)
		assert.Equal(t, []string{selectors[1]}, pc.clicked)
	})

	t.Run("no popup is not an error", func(t *testing.T) {
		t.Parallel()

		pc := &fakePopup{waitErr: context.DeadlineExceeded}

		got := dismissPopup(context.Background(), pc, selectors, 20*time.Millisecond)

		assert.Empty(t, got)
		assert.Empty(t, pc.clicked)
	})

	t.Run("a covered close button cannot outlast the wait", func(t *testing.T) {
		t.Parallel()

		pc := &fakePopup{
			present: map[string]bool{selectors[0]: true, selectors[1]: true},
			hang:    map[string]bool{selectors[0]: true},
		}
		session, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		start := time.Now()
		got := dismissPopup(session, pc, selectors, 50*time.Millisecond)

		assert.Empty(t, got)
		assert.Less(t, time.Since(start), 5*time.Second)
		assert.NoError(t, session.Err())
	})

	t.Run("zero wait skips dismissal", func(t *testing.T) {
		t.Parallel()

		pc := &fakePopup{present: map[string]bool{selectors[0]: true}}

		assert.Empty(t, dismissPopup(context.Background(), pc, selectors, 0))
		assert.Empty(t, pc.clicked)
	})
}
