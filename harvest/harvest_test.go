package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/harvest"
	"github.com/use-agent/tablescout/models"
)

const target = "https://www.zomato.com/hyderabad/restaurants"

// fakeEngine returns a canned page or error.
type fakeEngine struct {
	name string
	html string
	err  error
	hook func()
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &engine.FetchResult{HTML: f.html, StatusCode: 200, EngineName: f.name}, nil
}

type memStore struct {
	mu    sync.Mutex
	saved []models.Envelope
	err   error
}

func (s *memStore) Save(env models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, env)
	return nil
}

type recorder struct {
	mu        sync.Mutex
	completed []string
	failed    []*models.ScrapeError
}

func (r *recorder) Completed(runID, provider string, env *models.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, runID)
}

func (r *recorder) Failed(runID, provider string, err *models.ScrapeError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

const headingPage = `<html><body>
<h4>Spice Villa</h4>
<h4>Cafe Delight</h4>
<h4>Spice Villa</h4>
</body></html>`

func TestHarvester_HeadingListing(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	rec := &recorder{}
	h := harvest.New(&fakeEngine{name: "http", html: headingPage}, harvest.Options{
		TargetURL: target,
		Store:     st,
		Notifier:  rec,
	})

	run := h.Run(context.Background())

	require.True(t, run.Result.OK())
	assert.Equal(t, []string{"Spice Villa", "Cafe Delight"}, run.Result.Names())
	assert.Equal(t, "http", run.Provider)
	assert.NotEmpty(t, run.ID)

	require.Len(t, st.saved, 1)
	assert.Equal(t, 2, st.saved[0].Count)
	assert.Equal(t, run.Envelope().LastUpdated, st.saved[0].LastUpdated)
	assert.Equal(t, []string{run.ID}, rec.completed)
}

func TestHarvester_BadStatus(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	rec := &recorder{}
	h := harvest.New(&fakeEngine{
		name: "http",
		err:  &engine.StatusError{StatusCode: 503, URL: target},
	}, harvest.Options{TargetURL: target, Store: st, Notifier: rec})

	run := h.Run(context.Background())

	require.False(t, run.Result.OK())
	assert.Nil(t, run.Result.Restaurants())
	assert.Equal(t, models.ErrCodeBadStatus, run.Result.Err().Code)
	assert.Equal(t, "Failed to fetch page. Status code: 503", run.Result.Err().Message)
	assert.Contains(t, run.Result.Err().Message, "503")
	assert.Empty(t, st.saved)
	require.Len(t, rec.failed, 1)
}

func TestHarvester_StatusErrorThroughRodWrapper(t *testing.T) {
	t.Parallel()

	rod := engine.NewRodEngine(func(context.Context, *engine.FetchRequest) (*engine.FetchResult, error) {
		return nil, &engine.StatusError{StatusCode: 403}
	}, false)

	run := harvest.New(rod, harvest.Options{TargetURL: target}).Run(context.Background())

	require.False(t, run.Result.OK())
	assert.Equal(t, models.ErrCodeBadStatus, run.Result.Err().Code)
	assert.Contains(t, run.Result.Err().Message, "403")
}

func TestHarvester_ProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"plain error keeps its message", errors.New("dial tcp: connection refused"), models.ErrCodeFetch, "dial tcp: connection refused"},
		{"deadline", fmt.Errorf("http_engine: do request: %w", context.DeadlineExceeded), models.ErrCodeTimeout, "timed out fetching the listing page"},
		{"typed error passes through", models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", nil), models.ErrCodeBrowserCrash, "failed to acquire page from pool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			run := harvest.New(&fakeEngine{name: "http", err: tt.err}, harvest.Options{TargetURL: target}).Run(context.Background())

			require.False(t, run.Result.OK())
			assert.Equal(t, tt.wantCode, run.Result.Err().Code)
			assert.Equal(t, tt.wantMsg, run.Result.Err().Message)
		})
	}
}

func TestHarvester_PanicBecomesInternalError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	h := harvest.New(&fakeEngine{name: "http", hook: func() { panic("driver exploded") }}, harvest.Options{
		TargetURL: target,
		Notifier:  rec,
	})

	run := h.Run(context.Background())

	require.False(t, run.Result.OK())
	assert.Equal(t, models.ErrCodeInternal, run.Result.Err().Code)
	assert.Contains(t, run.Result.Err().Message, "driver exploded")
	assert.Len(t, rec.failed, 1)
}

func TestHarvester_StoreFailure(t *testing.T) {
	t.Parallel()

	h := harvest.New(&fakeEngine{name: "http", html: headingPage}, harvest.Options{
		TargetURL: target,
		Store:     &memStore{err: errors.New("disk full")},
	})

	run := h.Run(context.Background())

	require.False(t, run.Result.OK())
	assert.Equal(t, models.ErrCodeStorage, run.Result.Err().Code)
}

func TestHarvester_Idempotent(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<a href="/hyderabad/r/place-%d">Place Number %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	h := harvest.New(&fakeEngine{name: "http", html: b.String()}, harvest.Options{TargetURL: target})

	first := h.Run(context.Background())
	second := h.Run(context.Background())

	require.True(t, first.Result.OK())
	assert.Len(t, first.Result.Restaurants(), 30)
	assert.Equal(t, first.Result.Names(), second.Result.Names())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestHarvester_ProfileByEngine(t *testing.T) {
	t.Parallel()

	h := harvest.New(&fakeEngine{name: "auto"}, harvest.Options{TargetURL: target})

	assert.Equal(t, "static", h.ExtractorFor("http").Profile().Name)
	assert.Equal(t, "session", h.ExtractorFor("rod").Profile().Name)
	assert.Equal(t, "session", h.ExtractorFor("rod-stealth").Profile().Name)
	assert.Equal(t, "static", h.ExtractorFor("").Profile().Name)

	// Three-character names survive only the session profile.
	page := `<html><body><h4>Bob</h4><h4>Chutneys</h4></body></html>`
	static := harvest.New(&fakeEngine{name: "http", html: page}, harvest.Options{TargetURL: target}).Run(context.Background())
	session := harvest.New(&fakeEngine{name: "rod", html: page}, harvest.Options{TargetURL: target}).Run(context.Background())

	assert.Equal(t, []string{"Chutneys"}, static.Result.Names())
	assert.Equal(t, []string{"Bob", "Chutneys"}, session.Result.Names())
}

func TestHarvester_Overrides(t *testing.T) {
	t.Parallel()

	h := harvest.New(&fakeEngine{name: "http"}, harvest.Options{TargetURL: target, Threshold: 5, MinLength: 4})

	p := h.ExtractorFor("http").Profile()
	assert.Equal(t, 5, p.Threshold)
	assert.Equal(t, 4, p.MinLength)
	assert.Equal(t, "http", h.Provider())
	assert.Equal(t, target, h.TargetURL())
}
