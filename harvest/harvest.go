// Package harvest runs one scrape end to end: obtain the listing document
// from a provider, extract restaurant names from it, persist the result and
// announce it.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/extractor"
	"github.com/use-agent/tablescout/models"
)

// Store persists the envelope of a successful run.
type Store interface {
	Save(env models.Envelope) error
}

// Notifier is told about every finished run.
type Notifier interface {
	Completed(runID, provider string, env *models.Envelope)
	Failed(runID, provider string, err *models.ScrapeError)
}

// Options configures a Harvester.
type Options struct {
	// TargetURL is the listing page.
	TargetURL string

	// Timeout bounds one run, provider included. 0 means no extra bound.
	Timeout time.Duration

	// Threshold and MinLength override the profile values when > 0.
	Threshold int
	MinLength int

	// Store and Notifier are optional.
	Store    Store
	Notifier Notifier
}

// Run is the record of one harvest.
type Run struct {
	ID          string
	Result      models.Result
	Provider    string
	LastUpdated time.Time
	Timing      models.TimingInfo
}

// Envelope returns the persisted form of a successful run.
func (r *Run) Envelope() *models.Envelope {
	restaurants := r.Result.Restaurants()
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	return &models.Envelope{
		LastUpdated: r.LastUpdated.UTC().Format(time.RFC3339),
		Count:       len(restaurants),
		Restaurants: restaurants,
	}
}

// Harvester binds a provider to the extraction engine.
type Harvester struct {
	engine   engine.Engine
	opts     Options
	static   *extractor.Extractor
	session  *extractor.Extractor
	now      func() time.Time
	newRunID func() string
}

// New creates a Harvester fetching through eng.
func New(eng engine.Engine, opts Options) *Harvester {
	return &Harvester{
		engine:   eng,
		opts:     opts,
		static:   extractor.New(override(extractor.StaticProfile(), opts)),
		session:  extractor.New(override(extractor.SessionProfile(), opts)),
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
}

func override(p extractor.Profile, opts Options) extractor.Profile {
	if opts.Threshold > 0 {
		p.Threshold = opts.Threshold
	}
	if opts.MinLength > 0 {
		p.MinLength = opts.MinLength
	}
	return p
}

// Provider names the configured engine.
func (h *Harvester) Provider() string { return h.engine.Name() }

// TargetURL returns the listing page being harvested.
func (h *Harvester) TargetURL() string { return h.opts.TargetURL }

// ExtractorFor picks the extractor matching the engine that produced a
// document: the static profile for plain HTTP, the session profile for
// anything rendered in a browser.
func (h *Harvester) ExtractorFor(engineName string) *extractor.Extractor {
	switch engineName {
	case "rod", "rod-stealth":
		return h.session
	default:
		return h.static
	}
}

// Run performs one harvest. It never panics and never returns both records
// and an error: every outcome is carried by Run.Result.
func (h *Harvester) Run(ctx context.Context) (run *Run) {
	run = &Run{ID: h.newRunID(), Provider: h.engine.Name()}
	start := h.now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("harvest panicked", "run_id", run.ID, "panic", r)
			run.Result = models.Failed(models.NewScrapeError(
				models.ErrCodeInternal,
				fmt.Sprintf("unexpected failure: %v", r),
				nil,
			))
		}
		end := h.now()
		if run.LastUpdated.IsZero() {
			run.LastUpdated = end
		}
		run.Timing.TotalMs = end.Sub(start).Milliseconds()
		h.announce(run)
	}()

	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	slog.Info("harvest started", "run_id", run.ID, "url", h.opts.TargetURL, "provider", run.Provider)

	fetched, err := h.engine.Fetch(ctx, &engine.FetchRequest{
		URL:     h.opts.TargetURL,
		Timeout: h.opts.Timeout,
	})
	fetchDone := h.now()
	run.Timing.FetchMs = fetchDone.Sub(start).Milliseconds()
	if err != nil {
		run.Result = models.Failed(classify(err))
		return run
	}
	if fetched.EngineName != "" {
		run.Provider = fetched.EngineName
	}

	ex := h.ExtractorFor(fetched.EngineName)
	run.Result = ex.ExtractHTML(fetched.HTML)
	run.LastUpdated = h.now()
	run.Timing.ExtractMs = run.LastUpdated.Sub(fetchDone).Milliseconds()
	if !run.Result.OK() {
		return run
	}

	slog.Info("harvest extracted",
		"run_id", run.ID,
		"provider", run.Provider,
		"profile", ex.Profile().Name,
		"count", len(run.Result.Restaurants()),
	)

	if h.opts.Store != nil {
		if err := h.opts.Store.Save(*run.Envelope()); err != nil {
			run.Result = models.Failed(models.NewScrapeError(models.ErrCodeStorage, "failed to save results", err))
		}
	}
	return run
}

// announce logs the outcome and notifies.
func (h *Harvester) announce(run *Run) {
	if run.Result.OK() {
		slog.Info("harvest completed",
			"run_id", run.ID,
			"count", len(run.Result.Restaurants()),
			"total_ms", run.Timing.TotalMs,
		)
		if h.opts.Notifier != nil {
			h.opts.Notifier.Completed(run.ID, run.Provider, run.Envelope())
		}
		return
	}

	slog.Warn("harvest failed",
		"run_id", run.ID,
		"code", run.Result.Err().Code,
		"error", run.Result.Err().Message,
	)
	if h.opts.Notifier != nil {
		h.opts.Notifier.Failed(run.ID, run.Provider, run.Result.Err())
	}
}

// classify turns a provider error into a ScrapeError whose Message is what
// the caller shows. A target status keeps its "Status code: N" wording.
func classify(err error) *models.ScrapeError {
	var statusErr *engine.StatusError
	if errors.As(err, &statusErr) {
		return models.NewScrapeError(models.ErrCodeBadStatus, statusErr.Error(), err)
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, "timed out fetching the listing page", err)
	}
	return models.NewScrapeError(models.ErrCodeFetch, err.Error(), err)
}
