package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Dispatcher escalates through a ladder of engines, cheapest first.
// Stage i starts once its delay has elapsed since the scrape began, or as
// soon as every earlier stage has failed, whichever comes first. The first
// document wins and the rest are cancelled. A Dispatcher is itself an Engine
// named "auto".
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] is started after delays[i];
// missing delays are treated as 0.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{
		engines: engines,
		delays:  d,
		memory:  memory,
	}
}

// Name implements Engine.
func (d *Dispatcher) Name() string { return "auto" }

// Fetch implements Engine. A host that recently produced a document with
// some engine goes to that engine directly; if it fails, the full ladder
// runs.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)

	if name := d.memory.Get(host); name != "" {
		if eng := d.engine(name); eng != nil {
			slog.Debug("domain memory hit", "host", host, "engine", name)
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				return result, nil
			}
			slog.Info("remembered engine failed, escalating from the start",
				"host", host, "engine", name, "error", err)
			d.memory.Delete(host)
		}
	}

	return d.escalate(ctx, req, host)
}

func (d *Dispatcher) engine(name string) Engine {
	for _, e := range d.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

type outcome struct {
	engine string
	result *FetchResult
	err    error
	took   time.Duration
}

func (d *Dispatcher) escalate(ctx context.Context, req *FetchRequest, host string) (*FetchResult, error) {
	ladderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan outcome, len(d.engines))
	failed := &EscalationError{URL: req.URL}
	start := time.Now()
	next, running := 0, 0
	done := ladderCtx.Done()

	for {
		for next < len(d.engines) && ladderCtx.Err() == nil &&
			(running == 0 || time.Since(start) >= d.delays[next]) {
			d.launch(ladderCtx, d.engines[next], req, outcomes)
			next++
			running++
		}
		if running == 0 {
			if len(failed.Attempts) == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, failed
		}

		var wake <-chan time.Time
		var timer *time.Timer
		if next < len(d.engines) && done != nil {
			timer = time.NewTimer(d.delays[next] - time.Since(start))
			wake = timer.C
		}

		select {
		case o := <-outcomes:
			running--
			if o.err == nil {
				stopTimer(timer)
				cancel()
				slog.Info("engine produced document",
					"engine", o.engine, "url", req.URL, "took", o.took)
				d.memory.Set(host, o.engine)
				return o.result, nil
			}
			slog.Debug("engine failed", "engine", o.engine, "url", req.URL, "error", o.err)
			failed.Attempts = append(failed.Attempts, Attempt{Engine: o.engine, Err: o.err, Took: o.took})
		case <-wake:
		case <-done:
			// Stop launching; running engines report ctx errors.
			done = nil
		}
		stopTimer(timer)
	}
}

func (d *Dispatcher) launch(ctx context.Context, e Engine, req *FetchRequest, out chan<- outcome) {
	slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
	go func() {
		began := time.Now()
		result, err := e.Fetch(ctx, req)
		if err == nil && result == nil {
			err = fmt.Errorf("%s: no document", e.Name())
		}
		out <- outcome{engine: e.Name(), result: result, err: err, took: time.Since(began)}
	}()
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Attempt is one engine's failed try at the listing.
type Attempt struct {
	Engine string
	Err    error
	Took   time.Duration
}

// EscalationError reports that every engine on the ladder failed.
// errors.As finds a *StatusError from any attempt.
type EscalationError struct {
	URL      string
	Attempts []Attempt
}

func (e *EscalationError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("dispatcher: no engine could fetch %s", e.URL)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Engine + ": " + a.Err.Error()
	}
	return fmt.Sprintf("all engines failed for %s (%s)", e.URL, strings.Join(parts, "; "))
}

// Unwrap returns the attempt errors, target status errors first.
func (e *EscalationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		var se *StatusError
		if errors.As(a.Err, &se) {
			errs = append(errs, a.Err)
		}
	}
	for _, a := range e.Attempts {
		var se *StatusError
		if !errors.As(a.Err, &se) {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
