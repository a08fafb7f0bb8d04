package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// popupControls is the part of a page dismissPopup drives. Every call must
// give up when ctx ends.
type popupControls interface {
	// waitAny blocks until an element matches one of selectors.
	waitAny(ctx context.Context, selectors []string) error

	// click clicks the first element matching selector. It reports false
	// when nothing matches.
	click(ctx context.Context, selector string) (bool, error)
}

// rodPopup drives popup dismissal on a rod page.
type rodPopup struct {
	p *rod.Page
}

func (r rodPopup) waitAny(ctx context.Context, selectors []string) error {
	_, err := r.p.Context(ctx).Element(strings.Join(selectors, ", "))
	return err
}

func (r rodPopup) click(ctx context.Context, selector string) (bool, error) {
	has, el, err := r.p.Context(ctx).Has(selector)
	if err != nil || !has {
		return false, err
	}
	return true, el.Click(proto.InputMouseButtonLeft, 1)
}

// dismissPopup waits up to wait for any of selectors to appear, then clicks
// the first selector, in list order, that matches. The wait, lookups and
// clicks together never outlast wait. It returns the selector clicked, or ""
// when no popup was closed. A popup that stays open is not an error.
func dismissPopup(ctx context.Context, pc popupControls, selectors []string, wait time.Duration) string {
	if len(selectors) == 0 || wait <= 0 {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := pc.waitAny(ctx, selectors); err != nil {
		slog.Debug("no popup found", "wait", wait, "error", err)
		return ""
	}

	for _, sel := range selectors {
		if ctx.Err() != nil {
			slog.Debug("popup dismissal timed out", "wait", wait)
			return ""
		}
		found, err := pc.click(ctx, sel)
		if err != nil {
			slog.Debug("popup close click failed", "selector", sel, "error", err)
			continue
		}
		if found {
			slog.Debug("popup closed", "selector", sel)
			return sel
		}
	}
	return ""
}

// scrollListing scrolls down one viewport height at a time, pausing after
// each step so lazy-loaded cards can render. It returns how many scrolls
// completed before n was reached or ctx ended.
func scrollListing(ctx context.Context, p *rod.Page, n int, pause time.Duration) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return 0, fmt.Errorf("failed to get viewport height: %w", err)
	}
	viewportHeight := res.Value.Int()
	if viewportHeight <= 0 {
		viewportHeight = 800
	}

	for i := 0; i < n; i++ {
		if err := p.Mouse.Scroll(0, float64(viewportHeight), 0); err != nil {
			return i, fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		if err := sleepCtx(ctx, pause); err != nil {
			return i + 1, err
		}
	}
	return n, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
