package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/tablescout/engine"
	"github.com/use-agent/tablescout/models"
	"github.com/ysmood/gson"
)

// SessionFunc adapts the scraper to engine.SessionFunc so it can back an
// engine.RodEngine. Session knobs come from the scraper config.
func (s *Scraper) SessionFunc() engine.SessionFunc {
	return func(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
		cookies := make([]models.Cookie, len(req.Cookies))
		for i, c := range req.Cookies {
			cookies[i] = models.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
		}

		sreq := &models.SessionRequest{
			URL:         req.URL,
			Timeout:     req.Timeout,
			Stealth:     req.Stealth,
			Headers:     req.Headers,
			Cookies:     cookies,
			PopupWait:   s.scraperCfg.PopupWait,
			Scrolls:     s.scraperCfg.Scrolls,
			ScrollPause: s.scraperCfg.ScrollPause,
			BlockAds:    s.scraperCfg.BlockAds,
		}
		if sreq.Scrolls == 0 {
			sreq.Scrolls = -1
		}
		sreq.Defaults()

		res, err := s.Session(ctx, sreq)
		if err != nil {
			return nil, err
		}
		return &engine.FetchResult{
			HTML:       res.RawHTML,
			Title:      res.Title,
			StatusCode: res.StatusCode,
			FinalURL:   res.FinalURL,
		}, nil
	}
}

// Session loads req.URL in a pooled tab and returns the rendered listing.
//
// Steps, in order:
//
//  1. Timeout guard: a hard deadline on the whole session.
//  2. Acquire a tab from the pool; on return it goes back via about:blank.
//  3. Stealth, headers, cookies and the request blocker. These only affect
//     navigations that start after they are installed.
//  4. Navigate and wait for the DOM to settle.
//  5. Status via Navigation Timing (no CDP network listener needed).
//  6. Dismiss the first popup, bounded by PopupWait.
//  7. Scroll Scrolls viewports, ScrollPause apart.
//  8. Read rendered HTML, title and final URL.
func (s *Scraper) Session(ctx context.Context, req *models.SessionRequest) (*SessionResult, error) {
	// 1. Timeout guard.
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	// 2. Acquire page.
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	// Uses the page without the request context so cleanup works after a timeout.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// 3. Pre-navigation setup.
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	if headers := sessionHeaders(req); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}
	setCookies(page, req)

	if router := s.blocker.mount(page); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// 4. Navigate.
	navPage := p
	if s.scraperCfg.NavigationTimeout > 0 {
		navPage = p.Timeout(s.scraperCfg.NavigationTimeout)
	}
	if err := navPage.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	// 5. Status code.
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}
	if statusCode >= 400 {
		return nil, &engine.StatusError{StatusCode: statusCode, URL: req.URL}
	}

	// 6. Popup.
	closed := dismissPopup(ctx, rodPopup{p: p}, req.CloseSelectors, req.PopupWait)

	// 7. Scroll.
	scrolled, err := scrollListing(ctx, p, req.Scrolls, req.ScrollPause)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(err, "session timed out while scrolling")
		}
		slog.Warn("scrolling stopped early", "completed", scrolled, "error", err)
	}

	// 8. Extract.
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	slog.Info("session complete",
		"url", req.URL,
		"status", statusCode,
		"popup", closed,
		"scrolls", scrolled,
		"bytes", len(rawHTML),
	)

	return &SessionResult{
		RawHTML:     rawHTML,
		Title:       evalStringOrEmpty(p, `() => document.title`),
		StatusCode:  statusCode,
		FinalURL:    finalURL,
		PopupClosed: closed,
		Scrolled:    scrolled,
	}, nil
}

// sessionHeaders merges custom headers over a search-engine Referer.
func sessionHeaders(req *models.SessionRequest) map[string]string {
	headers := make(map[string]string, len(req.Headers)+1)
	if _, ok := req.Headers["Referer"]; !ok {
		if u, err := url.Parse(req.URL); err == nil && u.Hostname() != "" {
			headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	return headers
}

func setCookies(page *rod.Page, req *models.SessionRequest) {
	for _, c := range req.Cookies {
		domain := c.Domain
		if domain == "" {
			if u, err := url.Parse(req.URL); err == nil {
				domain = u.Host
			}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		_, _ = proto.NetworkSetCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: domain,
			Path:   path,
		}.Call(page)
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "session canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
