package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Engine is the interface that all fetch engines must implement. Each engine
// is one way of turning the listing URL into a document.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Cookies []http.Cookie
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// StatusError reports that the target answered with a non-success status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch page. Status code: %d", e.StatusCode)
}

// ErrShellPage is returned when a static fetch got an application shell that
// needs a browser to render.
var ErrShellPage = errors.New("page needs javascript rendering")
