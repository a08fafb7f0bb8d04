package scraper

// SessionResult is what one interactive session hands back.
type SessionResult struct {
	// RawHTML is the rendered page after popups and scrolling.
	RawHTML string

	Title      string
	StatusCode int
	FinalURL   string

	// PopupClosed is the close selector that was clicked, or "".
	PopupClosed string

	// Scrolled is the number of scrolls that completed.
	Scrolled int
}
