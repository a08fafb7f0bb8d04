package models

import "time"

// Default interactive session settings.
const (
	DefaultSessionTimeout = 60 * time.Second
	DefaultScrolls        = 3
	DefaultScrollPause    = 2 * time.Second
	DefaultPopupWait      = 5 * time.Second
)

// DefaultCloseSelectors are tried in order to dismiss the first popup the
// listing site shows. The first selector that matches is clicked.
var DefaultCloseSelectors = []string{
	"button[aria-label='Close']",
	".sc-1kx5g6g-2",
	".modal-close",
}

// Cookie is a cookie set on the browser before navigation.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// SessionRequest describes one interactive browser session against a
// listing page.
type SessionRequest struct {
	// URL is the listing page. Required.
	URL string `json:"url"`

	// Timeout bounds the whole session.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Stealth enables anti-bot-detection evasions (e.g. navigator.webdriver masking).
	Stealth bool `json:"stealth,omitempty"`

	Headers map[string]string `json:"headers,omitempty"`
	Cookies []Cookie          `json:"cookies,omitempty"`

	// CloseSelectors overrides DefaultCloseSelectors.
	CloseSelectors []string `json:"close_selectors,omitempty"`

	// PopupWait bounds the search for a close button.
	PopupWait time.Duration `json:"popup_wait,omitempty"`

	// Scrolls is the number of viewport-height scrolls used to trigger
	// lazy loading. Negative disables scrolling.
	Scrolls int `json:"scrolls,omitempty"`

	// ScrollPause is the delay after each scroll.
	ScrollPause time.Duration `json:"scroll_pause,omitempty"`

	// BlockAds blocks requests to known ad and tracking domains.
	BlockAds bool `json:"block_ads,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SessionRequest) Defaults() {
	if r.Timeout <= 0 {
		r.Timeout = DefaultSessionTimeout
	}
	if r.CloseSelectors == nil {
		r.CloseSelectors = DefaultCloseSelectors
	}
	if r.PopupWait <= 0 {
		r.PopupWait = DefaultPopupWait
	}
	if r.Scrolls == 0 {
		r.Scrolls = DefaultScrolls
	}
	if r.ScrollPause <= 0 {
		r.ScrollPause = DefaultScrollPause
	}
}
