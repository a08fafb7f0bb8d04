package models

// ScrapeResponse is the success body of GET /scrape.
type ScrapeResponse struct {
	Success bool `json:"success"`

	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`

	Count int `json:"count"`

	// LastUpdated is the RFC 3339 time the result was produced.
	LastUpdated string `json:"last_updated"`

	// Restaurants is the ordered, de-duplicated listing.
	Restaurants []Restaurant `json:"restaurants"`

	// Provider names the engine that produced the document
	// (e.g. "http", "rod", "rod-stealth").
	Provider string `json:"provider,omitempty"`

	// RunID identifies the scrape in logs and webhook events.
	RunID string `json:"run_id,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing *TimingInfo `json:"timing,omitempty"`
}

// ScrapeFailure is the failure body of GET /scrape.
type ScrapeFailure struct {
	Success bool `json:"success"`

	// Error is the underlying failure, e.g. "Failed to fetch page. Status code: 503".
	Error string `json:"error"`

	// Message tells the caller what it means.
	Message string `json:"message"`

	// ErrorCode classifies the failure.
	ErrorCode string `json:"error_code,omitempty"`

	Provider string      `json:"provider,omitempty"`
	RunID    string      `json:"run_id,omitempty"`
	Timing   *TimingInfo `json:"timing,omitempty"`
}

// Envelope is the persisted form of the last successful scrape, and the
// body of GET /data.
type Envelope struct {
	LastUpdated string       `json:"last_updated"`
	Count       int          `json:"count"`
	Restaurants []Restaurant `json:"restaurants"`
}

// NoDataResponse is returned by GET /data before the first successful scrape.
type NoDataResponse struct {
	Message     string       `json:"message"`
	Count       int          `json:"count"`
	Restaurants []Restaurant `json:"restaurants"`
}

// ErrorResponse is the generic failure body for read endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HomeResponse describes the service on GET /.
type HomeResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Note      string            `json:"note"`
}

// StatusResponse is the response for GET /status.
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Method    string `json:"method"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`

	// Pool is reported only when a browser is running.
	Pool *PoolStats `json:"pool,omitempty"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent obtaining the document.
	FetchMs int64 `json:"fetch_ms"`

	// ExtractMs is the time spent running the extraction cascade.
	ExtractMs int64 `json:"extract_ms"`
}
