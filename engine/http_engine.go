package engine

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

const (
	// maxListingBytes caps how much of a listing page is read.
	maxListingBytes = 10 << 20
	maxRedirects    = 10
)

// listingHeaders are sent with every static fetch. Accept-Encoding is left
// to the transport so gzip bodies are decoded transparently.
var listingHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// HTTPEngine is the static document provider: one GET with browser-like
// headers and a Chrome TLS fingerprint. It is the cheapest engine and works
// for listings rendered server-side.
type HTTPEngine struct {
	client       *http.Client
	rejectShells bool
}

// HTTPEngineConfig configures NewHTTPEngine.
type HTTPEngineConfig struct {
	// Timeout bounds a single request; 0 leaves it to the caller's context.
	Timeout time.Duration

	// RejectShells makes Fetch fail with ErrShellPage when the body looks
	// like an application shell, so a dispatcher can escalate to a browser.
	RejectShells bool
}

// NewHTTPEngine creates an HTTPEngine.
func NewHTTPEngine(cfg HTTPEngineConfig) *HTTPEngine {
	return &HTTPEngine{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:          http.ProxyFromEnvironment,
				DialTLSContext: dialChromeTLS,
				// net/http cannot speak h2 over a utls conn.
				ForceAttemptHTTP2: false,
			},
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		rejectShells: cfg.RejectShells,
	}
}

// chromeHelloSpec returns a fresh Chrome ClientHello with ALPN limited to
// http/1.1. ApplyPreset writes SNI and GREASE values into the spec, so each
// connection needs its own.
func chromeHelloSpec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return &spec, nil
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	spec, err := chromeHelloSpec()
	if err != nil {
		return nil, fmt.Errorf("http_engine: chrome hello: %w", err)
	}

	conn, err := (&net.Dialer{Timeout: 10 * time.Second}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	uconn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := uconn.ApplyPreset(spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply chrome hello: %w", err)
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return uconn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch downloads the listing. Any status other than 200 is a *StatusError.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}
	for k, v := range listingHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for i := range req.Cookies {
		httpReq.AddCookie(&req.Cookies[i])
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL}
	}
	if ct := resp.Header.Get("Content-Type"); !isHTML(ct) {
		return nil, fmt.Errorf("http_engine: non-html response (content-type: %s)", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	page := string(body)

	if e.rejectShells && LooksLikeShell(page) {
		return nil, fmt.Errorf("http_engine: %s: %w", req.URL, ErrShellPage)
	}

	return &FetchResult{
		HTML:       page,
		Title:      pageTitle(page),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// isHTML reports whether a Content-Type names an HTML document. A missing
// header is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// pageTitle returns the text of the first <title>, or "".
func pageTitle(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return strings.TrimSpace(string(z.Text()))
			}
			return ""
		}
	}
}
