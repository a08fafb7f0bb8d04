package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// trackerDomains are ad and analytics hosts commonly embedded in listing
// pages. Subdomains match too.
var trackerDomains = map[string]struct{}{
	"doubleclick.net":        {},
	"googlesyndication.com":  {},
	"googleadservices.com":   {},
	"google-analytics.com":   {},
	"googletagmanager.com":   {},
	"googletagservices.com":  {},
	"facebook.net":           {},
	"amazon-adsystem.com":    {},
	"adnxs.com":              {},
	"criteo.com":             {},
	"taboola.com":            {},
	"outbrain.com":           {},
	"hotjar.com":             {},
	"mixpanel.com":           {},
	"segment.io":             {},
	"clevertap-prod.com":     {},
	"branch.io":              {},
	"appsflyer.com":          {},
	"scorecardresearch.com":  {},
	"moengage.com":           {},
}

// blocker decides which browser requests are failed before they leave.
type blocker struct {
	types   map[proto.NetworkResourceType]struct{}
	blockAd bool
}

func newBlocker(blockedTypes []string, blockAds bool) *blocker {
	types := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			types[rt] = struct{}{}
		}
	}
	return &blocker{types: types, blockAd: blockAds}
}

// empty reports whether the blocker would let everything through.
func (b *blocker) empty() bool {
	return len(b.types) == 0 && !b.blockAd
}

// blocks reports whether a request of type rt to rawURL should be failed.
func (b *blocker) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := b.types[rt]; ok {
		return true
	}
	if !b.blockAd {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isTrackerHost(u.Hostname())
}

// isTrackerHost checks host and each parent domain against trackerDomains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}

// mount installs the blocker on page. It returns nil when nothing would
// be blocked; otherwise the caller must Stop the returned router.
func (b *blocker) mount(page *rod.Page) *rod.HijackRouter {
	if b.empty() {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
