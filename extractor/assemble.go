package extractor

import "github.com/use-agent/tablescout/models"

// MaxResults caps how many restaurants a single scrape returns.
const MaxResults = 100

// Assemble keeps at most max names (MaxResults when max < 1) and wraps each
// as a Restaurant, preserving order.
func Assemble(names []string, max int) []models.Restaurant {
	if max < 1 {
		max = MaxResults
	}
	if len(names) > max {
		names = names[:max]
	}
	out := make([]models.Restaurant, len(names))
	for i, n := range names {
		out[i] = models.Restaurant{Name: n}
	}
	return out
}
