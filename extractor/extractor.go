// Package extractor pulls restaurant names out of a listing page whose
// markup is not under our control.
//
// Flow:
//
//	Document → strategies (in order, early exit) → Filter → Dedupe → Assemble
//
// Every call builds its own working state; the only package-level data is
// the read-only exclusion list.
package extractor

import (
	"log/slog"

	"github.com/use-agent/tablescout/models"
)

// Extractor runs one Profile against documents. It holds no per-call state
// and is safe for concurrent use.
type Extractor struct {
	profile Profile
	filter  Filter
}

// New creates an Extractor for p. Zero thresholds fall back to the package
// defaults.
func New(p Profile) *Extractor {
	if p.Threshold < 1 {
		p.Threshold = 20
	}
	if p.MaxResults < 1 {
		p.MaxResults = MaxResults
	}
	return &Extractor{
		profile: p,
		filter:  NewFilter(p.MinLength),
	}
}

// Profile returns the profile the extractor was built with.
func (e *Extractor) Profile() Profile { return e.profile }

// Candidates runs the strategy cascade. Strategies run strictly in order and
// the cascade stops once the accumulated candidates reach the threshold.
func (e *Extractor) Candidates(doc *Document) []Candidate {
	var all []Candidate
	for _, s := range e.profile.Strategies {
		found := s.Run(doc)
		all = append(all, found...)
		slog.Debug("strategy finished",
			"profile", e.profile.Name,
			"strategy", s.Name,
			"found", len(found),
			"total", len(all),
		)
		if len(all) >= e.profile.Threshold {
			break
		}
	}
	return all
}

// Names runs the cascade, filter and dedupe, returning unique names in
// first-seen order.
func (e *Extractor) Names(doc *Document) []string {
	return Dedupe(e.filter.Apply(e.Candidates(doc)))
}

// Extract runs the whole engine over doc and returns the assembled result.
func (e *Extractor) Extract(doc *Document) models.Result {
	return models.Succeeded(Assemble(e.Names(doc), e.profile.MaxResults))
}

// ExtractHTML parses rawHTML and extracts from it. A parse failure becomes a
// failure result.
func (e *Extractor) ExtractHTML(rawHTML string) models.Result {
	doc, err := NewDocument(rawHTML)
	if err != nil {
		return models.Failed(models.NewScrapeError(models.ErrCodeParse, err.Error(), err))
	}
	return e.Extract(doc)
}
