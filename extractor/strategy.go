package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy names, in cascade order.
const (
	StrategyStructuralLink = "structural-link"
	StrategyHeading        = "heading"
	StrategyAttributeHint  = "attribute-hint"
	StrategyGeneric        = "generic"
)

// Candidate is raw text pulled from the document, before filtering.
type Candidate struct {
	Text     string
	Strategy string
}

// Strategy is one heuristic for locating restaurant names.
//
// Lookups are tried in order and the first one that matches any element
// wins; later lookups in the same slot are not consulted. Accept, when set,
// is an additional gate on each element's visible text.
type Strategy struct {
	Name    string
	Lookups []Lookup
	Accept  func(text string) bool
}

// Run applies the strategy to doc. It never fails outward: a broken lookup
// is skipped, and a panic anywhere inside the strategy yields no candidates.
func (s Strategy) Run(doc *Document) (out []Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("strategy panicked, discarding its candidates",
				"strategy", s.Name, "panic", fmt.Sprint(r),
			)
			out = nil
		}
	}()

	for _, l := range s.Lookups {
		sel, err := l.Find(doc)
		if err != nil {
			slog.Warn("lookup failed, trying next",
				"strategy", s.Name, "lookup", l.Name, "error", err,
			)
			continue
		}
		if sel == nil || sel.Length() == 0 {
			continue
		}

		slog.Debug("lookup matched", "strategy", s.Name, "lookup", l.Name, "elements", sel.Length())
		sel.Each(func(_ int, el *goquery.Selection) {
			text := VisibleText(el)
			if text == "" {
				return
			}
			if s.Accept != nil && !s.Accept(text) {
				return
			}
			out = append(out, Candidate{Text: text, Strategy: s.Name})
		})
		return out
	}
	return out
}

// restaurantPathPattern matches restaurant detail pages, e.g. /hyderabad/paradise/r/123.
const restaurantPathPattern = `/r/`

// StructuralLinkStrategy finds links to restaurant detail pages.
func StructuralLinkStrategy() Strategy {
	return Strategy{
		Name:    StrategyStructuralLink,
		Lookups: []Lookup{AttrLookup("a", "href", restaurantPathPattern)},
	}
}

// HeadingStrategy reads the heading level listing cards use for names.
func HeadingStrategy() Strategy {
	return Strategy{
		Name:    StrategyHeading,
		Lookups: []Lookup{TagLookup("h4")},
	}
}

// AttributeHintStrategy finds elements whose class or test id mentions
// restaurants. extra lookups are appended after the built-in ones.
func AttributeHintStrategy(extra ...Lookup) Strategy {
	lookups := []Lookup{
		ClassLookup(`restaurant`),
		AttrLookup("", "data-testid", `restaurant`),
	}
	return Strategy{
		Name:    StrategyAttributeHint,
		Lookups: append(lookups, extra...),
	}
}

// GenericStrategy scans every heading and link, keeping text that looks like
// a short name.
func GenericStrategy() Strategy {
	return Strategy{
		Name:    StrategyGeneric,
		Lookups: []Lookup{TagLookup("h1", "h2", "h3", "h4", "h5", "h6", "a")},
		Accept:  looksLikeName,
	}
}

// looksLikeName accepts 2 to 10 words and more than 3 characters.
func looksLikeName(text string) bool {
	words := len(strings.Fields(text))
	return words >= 2 && words <= 10 && len([]rune(text)) > 3
}
