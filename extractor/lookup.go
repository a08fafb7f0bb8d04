package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Lookup is one way of locating name-bearing elements in a Document.
type Lookup struct {
	// Name identifies the lookup in logs, e.g. "a[href~/r/]".
	Name string

	// Find runs the lookup. A non-nil error means the lookup itself is
	// broken (for example a malformed selector), not that nothing matched.
	Find func(d *Document) (*goquery.Selection, error)
}

// TagLookup matches elements by tag name.
func TagLookup(tags ...string) Lookup {
	return Lookup{
		Name: strings.Join(tags, ","),
		Find: func(d *Document) (*goquery.Selection, error) {
			return d.ByTag(tags...), nil
		},
	}
}

// AttrLookup matches tag elements whose attr matches pattern.
func AttrLookup(tag, attr, pattern string) Lookup {
	re, err := regexp.Compile(pattern)
	return Lookup{
		Name: tag + "[" + attr + "~" + pattern + "]",
		Find: func(d *Document) (*goquery.Selection, error) {
			if err != nil {
				return nil, err
			}
			return d.ByAttr(tag, attr, re), nil
		},
	}
}

// ClassLookup matches elements whose class list contains a token matching
// pattern.
func ClassLookup(pattern string) Lookup {
	re, err := regexp.Compile(pattern)
	return Lookup{
		Name: "[class~" + pattern + "]",
		Find: func(d *Document) (*goquery.Selection, error) {
			if err != nil {
				return nil, err
			}
			return d.ByClass(re), nil
		},
	}
}

// CSSLookup matches elements with a raw CSS selector.
func CSSLookup(css string) Lookup {
	return Lookup{
		Name: css,
		Find: func(d *Document) (*goquery.Selection, error) {
			return d.Select(css)
		},
	}
}
