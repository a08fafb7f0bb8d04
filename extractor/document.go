package extractor

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Document is a read-only view over a parsed listing page. The extraction
// cascade only ever queries it; nothing in this package mutates the tree.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses rawHTML into a Document.
func NewDocument(rawHTML string) (*Document, error) {
	return NewDocumentFromReader(strings.NewReader(rawHTML))
}

// NewDocumentFromReader parses r into a Document.
func NewDocumentFromReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// ByTag returns every element whose tag is one of names, in document order.
func (d *Document) ByTag(names ...string) *goquery.Selection {
	return d.doc.Find(strings.Join(names, ", "))
}

// ByAttr returns elements matching tag (any tag when empty) whose attr value
// matches pattern.
func (d *Document) ByAttr(tag, attr string, pattern *regexp.Regexp) *goquery.Selection {
	if tag == "" {
		tag = "*"
	}
	return d.doc.Find(tag + "[" + attr + "]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(attr)
		return pattern.MatchString(v)
	})
}

// ByClass returns elements having at least one class token matching pattern.
func (d *Document) ByClass(pattern *regexp.Regexp) *goquery.Selection {
	return d.doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("class")
		for _, token := range strings.Fields(v) {
			if pattern.MatchString(token) {
				return true
			}
		}
		return false
	})
}

// Select runs a raw CSS selector. Unlike goquery's Find, a malformed selector
// is reported instead of silently matching nothing.
func (d *Document) Select(css string) (*goquery.Selection, error) {
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, err
	}
	return d.doc.FindMatcher(sel), nil
}

// nonVisible are subtrees whose text never renders.
const nonVisible = "script, style, noscript, template"

// VisibleText returns the rendered-looking text of s: non-visible subtrees are
// skipped and runs of whitespace collapse to a single space.
func VisibleText(s *goquery.Selection) string {
	if s.Find(nonVisible).Length() > 0 {
		s = s.Clone()
		s.Find(nonVisible).Remove()
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}
