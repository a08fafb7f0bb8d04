package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinLength is the canonical minimum: names of this many characters
// or fewer are rejected.
const DefaultMinLength = 3

// exclusionTerms are lowercase substrings that mark navigation, account, and
// other site chrome. Read-only; use ExclusionTerms for a copy.
var exclusionTerms = [...]string{
	"home",
	"login",
	"sign up",
	"search",
	"filter",
	"sort",
	"zomato",
	"download app",
	"menu",
	"order",
	"cart",
	"account",
	"more",
	"view all",
}

// ExclusionTerms returns a copy of the noise substrings.
func ExclusionTerms() []string {
	out := make([]string, len(exclusionTerms))
	copy(out, exclusionTerms[:])
	return out
}

// Filter normalises a candidate and decides whether it is a restaurant name.
type Filter struct {
	// MinLength rejects trimmed text of this many characters or fewer.
	MinLength int
}

// NewFilter returns a Filter with the given minimum; values < 1 fall back to
// DefaultMinLength.
func NewFilter(minLength int) Filter {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	return Filter{MinLength: minLength}
}

// Accept trims raw and returns it with true when every rule passes.
func (f Filter) Accept(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) <= f.MinLength {
		return "", false
	}

	lower := strings.ToLower(name)
	if isExcluded(lower) || isAllDigits(name) || strings.HasPrefix(lower, "http") {
		return "", false
	}
	return name, true
}

// Apply runs Accept over candidates, preserving order.
func (f Filter) Apply(candidates []Candidate) []string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if name, ok := f.Accept(c.Text); ok {
			names = append(names, name)
		}
	}
	return names
}

func isExcluded(lower string) bool {
	for _, term := range exclusionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
