package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/tablescout/extractor"
)

func TestFilter_Accept(t *testing.T) {
	t.Parallel()

	f := extractor.NewFilter(extractor.DefaultMinLength)

	tests := []struct {
		name   string
		input  string
		want   string
		accept bool
	}{
		{"plain name", "Paradise Biryani", "Paradise Biryani", true},
		{"trims whitespace", "  Shah Ghouse \n", "Shah Ghouse", true},
		{"site name", "Zomato", "", false},
		{"site name inside text", "Zomato Gold Partner", "", false},
		{"login", "Login", "", false},
		{"sign up", "Sign Up", "", false},
		{"view all", "View all restaurants", "", false},
		{"digits only", "123", "", false},
		{"long digits", "123456", "", false},
		{"url", "http://x", "", false},
		{"https url", "HTTPS://example.com/r/1", "", false},
		{"three chars", "Abc", "", false},
		{"three chars padded", "   Abc   ", "", false},
		{"four chars", "Abcd", "Abcd", true},
		{"empty", "", "", false},
		{"digits with letters", "24 Seven", "24 Seven", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := f.Accept(tt.input)
			assert.Equal(t, tt.accept, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_MinLength(t *testing.T) {
	t.Parallel()

	t.Run("session minimum accepts three characters", func(t *testing.T) {
		t.Parallel()
		got, ok := extractor.NewFilter(2).Accept("Abc")
		assert.True(t, ok)
		assert.Equal(t, "Abc", got)
	})

	t.Run("session minimum still rejects two characters", func(t *testing.T) {
		t.Parallel()
		_, ok := extractor.NewFilter(2).Accept("Ab")
		assert.False(t, ok)
	})

	t.Run("non-positive minimum falls back to default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, extractor.DefaultMinLength, extractor.NewFilter(0).MinLength)
	})
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	candidates := []extractor.Candidate{
		{Text: "Spice Villa", Strategy: extractor.StrategyHeading},
		{Text: "Menu", Strategy: extractor.StrategyHeading},
		{Text: " Cafe Delight ", Strategy: extractor.StrategyHeading},
		{Text: "42", Strategy: extractor.StrategyGeneric},
	}

	got := extractor.NewFilter(0).Apply(candidates)
	assert.Equal(t, []string{"Spice Villa", "Cafe Delight"}, got)
}

func TestExclusionTerms_ReturnsCopy(t *testing.T) {
	t.Parallel()

	terms := extractor.ExclusionTerms()
	terms[0] = "mutated"

	assert.NotEqual(t, "mutated", extractor.ExclusionTerms()[0])
	assert.Contains(t, extractor.ExclusionTerms(), "zomato")
}
