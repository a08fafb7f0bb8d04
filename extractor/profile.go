package extractor

// Profile bundles the cascade and its thresholds for one kind of document.
type Profile struct {
	// Name identifies the profile in logs.
	Name string

	// Strategies run in order, most specific first.
	Strategies []Strategy

	// Threshold stops the cascade once this many raw candidates exist.
	Threshold int

	// MinLength is passed to the Filter.
	MinLength int

	// MaxResults caps the assembled result.
	MaxResults int
}

// sessionClassLookups are generated class names seen on the rendered
// listing. They change between deployments, so they only ever extend the
// attribute-hint slot.
var sessionClassLookups = []string{
	".sc-1hp8d8a-0",
	"a.sc-1kx5g6g-0",
	".sc-1hez2tp-0",
}

// StaticProfile is tuned for documents fetched without a browser.
func StaticProfile() Profile {
	return Profile{
		Name: "static",
		Strategies: []Strategy{
			StructuralLinkStrategy(),
			HeadingStrategy(),
			AttributeHintStrategy(),
			GenericStrategy(),
		},
		Threshold:  20,
		MinLength:  DefaultMinLength,
		MaxResults: MaxResults,
	}
}

// SessionProfile is tuned for documents rendered by a browser session,
// where lazy loading has already surfaced more cards.
func SessionProfile() Profile {
	extra := make([]Lookup, 0, len(sessionClassLookups))
	for _, css := range sessionClassLookups {
		extra = append(extra, CSSLookup(css))
	}
	return Profile{
		Name: "session",
		Strategies: []Strategy{
			StructuralLinkStrategy(),
			HeadingStrategy(),
			AttributeHintStrategy(extra...),
			GenericStrategy(),
		},
		Threshold:  10,
		MinLength:  2,
		MaxResults: MaxResults,
	}
}
