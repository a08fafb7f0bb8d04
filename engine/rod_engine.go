package engine

import (
	"context"
	"fmt"
)

// SessionFunc runs one interactive browser session for a request. It is
// injected from main so that engine/ never imports scraper/.
type SessionFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the interactive document provider: a browser session that
// dismisses popups and scrolls to trigger lazy loading before handing back
// the rendered page. forceStealth distinguishes "rod" from "rod-stealth".
type RodEngine struct {
	session      SessionFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine around session.
func NewRodEngine(session SessionFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		session:      session,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.session == nil {
		return nil, fmt.Errorf("%s: session not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.session(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	result.EngineName = e.name
	return result, nil
}
