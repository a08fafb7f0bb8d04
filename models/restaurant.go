package models

import "errors"

// Restaurant is a single extracted listing entry.
type Restaurant struct {
	Name string `json:"name"`
}

// Result is the outcome of one scrape. Exactly one of the two variants is
// populated: a (possibly empty) ordered list of restaurants, or an error.
// Build it with Succeeded or Failed.
type Result struct {
	restaurants []Restaurant
	err         *ScrapeError
}

// Succeeded returns a success Result. A nil slice is normalised to empty so
// the JSON encoding is always an array.
func Succeeded(restaurants []Restaurant) Result {
	if restaurants == nil {
		restaurants = []Restaurant{}
	}
	return Result{restaurants: restaurants}
}

// Failed returns a failure Result. Errors that are not already a
// *ScrapeError are wrapped as ErrCodeInternal with the error's message.
func Failed(err error) Result {
	if err == nil {
		err = errors.New("unknown failure")
	}
	var se *ScrapeError
	if !errors.As(err, &se) {
		se = NewScrapeError(ErrCodeInternal, err.Error(), err)
	}
	return Result{err: se}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.err == nil }

// Restaurants returns the records of a success result, nil on failure.
func (r Result) Restaurants() []Restaurant {
	if r.err != nil {
		return nil
	}
	return r.restaurants
}

// Err returns the failure, nil on success.
func (r Result) Err() *ScrapeError { return r.err }

// Names returns the restaurant names in order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.restaurants))
	for _, rs := range r.Restaurants() {
		names = append(names, rs.Name)
	}
	return names
}
