package geo

import (
	"context"
	"strings"
	"sync"
)

// Autocomplete holds the suggestion list for one buyer's address input.
// The buyer types incrementally, so requests overlap and responses can
// arrive out of order; only the response to the most recently issued query
// may be applied. Superseded responses are discarded on arrival, which is
// stronger than request-side debouncing.
type Autocomplete struct {
	resolver *Resolver
	limit    int

	mu      sync.Mutex
	seq     uint64 // sequence of the latest issued query
	current []Candidate
}

func NewAutocomplete(resolver *Resolver) *Autocomplete {
	return &Autocomplete{resolver: resolver, limit: 5}
}

// Suggest issues a forward search for query and returns the suggestion list
// that should be visible afterwards. If a newer query was issued while this
// one was in flight, its result (or error) is dropped and the list belonging
// to the newer query is returned instead.
func (a *Autocomplete) Suggest(ctx context.Context, query string) ([]Candidate, error) {
	if strings.TrimSpace(query) == "" {
		a.mu.Lock()
		a.seq++
		a.current = nil
		a.mu.Unlock()
		return nil, nil
	}

	a.mu.Lock()
	a.seq++
	issued := a.seq
	a.mu.Unlock()

	candidates, err := a.resolver.Search(ctx, query, a.limit)

	a.mu.Lock()
	defer a.mu.Unlock()
	if issued != a.seq {
		// Stale response: a newer keystroke owns the list now.
		return copyCandidates(a.current), nil
	}
	if err != nil {
		a.current = nil
		return nil, err
	}
	a.current = candidates
	return copyCandidates(a.current), nil
}

// Current returns the suggestion list as of the latest applied response.
func (a *Autocomplete) Current() []Candidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyCandidates(a.current)
}

// Reset clears the list, e.g. when the buyer empties the input.
func (a *Autocomplete) Reset() {
	a.mu.Lock()
	a.seq++
	a.current = nil
	a.mu.Unlock()
}

func copyCandidates(in []Candidate) []Candidate {
	if in == nil {
		return nil
	}
	out := make([]Candidate, len(in))
	copy(out, in)
	return out
}
