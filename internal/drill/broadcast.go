package drill

import "strings"

// SearchBroadcast pushes one global search term into the filters of every
// subscribed controller. Each subscriber refetches at its own current path.
type SearchBroadcast struct {
	term string
	subs []*Controller
}

// NewSearchBroadcast returns a broadcast with the given subscribers.
func NewSearchBroadcast(subs ...*Controller) *SearchBroadcast {
	b := &SearchBroadcast{}
	for _, c := range subs {
		b.Subscribe(c)
	}
	return b
}

// Subscribe adds c. Adding the same controller twice has no effect.
func (b *SearchBroadcast) Subscribe(c *Controller) {
	for _, s := range b.subs {
		if s == c {
			return
		}
	}
	b.subs = append(b.subs, c)
}

// Unsubscribe removes c.
func (b *SearchBroadcast) Unsubscribe(c *Controller) {
	for i, s := range b.subs {
		if s == c {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Term returns the active search term.
func (b *SearchBroadcast) Term() string {
	return b.term
}

// Set applies term to every subscriber and returns their fetches, one per
// subscriber whose search actually changed.
func (b *SearchBroadcast) Set(term string) []*Request {
	term = strings.TrimSpace(term)
	b.term = term

	var reqs []*Request
	for _, c := range b.subs {
		f := c.State().Filters
		if f.Search == term {
			continue
		}
		reqs = append(reqs, c.ApplyFilters(f.WithSearch(term)))
	}
	return reqs
}

// Clear removes the search term everywhere.
func (b *SearchBroadcast) Clear() []*Request {
	return b.Set("")
}
