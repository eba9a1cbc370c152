package drill

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Date layout used when filters are flattened.
const DateLayout = "2006-01-02"

// FilterContext narrows every level of a module. It is independent of the
// drill path: changing it refetches the current level at the same path.
type FilterContext struct {
	DateFrom *time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"   yaml:"date_to,omitempty"`
	Period   string     `json:"period,omitempty"    yaml:"period,omitempty"`
	Search   string     `json:"search,omitempty"    yaml:"search,omitempty"`

	// Extra holds module-specific filters, including structural keys that have
	// no equivalent level in the other view's schema.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterContext) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.Period == "" && f.Search == "" && len(f.Extra) == 0
}

// Clone returns a deep copy.
func (f FilterContext) Clone() FilterContext {
	c := f
	if f.DateFrom != nil {
		t := *f.DateFrom
		c.DateFrom = &t
	}
	if f.DateTo != nil {
		t := *f.DateTo
		c.DateTo = &t
	}
	if f.Extra != nil {
		c.Extra = maps.Clone(f.Extra)
	}
	return c
}

// Equal compares two filter contexts by value.
func (f FilterContext) Equal(o FilterContext) bool {
	return timesEqual(f.DateFrom, o.DateFrom) &&
		timesEqual(f.DateTo, o.DateTo) &&
		f.Period == o.Period &&
		f.Search == o.Search &&
		len(f.Extra) == len(o.Extra) &&
		maps.Equal(f.Extra, o.Extra)
}

// WithSearch returns a copy with Search replaced.
func (f FilterContext) WithSearch(term string) FilterContext {
	c := f.Clone()
	c.Search = term
	return c
}

// WithExtra returns a copy with Extra[key] = value; an empty value deletes the key.
func (f FilterContext) WithExtra(key, value string) FilterContext {
	c := f.Clone()
	if value == "" {
		delete(c.Extra, key)
		if len(c.Extra) == 0 {
			c.Extra = nil
		}
		return c
	}
	if c.Extra == nil {
		c.Extra = make(map[string]string)
	}
	c.Extra[key] = value
	return c
}

// ErrInvalidFilter is returned for a filter assignment that cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

// Set returns a copy with the filter named key set to value. The names
// date_from (or from), date_to (or to), period and search address the typed
// fields; any other name is an Extra filter, except the paging parameters
// page, page_size and sort. An empty value clears the filter.
func (f FilterContext) Set(key, value string) (FilterContext, error) {
	c := f.Clone()
	switch key {
	case "date_from", "from", "date_to", "to":
		var t *time.Time
		if value != "" {
			parsed, err := time.Parse(DateLayout, value)
			if err != nil {
				return f, fmt.Errorf("%w: %s=%q: want %s", ErrInvalidFilter, key, value, DateLayout)
			}
			t = &parsed
		}
		if key == "date_from" || key == "from" {
			c.DateFrom = t
		} else {
			c.DateTo = t
		}
	case "period":
		c.Period = value
	case "search":
		c.Search = value
	case "":
		return f, fmt.Errorf("%w: empty name", ErrInvalidFilter)
	case "page", "page_size", "sort":
		return f, fmt.Errorf("%w: %s is set by paging, not filters", ErrInvalidFilter, key)
	default:
		c = c.WithExtra(key, value)
	}
	if c.DateFrom != nil && c.DateTo != nil && c.DateTo.Before(*c.DateFrom) {
		return f, fmt.Errorf("%w: date_to before date_from", ErrInvalidFilter)
	}
	return c, nil
}

// ParseAssignments applies whitespace-separated name=value pairs to f, in
// order. "name=" clears a filter.
func (f FilterContext) ParseAssignments(expr string) (FilterContext, error) {
	out := f.Clone()
	for _, field := range strings.Fields(expr) {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return f, fmt.Errorf("%w: %q is not name=value", ErrInvalidFilter, field)
		}
		var err error
		if out, err = out.Set(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return f, err
		}
	}
	return out, nil
}

// Flatten renders the filters as string pairs, for cache keys and query strings.
func (f FilterContext) Flatten() map[string]string {
	out := make(map[string]string, len(f.Extra)+4)
	for k, v := range f.Extra {
		out[k] = v
	}
	if f.DateFrom != nil {
		out["date_from"] = f.DateFrom.Format(DateLayout)
	}
	if f.DateTo != nil {
		out["date_to"] = f.DateTo.Format(DateLayout)
	}
	if f.Period != "" {
		out["period"] = f.Period
	}
	if f.Search != "" {
		out["search"] = f.Search
	}
	return out
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
