package drill

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/pagination"
)

// Status is the lifecycle of the current level.
type Status int

// Statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a read-only copy of a controller's drill state.
//
// While Loading, Rows still hold the previous level's data; RowsPath is the
// path those rows belong to. After a failed fetch, Path, Filters and Page are
// back at the values of the last successful fetch.
type State struct {
	ModuleID   string
	View       string
	Path       Path
	Filters    FilterContext
	Page       pagination.Params
	Rows       []Row
	RowsPath   Path
	Total      int
	Totals     map[string]decimal.Decimal
	Status     Status
	Err        error
	RequestSeq uint64
}

// Level is the depth of the current path.
func (s State) Level() int {
	return len(s.Path)
}

// Meta returns page metadata for the current rows.
func (s State) Meta() pagination.Meta {
	return pagination.NewMeta(s.Page, s.Total)
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Path = s.Path.Clone()
	c.RowsPath = s.RowsPath.Clone()
	c.Filters = s.Filters.Clone()
	c.Rows = slices.Clone(s.Rows)
	c.Totals = maps.Clone(s.Totals)
	return c
}
