// Package drill implements hierarchical drill-down for dashboard KPI modules.
//
// A module's hierarchy is described by a Schema: an ordered list of levels
// (company → location → salesperson, ...). A Controller owns the position
// within that hierarchy (the Path), the FilterContext applied at every level,
// and the rows of the current level fetched from a Gateway.
//
// Transitions (DrillInto, GoBack, Reset, ApplyFilters, SetPage, Restore) change
// state synchronously and return a *Request describing the fetch to perform.
// The caller runs the fetch however it likes (a Bubble Tea command, a goroutine,
// inline via Run) and hands the Response back to Resolve. Every request carries
// a sequence number from the controller's Fencer; Resolve drops any response
// whose sequence is no longer current, so a slow stale fetch can never overwrite
// the result of a newer one.
//
// A Controller is owned by a single UI flow and is not safe for concurrent use.
package drill
