package view

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/pagination"
)

// Mode selects which view of a module is shown.
type Mode string

// Modes.
const (
	ModeSummary Mode = drill.ViewSummary
	ModeDetail  Mode = drill.ViewDetail
)

// ParseMode maps a view name to a Mode, defaulting to summary.
func ParseMode(s string) Mode {
	if s == string(ModeDetail) {
		return ModeDetail
	}
	return ModeSummary
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeDetail {
		return ModeSummary
	}
	return ModeDetail
}

// ViewState is everything needed to put a module view back on screen.
type ViewState struct {
	Mode       Mode
	Drill      drill.State
	Steps      []drill.Step
	Pagination pagination.Params
}

// Synchronizer owns the summary and detail controllers of one module.
type Synchronizer struct {
	summary *drill.Controller
	detail  *drill.Controller
	mode    Mode

	// detailFiltered is set when the user applies filters in the detail view;
	// only then does toggling back rewrite the summary.
	detailFiltered bool

	logger zerolog.Logger
}

// NewSynchronizer starts in summary mode.
func NewSynchronizer(summary, detail *drill.Controller) *Synchronizer {
	return &Synchronizer{
		summary: summary,
		detail:  detail,
		mode:    ModeSummary,
		logger: logging.FromContext(context.Background()).With().
			Str("component", "view").
			Str("module", summary.ModuleID()).
			Logger(),
	}
}

// ModuleID returns the module both controllers drill.
func (s *Synchronizer) ModuleID() string { return s.summary.ModuleID() }

// Mode returns the active mode.
func (s *Synchronizer) Mode() Mode { return s.mode }

// Summary returns the summary controller.
func (s *Synchronizer) Summary() *drill.Controller { return s.summary }

// Detail returns the detail controller.
func (s *Synchronizer) Detail() *drill.Controller { return s.detail }

// Active returns the controller of the active mode.
func (s *Synchronizer) Active() *drill.Controller {
	if s.mode == ModeDetail {
		return s.detail
	}
	return s.summary
}

// ViewState returns the active view's state.
func (s *Synchronizer) ViewState() ViewState {
	active := s.Active()
	st := active.State()
	return ViewState{Mode: s.mode, Drill: st, Steps: active.Steps(), Pagination: st.Page}
}

// Toggle switches mode and returns the fetch it requires, if any.
//
// Summary → detail always re-derives the detail position from the summary.
// Detail → summary leaves the summary untouched (and fetches nothing) unless
// filters were applied in the detail view or the summary was never loaded.
func (s *Synchronizer) Toggle() *drill.Request {
	if s.mode == ModeSummary {
		s.mode = ModeDetail
		s.detailFiltered = false
		req, _ := s.detail.Restore(mapState(s.summary.Steps(), s.summary.State(), s.detail.Schema()))
		s.logger.Debug().Str("operation", "toggle").Str("mode", string(s.mode)).Msg("summary mapped to detail")
		return req
	}

	s.mode = ModeSummary
	if !s.detailFiltered && s.summary.State().Status != drill.StatusIdle {
		return nil
	}
	s.detailFiltered = false
	req, _ := s.summary.Restore(mapState(s.detail.Steps(), s.detail.State(), s.summary.Schema()))
	s.logger.Debug().Str("operation", "toggle").Str("mode", string(s.mode)).Msg("detail mapped to summary")
	return req
}

// ApplyDetailFilters applies filters in the detail view and marks them to be
// carried back to the summary on the next toggle.
func (s *Synchronizer) ApplyDetailFilters(f drill.FilterContext) *drill.Request {
	s.detailFiltered = true
	return s.detail.ApplyFilters(f)
}

// RestoreView puts the synchronizer in mode and restores the active
// controller. The inactive controller is left alone.
func (s *Synchronizer) RestoreView(
	mode Mode,
	steps []drill.Step,
	filters drill.FilterContext,
	page pagination.Params,
) (*drill.Request, drill.RestoreResult) {
	s.mode = mode
	s.detailFiltered = mode == ModeDetail
	return s.Active().Restore(steps, filters, page)
}

// mapState derives a position in target from src. Path keys are matched by
// entity kind, level by level from the top of target; the first target level
// with no matching key ends the path. Keys that found no place are carried as
// Extra filters keyed by their kind, and Extra filters naming a target kind
// are folded back into the path.
func mapState(
	srcSteps []drill.Step,
	src drill.State,
	target drill.Schema,
) ([]drill.Step, drill.FilterContext, pagination.Params) {
	filters := src.Filters.Clone()

	available := make(map[string]string, len(src.Path)+len(filters.Extra))
	for k, v := range filters.Extra {
		available[k] = v
	}
	// Path keys win over Extra entries of the same kind.
	for _, step := range srcSteps {
		available[step.Kind] = step.Key
	}

	var steps []drill.Step
	used := make(map[string]bool)
	for i := range target.MaxPathLen() {
		kind := target.Levels[i].EntityKind
		key, ok := available[kind]
		if !ok {
			break
		}
		steps = append(steps, drill.Step{Kind: kind, Key: key})
		used[kind] = true
	}

	extra := make(map[string]string)
	for kind, key := range available {
		if !used[kind] {
			extra[kind] = key
		}
	}
	filters.Extra = nil
	if len(extra) > 0 {
		filters.Extra = extra
	}
	return steps, filters, src.Page
}
