package view

import (
	"github.com/rshade/freightdash/internal/drill"
)

// Set holds one Synchronizer per registered module, in registry order.
type Set struct {
	order []string
	syncs map[string]*Synchronizer
}

// NewSet builds a summary and a detail controller for every module in reg.
// Detail controllers page with pageSize when it is positive; opts apply to
// both views.
func NewSet(reg *drill.Registry, gw drill.Gateway, pageSize int, opts ...drill.Option) *Set {
	s := &Set{syncs: make(map[string]*Synchronizer)}
	for _, m := range reg.Modules() {
		detailOpts := append([]drill.Option{}, opts...)
		if pageSize > 0 {
			detailOpts = append(detailOpts, drill.WithPageSize(pageSize))
		}
		sync := NewSynchronizer(
			drill.NewController(m.ID, drill.ViewSummary, m.SchemaFor(drill.ViewSummary), gw, opts...),
			drill.NewController(m.ID, drill.ViewDetail, m.SchemaFor(drill.ViewDetail), gw, detailOpts...),
		)
		s.order = append(s.order, m.ID)
		s.syncs[m.ID] = sync
	}
	return s
}

// IDs returns the module IDs in display order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the synchronizer of moduleID.
func (s *Set) Get(moduleID string) (*Synchronizer, bool) {
	sync, ok := s.syncs[moduleID]
	return sync, ok
}

// Controller returns the controller serving moduleID in the named view.
func (s *Set) Controller(moduleID, viewName string) (*drill.Controller, bool) {
	sync, ok := s.syncs[moduleID]
	if !ok {
		return nil, false
	}
	if viewName == drill.ViewDetail {
		return sync.Detail(), true
	}
	return sync.Summary(), true
}

// Controllers returns every controller, summary before detail, module by
// module.
func (s *Set) Controllers() []*drill.Controller {
	out := make([]*drill.Controller, 0, 2*len(s.order)) //nolint:mnd // Two views per module.
	for _, id := range s.order {
		out = append(out, s.syncs[id].Summary(), s.syncs[id].Detail())
	}
	return out
}
