package drill

import (
	"fmt"
)

// View names.
const (
	ViewSummary = "summary"
	ViewDetail  = "detail"
)

// Module is a KPI module with its summary and detail hierarchies.
type Module struct {
	ID      string
	Title   string
	Summary Schema

	// Detail is the table view's hierarchy. Empty means "same as Summary".
	Detail Schema
}

// SchemaFor returns the schema of the given view.
func (m Module) SchemaFor(view string) Schema {
	if view == ViewDetail && len(m.Detail.Levels) > 0 {
		return m.Detail
	}
	return m.Summary
}

// Registry holds the modules known at startup. It is immutable once built.
type Registry struct {
	order   []string
	modules map[string]Module
}

// NewRegistry validates every module and returns a registry. Malformed
// schemas are configuration errors and should stop the program.
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]Module, len(modules))}
	for _, m := range modules {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: module without id", ErrInvalidSchema)
		}
		if _, dup := r.modules[m.ID]; dup {
			return nil, fmt.Errorf("%w: module %q registered twice", ErrInvalidSchema, m.ID)
		}
		if err := m.Summary.Validate(); err != nil {
			return nil, fmt.Errorf("module %q summary: %w", m.ID, err)
		}
		if len(m.Detail.Levels) > 0 {
			if err := m.Detail.Validate(); err != nil {
				return nil, fmt.Errorf("module %q detail: %w", m.ID, err)
			}
		}
		r.modules[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry that panics on error.
func MustNewRegistry(modules ...Module) *Registry {
	r, err := NewRegistry(modules...)
	if err != nil {
		panic(err)
	}
	return r
}

// Module returns the module with the given id.
func (r *Registry) Module(id string) (Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return Module{}, fmt.Errorf("%w: %q", ErrUnknownModule, id)
	}
	return m, nil
}

// Schema returns the summary schema of a module.
func (r *Registry) Schema(id string) (Schema, error) {
	m, err := r.Module(id)
	if err != nil {
		return Schema{}, err
	}
	return m.Summary, nil
}

// DetailSchema returns the detail schema of a module.
func (r *Registry) DetailSchema(id string) (Schema, error) {
	m, err := r.Module(id)
	if err != nil {
		return Schema{}, err
	}
	return m.SchemaFor(ViewDetail), nil
}

// Modules returns every module in registration order.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}
