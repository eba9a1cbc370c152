package drill

import (
	"fmt"
	"slices"
)

// LevelDef describes one level of a drill hierarchy.
type LevelDef struct {
	Index              int      `json:"index"                yaml:"index"`
	EntityKind         string   `json:"entity_kind"          yaml:"entity_kind"`
	KeyField           string   `json:"key_field"            yaml:"key_field"`
	RequiresParentKeys []string `json:"requires_parent_keys" yaml:"requires_parent_keys"`
}

// Schema is the ordered hierarchy of a module view.
type Schema struct {
	Levels []LevelDef `json:"levels" yaml:"levels"`

	// DeriveParent allows GoBack to serve the parent level from the back-cache
	// instead of refetching, when the cached rows match the current filters.
	DeriveParent bool `json:"derive_parent,omitempty" yaml:"derive_parent,omitempty"`
}

// LevelSpec names the entity kind and key field of a level.
type LevelSpec struct {
	Kind     string
	KeyField string
}

// NewSchema builds a schema from specs, filling in indexes and parent keys.
func NewSchema(specs ...LevelSpec) Schema {
	levels := make([]LevelDef, len(specs))
	parents := make([]string, 0, len(specs))
	for i, spec := range specs {
		levels[i] = LevelDef{
			Index:              i,
			EntityKind:         spec.Kind,
			KeyField:           spec.KeyField,
			RequiresParentKeys: slices.Clone(parents),
		}
		parents = append(parents, spec.KeyField)
	}
	return Schema{Levels: levels}
}

// WithDeriveParent returns a copy of s with DeriveParent set.
func (s Schema) WithDeriveParent() Schema {
	s.DeriveParent = true
	return s
}

// Depth returns the number of levels.
func (s Schema) Depth() int {
	return len(s.Levels)
}

// MaxPathLen is the longest valid path: one key per level above the deepest.
func (s Schema) MaxPathLen() int {
	if len(s.Levels) == 0 {
		return 0
	}
	return len(s.Levels) - 1
}

// Level returns the level at index i.
func (s Schema) Level(i int) (LevelDef, bool) {
	if i < 0 || i >= len(s.Levels) {
		return LevelDef{}, false
	}
	return s.Levels[i], true
}

// IndexOfKind returns the index of the level with the given entity kind, or -1.
func (s Schema) IndexOfKind(kind string) int {
	for i, l := range s.Levels {
		if l.EntityKind == kind {
			return i
		}
	}
	return -1
}

// Kinds returns the entity kinds in level order.
func (s Schema) Kinds() []string {
	kinds := make([]string, len(s.Levels))
	for i, l := range s.Levels {
		kinds[i] = l.EntityKind
	}
	return kinds
}

// Steps pairs each key in path with the entity kind of its level.
// Keys beyond the schema's depth are labelled with an empty kind.
func (s Schema) Steps(path Path) []Step {
	steps := make([]Step, len(path))
	for i, key := range path {
		steps[i] = Step{Key: key}
		if l, ok := s.Level(i); ok {
			steps[i].Kind = l.EntityKind
		}
	}
	return steps
}

// ValidPrefix returns how many leading steps are consistent with the schema:
// the kind matches the level at that index, the key is set, and the path does
// not run past the deepest drillable level.
func (s Schema) ValidPrefix(steps []Step) int {
	limit := min(len(steps), s.MaxPathLen())
	for i := range limit {
		if steps[i].Key == "" || steps[i].Kind != s.Levels[i].EntityKind {
			return i
		}
	}
	return limit
}

// Validate checks that levels are contiguous from zero and that every level
// requires exactly the key fields of the levels above it.
func (s Schema) Validate() error {
	if len(s.Levels) == 0 {
		return fmt.Errorf("%w: schema has no levels", ErrInvalidSchema)
	}

	seenKinds := make(map[string]bool, len(s.Levels))
	parents := make([]string, 0, len(s.Levels))
	for i, l := range s.Levels {
		if l.Index != i {
			return fmt.Errorf("%w: level %d has index %d", ErrInvalidSchema, i, l.Index)
		}
		if l.EntityKind == "" || l.KeyField == "" {
			return fmt.Errorf("%w: level %d needs an entity kind and key field", ErrInvalidSchema, i)
		}
		if seenKinds[l.EntityKind] {
			return fmt.Errorf("%w: entity kind %q appears twice", ErrInvalidSchema, l.EntityKind)
		}
		seenKinds[l.EntityKind] = true

		if !slices.Equal(l.RequiresParentKeys, parents) {
			return fmt.Errorf("%w: level %d (%s) requires %v, want %v",
				ErrInvalidSchema, i, l.EntityKind, l.RequiresParentKeys, parents)
		}
		parents = append(parents, l.KeyField)
	}
	return nil
}
