package drill

import "slices"

// Path is the sequence of selected keys from the top level down.
// len(Path) is the current level.
type Path []string

// Clone returns a copy that does not share storage. The root path is always nil.
func (p Path) Clone() Path {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p)
}

// Equal compares two paths element by element.
func (p Path) Equal(o Path) bool {
	return slices.Equal(p, o)
}

// Parent returns the path one level up. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Clone()
}

// Child returns a new path with key appended.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Step is a path element tagged with the entity kind of its level.
type Step struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// Keys returns the keys of steps as a Path.
func Keys(steps []Step) Path {
	if len(steps) == 0 {
		return nil
	}
	p := make(Path, len(steps))
	for i, s := range steps {
		p[i] = s.Key
	}
	return p
}
