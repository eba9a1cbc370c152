package nav

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/oklog/ulid/v2"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/pagination"
	"github.com/rshade/freightdash/internal/view"
)

// FormatVersion is the snapshot wire format written by this build.
const FormatVersion = "1.1.0"

// compatibleVersions are the snapshot formats this build can restore.
const compatibleVersions = ">= 1.0.0, < 2.0.0"

// PayloadKeySnapshot is the payload key the snapshot is stored under.
const PayloadKeySnapshot = "drill_snapshot"

// Snapshot errors.
var (
	ErrIncompatibleSnapshot = errors.New("incompatible snapshot format")
	ErrModuleMismatch       = errors.New("snapshot belongs to another module")
)

// Snapshot is a serializable view position.
type Snapshot struct {
	Version     string              `json:"version"`
	ID          string              `json:"id"`
	ModuleID    string              `json:"module_id"`
	Mode        view.Mode           `json:"mode"`
	Path        []drill.Step        `json:"path"`
	Filters     drill.FilterContext `json:"filters"`
	Page        pagination.Params   `json:"page"`
	OriginRoute string              `json:"origin_route"`
	CapturedAt  time.Time           `json:"captured_at"`
}

// Capture records vs for moduleID. It does not touch any state.
func Capture(moduleID string, vs view.ViewState, originRoute string) Snapshot {
	steps := make([]drill.Step, len(vs.Steps))
	copy(steps, vs.Steps)
	return Snapshot{
		Version:     FormatVersion,
		ID:          ulid.Make().String(),
		ModuleID:    moduleID,
		Mode:        vs.Mode,
		Path:        steps,
		Filters:     vs.Drill.Filters.Clone(),
		Page:        vs.Pagination,
		OriginRoute: originRoute,
		CapturedAt:  time.Now().UTC(),
	}
}

// CheckVersion reports whether s can be restored by this build.
func (s Snapshot) CheckVersion() error {
	v, err := semver.NewVersion(s.Version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrIncompatibleSnapshot, s.Version, err)
	}
	c, err := semver.NewConstraint(compatibleVersions)
	if err != nil {
		return fmt.Errorf("parsing snapshot constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: version %s not in %s", ErrIncompatibleSnapshot, v, compatibleVersions)
	}
	return nil
}

// DecodeSnapshot reads the snapshot from p, if there is one.
func DecodeSnapshot(p Payload) (*Snapshot, error) {
	var s Snapshot
	ok, err := p.Get(PayloadKeySnapshot, &s)
	if err != nil || !ok {
		return nil, err
	}
	if err = s.CheckVersion(); err != nil {
		return nil, err
	}
	return &s, nil
}
