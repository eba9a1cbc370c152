package nav

import (
	"context"
	"fmt"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/pagination"
	"github.com/rshade/freightdash/internal/view"
)

// Restorer puts a module view back at a saved position.
type Restorer interface {
	ModuleID() string
	RestoreView(mode view.Mode, steps []drill.Step, filters drill.FilterContext,
		page pagination.Params) (*drill.Request, drill.RestoreResult)
}

// Bridge attaches snapshots to outbound navigation and reads them back on
// return.
type Bridge struct {
	ch       Channel
	consumed bool
}

// NewBridge returns a bridge over ch.
func NewBridge(ch Channel) *Bridge {
	return &Bridge{ch: ch}
}

// Attach stores snap and any extra values in the transition payload and
// navigates to route. It starts a new round trip, so the next
// ConsumeOnReturn may read a payload again.
func (b *Bridge) Attach(ctx context.Context, route string, snap Snapshot, extra map[string]any) error {
	p := Payload{}
	if err := p.Set(PayloadKeySnapshot, snap); err != nil {
		return err
	}
	for k, v := range extra {
		if k == PayloadKeySnapshot {
			return fmt.Errorf("payload key %q is reserved", k)
		}
		if err := p.Set(k, v); err != nil {
			return err
		}
	}

	b.consumed = false
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "nav").
		Str("operation", "attach").
		Str("module", snap.ModuleID).
		Str("route", route).
		Str("snapshot_id", snap.ID).
		Msg("navigating with snapshot")
	return b.ch.NavigateTo(route, p)
}

// ConsumeOnReturn returns the snapshot carried back by the current
// transition. It reads the payload at most once per round trip; later calls
// return nil. A payload without a snapshot also yields nil.
func (b *Bridge) ConsumeOnReturn(ctx context.Context) (*Snapshot, error) {
	if b.consumed {
		return nil, nil //nolint:nilnil // Already consumed is not an error.
	}
	b.consumed = true

	p, ok := b.ch.IncomingPayload()
	if !ok {
		return nil, nil //nolint:nilnil // No payload is not an error.
	}
	snap, err := DecodeSnapshot(p)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "nav").
			Str("operation", "consume").
			Err(err).
			Msg("dropping snapshot")
		return nil, err
	}
	return snap, nil
}

// Restore re-hydrates r from snap and returns the single fetch it needs.
// A path that no longer fits the schema is truncated and logged; that is
// never an error.
func (b *Bridge) Restore(ctx context.Context, snap *Snapshot, r Restorer) (*drill.Request, error) {
	if snap == nil {
		return nil, nil //nolint:nilnil // Nothing to restore.
	}
	if snap.ModuleID != r.ModuleID() {
		return nil, fmt.Errorf("%w: %s, restoring %s", ErrModuleMismatch, snap.ModuleID, r.ModuleID())
	}

	req, res := r.RestoreView(view.ParseMode(string(snap.Mode)), snap.Path, snap.Filters, snap.Page)

	log := logging.FromContext(ctx)
	if res.Err != nil {
		log.Warn().
			Ctx(ctx).
			Str("component", "nav").
			Str("operation", "restore").
			Str("module", snap.ModuleID).
			Int("requested", res.Requested).
			Int("restored", res.Restored).
			Err(res.Err).
			Msg("snapshot path truncated")
	}
	log.Debug().
		Ctx(ctx).
		Str("component", "nav").
		Str("operation", "restore").
		Str("snapshot_id", snap.ID).
		Msg("snapshot restored")
	return req, nil
}
