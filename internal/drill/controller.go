package drill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/cache"
	"github.com/rshade/freightdash/internal/logging"
	"github.com/rshade/freightdash/internal/pagination"
)

// RowCodec decodes rows held in the back-cache.
type RowCodec interface {
	DecodeRows(moduleID, view string, level int, raw []json.RawMessage) ([]Row, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithFilters sets the initial filter context.
func WithFilters(f FilterContext) Option {
	return func(c *Controller) {
		c.state.Filters = f.Clone()
		c.good.filters = f.Clone()
	}
}

// WithPageSize enables paging with the given page size.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		c.pageSize = size
		c.state.Page = pagination.First(size)
		c.good.page = c.state.Page
	}
}

// WithBackCache lets GoBack serve the parent level from store when the schema
// has DeriveParent set. Rows are stored as JSON and decoded with codec.
func WithBackCache(store cache.Store, codec RowCodec) Option {
	return func(c *Controller) {
		c.backCache = store
		c.codec = codec
	}
}

// WithLogger sets the logger used by transitions that take no context.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// query is the part of the state that determines which rows are fetched.
type query struct {
	path    Path
	filters FilterContext
	page    pagination.Params
}

// Controller owns the drill state of one module view.
type Controller struct {
	moduleID string
	view     string
	schema   Schema
	gateway  Gateway
	fencer   Fencer

	pageSize  int
	backCache cache.Store
	codec     RowCodec
	logger    zerolog.Logger

	// cacheScope is part of every back-cache key. Restore replaces it, so
	// levels cached before a round trip are never served after it.
	cacheScope string

	state State

	// good is the query of the last successful fetch; the displayed rows belong to it.
	good query
}

// NewController returns an idle controller at the root of schema.
func NewController(moduleID, view string, schema Schema, gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		moduleID: moduleID,
		view:     view,
		schema:   schema,
		gateway:  gw,
		logger:   *logging.FromContext(context.Background()),

		cacheScope: ulid.Make().String(),
		state: State{
			ModuleID: moduleID,
			View:     view,
			Status:   StatusIdle,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().
		Str("component", "drill").
		Str("module", moduleID).
		Str("view", view).
		Logger()
	return c
}

// ModuleID returns the module this controller drills.
func (c *Controller) ModuleID() string { return c.moduleID }

// View returns the view name.
func (c *Controller) View() string { return c.view }

// Schema returns the hierarchy.
func (c *Controller) Schema() Schema { return c.schema }

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state.Clone()
	s.RowsPath = c.good.path.Clone()
	s.RequestSeq = c.fencer.Current()
	return s
}

// Steps returns the current path tagged with entity kinds.
func (c *Controller) Steps() []Step {
	return c.schema.Steps(c.state.Path)
}

// CurrentLevel returns the level definition of the current path.
func (c *Controller) CurrentLevel() LevelDef {
	l, _ := c.schema.Level(len(c.state.Path))
	return l
}

// Load fetches the current level. Use it for the first fetch.
func (c *Controller) Load() *Request {
	return c.issue(OpLoad)
}

// Refresh refetches the current level, e.g. to retry after an error.
func (c *Controller) Refresh() *Request {
	return c.issue(OpRefresh)
}

// DrillInto descends into the row identified by key. Drilling is relative to
// the rows on screen, so a second drill issued while the first is still
// loading supersedes it rather than stacking on top of it.
func (c *Controller) DrillInto(key string) (*Request, error) {
	if c.state.Status == StatusIdle || c.state.Rows == nil {
		return nil, fmt.Errorf("%w: no rows loaded", ErrPreconditionFailed)
	}

	base := c.good.path
	if len(base) >= c.schema.MaxPathLen() {
		return nil, fmt.Errorf("%w: level %d is the deepest level of %s",
			ErrPreconditionFailed, len(base), c.moduleID)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrPreconditionFailed)
	}
	if !c.hasRow(key) {
		return nil, fmt.Errorf("%w: key %q is not a displayed row", ErrPreconditionFailed, key)
	}

	c.state.Path = base.Child(key)
	c.resetPage()
	return c.issue(OpDrill), nil
}

// GoBack moves one level up. At the root it is a no-op and returns nil.
// It also returns nil when the parent level was served from the back-cache.
func (c *Controller) GoBack() *Request {
	if len(c.state.Path) == 0 {
		return nil
	}
	c.state.Path = c.state.Path.Parent()
	c.resetPage()

	if c.serveFromBackCache() {
		return nil
	}
	return c.issue(OpBack)
}

// Reset returns to the root level, keeping filters.
func (c *Controller) Reset() *Request {
	c.state.Path = nil
	c.resetPage()
	return c.issue(OpReset)
}

// ApplyFilters replaces the filter context and refetches at the same path.
func (c *Controller) ApplyFilters(f FilterContext) *Request {
	c.state.Filters = f.Clone()
	c.resetPage()
	return c.issue(OpFilter)
}

// SetPage selects a page of the current level. It returns nil when paging is
// disabled or the page is already current.
func (c *Controller) SetPage(page int) *Request {
	if c.pageSize == 0 || page < pagination.DefaultPage || page == c.state.Page.Page {
		return nil
	}
	c.state.Page = c.state.Page.WithPage(page)
	return c.issue(OpPage)
}

// NextPage moves to the next page if there is one.
func (c *Controller) NextPage() *Request {
	if !c.state.Meta().HasNext {
		return nil
	}
	return c.SetPage(c.state.Page.Page + 1)
}

// PrevPage moves to the previous page if there is one.
func (c *Controller) PrevPage() *Request {
	if !c.state.Meta().HasPrevious {
		return nil
	}
	return c.SetPage(c.state.Page.Page - 1)
}

// RestoreResult reports how much of a restored path survived validation.
type RestoreResult struct {
	Requested int
	Restored  int
	Err       error
}

// Truncated reports whether part of the path was dropped.
func (r RestoreResult) Truncated() bool {
	return r.Restored < r.Requested
}

// Restore replaces the state with a saved path and filters. Steps are kept up
// to the first one that no longer fits the schema; the rest is dropped and
// reported with ErrSchemaMismatch. Exactly one fetch is issued. Rows from
// before the restore are discarded, cached parent levels included.
func (c *Controller) Restore(steps []Step, filters FilterContext, page pagination.Params) (*Request, RestoreResult) {
	valid := c.schema.ValidPrefix(steps)
	res := RestoreResult{Requested: len(steps), Restored: valid}
	if res.Truncated() {
		res.Err = fmt.Errorf("%w: kept %d of %d steps of %v", ErrSchemaMismatch, valid, len(steps), steps)
		c.logger.Warn().
			Str("operation", "restore").
			Err(res.Err).
			Msg("restored path truncated")
	}

	c.state.Path = Keys(steps[:valid])
	c.state.Filters = filters.Clone()
	if c.pageSize > 0 {
		c.state.Page = pagination.First(c.pageSize)
		if page.Page > 0 {
			c.state.Page = c.state.Page.WithPage(page.Page)
		}
		if page.SortField != "" {
			c.state.Page.SortField = page.SortField
			c.state.Page.SortOrder = page.SortOrder
		}
	}
	c.state.Rows = nil
	c.state.Total = 0
	c.state.Totals = nil
	c.cacheScope = ulid.Make().String()
	c.good = query{
		path:    c.state.Path.Clone(),
		filters: c.state.Filters.Clone(),
		page:    c.state.Page,
	}
	return c.issue(OpRestore), res
}

// Fetch performs req against the gateway. It does not touch controller state
// and may run on any goroutine.
func (c *Controller) Fetch(ctx context.Context, req Request) Response {
	log := logging.FromContext(ctx)
	start := time.Now()

	res, err := c.gateway.FetchLevel(ctx, req.Query)
	if err != nil {
		err = asGatewayError(err, req.Query)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "drill").
		Str("operation", string(req.Op)).
		Str("module", req.Query.ModuleID).
		Int("level", req.Query.Level).
		Uint64("seq", req.Seq).
		Int("rows", len(res.Rows)).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("level fetched")

	return Response{Request: req, Result: res, Err: err}
}

// Resolve applies resp if its request is still current and reports whether it
// was applied. Stale responses are dropped and leave no trace in the state.
func (c *Controller) Resolve(ctx context.Context, resp Response) bool {
	log := logging.FromContext(ctx)
	if !c.fencer.IsCurrent(resp.Request.Seq) {
		log.Debug().
			Ctx(ctx).
			Str("component", "drill").
			Str("module", c.moduleID).
			Uint64("seq", resp.Request.Seq).
			Uint64("current", c.fencer.Current()).
			Err(ErrStaleResponse).
			Msg("response discarded")
		return false
	}

	if resp.Err != nil {
		c.state.Status = StatusError
		c.state.Err = asGatewayError(resp.Err, resp.Request.Query)
		c.state.Path = c.good.path.Clone()
		c.state.Filters = c.good.filters.Clone()
		c.state.Page = c.good.page
		log.Warn().
			Ctx(ctx).
			Str("component", "drill").
			Str("module", c.moduleID).
			Str("operation", string(resp.Request.Op)).
			Err(resp.Err).
			Msg("level fetch failed")
		return true
	}

	c.commit(resp.Request.Query, resp.Result)
	c.storeBack(resp.Request.Query, resp.Result)
	return true
}

// Run fetches req and resolves it inline. A nil req is a no-op.
func (c *Controller) Run(ctx context.Context, req *Request) error {
	if req == nil {
		return nil
	}
	resp := c.Fetch(ctx, *req)
	c.Resolve(ctx, resp)
	return resp.Err
}

func (c *Controller) issue(op Op) *Request {
	seq := c.fencer.Next()
	c.state.Status = StatusLoading
	c.state.Err = nil
	req := &Request{
		Seq: seq,
		Op:  op,
		Query: Query{
			ModuleID: c.moduleID,
			View:     c.view,
			Level:    len(c.state.Path),
			Path:     c.state.Path.Clone(),
			Filters:  c.state.Filters.Clone(),
			Page:     c.state.Page,
		},
	}
	c.logger.Debug().
		Str("operation", string(op)).
		Uint64("seq", seq).
		Strs("path", c.state.Path).
		Msg("request issued")
	return req
}

func (c *Controller) commit(q Query, res Result) {
	c.state.Rows = res.Rows
	if c.state.Rows == nil {
		c.state.Rows = []Row{}
	}
	c.state.Total = res.Total
	if c.state.Total == 0 {
		c.state.Total = len(res.Rows)
	}
	c.state.Totals = res.Totals
	c.state.Status = StatusReady
	c.state.Err = nil
	c.good = query{path: q.Path.Clone(), filters: q.Filters.Clone(), page: q.Page}
}

func (c *Controller) hasRow(key string) bool {
	for _, r := range c.state.Rows {
		if r.Key() == key {
			return true
		}
	}
	return false
}

func (c *Controller) resetPage() {
	if c.pageSize > 0 {
		c.state.Page = c.state.Page.WithPage(pagination.DefaultPage)
	}
}

// cachedLevel is the back-cache payload of one level.
type cachedLevel struct {
	Rows   []json.RawMessage          `json:"rows"`
	Total  int                        `json:"total"`
	Totals map[string]decimal.Decimal `json:"totals,omitempty"`
}

func (c *Controller) backKey(path Path, filters FilterContext, page pagination.Params) (string, error) {
	return cache.GenerateKey(cache.KeyParams{
		Module:  c.moduleID,
		View:    c.view,
		Path:    path,
		Filters: filters.Flatten(),
		Page:    page.Page,
		Scope:   c.cacheScope,
	})
}

func (c *Controller) storeBack(q Query, res Result) {
	if !c.schema.DeriveParent || c.backCache == nil {
		return
	}
	key, err := c.backKey(q.Path, q.Filters, q.Page)
	if err != nil {
		return
	}
	payload := cachedLevel{Total: res.Total, Totals: res.Totals, Rows: make([]json.RawMessage, 0, len(res.Rows))}
	for _, r := range res.Rows {
		raw, mErr := json.Marshal(r)
		if mErr != nil {
			return
		}
		payload.Rows = append(payload.Rows, raw)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err = c.backCache.Set(key, data); err != nil {
		c.logger.Debug().Err(err).Msg("back-cache write failed")
	}
}

// serveFromBackCache installs the parent level from the cache. The key covers
// module, view, path, filters, page and cache scope, so a hit is consistent
// with the current filters and was fetched after the last restore. The sequence is still advanced so that any
// in-flight response is discarded.
func (c *Controller) serveFromBackCache() bool {
	if !c.schema.DeriveParent || c.backCache == nil || c.codec == nil {
		return false
	}
	key, err := c.backKey(c.state.Path, c.state.Filters, c.state.Page)
	if err != nil {
		return false
	}
	entry, err := c.backCache.Get(key)
	if err != nil {
		return false
	}
	var payload cachedLevel
	if err = json.Unmarshal(entry.Data, &payload); err != nil {
		return false
	}
	rows, err := c.codec.DecodeRows(c.moduleID, c.view, len(c.state.Path), payload.Rows)
	if err != nil {
		c.logger.Debug().Err(err).Msg("back-cache decode failed")
		return false
	}

	seq := c.fencer.Next()
	q := Query{
		ModuleID: c.moduleID,
		View:     c.view,
		Level:    len(c.state.Path),
		Path:     c.state.Path.Clone(),
		Filters:  c.state.Filters.Clone(),
		Page:     c.state.Page,
	}
	c.commit(q, Result{Rows: rows, Total: payload.Total, Totals: payload.Totals})
	c.logger.Debug().
		Str("operation", string(OpBack)).
		Uint64("seq", seq).
		Strs("path", c.state.Path).
		Msg("parent level served from back-cache")
	return true
}
