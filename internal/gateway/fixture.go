package gateway

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
)

//go:embed fixtures/demo.yaml
var demoData []byte

// Dataset is the fixture file format: entity names plus raw records per module.
type Dataset struct {
	// Names maps entity kind → code → display name.
	Names   map[string]map[string]string `yaml:"names"`
	Modules map[string][]Record          `yaml:"modules"`
}

// Record is one fact: the entities it belongs to, a date, numeric measures
// and free-form attributes.
type Record struct {
	Dims     map[string]string `yaml:"dims"`
	Date     string            `yaml:"date"`
	Measures map[string]string `yaml:"measures"`
	Attrs    map[string]string `yaml:"attrs"`

	date     time.Time
	measures map[string]decimal.Decimal
}

// FixtureGateway serves levels by aggregating an in-memory dataset.
type FixtureGateway struct {
	data     Dataset
	registry *drill.Registry
	catalog  *kpi.Catalog
	latency  time.Duration
}

// FixtureOption configures a FixtureGateway.
type FixtureOption func(*FixtureGateway)

// WithLatency delays every fetch, to make loading states visible in demos.
func WithLatency(d time.Duration) FixtureOption {
	return func(g *FixtureGateway) { g.latency = d }
}

// NewDemoGateway returns a fixture gateway over the embedded demo dataset.
func NewDemoGateway(reg *drill.Registry, cat *kpi.Catalog, opts ...FixtureOption) (*FixtureGateway, error) {
	return NewFixtureGateway(demoData, reg, cat, opts...)
}

// LoadFixtureGateway reads a dataset file.
func LoadFixtureGateway(path string, reg *drill.Registry, cat *kpi.Catalog, opts ...FixtureOption) (*FixtureGateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	return NewFixtureGateway(data, reg, cat, opts...)
}

// NewFixtureGateway parses a YAML dataset.
func NewFixtureGateway(data []byte, reg *drill.Registry, cat *kpi.Catalog, opts ...FixtureOption) (*FixtureGateway, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	for module, records := range ds.Modules {
		if _, err := reg.Module(module); err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
		for i := range records {
			if err := records[i].parse(); err != nil {
				return nil, fmt.Errorf("fixtures: %s record %d: %w", module, i, err)
			}
		}
	}

	g := &FixtureGateway{data: ds, registry: reg, catalog: cat}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (r *Record) parse() error {
	if r.Date != "" {
		t, err := parseDate(r.Date)
		if err != nil {
			return err
		}
		r.date = t
	}
	r.measures = make(map[string]decimal.Decimal, len(r.Measures))
	for k, v := range r.Measures {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("measure %s: %w", k, err)
		}
		r.measures[k] = d
	}
	return nil
}

// parseDate accepts a full date or a month.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(drill.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// FetchLevel implements drill.Gateway.
func (g *FixtureGateway) FetchLevel(ctx context.Context, q drill.Query) (drill.Result, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return drill.Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return drill.Result{}, err
	}

	m, err := g.registry.Module(q.ModuleID)
	if err != nil {
		return drill.Result{}, &drill.GatewayError{Status: http.StatusNotFound, Message: err.Error(), Err: err}
	}
	schema := m.SchemaFor(q.View)
	level, ok := schema.Level(q.Level)
	if !ok || len(q.Path) != q.Level {
		return drill.Result{}, &drill.GatewayError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("level %d does not exist for path %v", q.Level, q.Path),
		}
	}

	matched := g.match(q, schema)
	aggs := g.aggregate(matched, level.EntityKind)
	rows, err := g.catalog.BuildRows(q.ModuleID, q.View, q.Level, aggs)
	if err != nil {
		return drill.Result{}, &drill.GatewayError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	sortRows(rows, aggs, q.Page.SortField, q.Page.SortOrder)

	start, end := q.Page.Window(len(rows))
	return drill.Result{
		Rows:   rows[start:end],
		Total:  len(rows),
		Totals: totals(matched),
	}, nil
}

func (g *FixtureGateway) match(q drill.Query, schema drill.Schema) []Record {
	var from, to time.Time
	if q.Filters.DateFrom != nil {
		from = *q.Filters.DateFrom
	}
	if q.Filters.DateTo != nil {
		to = *q.Filters.DateTo
	}
	search := strings.ToLower(q.Filters.Search)

	var out []Record
	for _, r := range g.data.Modules[q.ModuleID] {
		if !pathMatches(r, q.Path, schema) {
			continue
		}
		if !from.IsZero() && r.date.Before(from) {
			continue
		}
		if !to.IsZero() && r.date.After(to) {
			continue
		}
		if q.Filters.Period != "" && !strings.HasPrefix(r.Date, q.Filters.Period) {
			continue
		}
		if !extraMatches(r, q.Filters.Extra) {
			continue
		}
		if search != "" && !g.searchMatches(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func pathMatches(r Record, path drill.Path, schema drill.Schema) bool {
	for i, key := range path {
		if r.Dims[schema.Levels[i].EntityKind] != key {
			return false
		}
	}
	return true
}

// extraMatches applies module-specific filters against dimensions first,
// then attributes.
func extraMatches(r Record, extra map[string]string) bool {
	for k, want := range extra {
		if got, ok := r.Dims[k]; ok {
			if got != want {
				return false
			}
			continue
		}
		if r.Attrs[k] != want {
			return false
		}
	}
	return true
}

func (g *FixtureGateway) searchMatches(r Record, term string) bool {
	for kind, code := range r.Dims {
		if strings.Contains(strings.ToLower(code), term) ||
			strings.Contains(strings.ToLower(g.name(kind, code, r)), term) {
			return true
		}
	}
	return false
}

func (g *FixtureGateway) name(kind, code string, r Record) string {
	if n, ok := g.data.Names[kind][code]; ok {
		return n
	}
	if r.Dims[kind] == code {
		return r.Attrs["name"]
	}
	return ""
}

func (g *FixtureGateway) aggregate(records []Record, kind string) []kpi.Aggregate {
	index := make(map[string]int)
	var aggs []kpi.Aggregate
	latest := make(map[string]time.Time)

	for _, r := range records {
		code := r.Dims[kind]
		if code == "" {
			continue
		}
		i, ok := index[code]
		if !ok {
			i = len(aggs)
			index[code] = i
			aggs = append(aggs, kpi.Aggregate{
				Kind: kind,
				Code: code,
				Sums: make(map[string]decimal.Decimal),
			})
		}
		a := &aggs[i]
		a.Count++
		for m, v := range r.measures {
			a.Sums[m] = a.Sums[m].Add(v)
		}
		if t, seen := latest[code]; !seen || !r.date.Before(t) {
			latest[code] = r.date
			a.Attrs = make(map[string]string, len(r.Attrs)+1)
			for k, v := range r.Attrs {
				a.Attrs[k] = v
			}
			if r.Date != "" {
				a.Attrs["date"] = r.Date
			}
			a.Name = g.name(kind, code, r)
		}
	}
	return aggs
}

// sortRows orders by headline descending unless a sort field is given.
// "code" and "name" sort by key and label; anything else is a measure.
func sortRows(rows []drill.Row, aggs []kpi.Aggregate, field, order string) {
	sums := make(map[string]map[string]decimal.Decimal, len(aggs))
	for _, a := range aggs {
		sums[a.Code] = a.Sums
	}
	desc := order == "desc"

	slices.SortStableFunc(rows, func(a, b drill.Row) int {
		var c int
		switch field {
		case "":
			c = headline(b).Cmp(headline(a))
		case "code":
			c = cmp.Compare(a.Key(), b.Key())
		case "name":
			c = cmp.Compare(a.Label(), b.Label())
		default:
			c = sums[a.Key()][field].Cmp(sums[b.Key()][field])
		}
		if field != "" && desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Key(), b.Key())
		}
		return c
	})
}

func headline(r drill.Row) decimal.Decimal {
	if k, ok := r.(kpi.Row); ok {
		return k.Headline()
	}
	return decimal.Zero
}

func totals(records []Record) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		for m, v := range r.measures {
			out[m] = out[m].Add(v)
		}
	}
	return out
}
