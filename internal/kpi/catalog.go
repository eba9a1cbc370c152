package kpi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/drill"
)

// Catalog errors.
var (
	ErrUnknownLevel = errors.New("no row type registered for level")
	ErrInvalidRow   = errors.New("invalid row")
)

// Measure names used by fixture records and aggregates.
const (
	MeasureOutstanding = "outstanding"
	MeasureOverdue     = "overdue"
	MeasureInvoices    = "invoices"
	MeasureCreditDays  = "credit_days"
	MeasureTarget      = "target"
	MeasureActual      = "actual"
	MeasureEnquiries   = "enquiries"
	MeasureQuoted      = "quoted"
	MeasureWon         = "won"
	MeasureValue       = "value"
	MeasureCalls       = "calls"
	MeasureVisits      = "visits"
	MeasureFollowUps   = "follow_ups"
	MeasureRevenue     = "revenue"
	MeasureActive      = "active"
	MeasureLost        = "lost"
	MeasureLostRevenue = "lost_revenue"
)

// Aggregate is a group of records collapsed to one entity.
type Aggregate struct {
	Kind  string
	Code  string
	Name  string
	Count int
	Sums  map[string]decimal.Decimal

	// Attrs are the non-numeric fields of the most recent record in the group.
	Attrs map[string]string
}

// Sum returns the total of a measure.
func (a Aggregate) Sum(measure string) decimal.Decimal {
	return a.Sums[measure]
}

// Int returns the total of a measure as an int.
func (a Aggregate) Int(measure string) int {
	return int(a.Sums[measure].IntPart())
}

func (a Aggregate) entity() Entity {
	return Entity{Code: a.Code, Name: a.Name}
}

// Variant describes the row type of one (module, entity kind).
type Variant struct {
	Headers []string
	decode  func(json.RawMessage) (Row, error)
	build   func(Aggregate) Row
}

type variantKey struct {
	module string
	kind   string
}

// Catalog maps (module, view, level) to a row variant through the module's
// schema. It implements drill.RowCodec.
type Catalog struct {
	registry *drill.Registry
	variants map[variantKey]Variant
}

// NewCatalog returns the catalog of every module in reg.
func NewCatalog(reg *drill.Registry) *Catalog {
	c := &Catalog{registry: reg, variants: make(map[variantKey]Variant)}

	receivable := []string{"Outstanding", "Overdue", "Overdue %", "Invoices"}
	register(c, ModuleOutstanding, KindCompany, receivable, func(a Aggregate) OutstandingCompany {
		return OutstandingCompany{Entity: a.entity(), Receivable: receivableOf(a)}
	})
	register(c, ModuleOutstanding, KindLocation, receivable, func(a Aggregate) OutstandingLocation {
		return OutstandingLocation{Entity: a.entity(), Receivable: receivableOf(a)}
	})
	register(c, ModuleOutstanding, KindSalesperson, receivable, func(a Aggregate) OutstandingSalesperson {
		return OutstandingSalesperson{Entity: a.entity(), Receivable: receivableOf(a)}
	})
	register(c, ModuleOutstanding, KindCustomer, append(receivable, "Credit Days"),
		func(a Aggregate) OutstandingCustomer {
			days, _ := strconv.Atoi(a.Attrs[MeasureCreditDays])
			return OutstandingCustomer{Entity: a.entity(), Receivable: receivableOf(a), CreditDays: days}
		})

	budget := []string{"Target", "Actual", "Variance", "Achieved"}
	register(c, ModuleBudget, KindCompany, budget, func(a Aggregate) BudgetCompany {
		return BudgetCompany{Entity: a.entity(), Budget: budgetOf(a)}
	})
	register(c, ModuleBudget, KindSalesperson, budget, func(a Aggregate) BudgetSalesperson {
		return BudgetSalesperson{Entity: a.entity(), Budget: budgetOf(a)}
	})
	register(c, ModuleBudget, KindMonth, budget, func(a Aggregate) BudgetMonth {
		return BudgetMonth{Entity: a.entity(), Budget: budgetOf(a)}
	})

	funnel := []string{"Enquiries", "Quoted", "Won", "Conversion", "Value"}
	register(c, ModuleEnquiry, KindCompany, funnel, func(a Aggregate) EnquiryCompany {
		return EnquiryCompany{Entity: a.entity(), Funnel: funnelOf(a)}
	})
	register(c, ModuleEnquiry, KindSalesperson, funnel, func(a Aggregate) EnquirySalesperson {
		return EnquirySalesperson{Entity: a.entity(), Funnel: funnelOf(a)}
	})
	register(c, ModuleEnquiry, KindCustomer, funnel, func(a Aggregate) EnquiryCustomer {
		return EnquiryCustomer{Entity: a.entity(), Funnel: funnelOf(a)}
	})

	calls := []string{"Calls", "Visits", "Follow-ups"}
	register(c, ModuleCallEntry, KindSalesperson, calls, func(a Aggregate) CallSalesperson {
		return CallSalesperson{Entity: a.entity(), CallStats: callStatsOf(a)}
	})
	register(c, ModuleCallEntry, KindCustomer, calls, func(a Aggregate) CallCustomer {
		return CallCustomer{Entity: a.entity(), CallStats: callStatsOf(a)}
	})
	register(c, ModuleCallEntry, KindCall, []string{"Date", "Type", "Outcome"}, func(a Aggregate) CallRecord {
		return CallRecord{Entity: a.entity(), Date: a.Attrs["date"], Type: a.Attrs["type"], Outcome: a.Attrs["outcome"]}
	})

	retention := []string{"Active", "Lost", "Churn", "Lost Revenue"}
	register(c, ModuleChurn, KindCompany, retention, func(a Aggregate) ChurnCompany {
		return ChurnCompany{Entity: a.entity(), Retention: retentionOf(a)}
	})
	register(c, ModuleChurn, KindSalesperson, retention, func(a Aggregate) ChurnSalesperson {
		return ChurnSalesperson{Entity: a.entity(), Retention: retentionOf(a)}
	})
	register(c, ModuleChurn, KindCustomer, []string{"Status", "Last Shipment", "Revenue"},
		func(a Aggregate) ChurnCustomer {
			return ChurnCustomer{
				Entity:       a.entity(),
				Status:       a.Attrs["status"],
				LastShipment: a.Attrs["last_shipment"],
				Revenue:      a.Sum(MeasureRevenue),
			}
		})

	return c
}

func register[T Row](c *Catalog, module, kind string, headers []string, build func(Aggregate) T) {
	c.variants[variantKey{module: module, kind: kind}] = Variant{
		Headers: headers,
		decode: func(raw json.RawMessage) (Row, error) {
			var row T
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, fmt.Errorf("%w: %s/%s: %w", ErrInvalidRow, module, kind, err)
			}
			if row.Key() == "" {
				return nil, fmt.Errorf("%w: %s/%s: missing code", ErrInvalidRow, module, kind)
			}
			return row, nil
		},
		build: func(a Aggregate) Row { return build(a) },
	}
}

// Kind returns the entity kind of a level.
func (c *Catalog) Kind(module, view string, level int) (string, error) {
	m, err := c.registry.Module(module)
	if err != nil {
		return "", err
	}
	l, ok := m.SchemaFor(view).Level(level)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s level %d", ErrUnknownLevel, module, view, level)
	}
	return l.EntityKind, nil
}

// Variant returns the row variant of a level.
func (c *Catalog) Variant(module, view string, level int) (Variant, error) {
	kind, err := c.Kind(module, view, level)
	if err != nil {
		return Variant{}, err
	}
	v, ok := c.variants[variantKey{module: module, kind: kind}]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %s/%s", ErrUnknownLevel, module, kind)
	}
	return v, nil
}

// Headers returns the column headers of a level, after the label column.
func (c *Catalog) Headers(module, view string, level int) []string {
	v, err := c.Variant(module, view, level)
	if err != nil {
		return nil
	}
	return v.Headers
}

// HeadlineTitle names the figure a level's rows report as Headline.
func (c *Catalog) HeadlineTitle(module, view string, level int) string {
	kind, err := c.Kind(module, view, level)
	if err != nil {
		return ""
	}
	switch {
	case kind == KindCall:
		return "Calls"
	case module == ModuleBudget:
		return "Actual"
	case module == ModuleChurn && kind == KindCustomer:
		return "Revenue"
	}
	if h := c.Headers(module, view, level); len(h) > 0 {
		return h[0]
	}
	return ""
}

// DecodeRows decodes raw JSON rows into the level's row type.
func (c *Catalog) DecodeRows(module, view string, level int, raw []json.RawMessage) ([]drill.Row, error) {
	v, err := c.Variant(module, view, level)
	if err != nil {
		return nil, err
	}
	rows := make([]drill.Row, 0, len(raw))
	for i, r := range raw {
		row, dErr := v.decode(r)
		if dErr != nil {
			return nil, fmt.Errorf("row %d: %w", i, dErr)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// BuildRows turns aggregates into the level's row type.
func (c *Catalog) BuildRows(module, view string, level int, aggs []Aggregate) ([]drill.Row, error) {
	v, err := c.Variant(module, view, level)
	if err != nil {
		return nil, err
	}
	rows := make([]drill.Row, len(aggs))
	for i, a := range aggs {
		rows[i] = v.build(a)
	}
	return rows, nil
}

func receivableOf(a Aggregate) Receivable {
	return Receivable{
		Outstanding: a.Sum(MeasureOutstanding),
		Overdue:     a.Sum(MeasureOverdue),
		Invoices:    a.Int(MeasureInvoices),
	}
}

func budgetOf(a Aggregate) Budget {
	return Budget{Target: a.Sum(MeasureTarget), Actual: a.Sum(MeasureActual)}
}

func funnelOf(a Aggregate) Funnel {
	return Funnel{
		Enquiries: a.Int(MeasureEnquiries),
		Quoted:    a.Int(MeasureQuoted),
		Won:       a.Int(MeasureWon),
		Value:     a.Sum(MeasureValue),
	}
}

func callStatsOf(a Aggregate) CallStats {
	return CallStats{
		Calls:     a.Int(MeasureCalls),
		Visits:    a.Int(MeasureVisits),
		FollowUps: a.Int(MeasureFollowUps),
	}
}

func retentionOf(a Aggregate) Retention {
	return Retention{
		Active:      a.Int(MeasureActive),
		Lost:        a.Int(MeasureLost),
		LostRevenue: a.Sum(MeasureLostRevenue),
	}
}
