package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/drill"
)

// Row is a drill row that can be charted and tabulated.
type Row interface {
	drill.Row

	// Headline is the value plotted in the summary bar chart.
	Headline() decimal.Decimal

	// Cells are the table cells after the label column, matching the
	// headers registered for the row's kind.
	Cells(f *Formatter) []string
}

// Entity identifies a row: Code is the canonical key, Name is for display.
type Entity struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Key returns the canonical code.
func (e Entity) Key() string { return e.Code }

// Label returns the display name, or the code when there is none.
func (e Entity) Label() string {
	if e.Name == "" {
		return e.Code
	}
	return e.Name
}

// Receivable is the outstanding position of a population of invoices.
type Receivable struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Overdue     decimal.Decimal `json:"overdue"`
	Invoices    int             `json:"invoices"`
}

func (r Receivable) Headline() decimal.Decimal { return r.Outstanding }

func (r Receivable) Cells(f *Formatter) []string {
	return []string{
		f.Money(r.Outstanding),
		f.Money(r.Overdue),
		f.Percent(r.Overdue, r.Outstanding),
		f.Count(r.Invoices),
	}
}

type (
	OutstandingCompany struct {
		Entity
		Receivable
	}
	OutstandingLocation struct {
		Entity
		Receivable
	}
	OutstandingSalesperson struct {
		Entity
		Receivable
	}
)

// OutstandingCustomer adds credit terms to a customer's receivable.
type OutstandingCustomer struct {
	Entity
	Receivable
	CreditDays int `json:"credit_days"`
}

func (r OutstandingCustomer) Cells(f *Formatter) []string {
	return append(r.Receivable.Cells(f), f.Count(r.CreditDays))
}

// Budget is target versus achieved revenue.
type Budget struct {
	Target decimal.Decimal `json:"target"`
	Actual decimal.Decimal `json:"actual"`
}

// Variance is Actual minus Target; negative means behind target.
func (b Budget) Variance() decimal.Decimal { return b.Actual.Sub(b.Target) }

func (b Budget) Headline() decimal.Decimal { return b.Actual }

func (b Budget) Cells(f *Formatter) []string {
	return []string{
		f.Money(b.Target),
		f.Money(b.Actual),
		f.Money(b.Variance()),
		f.Percent(b.Actual, b.Target),
	}
}

type (
	BudgetCompany struct {
		Entity
		Budget
	}
	BudgetSalesperson struct {
		Entity
		Budget
	}
	BudgetMonth struct {
		Entity
		Budget
	}
)

// Funnel counts enquiries through to won business.
type Funnel struct {
	Enquiries int             `json:"enquiries"`
	Quoted    int             `json:"quoted"`
	Won       int             `json:"won"`
	Value     decimal.Decimal `json:"value"`
}

func (e Funnel) Headline() decimal.Decimal { return decimal.NewFromInt(int64(e.Enquiries)) }

func (e Funnel) Cells(f *Formatter) []string {
	return []string{
		f.Count(e.Enquiries),
		f.Count(e.Quoted),
		f.Count(e.Won),
		f.Percent(decimal.NewFromInt(int64(e.Won)), decimal.NewFromInt(int64(e.Enquiries))),
		f.Money(e.Value),
	}
}

type (
	EnquiryCompany struct {
		Entity
		Funnel
	}
	EnquirySalesperson struct {
		Entity
		Funnel
	}
	EnquiryCustomer struct {
		Entity
		Funnel
	}
)

// CallStats counts logged sales calls.
type CallStats struct {
	Calls     int `json:"calls"`
	Visits    int `json:"visits"`
	FollowUps int `json:"follow_ups"`
}

func (c CallStats) Headline() decimal.Decimal { return decimal.NewFromInt(int64(c.Calls)) }

func (c CallStats) Cells(f *Formatter) []string {
	return []string{f.Count(c.Calls), f.Count(c.Visits), f.Count(c.FollowUps)}
}

type (
	CallSalesperson struct {
		Entity
		CallStats
	}
	CallCustomer struct {
		Entity
		CallStats
	}
)

// CallRecord is a single logged call. Code is the call entry id.
type CallRecord struct {
	Entity
	Date    string `json:"date"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
}

func (c CallRecord) Headline() decimal.Decimal { return decimal.NewFromInt(1) }

func (c CallRecord) Cells(*Formatter) []string {
	return []string{c.Date, c.Type, c.Outcome}
}

// Retention compares active and lost customers.
type Retention struct {
	Active      int             `json:"active"`
	Lost        int             `json:"lost"`
	LostRevenue decimal.Decimal `json:"lost_revenue"`
}

func (r Retention) Headline() decimal.Decimal { return decimal.NewFromInt(int64(r.Lost)) }

func (r Retention) Cells(f *Formatter) []string {
	total := decimal.NewFromInt(int64(r.Active + r.Lost))
	return []string{
		f.Count(r.Active),
		f.Count(r.Lost),
		f.Percent(decimal.NewFromInt(int64(r.Lost)), total),
		f.Money(r.LostRevenue),
	}
}

type (
	ChurnCompany struct {
		Entity
		Retention
	}
	ChurnSalesperson struct {
		Entity
		Retention
	}
)

// ChurnCustomer is one customer's shipping activity.
type ChurnCustomer struct {
	Entity
	Status       string          `json:"status"`
	LastShipment string          `json:"last_shipment"`
	Revenue      decimal.Decimal `json:"revenue"`
}

func (c ChurnCustomer) Headline() decimal.Decimal { return c.Revenue }

func (c ChurnCustomer) Cells(f *Formatter) []string {
	return []string{c.Status, c.LastShipment, f.Money(c.Revenue)}
}
