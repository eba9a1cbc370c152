package kpi

import "github.com/rshade/freightdash/internal/drill"

// Module identifiers.
const (
	ModuleOutstanding = "outstanding"
	ModuleBudget      = "budget"
	ModuleEnquiry     = "enquiry"
	ModuleCallEntry   = "callentry"
	ModuleChurn       = "churn"
)

// Entity kinds.
const (
	KindCompany     = "company"
	KindLocation    = "location"
	KindSalesperson = "salesperson"
	KindCustomer    = "customer"
	KindMonth       = "month"
	KindCall        = "call"
)

//nolint:gochecknoglobals // Level specs are shared, immutable building blocks.
var (
	company     = drill.LevelSpec{Kind: KindCompany, KeyField: "company_code"}
	location    = drill.LevelSpec{Kind: KindLocation, KeyField: "location_code"}
	salesperson = drill.LevelSpec{Kind: KindSalesperson, KeyField: "salesperson_code"}
	customer    = drill.LevelSpec{Kind: KindCustomer, KeyField: "customer_code"}
	month       = drill.LevelSpec{Kind: KindMonth, KeyField: "month"}
	call        = drill.LevelSpec{Kind: KindCall, KeyField: "call_id"}
)

// Modules returns the dashboard modules in display order.
func Modules() []drill.Module {
	return []drill.Module{
		{
			ID:      ModuleOutstanding,
			Title:   "Outstanding",
			Summary: drill.NewSchema(company, location, salesperson),
			Detail:  drill.NewSchema(company, salesperson, customer),
		},
		{
			ID:      ModuleBudget,
			Title:   "Budget vs Actual",
			Summary: drill.NewSchema(company, salesperson, month).WithDeriveParent(),
			Detail:  drill.NewSchema(salesperson, month).WithDeriveParent(),
		},
		{
			ID:      ModuleEnquiry,
			Title:   "Enquiries",
			Summary: drill.NewSchema(company, salesperson),
			Detail:  drill.NewSchema(company, salesperson, customer),
		},
		{
			ID:      ModuleCallEntry,
			Title:   "Call Entries",
			Summary: drill.NewSchema(salesperson, customer, call),
		},
		{
			ID:      ModuleChurn,
			Title:   "Customer Churn",
			Summary: drill.NewSchema(company, salesperson, customer),
			Detail:  drill.NewSchema(company, customer),
		},
	}
}

// NewRegistry returns a registry of every module. The schemas are static, so
// a validation failure is a programming error.
func NewRegistry() *drill.Registry {
	return drill.MustNewRegistry(Modules()...)
}
