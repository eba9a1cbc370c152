package drill

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/pagination"
)

// Row is one record of a level. Key is the canonical identifier of the entity
// (the level's KeyField) and is what the drill path stores; Label is for display
// only and need not be unique.
type Row interface {
	Key() string
	Label() string
}

// Query identifies one level fetch.
type Query struct {
	ModuleID string
	View     string
	Level    int
	Path     Path
	Filters  FilterContext
	Page     pagination.Params
}

// Result is the payload of a level fetch.
type Result struct {
	Rows   []Row
	Total  int
	Totals map[string]decimal.Decimal
}

// Gateway fetches rows for a level. Implementations must honor ctx.
type Gateway interface {
	FetchLevel(ctx context.Context, q Query) (Result, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, q Query) (Result, error)

// FetchLevel calls f.
func (f GatewayFunc) FetchLevel(ctx context.Context, q Query) (Result, error) {
	return f(ctx, q)
}

// Op names the transition that produced a request.
type Op string

// Operations.
const (
	OpLoad    Op = "load"
	OpDrill   Op = "drill"
	OpBack    Op = "back"
	OpReset   Op = "reset"
	OpFilter  Op = "filter"
	OpPage    Op = "page"
	OpRestore Op = "restore"
	OpRefresh Op = "refresh"
)

// Request is a fetch the caller must perform and hand back to Resolve.
type Request struct {
	Seq   uint64
	Op    Op
	Query Query
}

// Response pairs a Request with its outcome.
type Response struct {
	Request Request
	Result  Result
	Err     error
}
