package drill_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rshade/freightdash/internal/drill"
)

type testRow struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (r testRow) Key() string   { return r.Code }
func (r testRow) Label() string { return r.Name }

type testCodec struct{}

func (testCodec) DecodeRows(_, _ string, _ int, raw []json.RawMessage) ([]drill.Row, error) {
	rows := make([]drill.Row, 0, len(raw))
	for _, r := range raw {
		var row testRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func outstandingSchema() drill.Schema {
	return drill.NewSchema(
		drill.LevelSpec{Kind: "company", KeyField: "company_code"},
		drill.LevelSpec{Kind: "location", KeyField: "location_code"},
		drill.LevelSpec{Kind: "salesperson", KeyField: "salesperson_code"},
	)
}

// fakeGateway serves rows keyed by the joined path and counts calls.
type fakeGateway struct {
	levels  map[string][]drill.Row
	fail    map[string]error
	calls   int
	queries []drill.Query
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		levels: map[string][]drill.Row{
			"": {
				testRow{Code: "ACME", Name: "Acme Logistics"},
				testRow{Code: "GLOBEX", Name: "Globex Freight"},
			},
			"ACME": {
				testRow{Code: "Mumbai", Name: "Mumbai"},
				testRow{Code: "Chennai", Name: "Chennai"},
			},
			"GLOBEX": {
				testRow{Code: "Dubai", Name: "Dubai"},
			},
			"ACME/Mumbai": {
				testRow{Code: "SP-1", Name: "Jane"},
				testRow{Code: "SP-2", Name: "Jane"},
			},
			"ACME/Chennai": {
				testRow{Code: "SP-3", Name: "Ravi"},
			},
		},
		fail: map[string]error{},
	}
}

func (g *fakeGateway) FetchLevel(ctx context.Context, q drill.Query) (drill.Result, error) {
	g.calls++
	g.queries = append(g.queries, q)
	if err := ctx.Err(); err != nil {
		return drill.Result{}, err
	}
	key := strings.Join(q.Path, "/")
	if err, ok := g.fail[key]; ok {
		return drill.Result{}, err
	}
	rows, ok := g.levels[key]
	if !ok {
		return drill.Result{}, errors.New("no such level")
	}
	if q.Filters.Search != "" {
		var filtered []drill.Row
		for _, r := range rows {
			if strings.Contains(strings.ToLower(r.Label()), strings.ToLower(q.Filters.Search)) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return drill.Result{Rows: rows, Total: len(rows)}, nil
}

func keys(rows []drill.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key()
	}
	return out
}
