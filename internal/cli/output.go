package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/pagination"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// tabPadding is the minimum column padding for tabwriter output.
const tabPadding = 2

func validateOutput(format string) error {
	if format != outputTable && format != outputJSON {
		return fmt.Errorf("invalid output format %q: use table or json", format)
	}
	return nil
}

// levelReport is one fetched level, ready to print.
type levelReport struct {
	Module     string            `json:"module"`
	Title      string            `json:"title"`
	View       string            `json:"view"`
	Level      int               `json:"level"`
	EntityKind string            `json:"entity_kind"`
	Path       []drill.Step      `json:"path"`
	Filters    map[string]string `json:"filters,omitempty"`
	Columns    []string          `json:"columns"`
	Rows       []reportRow       `json:"rows"`
	Totals     map[string]string `json:"totals,omitempty"`
	Page       *pagination.Meta  `json:"page,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type reportRow struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// newLevelReport renders the rows a controller currently holds.
func newLevelReport(ctrl *drill.Controller, title string, cat *kpi.Catalog, f *kpi.Formatter) levelReport {
	st := ctrl.State()
	level := len(st.RowsPath)
	def, _ := ctrl.Schema().Level(level)

	r := levelReport{
		Module:     st.ModuleID,
		Title:      title,
		View:       st.View,
		Level:      level,
		EntityKind: def.EntityKind,
		Path:       ctrl.Schema().Steps(st.RowsPath),
		Filters:    st.Filters.Flatten(),
		Columns:    cat.Headers(st.ModuleID, st.View, level),
		Rows:       make([]reportRow, 0, len(st.Rows)),
	}
	if len(r.Filters) == 0 {
		r.Filters = nil
	}
	if st.Err != nil {
		r.Error = st.Err.Error()
	}

	for _, row := range st.Rows {
		rr := reportRow{Key: row.Key(), Label: row.Label()}
		if kr, ok := row.(kpi.Row); ok {
			rr.Values = kr.Cells(f)
		}
		r.Rows = append(r.Rows, rr)
	}

	if len(st.Totals) > 0 {
		r.Totals = make(map[string]string, len(st.Totals))
		for name, v := range st.Totals {
			r.Totals[name] = figure(f, v)
		}
	}
	if st.Page.Enabled() {
		meta := st.Meta()
		r.Page = &meta
	}
	return r
}

// figure formats whole numbers as counts and anything else as an amount.
func figure(f *kpi.Formatter, d decimal.Decimal) string {
	if d.IsInteger() {
		return f.Count(int(d.IntPart()))
	}
	return f.Amount(d)
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReports prints each report as a titled table.
func renderReports(w io.Writer, reports []levelReport, width int) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderReport(w, r, width); err != nil {
			return err
		}
	}
	return nil
}

func renderReport(w io.Writer, r levelReport, width int) error {
	crumbs := []string{r.Title}
	for _, s := range r.Path {
		crumbs = append(crumbs, s.Kind+":"+s.Key)
	}
	heading := strings.Join(crumbs, " › ") + fmt.Sprintf(" (%s by %s)", r.View, r.EntityKind)
	if _, err := fmt.Fprintln(w, heading); err != nil {
		return err
	}
	if r.Error != "" {
		_, err := fmt.Fprintf(w, "  error: %s\n", r.Error)
		return err
	}
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "  No rows match the current filters.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	header := append([]string{"CODE", "NAME"}, r.Columns...)
	for i := range header {
		header[i] = strings.ToUpper(header[i])
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range r.Rows {
		cells := append([]string{row.Key, truncate(row.Label, width/3)}, row.Values...)
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var footer []string
	if r.Page != nil {
		footer = append(footer, fmt.Sprintf("Page %d of %d · %d rows",
			r.Page.CurrentPage, max(r.Page.TotalPages, 1), r.Page.TotalItems))
	}
	if len(r.Totals) > 0 {
		names := make([]string, 0, len(r.Totals))
		for name := range r.Totals {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			footer = append(footer, name+" "+r.Totals[name])
		}
	}
	if len(footer) > 0 {
		_, err := fmt.Fprintln(w, strings.Join(footer, " · "))
		return err
	}
	return nil
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 1 || len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
