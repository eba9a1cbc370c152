package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/freightdash/internal/drill"
)

// filterFlags are the filter options shared by the non-interactive commands.
type filterFlags struct {
	from        string
	to          string
	period      string
	search      string
	assignments []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.period, "period", "", "reporting period, e.g. 2024-06")
	cmd.Flags().StringVar(&f.search, "search", "", "search term applied to every level")
	cmd.Flags().StringArrayVar(&f.assignments, "filter", nil, "extra filter as name=value (repeatable)")
}

// context builds the filter context. The search term is left out when
// withSearch is false so the caller can broadcast it instead.
func (f *filterFlags) context(withSearch bool) (drill.FilterContext, error) {
	var fc drill.FilterContext
	named := []struct{ key, value string }{
		{"date_from", f.from},
		{"date_to", f.to},
		{"period", f.period},
	}
	if withSearch {
		named = append(named, struct{ key, value string }{"search", f.search})
	}

	var err error
	for _, n := range named {
		if n.value == "" {
			continue
		}
		if fc, err = fc.Set(n.key, n.value); err != nil {
			return drill.FilterContext{}, err
		}
	}
	for _, a := range f.assignments {
		if fc, err = fc.ParseAssignments(a); err != nil {
			return drill.FilterContext{}, err
		}
	}
	return fc, nil
}
