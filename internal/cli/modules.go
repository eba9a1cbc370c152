package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
)

// moduleInfo describes one registered module.
type moduleInfo struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Summary      []string `json:"summary"`
	Detail       []string `json:"detail"`
	DeriveParent bool     `json:"derive_parent,omitempty"`
}

func newModulesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the KPI modules and their drill hierarchies",
		Example: `  freightdash modules
  freightdash modules --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			infos := describeModules(kpi.NewRegistry())
			if output == outputJSON {
				return renderJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSUMMARY\tDETAIL")
			for _, m := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					m.ID, m.Title, strings.Join(m.Summary, " › "), strings.Join(m.Detail, " › "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func describeModules(reg *drill.Registry) []moduleInfo {
	mods := reg.Modules()
	infos := make([]moduleInfo, len(mods))
	for i, m := range mods {
		detail := m.SchemaFor(drill.ViewDetail)
		infos[i] = moduleInfo{
			ID:           m.ID,
			Title:        m.Title,
			Summary:      m.Summary.Kinds(),
			Detail:       detail.Kinds(),
			DeriveParent: m.Summary.DeriveParent || detail.DeriveParent,
		}
	}
	return infos
}
