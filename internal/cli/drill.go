package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/freightdash/internal/config"
	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/pagination"
)

// defaultTableWidth is used when stdout is not a terminal.
const defaultTableWidth = 120

type drillOptions struct {
	path     string
	view     string
	page     int
	pageSize int
	sort     string
	output   string
	filters  filterFlags
}

func newDrillCmd() *cobra.Command {
	var opts drillOptions

	cmd := &cobra.Command{
		Use:   "drill <module>",
		Short: "Print one level of a module's hierarchy",
		Long: `Opens a module at the given drill path and prints the rows of that level.

The path lists the keys of the levels above the one to show, separated by
slashes. A path longer than the hierarchy is cut back to the deepest level
that can be drilled.`,
		Example: `  # Companies with outstanding receivables
  freightdash drill outstanding

  # Salespeople of ACME at Mumbai
  freightdash drill outstanding --path ACME/BOM

  # Budget by month for a salesperson, June 2024 only
  freightdash drill budget --view detail --path SP-001 --period 2024-06

  # Second page of churned customers, largest revenue first, as JSON
  freightdash drill churn --view detail --path ACME --page 2 --sort revenue:desc --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrill(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "drill path as key/key/...")
	cmd.Flags().StringVar(&opts.view, "view", drill.ViewSummary, "summary or detail")
	cmd.Flags().IntVar(&opts.page, "page", 0, "page of the detail table (default 1)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "rows per page (default from config)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort as field or field:asc|desc")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table or json")
	opts.filters.register(cmd)

	return cmd
}

func runDrill(cmd *cobra.Command, moduleID string, opts drillOptions) error {
	ctx := cmd.Context()
	if err := validateOutput(opts.output); err != nil {
		return err
	}
	if opts.view != drill.ViewSummary && opts.view != drill.ViewDetail {
		return fmt.Errorf("invalid view %q: use summary or detail", opts.view)
	}

	cfg := config.GetGlobalConfig()
	rt, err := newDeps(cfg)
	if err != nil {
		return err
	}
	mod, err := rt.registry.Module(moduleID)
	if err != nil {
		return err
	}

	filters, err := opts.filters.context(true)
	if err != nil {
		return err
	}
	page, err := opts.pageParams(cfg)
	if err != nil {
		return err
	}

	ctrlOpts := []drill.Option{drill.WithBackCache(rt.backCache, rt.catalog)}
	if page.Enabled() {
		ctrlOpts = append(ctrlOpts, drill.WithPageSize(page.PageSize))
	}
	ctrl := drill.NewController(mod.ID, opts.view, mod.SchemaFor(opts.view), rt.gateway, ctrlOpts...)

	req, res := ctrl.Restore(ctrl.Schema().Steps(splitPath(opts.path)), filters, page)
	if res.Truncated() {
		cmd.PrintErrf("Warning: path cut to %d of %d keys for the %s view\n", res.Restored, res.Requested, opts.view)
	}
	logger.Debug().Ctx(ctx).
		Str("module", mod.ID).
		Str("view", opts.view).
		Strs("path", ctrl.State().Path).
		Msg("drilling")

	if err = ctrl.Run(ctx, req); err != nil {
		return fmt.Errorf("fetching %s: %w", mod.Title, err)
	}

	report := newLevelReport(ctrl, mod.Title, rt.catalog, rt.formatter)
	if opts.output == outputJSON {
		return renderJSON(cmd.OutOrStdout(), report)
	}
	return renderReport(cmd.OutOrStdout(), report, terminalWidth(defaultTableWidth))
}

// pageParams turns the paging flags into params. Only the detail view pages.
func (o drillOptions) pageParams(cfg *config.Config) (pagination.Params, error) {
	if o.view != drill.ViewDetail {
		if o.page != 0 || o.pageSize != 0 || o.sort != "" {
			return pagination.Params{}, errors.New("--page, --page-size and --sort apply to the detail view")
		}
		return pagination.Params{}, nil
	}

	size := o.pageSize
	if size == 0 {
		size = cfg.Dashboard.PageSize
	}
	p := pagination.First(size).WithPage(max(o.page, pagination.DefaultPage))
	field, order, err := pagination.ParseSort(o.sort)
	if err != nil {
		return pagination.Params{}, err
	}
	p.SortField, p.SortOrder = field, order
	if err = p.Validate(); err != nil {
		return pagination.Params{}, err
	}
	return p, nil
}

func splitPath(s string) drill.Path {
	var p drill.Path
	for _, key := range strings.Split(s, "/") {
		if key = strings.TrimSpace(key); key != "" {
			p = append(p, key)
		}
	}
	return p
}
