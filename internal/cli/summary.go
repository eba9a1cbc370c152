package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/freightdash/internal/config"
	"github.com/rshade/freightdash/internal/drill"
)

type summaryOptions struct {
	output  string
	filters filterFlags
}

func newSummaryCmd() *cobra.Command {
	var opts summaryOptions

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the top level of every module",
		Long: `Fetches the first level of every module's summary view concurrently and
prints them one after another. A search term is broadcast to every module.`,
		Example: `  # Overview of all modules
  freightdash summary

  # Everything matching "globex" in June 2024
  freightdash summary --search globex --period 2024-06 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table or json")
	opts.filters.register(cmd)

	return cmd
}

func runSummary(cmd *cobra.Command, opts summaryOptions) error {
	ctx := cmd.Context()
	if err := validateOutput(opts.output); err != nil {
		return err
	}

	rt, err := newDeps(config.GetGlobalConfig())
	if err != nil {
		return err
	}
	filters, err := opts.filters.context(false)
	if err != nil {
		return err
	}

	modules := rt.registry.Modules()
	ctrls := make([]*drill.Controller, len(modules))
	reqs := make([]*drill.Request, len(modules))
	for i, m := range modules {
		ctrls[i] = drill.NewController(m.ID, drill.ViewSummary, m.Summary, rt.gateway,
			drill.WithFilters(filters), drill.WithBackCache(rt.backCache, rt.catalog))
	}
	issued := make(map[string]*drill.Request, len(modules))
	if opts.filters.search != "" {
		for _, r := range drill.NewSearchBroadcast(ctrls...).Set(opts.filters.search) {
			issued[r.Query.ModuleID] = r
		}
	}
	for i, c := range ctrls {
		if reqs[i] = issued[c.ModuleID()]; reqs[i] == nil {
			reqs[i] = c.Load()
		}
	}

	// Each goroutine owns one controller. A gateway failure stays on its
	// module's report; only cancellation stops the whole run.
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, c := range ctrls {
		g.Go(func() error {
			runErr := c.Run(gCtx, reqs[i])
			if runErr == nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn().Ctx(gCtx).Str("module", c.ModuleID()).Err(runErr).Msg("summary fetch failed")
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("loading summaries: %w", err)
	}

	reports := make([]levelReport, len(modules))
	failed := 0
	for i, m := range modules {
		reports[i] = newLevelReport(ctrls[i], m.Title, rt.catalog, rt.formatter)
		if reports[i].Error != "" {
			failed++
		}
	}

	if opts.output == outputJSON {
		err = renderJSON(cmd.OutOrStdout(), reports)
	} else {
		err = renderReports(cmd.OutOrStdout(), reports, terminalWidth(defaultTableWidth))
	}
	if err != nil {
		return err
	}
	switch {
	case failed == len(modules):
		return fmt.Errorf("all %d modules failed to load", failed)
	case failed > 0:
		return partialFailure(failed, len(modules))
	}
	return nil
}
