package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/freightdash/internal/cache"
	"github.com/rshade/freightdash/internal/config"
	"github.com/rshade/freightdash/internal/nav"
	"github.com/rshade/freightdash/internal/tui"
	"github.com/rshade/freightdash/internal/view"
)

// runProgram runs a Bubble Tea program to completion and returns its final model.
//
//nolint:gochecknoglobals // Replaced in tests; a real program needs a terminal.
var runProgram = func(ctx context.Context, m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
}

type dashboardOptions struct {
	module string
	view   string
	resume bool
}

func newDashboardCmd() *cobra.Command {
	var opts dashboardOptions

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive KPI dashboard",
		Long: `Opens the interactive dashboard with one tab per KPI module.

Every tab has a summary chart and a detail table that drill through the same
hierarchy. The position on exit is saved and can be picked up with --resume.`,
		Example: `  # Open the default module
  freightdash dashboard

  # Open the churn module in the table view
  freightdash dashboard --module churn --view detail

  # Continue from the last session
  freightdash dashboard --resume`,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.module, "module", "", "module to open (default from config)")
	cmd.Flags().StringVar(&opts.view, "view", "", "summary or detail (default from config)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "restore the position saved by the last session")

	return cmd
}

func runDashboard(cmd *cobra.Command, opts dashboardOptions) error {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()

	rt, err := newDeps(cfg)
	if err != nil {
		return err
	}

	sessions, err := sessionBridge(cfg)
	if err != nil {
		return err
	}

	var resume *nav.Snapshot
	if opts.resume {
		resume, err = sessions.ConsumeOnReturn(ctx)
		if err != nil {
			cmd.PrintErrf("Warning: saved session ignored: %v\n", err)
		}
	}

	module := opts.module
	if module == "" {
		module = cfg.Dashboard.DefaultModule
	}
	mode := view.ParseMode(cfg.Dashboard.DefaultView)
	if opts.view != "" {
		mode = view.ParseMode(opts.view)
	}

	ch := nav.NewMemoryChannel(tui.RouteDashboard)
	dashboard, err := tui.NewDashboardModel(ctx, tui.DashboardConfig{
		Registry:  rt.registry,
		Views:     rt.views(cfg.Dashboard.PageSize),
		Catalog:   rt.catalog,
		Formatter: rt.formatter,
		Bridge:    nav.NewBridge(ch),
		Module:    module,
		Mode:      mode,
		Resume:    resume,
	})
	if err != nil {
		return err
	}

	final, err := runProgram(ctx, tui.NewAppModel(ctx, ch, dashboard))
	if err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}

	app, ok := final.(tui.AppModel)
	if !ok {
		return nil
	}
	if err = sessions.Attach(ctx, tui.RouteDashboard, app.Dashboard().Snapshot(), nil); err != nil {
		logger.Warn().Ctx(ctx).Err(err).Msg("could not save dashboard session")
	}
	return nil
}

// sessionBridge persists the dashboard position between runs.
func sessionBridge(cfg *config.Config) (*nav.Bridge, error) {
	ttl, err := cfg.Navigation.SnapshotDuration()
	if err != nil {
		return nil, fmt.Errorf("navigation.snapshot_ttl: %w", err)
	}
	store, err := cache.NewFileStore(cfg.Navigation.StateDirectory(), ttl)
	if err != nil {
		return nil, fmt.Errorf("opening navigation state: %w", err)
	}
	return nav.NewBridge(nav.NewFileChannel(store, tui.RouteDashboard)), nil
}
