package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/freightdash/internal/config"
	"github.com/rshade/freightdash/internal/logging"
)

// annotationTUI marks commands that take over the terminal. Their logs go to
// a file unless --debug is set.
const annotationTUI = "freightdash/tui"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or fallback when it is not a
// terminal.
func terminalWidth(fallback int) int {
	if !isTerminal(os.Stdout) {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the freightdash CLI.
// It loads configuration, wires up logging and tracing, and registers the
// dashboard, drill, summary, modules and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "freightdash",
		Short:         "Freight-forwarding KPI dashboard",
		Long:          "freightdash: drill through outstanding, budget, enquiry, call-entry and churn KPIs",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default: ~/.freightdash/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "", "project-local .freightdash directory")
	cmd.AddCommand(
		newDashboardCmd(),
		newDrillCmd(),
		newSummaryCmd(),
		newModulesCmd(),
		newConfigCmd(),
	)

	return cmd
}

// loadConfig resolves the configuration for this invocation and makes it the
// process config. An explicit --config must load cleanly; otherwise the user
// file and any project overlay are used.
func loadConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		config.SetGlobalConfig(cfg)
		return nil
	}

	flagDir, _ := cmd.Flags().GetString("project-dir")
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	projectDir := config.ResolveProjectDir(ctx, flagDir, wd)
	config.SetGlobalConfig(config.NewWithProjectDir(ctx, projectDir))
	return nil
}

const rootCmdExample = `  # Open the dashboard on the demo dataset
  freightdash dashboard

  # Open the budget module in the detail view
  freightdash dashboard --module budget --view detail

  # Pick up where the last dashboard session left off
  freightdash dashboard --resume

  # Print one drill level
  freightdash drill outstanding --path ACME/BOM

  # Print the top level of every module as JSON
  freightdash summary --output json

  # Initialize configuration
  freightdash config init`
