package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/freightdash/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage freightdash configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd(), newConfigShowCmd())
	return cmd
}

// newConfigInitCmd creates the config init command. Inside a project (a
// .freightdash directory in the working tree, or --project-dir) it writes the
// project-local config with a .gitignore; otherwise the user config.
func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

Inside a project, creates $PROJECT/.freightdash/config.yaml with a .gitignore
so saved dashboard sessions stay out of version control. Use --global to
write ~/.freightdash/config.yaml even inside a project.`,
		Example: `  # Create project-local configuration (inside a project)
  freightdash config init

  # Create global configuration
  freightdash config init --global

  # Create configuration, overwriting existing
  freightdash config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flagDir, _ := cmd.Flags().GetString("project-dir")
			wd, err := os.Getwd()
			if err != nil {
				wd = "."
			}
			projectDir := config.ResolveProjectDir(cmd.Context(), flagDir, wd)
			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}
			return initConfigFile(cmd, config.DefaultPath(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "force global configuration init even inside a project")

	return cmd
}

// initProjectConfig creates projectDir/config.yaml and its .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}
	if err := initConfigFile(cmd, filepath.Join(projectDir, "config.yaml"), force); err != nil {
		return err
	}

	// Never overwrites an existing .gitignore.
	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	if created {
		cmd.Printf("Created .gitignore to protect user-specific data\n")
	}
	return nil
}

func initConfigFile(cmd *cobra.Command, path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	cmd.Printf("Configuration initialized at %s\n", path)
	return nil
}

func newConfigValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validates the effective configuration: durations, view names and page size,
and that the configured gateway or fixture dataset can be opened.`,
		Example: `  freightdash config validate
  freightdash config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			if _, err := newDeps(cfg); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			cmd.Printf("Configuration is valid\n")
			if verbose {
				source := cfg.Path()
				if source == "" {
					source = "(defaults)"
				}
				cmd.Printf("  Source:   %s\n", source)
				if cfg.Gateway.UsesFixtures() {
					cmd.Printf("  Gateway:  fixtures (%s)\n", cfg.Gateway.Fixtures)
				} else {
					cmd.Printf("  Gateway:  %s\n", cfg.Gateway.URL)
				}
				cmd.Printf("  Module:   %s (%s)\n", cfg.Dashboard.DefaultModule, cfg.Dashboard.DefaultView)
				cmd.Printf("  Sessions: %s\n", cfg.Navigation.StateDirectory())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *config.GetGlobalConfig()
			cfg.Gateway.Token = ""
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(&cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}
