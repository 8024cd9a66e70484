package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the boqlca CLI.
// It loads configuration, wires up logging and tracing, and registers the
// estimate, catalog, serve and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "boqlca",
		Short:   "Bill-of-quantities life-cycle assessment",
		Long:    "boqlca: match bill-of-quantities rows to a material catalog and compute their environmental impacts",
		Version: ver,
		Example: rootCmdExample,
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
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $BOQLCA_HOME/config.yaml or ~/.boqlca/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding a .boqlca overlay")
	cmd.PersistentFlags().String("catalog", "", "catalog file or database, overrides the configured source")
	cmd.AddCommand(NewEstimateCmd(), newCatalogCmd(), NewServeCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Estimate impacts of an inventory against a catalog file
  boqlca estimate inventory.csv --catalog materials.yaml

  # Estimate, derive reinforcement for concrete rows and export the result
  boqlca estimate inventory.csv --reinforce --export result.csv

  # Import a YAML catalog into SQLite
  boqlca catalog import materials.yaml --to materials.db

  # Serve the HTTP API
  boqlca serve --addr :8080

  # Initialize configuration
  boqlca config init`

// loadConfig resolves the project directory, loads the configuration with
// its overlay and applies CLI overrides. The result becomes the global config.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	projectFlag, _ := cmd.Flags().GetString("project-dir")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	ctx := cmd.Context()
	config.SetResolvedProjectDir(config.ResolveProjectDir(ctx, projectFlag, cwd))

	cfg, err := config.LoadWithOverlay(ctx, path, projectFlag, cwd)
	if err != nil {
		return err
	}

	if catalogPath, _ := cmd.Flags().GetString("catalog"); catalogPath != "" {
		cfg.Catalog.Path = catalogPath
		cfg.Catalog.Source = config.InferCatalogSource(catalogPath)
	}

	config.SetGlobalConfig(cfg)
	return nil
}

// newCatalogCmd creates the catalog command group.
func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Material catalog commands"}
	cmd.AddCommand(NewCatalogShowCmd(), NewCatalogImportCmd(), NewCatalogCacheClearCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
