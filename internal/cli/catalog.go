package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/config"
)

// NewCatalogShowCmd creates the "catalog show" command listing the entries
// of the configured catalog.
func NewCatalogShowCmd() *cobra.Command {
	var (
		output string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the entries of the configured catalog",
		Example: `  # List all entries
  boqlca catalog show --catalog materials.db

  # Entries whose name contains "steel", as JSON
  boqlca catalog show --filter steel --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if cfg.Catalog.Source == config.SourceRemote {
				return errors.New("catalog show needs a local catalog source (file, sqlite or postgres)")
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			snap, err := b.Provider.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading catalog: %w", err)
			}
			entries := filterEntries(snap.Entries, filter)

			if output == config.FormatJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if err := renderEntries(cmd.OutOrStdout(), entries); err != nil {
				return err
			}
			cmd.Printf("\n%d of %d entries (schema %s, %s)\n", len(entries), snap.Len(), snap.SchemaVersion, b.Provider.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", config.FormatTable, "Output format (table, json)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only entries whose name contains this text")

	return cmd
}

func filterEntries(entries []catalog.Entry, filter string) []catalog.Entry {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return entries
	}
	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), filter) {
			out = append(out, e)
		}
	}
	return out
}

func renderEntries(w io.Writer, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tDENSITY(kg/m3)\tGWP/kg\tBURDEN/kg\tENERGY/kg"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, truncate(e.Name, maxCellWidth),
			optional(e.Density), optional(e.GWPPerKg), optional(e.BurdenPerKg), optional(e.EnergyPerKg),
		); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.ID, err)
		}
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

// NewCatalogImportCmd creates the "catalog import" command converting a
// YAML or JSON catalog file into a SQLite table.
func NewCatalogImportCmd() *cobra.Command {
	var (
		to    string
		table string
	)

	cmd := &cobra.Command{
		Use:   "import <catalog-file>",
		Short: "Import a YAML or JSON catalog file into SQLite",
		Example: `  boqlca catalog import materials.yaml --to ~/.boqlca/materials.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := catalog.NewFileProvider(args[0]).Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if err := catalog.WriteSQLite(ctx, to, table, snap); err != nil {
				return fmt.Errorf("writing %s: %w", to, err)
			}
			cmd.Printf("Imported %d entries into %s (table %s)\n", snap.Len(), to, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "SQLite database to write (required)")
	cmd.Flags().StringVar(&table, "table", config.DefaultCatalogTable, "Table to replace")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// NewCatalogCacheClearCmd creates the "catalog clear-cache" command.
func NewCatalogCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the cached snapshot of the configured catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if cfg.Catalog.Source == config.SourceRemote {
				cmd.Println("Remote catalogs are not cached")
				return nil
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Cached.Invalidate(); err != nil {
				return fmt.Errorf("clearing catalog cache: %w", err)
			}
			cmd.Printf("Cleared cached snapshot of %s\n", b.Provider.Name())
			return nil
		},
	}
}
