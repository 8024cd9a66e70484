package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/export"
	"github.com/rshade/boqlca/internal/greenops"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
)

// EstimateParams holds the parameters for the estimate command execution.
// Exported for testing.
type EstimateParams struct {
	InputPath string
	Output    string
	Delimiter string

	Reinforce bool
	KgPerM3   float64
	PerArea   bool
	Groups    bool

	ExportPath string
	Rates      bool
	Locale     string
}

// NewEstimateCmd creates the "estimate" command: load an inventory, match
// it against the catalog and print impacts per row with totals.
//
// Returns:
//   - *cobra.Command: The configured estimate command
func NewEstimateCmd() *cobra.Command {
	var params EstimateParams

	cmd := &cobra.Command{
		Use:   "estimate <inventory>",
		Short: "Estimate environmental impacts of a bill of quantities",
		Long: `Loads an inventory (CSV or JSON), matches every row to the material catalog,
and prints mass, GWP, burden and energy per row with totals.

Rows measured in m2 are area rows: they are never matched and provide the
denominator for per-area figures of other rows of the same element.`,
		Example: `  # Table output with the configured catalog
  boqlca estimate inventory.csv

  # JSON output, reinforcement derived at 120 kg/m3
  boqlca estimate inventory.csv --output json --reinforce --kg-per-m3 120

  # Export the enriched inventory with per-kg rates
  boqlca estimate inventory.csv --export result.csv --rates`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.InputPath = args[0]
			return executeEstimate(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.Output, "output", "", "Output format (table, json); default from config")
	cmd.Flags().StringVar(&params.Delimiter, "delimiter", "", "Input delimiter (single character or tab); detected when empty")
	cmd.Flags().BoolVar(&params.Reinforce, "reinforce", false, "Derive reinforcement steel rows for every m3 row")
	cmd.Flags().Float64Var(&params.KgPerM3, "kg-per-m3", 0, "Reinforcement ratio in kg per m3; default from config")
	cmd.Flags().BoolVar(&params.PerArea, "per-area", false, "Show figures per m2 for rows with an area")
	cmd.Flags().BoolVar(&params.Groups, "groups", false, "Also print totals per element and material")
	cmd.Flags().StringVar(&params.ExportPath, "export", "", "Write the enriched inventory as CSV to this file")
	cmd.Flags().BoolVar(&params.Rates, "rates", false, "Include per-kg rate columns in the export")
	cmd.Flags().StringVar(&params.Locale, "locale", "", "Number formatting locale (e.g. de-CH); default from config")

	return cmd
}

// estimateReport is the JSON output of the estimate command.
type estimateReport struct {
	Rows          []engine.WorkingRow `json:"rows"`
	Displays      []engine.Display    `json:"displays"`
	Groups        []engine.Group      `json:"groups,omitempty"`
	Totals        impact.Result       `json:"totals"`
	Equivalencies *greenops.Summary   `json:"equivalencies,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
}

func executeEstimate(cmd *cobra.Command, params EstimateParams) error {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()

	output := params.Output
	if output == "" {
		output = cfg.Output.DefaultFormat
	}
	if output != config.FormatTable && output != config.FormatJSON {
		return fmt.Errorf("unsupported output format %q (must be %s or %s)", output, config.FormatTable, config.FormatJSON)
	}

	delimiter := cfg.Input.Delimiter
	if cmd.Flags().Changed("delimiter") {
		delimiter = params.Delimiter
	}
	delim, err := config.ParseDelimiter(delimiter)
	if err != nil {
		return err
	}

	rows, err := inventory.LoadFile(ctx, params.InputPath, cfg.Input.Mapping, delim)
	if err != nil {
		return fmt.Errorf("loading inventory: %w", err)
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	sess := engine.NewSession(b.Lookup, sessionOptions(cfg)...)
	if _, err := sess.Ingest(ctx, rows); err != nil {
		return fmt.Errorf("resolving inventory: %w", err)
	}

	if params.Reinforce {
		kg := cfg.Reinforcement.KgPerM3
		if params.KgPerM3 > 0 {
			kg = params.KgPerM3
		}
		if err := deriveAllReinforcement(ctx, sess, kg); err != nil {
			if !errors.Is(err, engine.ErrReinforcementNotFound) {
				return err
			}
			cmd.PrintErrf("Warning: %v\n", err)
		}
	}
	if params.PerArea {
		if err := applyPerArea(sess); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if params.ExportPath != "" {
		g.Go(func() error {
			return writeExportFile(gctx, cfg, sess, params)
		})
	}
	g.Go(func() error {
		if output == config.FormatJSON {
			return renderEstimateJSON(cmd.OutOrStdout(), sess, params.Groups)
		}
		return renderEstimateTable(cmd.OutOrStdout(), cfg, sess, params)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if params.ExportPath != "" {
		cmd.PrintErrf("Exported %d rows to %s\n", sess.Len(), params.ExportPath)
	}
	return nil
}

// deriveAllReinforcement derives reinforcement for every m3 row that is not
// itself derived.
func deriveAllReinforcement(ctx context.Context, sess *engine.Session, kgPerM3 float64) error {
	var parents []engine.RowID
	for _, r := range sess.Rows() {
		if r.Unit == impact.UnitM3 && r.DerivedFrom == nil {
			parents = append(parents, r.ID)
		}
	}
	if len(parents) == 0 {
		return nil
	}
	created, err := sess.DeriveReinforcement(ctx, parents, kgPerM3)
	if err != nil {
		return err
	}
	logger.Debug().Ctx(ctx).Int("created_count", len(created)).Msg("reinforcement derived")
	return nil
}

// applyPerArea turns on per-area display for every row with an area.
func applyPerArea(sess *engine.Session) error {
	for _, r := range sess.Rows() {
		if r.Area != nil && *r.Area > 0 && !r.PerArea {
			if _, err := sess.ToggleArea(r.ID); err != nil {
				return fmt.Errorf("per-area display for row %s: %w", r.ID, err)
			}
		}
	}
	return nil
}

// exportOptions builds export options from configuration and flags.
func exportOptions(cfg *config.Config, rates bool) (export.Options, error) {
	opts := export.DefaultOptions()
	d, err := config.ParseDelimiter(cfg.Export.Delimiter)
	if err != nil {
		return opts, err
	}
	if d != 0 {
		opts.Delimiter = d
	}
	opts.IncludeRates = cfg.Export.IncludeRates || rates
	opts.Mapping = cfg.Input.Mapping
	return opts, nil
}

func writeExportFile(ctx context.Context, cfg *config.Config, sess *engine.Session, params EstimateParams) (err error) {
	opts, err := exportOptions(cfg, params.Rates)
	if err != nil {
		return err
	}
	f, err := os.Create(params.ExportPath)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing export file: %w", cerr)
		}
	}()
	return export.WriteSession(ctx, f, sess, nil, opts)
}

func renderEstimateJSON(w io.Writer, sess *engine.Session, groups bool) error {
	totals, err := export.SessionTotals(sess)
	if err != nil {
		return err
	}
	report := estimateReport{
		Rows:     sess.Rows(),
		Displays: sess.Displays(),
		Totals:   totals,
		Warnings: sess.Warnings(),
	}
	if groups {
		report.Groups = sess.Groups()
	}
	if summary, err := greenops.Summarize(report.Totals.GWP); err == nil && !summary.IsEmpty {
		report.Equivalencies = &summary
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderEstimateTable(w io.Writer, cfg *config.Config, sess *engine.Session, params EstimateParams) error {
	locale := cfg.Output.Locale
	if params.Locale != "" {
		locale = params.Locale
	}
	f, err := greenops.NewFormatter(locale)
	if err != nil {
		return err
	}
	o := renderOptions{Precision: cfg.Output.Precision, CarbonUnit: cfg.Output.CarbonUnit, Formatter: f}

	if err := renderRows(w, sess.Rows(), sess.Displays(), o); err != nil {
		return err
	}
	if params.Groups {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := renderGroups(w, sess.Groups(), o); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	totals, err := export.SessionTotals(sess)
	if err != nil {
		return err
	}
	summary, err := greenops.Summarize(totals.GWP)
	if err != nil {
		summary = greenops.Summary{IsEmpty: true}
	}
	return renderTotals(w, totals, summary, sess.Warnings(), o)
}
