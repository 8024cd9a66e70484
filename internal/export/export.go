// Package export writes working rows as a delimited table that spreadsheet
// tools open directly: UTF-8 with a byte-order mark, the uploaded columns in
// their original order, then the computed ones.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
)

const bom = "\ufeff"

// DefaultDelimiter is the field separator used when none is configured.
const DefaultDelimiter = ';'

// Computed column headers.
const (
	ColumnMatched     = "Matched material"
	ColumnGWP         = "GWP total"
	ColumnBurden      = "Burden total"
	ColumnEnergy      = "Energy total"
	ColumnGWPPerKg    = "GWP per kg"
	ColumnBurdenPerKg = "Burden per kg"
	ColumnEnergyPerKg = "Energy per kg"
)

const (
	totalsDecimals = 2
	fullPrecision  = -1
)

// Options controls the table layout.
type Options struct {
	// Delimiter separates fields. Zero means DefaultDelimiter.
	Delimiter rune

	// IncludeRates appends the matched entry's per-kg coefficients.
	IncludeRates bool

	// Mapping tells which original columns hold the item fields, so rows
	// without an original record (derived rows) can still fill them.
	Mapping inventory.Mapping
}

// DefaultOptions returns the semicolon layout without rates.
func DefaultOptions() Options {
	return Options{Delimiter: DefaultDelimiter, Mapping: inventory.DefaultMapping()}
}

// Headers returns the column headers for rows: the union of the original
// headers in order of first appearance, or the mapped columns when no row
// has a record, followed by the computed columns.
func Headers(rows []engine.RowRecord, opts Options) []string {
	var headers []string
	seen := make(map[string]bool)
	for _, rr := range rows {
		if rr.Record == nil {
			continue
		}
		for _, h := range rr.Record.Headers {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	if len(headers) == 0 {
		for _, h := range []string{opts.Mapping.Element, opts.Mapping.Material, opts.Mapping.Quantity, opts.Mapping.Unit} {
			if h != "" && !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}

	headers = append(headers, ColumnMatched, ColumnGWP, ColumnBurden, ColumnEnergy)
	if opts.IncludeRates {
		headers = append(headers, ColumnGWPPerKg, ColumnBurdenPerKg, ColumnEnergyPerKg)
	}
	return headers
}

// Write writes rows to w in the order given.
//
// Parameters:
//   - ctx: context for cancellation and logging
//   - w: destination
//   - rows: a session snapshot, full or a subset
//   - opts: layout options
//
// Returns an error when ctx is cancelled or w fails.
func Write(ctx context.Context, w io.Writer, rows []engine.RowRecord, opts Options) error {
	log := logging.FromContext(ctx)
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}

	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing byte-order mark: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter
	cw.UseCRLF = true

	headers := Headers(rows, opts)
	original := headers[:len(headers)-computedColumns(opts)]
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rr := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(record(rr, original, opts)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}

	log.Debug().
		Str("component", "export").
		Str("operation", "write").
		Int("row_count", len(rows)).
		Int("column_count", len(headers)).
		Bool("rates", opts.IncludeRates).
		Msg("export written")
	return nil
}

// WriteSession exports the named rows of s, or every row when ids is empty.
func WriteSession(ctx context.Context, w io.Writer, s *engine.Session, ids []engine.RowID, opts Options) error {
	rows, err := s.Snapshot(ids...)
	if err != nil {
		return fmt.Errorf("selecting rows for export: %w", err)
	}
	return Write(ctx, w, rows, opts)
}

// ShownTotals sums the rows' mass and impacts after rounding each one to the
// precision written in the export, so re-aggregating an exported column
// gives back exactly these figures.
func ShownTotals(rows []engine.RowRecord) impact.Result {
	var t impact.Result
	for _, rr := range rows {
		t.MassKg += Round(rr.Row.MassKg)
		t.GWP += Round(rr.Row.GWP)
		t.Burden += Round(rr.Row.Burden)
		t.Energy += Round(rr.Row.Energy)
	}
	t.MassKg = Round(t.MassKg)
	t.GWP = Round(t.GWP)
	t.Burden = Round(t.Burden)
	t.Energy = Round(t.Energy)
	return t
}

// SessionTotals returns ShownTotals over every row of s. Callers that
// display totals use it so the figures match a later export.
func SessionTotals(s *engine.Session) (impact.Result, error) {
	rows, err := s.Snapshot()
	if err != nil {
		return impact.Result{}, fmt.Errorf("reading rows for totals: %w", err)
	}
	return ShownTotals(rows), nil
}

// Round rounds v half away from zero to two decimals.
func Round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

func computedColumns(opts Options) int {
	if opts.IncludeRates {
		return 7
	}
	return 4
}

func record(rr engine.RowRecord, original []string, opts Options) []string {
	out := make([]string, 0, len(original)+computedColumns(opts))
	for _, h := range original {
		if rr.Record != nil {
			out = append(out, rr.Record.Get(h))
			continue
		}
		out = append(out, itemValue(rr.Row.Item, h, opts.Mapping))
	}

	r := rr.Row
	out = append(out,
		r.MatchedEntryName,
		formatTotal(r.GWP),
		formatTotal(r.Burden),
		formatTotal(r.Energy),
	)
	if opts.IncludeRates {
		if r.MatchedEntry == nil {
			out = append(out, "", "", "")
		} else {
			e := r.MatchedEntry
			out = append(out, formatRate(e.GWP()), formatRate(e.Burden()), formatRate(e.Energy()))
		}
	}
	return out
}

// itemValue fills a mapped original column from an item.
func itemValue(it inventory.Item, header string, m inventory.Mapping) string {
	h := strings.TrimSpace(header)
	switch {
	case m.Element != "" && strings.EqualFold(h, m.Element):
		return it.Element
	case m.Material != "" && strings.EqualFold(h, m.Material):
		return it.MaterialLabel
	case m.Quantity != "" && strings.EqualFold(h, m.Quantity):
		return strconv.FormatFloat(it.Quantity, 'f', fullPrecision, 64)
	case m.Unit != "" && strings.EqualFold(h, m.Unit):
		return it.Unit.String()
	default:
		return ""
	}
}

func formatTotal(v float64) string {
	return strconv.FormatFloat(Round(v), 'f', totalsDecimals, 64)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', fullPrecision, 64)
}
