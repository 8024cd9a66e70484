package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/greenops"
	"github.com/rshade/boqlca/internal/impact"
)

// Table layout.
const (
	tabwriterPadding = 2
	maxCellWidth     = 40
	truncateMinLen   = 3
	defaultBoxWidth  = 72
	boxPaddingWidth  = 4
	minBoxWidth      = 40
)

// boxBorderColor returns the lipgloss.Color used for summary box borders.
func boxBorderColor() lipgloss.Color { return lipgloss.Color("240") }

// boxTitleColor returns the lipgloss.Color used for summary box titles.
func boxTitleColor() lipgloss.Color { return lipgloss.Color("39") }

// colorWarning returns the lipgloss color used for session warnings.
func colorWarning() lipgloss.Color { return lipgloss.Color("214") }

// renderOptions controls number formatting in tables.
type renderOptions struct {
	Precision  int
	CarbonUnit string
	Formatter  *greenops.Formatter
}

func (o renderOptions) num(v float64) string {
	return o.Formatter.Float(v, o.Precision)
}

// carbon converts a kg CO2-eq figure to the configured unit.
func (o renderOptions) carbon(kg float64) string {
	v, err := greenops.FromKg(kg, o.CarbonUnit)
	if err != nil {
		v = kg
	}
	return o.num(v)
}

func (o renderOptions) carbonHeader() string {
	unit := o.CarbonUnit
	if !greenops.IsRecognizedUnit(unit) {
		unit = "kg"
	}
	return "GWP(" + unit + "CO2e)"
}

// renderRows writes one line per row with the figures shown for it.
func renderRows(w io.Writer, rows []engine.WorkingRow, displays []engine.Display, o renderOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	if _, err := fmt.Fprintf(tw, "ELEMENT\tMATERIAL\tQTY\tUNIT\tMATCHED\tSCORE\tMASS(kg)\t%s\tBURDEN\tENERGY(MJ)\n",
		o.carbonHeader()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range rows {
		d := displays[i]
		matched := r.MatchedEntryName
		if d.PerArea {
			matched += " (per m²)"
		}
		if r.DerivedFrom != nil {
			matched = "↳ " + matched
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r.Element, maxCellWidth),
			truncate(r.MaterialLabel, maxCellWidth),
			o.num(r.Quantity),
			r.Unit,
			truncate(matched, maxCellWidth),
			score(r.MatchScore),
			o.num(d.MassKg),
			o.carbon(d.GWP),
			o.num(d.Burden),
			o.num(d.Energy),
		); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}
	return tw.Flush()
}

// renderGroups writes the (element, material) aggregation.
func renderGroups(w io.Writer, groups []engine.Group, o renderOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	if _, err := fmt.Fprintf(tw, "ELEMENT\tMATERIAL\tROWS\tQTY\tMASS(kg)\t%s\tBURDEN\tENERGY(MJ)\n",
		o.carbonHeader()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			truncate(g.Element, maxCellWidth),
			truncate(g.MaterialLabel, maxCellWidth),
			len(g.RowIDs),
			o.num(g.Quantity),
			o.num(g.MassKg),
			o.carbon(g.GWP),
			o.num(g.Burden),
			o.num(g.Energy),
		); err != nil {
			return fmt.Errorf("writing group %s/%s: %w", g.Element, g.MaterialLabel, err)
		}
	}
	return tw.Flush()
}

// renderTotals writes the totals, equivalencies and warnings. A terminal
// gets a bordered box; anything else plain text.
func renderTotals(w io.Writer, totals impact.Result, summary greenops.Summary, warnings []string, o renderOptions) error {
	lines := []string{
		"Mass: " + o.num(totals.MassKg) + " kg",
		"GWP: " + o.carbon(totals.GWP) + " " + o.CarbonUnit + " CO2-eq",
		"Burden: " + o.num(totals.Burden),
		"Energy: " + o.num(totals.Energy) + " MJ",
	}

	if isWriterTerminal(w) {
		return renderStyledTotals(w, lines, summary, warnings)
	}

	if _, err := fmt.Fprintln(w, "TOTALS"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "======"); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	if !summary.IsEmpty {
		if _, err := fmt.Fprintln(w, summary.DisplayText); err != nil {
			return err
		}
	}
	for _, msg := range warnings {
		if _, err := fmt.Fprintf(w, "Warning: %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

func renderStyledTotals(w io.Writer, lines []string, summary greenops.Summary, warnings []string) error {
	boxWidth := calculateBoxWidth(getTerminalWidth(w))

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(boxTitleColor())
	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(boxBorderColor()).
		Padding(0, 1).
		Width(boxWidth)

	var content strings.Builder
	content.WriteString(titleStyle.Render("TOTALS"))
	content.WriteString("\n")
	content.WriteString(strings.Repeat("─", boxWidth-boxPaddingWidth))
	content.WriteString("\n")
	content.WriteString(strings.Join(lines, "\n"))

	if !summary.IsEmpty {
		content.WriteString("\n\n")
		content.WriteString(lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246")).Render(summary.DisplayText))
	}
	if len(warnings) > 0 {
		warnStyle := lipgloss.NewStyle().Foreground(colorWarning())
		for _, msg := range warnings {
			content.WriteString("\n")
			content.WriteString(warnStyle.Render("⚠ " + msg))
		}
	}

	_, err := fmt.Fprintln(w, borderStyle.Render(content.String()))
	return err
}

// isWriterTerminal reports whether w is an *os.File attached to a terminal.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

// getTerminalWidth returns the width of the terminal behind w, or a
// fallback when it cannot be determined.
func getTerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		width, _, err := term.GetSize(int(f.Fd()))
		if err == nil && width > 0 {
			return width
		}
	}
	return defaultBoxWidth + boxPaddingWidth
}

func calculateBoxWidth(termWidth int) int {
	width := termWidth - boxPaddingWidth
	if width > defaultBoxWidth {
		width = defaultBoxWidth
	}
	if width < minBoxWidth {
		width = minBoxWidth
	}
	return width
}

func score(s *float64) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *s)
}

// truncate shortens s to maxLen runes, ending with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= truncateMinLen {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-truncateMinLen]) + "..."
}
