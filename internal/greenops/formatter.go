package greenops

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with English thousand separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f with precision decimals and English thousand
// separators. Example: FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	return formatFloat(printer, f, precision)
}

// FormatLarge abbreviates values of a million or more as "~X.X million" or
// "~X.X billion". Smaller values are formatted by FormatNumber.
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}

// Formatter formats numbers for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a Formatter for a BCP 47 locale such as "de-CH". An
// empty locale means English.
func NewFormatter(locale string) (*Formatter, error) {
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
		}
		tag = parsed
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() string { return f.tag.String() }

// Float formats v with precision decimals in the formatter's locale.
func (f *Formatter) Float(v float64, precision int) string {
	return formatFloat(f.printer, v, precision)
}

// Number formats an integer in the formatter's locale.
func (f *Formatter) Number(n int64) string {
	return f.printer.Sprint(number.Decimal(n))
}

func formatFloat(p *message.Printer, v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	const base = 10
	scale := math.Pow(base, float64(precision))
	rounded := math.Round(v*scale) / scale
	if rounded == 0 {
		rounded = 0
	}
	return p.Sprint(number.Decimal(rounded, number.Scale(precision)))
}
