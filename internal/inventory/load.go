package inventory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rshade/boqlca/internal/logging"
)

const utf8BOM = "\ufeff"

// Mapping names the source column for each item field. Matching is
// case-insensitive. An empty name leaves the field to its default.
type Mapping struct {
	Element  string `json:"element" yaml:"element"`
	Material string `json:"material" yaml:"material"`
	Quantity string `json:"quantity" yaml:"quantity"`
	Unit     string `json:"unit" yaml:"unit"`
}

// DefaultMapping maps each field to a column of the same name.
func DefaultMapping() Mapping {
	return Mapping{Element: "element", Material: "material", Quantity: "quantity", Unit: "unit"}
}

func (m Mapping) columns() []string {
	var out []string
	for _, c := range []string{m.Element, m.Material, m.Quantity, m.Unit} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (m Mapping) item(rec Record) Item {
	get := func(col string) string {
		if col == "" {
			return ""
		}
		for i, h := range rec.Headers {
			if strings.EqualFold(strings.TrimSpace(h), col) && i < len(rec.Values) {
				return rec.Values[i]
			}
		}
		return ""
	}
	return NewItem(get(m.Element), get(m.Material), ParseQuantity(get(m.Quantity)), get(m.Unit))
}

// LoadFile reads an inventory from path, choosing the loader by extension:
// .json for JSON, .csv, .tsv and .txt for delimited text. A zero delimiter
// is detected from the header line.
func LoadFile(ctx context.Context, path string, m Mapping, delimiter rune) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(ctx, f, m)
	case ".tsv":
		if delimiter == 0 {
			delimiter = '\t'
		}
		return ReadCSV(ctx, f, m, delimiter)
	case ".csv", ".txt":
		return ReadCSV(ctx, f, m, delimiter)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV parses delimited text with a header row. Every column named by m
// must be present in the header, otherwise ErrInvalidShape is returned.
func ReadCSV(ctx context.Context, r io.Reader, m Mapping, delimiter rune) ([]Row, error) {
	log := logging.FromContext(ctx)

	br := bufio.NewReader(r)
	if bom, _ := br.Peek(len(utf8BOM)); string(bom) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	if delimiter == 0 {
		head, _ := br.Peek(4096)
		delimiter = DetectDelimiter(firstLine(head))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidShape)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if err := requireColumns(headers, m); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for _, values := range records[1:] {
		if blank(values) {
			continue
		}
		rec := Record{Headers: append([]string(nil), headers...), Values: pad(values, len(headers))}
		rows = append(rows, Row{Item: m.item(rec), Record: rec})
	}

	log.Debug().
		Str("component", "inventory").
		Str("operation", "read_csv").
		Str("delimiter", string(delimiter)).
		Int("row_count", len(rows)).
		Msg("inventory parsed")

	return rows, nil
}

// ReadJSON parses a JSON array of flat objects. Key order within each object
// is preserved in the resulting Record. Anything other than an array of
// objects is ErrInvalidShape; missing keys are defaulted.
func ReadJSON(ctx context.Context, r io.Reader, m Mapping) ([]Row, error) {
	log := logging.FromContext(ctx)

	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var rows []Row
	for dec.More() {
		rec, err := readObject(dec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Item: m.item(rec), Record: rec})
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	log.Debug().
		Str("component", "inventory").
		Str("operation", "read_json").
		Int("row_count", len(rows)).
		Msg("inventory parsed")

	return rows, nil
}

// DetectDelimiter picks the most frequent of ';', ',' and tab in the header
// line. Ties go to ';'; a line with none of them is comma-separated.
func DetectDelimiter(line string) rune {
	best, bestCount := ';', strings.Count(line, ";")
	for _, d := range []rune{',', '\t'} {
		if c := strings.Count(line, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	if bestCount == 0 {
		return ','
	}
	return best
}

func readObject(dec *json.Decoder) (Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Record{}, err
	}
	var rec Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrInvalidShape, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Record{}, fmt.Errorf("%w: unexpected token %v", ErrInvalidShape, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrInvalidShape, err)
		}
		rec.Headers = append(rec.Headers, key)
		rec.Values = append(rec.Values, cellString(raw))
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected end of input", ErrInvalidShape)
		}
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidShape, want, tok)
	}
	return nil
}

func cellString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, string(raw) == "null":
		return ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func requireColumns(headers []string, m Mapping) error {
	var missing []string
	for _, col := range m.columns() {
		found := false
		for _, h := range headers {
			if strings.EqualFold(h, col) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrInvalidShape, strings.Join(missing, ", "))
	}
	return nil
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func blank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pad(values []string, n int) []string {
	out := make([]string, n)
	copy(out, values)
	return out
}
