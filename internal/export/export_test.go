package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/export"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/lookup"
)

const inputCSV = "Bauteil;Material;Menge;Einheit;Notiz\n" +
	"Wand;Concrete C30/37;2,5;m3;\"a;b \"\"x\"\"\"\n" +
	"Wand;Steel profile;3,333;kg;\n" +
	"Decke;Concrete C30/37;1;m3;slab\n"

var testMapping = inventory.Mapping{Element: "Bauteil", Material: "Material", Quantity: "Menge", Unit: "Einheit"}

func newSession(t *testing.T) *engine.Session {
	t.Helper()
	provider := catalog.NewStaticProvider(
		catalog.Entry{
			ID: "c1", Name: "Concrete C30/37",
			Density: catalog.Float(2400), GWPPerKg: catalog.Float(0.12345),
			BurdenPerKg: catalog.Float(150), EnergyPerKg: catalog.Float(0.9),
		},
		catalog.Entry{
			ID: "s1", Name: "Reinforcing steel",
			Density: catalog.Float(7850), GWPPerKg: catalog.Float(0.68),
			BurdenPerKg: catalog.Float(3300), EnergyPerKg: catalog.Float(13.1),
		},
		catalog.Entry{
			ID: "s2", Name: "Steel profile",
			Density: catalog.Float(7850), GWPPerKg: catalog.Float(0.68),
		},
	)
	s := engine.NewSession(lookup.NewLocal(provider, nil))

	rows, err := inventory.ReadCSV(context.Background(), strings.NewReader(inputCSV), testMapping, 0)
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), rows)
	require.NoError(t, err)
	return s
}

func options() export.Options {
	opts := export.DefaultOptions()
	opts.Mapping = testMapping
	return opts
}

// parse strips the byte-order mark and reads the exported table back.
func parse(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte("\ufeff")), "export starts with a byte-order mark")
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWrite_Layout(t *testing.T) {
	s := newSession(t)
	var buf bytes.Buffer
	require.NoError(t, export.WriteSession(context.Background(), &buf, s, nil, options()))

	assert.Contains(t, buf.String(), `"a;b ""x"""`, "delimiter and quotes are escaped")

	records := parse(t, buf.Bytes())
	require.Len(t, records, 4)
	assert.Equal(t, []string{
		"Bauteil", "Material", "Menge", "Einheit", "Notiz",
		"Matched material", "GWP total", "Burden total", "Energy total",
	}, records[0])
	assert.Equal(t, []string{
		"Wand", "Concrete C30/37", "2,5", "m3", `a;b "x"`,
		"Concrete C30/37", "740.70", "900000.00", "5400.00",
	}, records[1])
	assert.Equal(t, []string{
		"Wand", "Steel profile", "3,333", "kg", "",
		"Steel profile", "2.27", "0.00", "0.00",
	}, records[2])
	assert.Equal(t, "296.28", records[3][6])
}

func TestWrite_SubsetKeepsColumnsAndOrder(t *testing.T) {
	s := newSession(t)
	rows := s.Rows()
	require.Len(t, rows, 3)

	var full, subset bytes.Buffer
	require.NoError(t, export.WriteSession(context.Background(), &full, s, nil, options()))
	require.NoError(t, export.WriteSession(context.Background(), &subset, s,
		[]engine.RowID{rows[2].ID, rows[0].ID}, options()))

	fullRecords := parse(t, full.Bytes())
	subRecords := parse(t, subset.Bytes())
	require.Len(t, subRecords, 3)
	assert.Equal(t, fullRecords[0], subRecords[0])
	assert.Equal(t, fullRecords[1], subRecords[1], "working order, not selection order")
	assert.Equal(t, fullRecords[3], subRecords[2])
}

func TestWrite_UnknownRow(t *testing.T) {
	s := newSession(t)
	var buf bytes.Buffer
	err := export.WriteSession(context.Background(), &buf, s, []engine.RowID{"missing"}, options())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrRowNotFound))
	assert.Zero(t, buf.Len(), "nothing written for an invalid selection")
}

func TestWrite_DerivedRowFillsMappedColumns(t *testing.T) {
	s := newSession(t)
	parent := s.Rows()[0]
	derived, err := s.DeriveReinforcement(context.Background(), []engine.RowID{parent.ID}, 100)
	require.NoError(t, err)
	require.Len(t, derived, 1)

	var buf bytes.Buffer
	require.NoError(t, export.WriteSession(context.Background(), &buf, s, nil, options()))
	records := parse(t, buf.Bytes())
	require.Len(t, records, 5)

	assert.Equal(t, []string{
		"Wand", "Reinforcing steel", "250", "kg", "",
		"Reinforcing steel", "170.00", "825000.00", "3275.00",
	}, records[2])
}

func TestWrite_Rates(t *testing.T) {
	s := newSession(t)
	opts := options()
	opts.IncludeRates = true

	var buf bytes.Buffer
	require.NoError(t, export.WriteSession(context.Background(), &buf, s, nil, opts))
	records := parse(t, buf.Bytes())

	assert.Equal(t, []string{"GWP per kg", "Burden per kg", "Energy per kg"}, records[0][9:])
	assert.Equal(t, []string{"0.12345", "150", "0.9"}, records[1][9:])
	assert.Equal(t, []string{"0.68", "0", "0"}, records[2][9:])
}

func TestWrite_NoRecordsUsesMapping(t *testing.T) {
	rows := []engine.RowRecord{{Row: engine.WorkingRow{
		Item:             inventory.NewItem("Wall", "Brick", 12, "kg"),
		MatchedEntryName: engine.UnmatchedLabel,
	}}}

	var buf bytes.Buffer
	require.NoError(t, export.Write(context.Background(), &buf, rows, options()))
	records := parse(t, buf.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Bauteil", "Material", "Menge", "Einheit"}, records[0][:4])
	assert.Equal(t, []string{"Wall", "Brick", "12", "kg", "unmatched", "0.00", "0.00", "0.00"}, records[1])
}

func TestWrite_Cancelled(t *testing.T) {
	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := export.WriteSession(ctx, &buf, s, nil, options())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite_CustomDelimiter(t *testing.T) {
	s := newSession(t)
	opts := options()
	opts.Delimiter = '\t'

	var buf bytes.Buffer
	require.NoError(t, export.WriteSession(context.Background(), &buf, s, nil, opts))
	first := strings.SplitN(strings.TrimPrefix(buf.String(), "\ufeff"), "\r\n", 2)[0]
	assert.Equal(t, "Bauteil\tMaterial\tMenge\tEinheit\tNotiz\tMatched material\tGWP total\tBurden total\tEnergy total", first)
}

func TestRoundTripTotals(t *testing.T) {
	s := newSession(t)
	_, err := s.DeriveReinforcement(context.Background(), []engine.RowID{s.Rows()[2].ID}, 85.5)
	require.NoError(t, err)

	snapshot, err := s.Snapshot()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.Write(context.Background(), &buf, snapshot, options()))
	records := parse(t, buf.Bytes())

	col := map[string]int{}
	for i, h := range records[0] {
		col[h] = i
	}
	var gwp, burden, energy float64
	for _, rec := range records[1:] {
		gwp += mustFloat(t, rec[col[export.ColumnGWP]])
		burden += mustFloat(t, rec[col[export.ColumnBurden]])
		energy += mustFloat(t, rec[col[export.ColumnEnergy]])
	}

	shown := export.ShownTotals(snapshot)
	assert.Equal(t, shown.GWP, export.Round(gwp))
	assert.Equal(t, shown.Burden, export.Round(burden))
	assert.Equal(t, shown.Energy, export.Round(energy))

	fromSession, err := export.SessionTotals(s)
	require.NoError(t, err)
	assert.Equal(t, shown, fromSession)
}

func TestShownTotals_SubCentRows(t *testing.T) {
	gwp := 0.004
	rows := make([]engine.RowRecord, 3)
	for i := range rows {
		rows[i] = engine.RowRecord{Row: engine.WorkingRow{MassKg: 1, GWP: gwp}}
	}

	shown := export.ShownTotals(rows)

	assert.Equal(t, 3.0, shown.MassKg)
	assert.Zero(t, shown.GWP, "three rows exported as 0.00 must total 0.00")
}

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"rounds up", 1.236, 1.24},
		{"rounds down", 1.234, 1.23},
		{"negative", -1.236, -1.24},
		{"tiny positive is zero", 0.004, 0},
		{"tiny negative has no sign", -0.004, 0},
		{"whole", 42, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := export.Round(tt.in)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.NotEqual(t, "-0.00", strconv.FormatFloat(got, 'f', 2, 64))
		})
	}
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
