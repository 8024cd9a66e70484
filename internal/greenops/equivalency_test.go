package greenops

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name          string
		gwpKg         float64
		wantKm        float64
		wantSeedlings float64
		wantDays      float64
		wantEmpty     bool
		wantErr       error
	}{
		{
			name:          "slab of concrete",
			gwpKg:         741,
			wantKm:        6211.23,
			wantSeedlings: 12.35,
			wantDays:      40.49,
		},
		{
			name:          "exactly at threshold",
			gwpKg:         1,
			wantKm:        8.38,
			wantSeedlings: 0.0167,
			wantDays:      0.0546,
		},
		{name: "below threshold", gwpKg: 0.5, wantEmpty: true},
		{name: "zero", gwpKg: 0, wantEmpty: true},
		{name: "negative", gwpKg: -10, wantErr: ErrNegativeValue},
		{name: "NaN", gwpKg: math.NaN(), wantErr: ErrCalculationOverflow},
		{name: "infinite", gwpKg: math.Inf(1), wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.gwpKg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsEmpty)
				return
			}
			require.NoError(t, err)
			if tt.wantEmpty {
				assert.True(t, got.IsEmpty)
				assert.Empty(t, got.Equivalencies)
				assert.Empty(t, got.DisplayText)
				return
			}

			assert.False(t, got.IsEmpty)
			assert.InDelta(t, tt.gwpKg, got.GWPKg, 1e-12)
			require.Len(t, got.Equivalencies, 3)
			assert.Equal(t, EquivalencyKmDriven, got.Equivalencies[0].Type)
			assert.InDelta(t, tt.wantKm, got.Equivalencies[0].Value, tt.wantKm*0.01)
			assert.Equal(t, EquivalencyTreeSeedlings, got.Equivalencies[1].Type)
			assert.InDelta(t, tt.wantSeedlings, got.Equivalencies[1].Value, tt.wantSeedlings*0.01)
			assert.Equal(t, EquivalencyHomeDays, got.Equivalencies[2].Type)
			assert.InDelta(t, tt.wantDays, got.Equivalencies[2].Value, tt.wantDays*0.01)
		})
	}
}

func TestSummarize_Text(t *testing.T) {
	got, err := Summarize(741)
	require.NoError(t, err)

	assert.Equal(t, "6,211", got.Equivalencies[0].FormattedValue)
	assert.Equal(t,
		"Equivalent to driving ~6,211 km, the carbon absorbed by ~12 tree seedlings in ten years or ~40 days of household electricity",
		got.DisplayText)
	assert.Equal(t, "(≈ 6,211 km, 12 seedlings)", got.CompactText)
}

func TestSummarize_LargeTotalIsAbbreviated(t *testing.T) {
	got, err := Summarize(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, "~8.4 million", got.Equivalencies[0].FormattedValue)
}

func TestEquivalencyType_String(t *testing.T) {
	assert.Equal(t, "KmDriven", EquivalencyKmDriven.String())
	assert.Equal(t, "TreeSeedlings", EquivalencyTreeSeedlings.String())
	assert.Equal(t, "HomeDays", EquivalencyHomeDays.String())
	assert.Equal(t, "EquivalencyType(9)", EquivalencyType(9).String())

	text, err := EquivalencyHomeDays.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "HomeDays", string(text))
}

func TestUnits(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    string
		wantKg  float64
		wantErr error
	}{
		{name: "grams", value: 150000, unit: "g", wantKg: 150},
		{name: "kg co2e mixed case", value: 150, unit: "KgCO2e", wantKg: 150},
		{name: "tonnes", value: 0.15, unit: "t", wantKg: 150},
		{name: "pounds", value: 100, unit: "lb", wantKg: 45.3592},
		{name: "unknown unit", value: 1, unit: "oz", wantErr: ErrInvalidUnit},
		{name: "negative", value: -1, unit: "kg", wantErr: ErrNegativeValue},
		{name: "NaN", value: math.NaN(), unit: "kg", wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kg, err := NormalizeToKg(tt.value, tt.unit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantKg, kg, 1e-9)

			back, err := FromKg(kg, tt.unit)
			require.NoError(t, err)
			assert.InDelta(t, tt.value, back, 1e-9)
		})
	}

	assert.True(t, IsRecognizedUnit(" tCO2e "))
	assert.False(t, IsRecognizedUnit("kWh"))

	_, err := FromKg(1, "kWh")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestSummary_JSONDecode(t *testing.T) {
	summary, err := Summarize(1000)
	require.NoError(t, err)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"KmDriven"`)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Equivalencies, len(summary.Equivalencies))
	for i, eq := range summary.Equivalencies {
		assert.Equal(t, eq.Type, got.Equivalencies[i].Type)
	}
}

func TestEquivalencyType_UnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    EquivalencyType
		wantErr bool
	}{
		{name: "km driven", text: "KmDriven", want: EquivalencyKmDriven},
		{name: "seedlings", text: "TreeSeedlings", want: EquivalencyTreeSeedlings},
		{name: "home days", text: "HomeDays", want: EquivalencyHomeDays},
		{name: "unknown", text: "Flights", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got EquivalencyType
			err := got.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownEquivalency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
