package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "small", n: 123, want: "123"},
		{name: "thousands", n: 18248, want: "18,248"},
		{name: "millions", n: 1234567, want: "1,234,567"},
		{name: "zero", n: 0, want: "0"},
		{name: "negative", n: -1234, want: "-1,234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.n))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		f         float64
		precision int
		want      string
	}{
		{name: "two decimals", f: 1234.567, precision: 2, want: "1,234.57"},
		{name: "pads decimals", f: 740.7, precision: 2, want: "740.70"},
		{name: "no decimals", f: 18248.4, precision: 0, want: "18,248"},
		{name: "negative", f: -1234.56, precision: 1, want: "-1,234.6"},
		{name: "tiny negative rounds to zero", f: -0.001, precision: 2, want: "0.00"},
		{name: "negative precision means zero", f: 12.7, precision: -1, want: "13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.f, tt.precision))
		})
	}
}

func TestFormatLarge(t *testing.T) {
	tests := []struct {
		name string
		n    float64
		want string
	}{
		{name: "below million", n: 999999, want: "999,999"},
		{name: "million", n: 1_500_000, want: "~1.5 million"},
		{name: "billion", n: 2_300_000_000, want: "~2.3 billion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLarge(tt.n))
		})
	}
}

func TestFormatter(t *testing.T) {
	en, err := NewFormatter("")
	require.NoError(t, err)
	assert.Equal(t, "en", en.Locale())
	assert.Equal(t, "1,234.57", en.Float(1234.567, 2))
	assert.Equal(t, "18,248", en.Number(18248))

	de, err := NewFormatter("de")
	require.NoError(t, err)
	assert.Equal(t, "de", de.Locale())
	assert.Equal(t, "1.234,57", de.Float(1234.567, 2))
	assert.Equal(t, "18.248", de.Number(18248))

	_, err = NewFormatter("not a locale!")
	assert.ErrorIs(t, err, ErrInvalidLocale)
}
