package outwriter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utilitySample = domain.RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 50}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"table", TableOut, false},
		{"JSON", JSONOut, false},
		{" json ", JSONOut, false},
		{"", TableOut, false},
		{"text", TableOut, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 104.285714, "104.29"},
		{"precision 0", 0, 104.285714, "104"},
		{"precision 4", 4, 104.285714, "104.2857"},
		{"negative value", 2, -40.567, "-40.57"},
		{"negative precision uses default", -1, 1.5, "1.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, createFormatter(tt.precision)(tt.value))
		})
	}
}

func TestNewEntry(t *testing.T) {
	ok := NewEntry("tap", utilitySample)
	require.NoError(t, ok.Err)
	require.NotNil(t, ok.Metrics)
	assert.Equal(t, domain.BalanceMoreBitter, ok.Metrics.Balance)

	bad := NewEntry("no chlorine", domain.RawSample{Sulfate: 10})
	require.ErrorIs(t, bad.Err, domain.ErrDivisionByZero)
	assert.Nil(t, bad.Metrics)

	assert.False(t, Failed([]Entry{ok}))
	assert.True(t, Failed([]Entry{ok, bad}))
}

func TestWriteEntries_Table(t *testing.T) {
	entries := []Entry{
		NewEntry("Richmond tap", utilitySample),
		NewEntry("Rain barrel", domain.RawSample{TotalHardness: 20, CaHardness: 24, TotalAlkalinity: 15, Sulfate: 5}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries, Options{Format: TableOut, Precision: 2}))

	out := buf.String()
	assert.Contains(t, out, "Richmond tap")
	assert.Contains(t, out, "80.00")
	assert.Contains(t, out, "104.29")
	assert.Contains(t, out, "183.00")
	assert.Contains(t, out, "2.00")
	assert.Contains(t, out, "More Bitter")
	assert.Contains(t, out, "chlorine")
	assert.Contains(t, out, "2 samples, 1 failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteEntries_TableWithColors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, []Entry{NewEntry("tap", utilitySample)}, Options{Format: TableOut, Precision: 1, UseColors: true}))

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "More Bitter")
}

func TestWriteEntries_JSON(t *testing.T) {
	entries := []Entry{
		NewEntry("tap", utilitySample),
		NewEntry("bad", domain.RawSample{Sulfate: 10}),
	}
	entries[0].Flags = []string{domain.FlagNegativeMeasurement}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries, Options{Format: JSONOut}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "tap", decoded[0]["name"])
	derived, ok := decoded[0]["derived"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "More Bitter", derived["balance"])
	assert.InDelta(t, 2.0, derived["sulfate_chlorine_ratio"], 0)
	assert.Equal(t, []any{domain.FlagNegativeMeasurement}, decoded[0]["flags"])
	assert.NotContains(t, decoded[0], "error")

	assert.NotContains(t, decoded[1], "derived")
	assert.Equal(t, domain.KindDivisionByZero, decoded[1]["error_kind"])
	assert.Contains(t, decoded[1]["error"], "chlorine")
}

func TestWriteBalanceTable(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBalanceTable(&buf, domain.DefaultBalanceTable(), Options{Format: TableOut}))

		out := buf.String()
		for _, th := range domain.DefaultBalanceTable().Thresholds() {
			assert.Contains(t, out, th.Label)
		}
		assert.Contains(t, out, "0.4")
		assert.Contains(t, out, "1.5")
		assert.Less(t, strings.Index(out, "Too Malty"), strings.Index(out, "Too Bitter"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBalanceTable(&buf, domain.DefaultBalanceTable(), Options{Format: JSONOut}))

		var thresholds []domain.BalanceThreshold
		require.NoError(t, json.Unmarshal(buf.Bytes(), &thresholds))
		assert.Equal(t, domain.DefaultBalanceTable().Thresholds(), thresholds)
	})
}

func TestPaletteBalance(t *testing.T) {
	plain := newPalette(false)
	for _, th := range domain.DefaultBalanceTable().Thresholds() {
		assert.Equal(t, th.Label, plain.balance(th.Label))
	}

	colored := newPalette(true)
	assert.NotEqual(t, domain.BalanceBalanced, colored.balance(domain.BalanceBalanced))
	assert.Contains(t, colored.balance(domain.BalanceTooMalty), domain.BalanceTooMalty)
	assert.Equal(t, "unknown", colored.balance("unknown"))
}
