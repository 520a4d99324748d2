package domain

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatTolerance = 1e-9

func TestComputeMetrics(t *testing.T) {
	t.Run("typical utility water", func(t *testing.T) {
		m, err := ComputeMetrics(RawSample{
			TotalHardness:   200,
			CaHardness:      120,
			TotalAlkalinity: 150,
			Sulfate:         100,
			Chlorine:        50,
		})

		require.NoError(t, err)
		assert.Equal(t, 80.0, m.MgHardness)
		assert.InDelta(t, 104.2857, m.ResAlkalinity, 1e-4)
		assert.InDelta(t, 150-(120/3.5+80/7.0), m.ResAlkalinity, floatTolerance)
		assert.InDelta(t, 48.0, m.Calcium, floatTolerance)
		assert.Equal(t, 20.0, m.Magnesium)
		assert.InDelta(t, 183.0, m.Bicarbonate, floatTolerance)
		assert.Equal(t, 2.0, m.SulfateChlorineRatio)
		assert.Equal(t, BalanceMoreBitter, m.Balance)
	})

	t.Run("no sulfate", func(t *testing.T) {
		m, err := ComputeMetrics(RawSample{
			TotalHardness:   100,
			CaHardness:      100,
			TotalAlkalinity: 100,
			Sulfate:         0,
			Chlorine:        50,
		})

		require.NoError(t, err)
		assert.Equal(t, 0.0, m.MgHardness)
		assert.Equal(t, 0.0, m.Magnesium)
		assert.Equal(t, 0.0, m.SulfateChlorineRatio)
		assert.Equal(t, BalanceTooMalty, m.Balance)
	})

	t.Run("very high ratio is still classified", func(t *testing.T) {
		m, err := ComputeMetrics(RawSample{TotalHardness: 50, CaHardness: 30, TotalAlkalinity: 40, Sulfate: 1000, Chlorine: 1})

		require.NoError(t, err)
		assert.Equal(t, 1000.0, m.SulfateChlorineRatio)
		assert.Equal(t, BalanceTooBitter, m.Balance)
	})

	t.Run("calcium above total is computed as-is", func(t *testing.T) {
		m, err := ComputeMetrics(RawSample{TotalHardness: 100, CaHardness: 140, TotalAlkalinity: 80, Sulfate: 30, Chlorine: 30})

		require.NoError(t, err)
		assert.Equal(t, -40.0, m.MgHardness)
		assert.Equal(t, -10.0, m.Magnesium)
		assert.Equal(t, BalanceBalanced, m.Balance)
	})

	t.Run("zero chlorine", func(t *testing.T) {
		_, err := ComputeMetrics(RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 0})

		require.ErrorIs(t, err, ErrDivisionByZero)
		assert.Contains(t, err.Error(), "chlorine")
		assert.Equal(t, KindDivisionByZero, ErrorKind(err))
	})

	t.Run("zero chlorine and zero sulfate", func(t *testing.T) {
		_, err := ComputeMetrics(RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150})
		require.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("negative zero chlorine", func(t *testing.T) {
		_, err := ComputeMetrics(RawSample{Sulfate: 10, Chlorine: math.Copysign(0, -1)})
		require.ErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestComputeMetrics_NonFinite(t *testing.T) {
	valid := RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 50}

	tests := []struct {
		name   string
		mutate func(*RawSample)
		field  string
	}{
		{"NaN total hardness", func(s *RawSample) { s.TotalHardness = math.NaN() }, "total_hardness"},
		{"infinite ca hardness", func(s *RawSample) { s.CaHardness = math.Inf(1) }, "ca_hardness"},
		{"negative infinite alkalinity", func(s *RawSample) { s.TotalAlkalinity = math.Inf(-1) }, "total_alkalinity"},
		{"NaN sulfate", func(s *RawSample) { s.Sulfate = math.NaN() }, "sulfate"},
		{"infinite chlorine", func(s *RawSample) { s.Chlorine = math.Inf(1) }, "chlorine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			_, err := ComputeMetrics(s)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, KindInvalidInput, ErrorKind(err))
		})
	}

	overflows := []struct {
		name   string
		sample RawSample
		field  string
	}{
		{"bicarbonate overflows", RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 1.7e308, Sulfate: 100, Chlorine: 50}, "bicarbonate"},
		{"ratio overflows", RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 1e308, Chlorine: 1e-10}, "sulfate_chlorine_ratio"},
		{"mg hardness overflows", RawSample{TotalHardness: 1.7e308, CaHardness: -1.7e308, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 50}, "mg_hardness"},
	}
	for _, tt := range overflows {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ComputeMetrics(tt.sample)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, DerivedMetrics{}, m)
		})
	}

	t.Run("NaN chlorine is invalid input, not division by zero", func(t *testing.T) {
		s := valid
		s.Chlorine = math.NaN()
		_, err := ComputeMetrics(s)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.NotErrorIs(t, err, ErrDivisionByZero)
	})
}

func TestComputeMetrics_Deterministic(t *testing.T) {
	s := RawSample{TotalHardness: 187.3, CaHardness: 96.1, TotalAlkalinity: 121.7, Sulfate: 43.9, Chlorine: 17.2}

	first, err := ComputeMetrics(s)
	require.NoError(t, err)
	second, err := ComputeMetrics(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, math.Float64bits(first.ResAlkalinity), math.Float64bits(second.ResAlkalinity))
}

func TestComputeMetrics_HardnessIdentity(t *testing.T) {
	for total := 0.0; total <= 400; total += 12.5 {
		for ca := 0.0; ca <= total; ca += 7.25 {
			m, err := ComputeMetrics(RawSample{TotalHardness: total, CaHardness: ca, TotalAlkalinity: 100, Sulfate: 50, Chlorine: 25})
			require.NoError(t, err)
			require.Equal(t, total, m.MgHardness+ca, "total=%v ca=%v", total, ca)
		}
	}
}

func TestComputeMetrics_Concurrent(t *testing.T) {
	s := RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 50}
	want, err := ComputeMetrics(s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]DerivedMetrics, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = ComputeMetrics(s)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name     string
		sample   RawSample
		expected string
	}{
		{"more bitter", RawSample{TotalHardness: 200, CaHardness: 120, TotalAlkalinity: 150, Sulfate: 100, Chlorine: 50}, BalanceMoreBitter},
		{"too malty", RawSample{TotalHardness: 100, CaHardness: 100, TotalAlkalinity: 100, Sulfate: 0, Chlorine: 50}, BalanceTooMalty},
		{"tie at 0.5", RawSample{Sulfate: 25, Chlorine: 50}, BalanceVeryMalty},
		{"ratio 1000", RawSample{Sulfate: 1000, Chlorine: 1}, BalanceTooBitter},
		{"balanced", RawSample{Sulfate: 45, Chlorine: 50}, BalanceBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeBalance(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("zero chlorine", func(t *testing.T) {
		got, err := ComputeBalance(RawSample{Sulfate: 100})
		require.ErrorIs(t, err, ErrDivisionByZero)
		assert.Empty(t, got)
	})
}

func TestErrorKind(t *testing.T) {
	assert.Empty(t, ErrorKind(nil))
	assert.Equal(t, KindDivisionByZero, ErrorKind(ErrDivisionByZero))
	assert.Equal(t, KindInvalidInput, ErrorKind(ErrInvalidInput))
	assert.Equal(t, KindParse, ErrorKind(assert.AnError))
}
