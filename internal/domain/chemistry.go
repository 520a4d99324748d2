package domain

import (
	"fmt"
	"math"
)

// Factors converting hardness and alkalinity (expressed as CaCO3) into
// residual alkalinity and ion concentrations.
const (
	caHardnessAlkalinityDivisor = 3.5
	mgHardnessAlkalinityDivisor = 7.0
	calciumFactor               = 0.4
	magnesiumFactor             = 0.25
	bicarbonateFactor           = 1.22
)

// RawSample holds the five lab measurements of one test result, all in mg/L.
// CaHardness is expected to be at most TotalHardness but this is not enforced.
type RawSample struct {
	TotalHardness   float64 `json:"total_hardness"`
	CaHardness      float64 `json:"ca_hardness"`
	TotalAlkalinity float64 `json:"total_alkalinity"`
	Sulfate         float64 `json:"sulfate"`
	Chlorine        float64 `json:"chlorine"`
}

// DerivedMetrics are the values computed from a RawSample. They are always
// recomputed from the raw measurements and never treated as source data.
type DerivedMetrics struct {
	MgHardness           float64 `json:"mg_hardness"`
	ResAlkalinity        float64 `json:"res_alkalinity"`
	Calcium              float64 `json:"calcium"`
	Magnesium            float64 `json:"magnesium"`
	Bicarbonate          float64 `json:"bicarbonate"`
	SulfateChlorineRatio float64 `json:"sulfate_chlorine_ratio"`
	Balance              string  `json:"balance"`
}

// Validate reports ErrInvalidInput if any measurement is NaN or infinite.
func (s RawSample) Validate() error {
	for _, f := range s.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, f.name)
		}
	}
	return nil
}

type sampleField struct {
	name  string
	value float64
}

func (s RawSample) fields() []sampleField {
	return []sampleField{
		{"total_hardness", s.TotalHardness},
		{"ca_hardness", s.CaHardness},
		{"total_alkalinity", s.TotalAlkalinity},
		{"sulfate", s.Sulfate},
		{"chlorine", s.Chlorine},
	}
}

// ComputeMetrics derives hardness, alkalinity, ion and balance values from a
// raw sample using the default balance table.
//
//	mg_hardness            = total_hardness - ca_hardness
//	res_alkalinity         = total_alkalinity - (ca_hardness/3.5 + mg_hardness/7)
//	calcium                = ca_hardness * 0.4
//	magnesium              = mg_hardness * 0.25
//	bicarbonate            = total_alkalinity * 1.22
//	sulfate_chlorine_ratio = sulfate / chlorine
//
// Implausible inputs such as ca_hardness > total_hardness are computed as-is.
// A derived value that overflows to ±Inf is reported as ErrInvalidInput.
func ComputeMetrics(s RawSample) (DerivedMetrics, error) {
	if err := s.Validate(); err != nil {
		return DerivedMetrics{}, err
	}
	if s.Chlorine == 0 {
		return DerivedMetrics{}, fmt.Errorf("%w: chlorine is zero", ErrDivisionByZero)
	}

	mg := s.TotalHardness - s.CaHardness
	ratio := s.Sulfate / s.Chlorine

	m := DerivedMetrics{
		MgHardness:           mg,
		ResAlkalinity:        s.TotalAlkalinity - (s.CaHardness/caHardnessAlkalinityDivisor + mg/mgHardnessAlkalinityDivisor),
		Calcium:              s.CaHardness * calciumFactor,
		Magnesium:            mg * magnesiumFactor,
		Bicarbonate:          s.TotalAlkalinity * bicarbonateFactor,
		SulfateChlorineRatio: ratio,
	}
	// Finite measurements near the float64 limits can still overflow.
	for _, f := range m.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return DerivedMetrics{}, fmt.Errorf("%w: %s overflows", ErrInvalidInput, f.name)
		}
	}
	m.Balance = ClassifyBalance(ratio, DefaultBalanceTable())
	return m, nil
}

func (m DerivedMetrics) fields() []sampleField {
	return []sampleField{
		{"mg_hardness", m.MgHardness},
		{"res_alkalinity", m.ResAlkalinity},
		{"calcium", m.Calcium},
		{"magnesium", m.Magnesium},
		{"bicarbonate", m.Bicarbonate},
		{"sulfate_chlorine_ratio", m.SulfateChlorineRatio},
	}
}

// ComputeBalance returns only the balance label for a raw sample.
func ComputeBalance(s RawSample) (string, error) {
	m, err := ComputeMetrics(s)
	if err != nil {
		return "", err
	}
	return ClassifyBalance(m.SulfateChlorineRatio, DefaultBalanceTable()), nil
}
