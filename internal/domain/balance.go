package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Balance labels for the sulfate/chlorine ratio, from maltiest to most bitter.
const (
	BalanceTooMalty     = "Too Malty"
	BalanceVeryMalty    = "Very Malty"
	BalanceMalty        = "Malty"
	BalanceBalanced     = "Balanced"
	BalanceLittleBitter = "Little Bitter"
	BalanceMoreBitter   = "More Bitter"
	BalanceExtraBitter  = "Extra Bitter"
	BalanceQuiteBitter  = "Quite Bitter"
	BalanceVeryBitter   = "Very Bitter"
	BalanceTooBitter    = "Too Bitter"
)

// BalanceThreshold pairs a sulfate/chlorine ratio with the label it stands for.
type BalanceThreshold struct {
	Ratio float64 `json:"ratio"`
	Label string  `json:"label"`
}

// BalanceTable is an ordered, read-only set of balance thresholds.
// The zero value has no thresholds and classifies every ratio as "".
type BalanceTable struct {
	thresholds []BalanceThreshold // ascending by Ratio, never mutated after construction
}

var defaultBalanceTable = mustBalanceTable(
	BalanceThreshold{Ratio: 0, Label: BalanceTooMalty},
	BalanceThreshold{Ratio: 0.4, Label: BalanceVeryMalty},
	BalanceThreshold{Ratio: 0.6, Label: BalanceMalty},
	BalanceThreshold{Ratio: 0.8, Label: BalanceBalanced},
	BalanceThreshold{Ratio: 1.5, Label: BalanceLittleBitter},
	BalanceThreshold{Ratio: 2.0, Label: BalanceMoreBitter},
	BalanceThreshold{Ratio: 4.0, Label: BalanceExtraBitter},
	BalanceThreshold{Ratio: 6.0, Label: BalanceQuiteBitter},
	BalanceThreshold{Ratio: 8.0, Label: BalanceVeryBitter},
	BalanceThreshold{Ratio: 9.0, Label: BalanceTooBitter},
)

// DefaultBalanceTable returns the canonical brewing-water balance table.
func DefaultBalanceTable() BalanceTable {
	return defaultBalanceTable
}

// NewBalanceTable builds a table from the given thresholds, sorted ascending
// by ratio. Ratios must be finite and distinct and labels non-empty.
func NewBalanceTable(thresholds ...BalanceThreshold) (BalanceTable, error) {
	if len(thresholds) == 0 {
		return BalanceTable{}, fmt.Errorf("%w: balance table has no thresholds", ErrInvalidInput)
	}

	sorted := slices.Clone(thresholds)
	slices.SortFunc(sorted, func(a, b BalanceThreshold) int {
		switch {
		case a.Ratio < b.Ratio:
			return -1
		case a.Ratio > b.Ratio:
			return 1
		default:
			return 0
		}
	})

	for i, th := range sorted {
		if math.IsNaN(th.Ratio) || math.IsInf(th.Ratio, 0) {
			return BalanceTable{}, fmt.Errorf("%w: balance threshold %v is not finite", ErrInvalidInput, th.Ratio)
		}
		if strings.TrimSpace(th.Label) == "" {
			return BalanceTable{}, fmt.Errorf("%w: balance threshold %v has no label", ErrInvalidInput, th.Ratio)
		}
		if i > 0 && sorted[i-1].Ratio == th.Ratio {
			return BalanceTable{}, fmt.Errorf("%w: duplicate balance threshold %v", ErrInvalidInput, th.Ratio)
		}
	}

	return BalanceTable{thresholds: sorted}, nil
}

func mustBalanceTable(thresholds ...BalanceThreshold) BalanceTable {
	t, err := NewBalanceTable(thresholds...)
	if err != nil {
		panic(err)
	}
	return t
}

// Thresholds returns a copy of the table's thresholds in ascending order.
func (t BalanceTable) Thresholds() []BalanceThreshold {
	return slices.Clone(t.thresholds)
}

// Len reports the number of thresholds.
func (t BalanceTable) Len() int {
	return len(t.thresholds)
}

// Classify returns the label whose threshold is nearest to ratio.
//
// This is a nearest-neighbor lookup, not banding: a ratio far above the last
// threshold still maps to the last label. When two thresholds are equally
// near, the lower one wins. +Inf maps to the highest threshold; -Inf and NaN
// map to the lowest.
func (t BalanceTable) Classify(ratio float64) string {
	if len(t.thresholds) == 0 {
		return ""
	}

	first, last := t.thresholds[0], t.thresholds[len(t.thresholds)-1]
	switch {
	case math.IsNaN(ratio), ratio <= first.Ratio:
		return first.Label
	case ratio >= last.Ratio:
		return last.Label
	}

	best := first
	bestDiff := math.Abs(best.Ratio - ratio)
	for _, th := range t.thresholds[1:] {
		// Strictly closer only, so ties keep the lower threshold.
		if diff := math.Abs(th.Ratio - ratio); diff < bestDiff {
			best, bestDiff = th, diff
		}
	}
	return best.Label
}

// ClassifyBalance maps a sulfate/chlorine ratio to its label in table.
func ClassifyBalance(ratio float64, table BalanceTable) string {
	return table.Classify(ratio)
}
