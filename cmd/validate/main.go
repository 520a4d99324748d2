// Command validate performs data integrity checks across the water chemistry
// mock fixtures: the raw lab result JSON consumed by the ETL and the derived
// result JSON produced by genmock. It verifies record shape, transformation
// parity with the live domain package, and the chemistry identities every
// derived result must satisfy.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw data/mock/water_results_mock.json \
//	  -derived data/mock/water_results_derived.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
)

// tolerance for comparing derived values that went through a JSON round trip.
const tolerance = 1e-9

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw", "", "path to the raw lab result JSON fixture")
	derivedJSON := flag.String("derived", "", "path to the derived result JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *derivedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *derivedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, derivedPath string) int {
	// Set a fixed clock matching genmock so ProcessedAt compares equal.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Water Chemistry Fixture Validation ===")
	fmt.Println()

	raw, err := loadJSON[json.RawMessage](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	derived, err := loadJSON[domain.TestResult](derivedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load derived JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawIntegrity(raw),
		validateTransformation(raw, derived),
		validateChemistry(derived),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := passColor.Sprint("PASS")
		if !p.passed() {
			status = failColor.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw JSON, %d derived JSON\n", len(raw), len(derived))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Raw Integrity ──
// Every raw record must decode and carry the five measurements.

func validateRawIntegrity(raw []json.RawMessage) *phase {
	p := &phase{name: "Phase 1: Raw Integrity (lab records)"}

	if len(raw) == 0 {
		p.errorf("raw fixture is empty")
	}

	seenResultIDs := map[string]int{}
	for i, rec := range raw {
		var lr domain.LabResultRecord
		if err := json.Unmarshal(rec, &lr); err != nil {
			p.errorf("raw record %d: %v", i, err)
			continue
		}
		if _, err := lr.Sample(); err != nil {
			p.errorf("raw record %d: %v", i, err)
		}
		if lr.Source == "" {
			p.errorf("raw record %d: missing source", i)
		}
		if lr.ResultID == "" {
			continue
		}
		if prev, ok := seenResultIDs[lr.ResultID]; ok {
			p.errorf("raw record %d: result_id %q duplicates record %d", i, lr.ResultID, prev)
			continue
		}
		seenResultIDs[lr.ResultID] = i
	}
	return p
}

// ── Phase 2: Transformation Parity ──
// Re-runs the ETL transformation and compares it with the derived fixture.

func validateTransformation(raw []json.RawMessage, derived []domain.TestResult) *phase {
	p := &phase{name: "Phase 2: Transformation Parity (ETL)"}

	derivedByID := map[string]*domain.TestResult{}
	for i := range derived {
		if derived[i].ID == "" {
			p.errorf("derived record %d: missing ID", i)
			continue
		}
		if _, exists := derivedByID[derived[i].ID]; exists {
			p.errorf("derived record %d: duplicate ID %q", i, derived[i].ID)
			continue
		}
		derivedByID[derived[i].ID] = &derived[i]
	}

	var transformed int
	for i, rec := range raw {
		expected, err := domain.ParseRawEvent(domain.RawEvent{Value: rec})
		if err == nil {
			expected, err = domain.EnrichTestResult(expected)
		}
		if err != nil {
			// The pipeline skips these; they must not appear downstream.
			if expected.ID != "" && derivedByID[expected.ID] != nil {
				p.errorf("raw record %d: fails transformation (%v) but ID %q is in derived JSON", i, err, expected.ID)
			}
			continue
		}
		transformed++

		got, ok := derivedByID[expected.ID]
		if !ok {
			p.errorf("raw record %d: ID %q not found in derived JSON", i, expected.ID)
			continue
		}
		compareResults(p, expected, got)
	}

	if transformed != len(derived) {
		p.errorf("count: %d raw records transform, derived JSON has %d", transformed, len(derived))
	}
	return p
}

// compareResults checks that a derived record matches a fresh transformation.
func compareResults(p *phase, want domain.TestResult, got *domain.TestResult) {
	id := want.ID

	if got.Derived.Balance != want.Derived.Balance {
		p.errorf("ID %s: balance: expected %q, got %q", id, want.Derived.Balance, got.Derived.Balance)
	}
	for _, f := range metricFields(want.Derived, got.Derived) {
		if !floatEq(f.want, f.got) {
			p.errorf("ID %s: %s: expected %g, got %g", id, f.name, f.want, f.got)
		}
	}
	if got.Measurements != want.Measurements {
		p.errorf("ID %s: measurements: expected %+v, got %+v", id, want.Measurements, got.Measurements)
	}
	if !slices.Equal(got.Flags, want.Flags) {
		p.errorf("ID %s: flags: expected %v, got %v", id, want.Flags, got.Flags)
	}
	if !slices.Equal(got.Treatments, want.Treatments) {
		p.errorf("ID %s: treatments: expected %v, got %v", id, want.Treatments, got.Treatments)
	}
	if got.Source != want.Source {
		p.errorf("ID %s: source: expected %+v, got %+v", id, want.Source, got.Source)
	}
	if got.Label != want.Label {
		p.errorf("ID %s: label: expected %q, got %q", id, want.Label, got.Label)
	}
	if !got.SampleDate.Equal(want.SampleDate) {
		p.errorf("ID %s: sample_date: expected %s, got %s", id, want.SampleDate.Format(time.RFC3339), got.SampleDate.Format(time.RFC3339))
	}
	if !got.ProcessedAt.Equal(want.ProcessedAt) {
		p.errorf("ID %s: processed_at: expected %s, got %s", id, want.ProcessedAt.Format(time.RFC3339), got.ProcessedAt.Format(time.RFC3339))
	}
}

type metricField struct {
	name      string
	want, got float64
}

func metricFields(want, got domain.DerivedMetrics) []metricField {
	return []metricField{
		{"mg_hardness", want.MgHardness, got.MgHardness},
		{"res_alkalinity", want.ResAlkalinity, got.ResAlkalinity},
		{"calcium", want.Calcium, got.Calcium},
		{"magnesium", want.Magnesium, got.Magnesium},
		{"bicarbonate", want.Bicarbonate, got.Bicarbonate},
		{"sulfate_chlorine_ratio", want.SulfateChlorineRatio, got.SulfateChlorineRatio},
	}
}

// ── Phase 3: Chemistry Invariants ──
// Checks the identities between measurements and derived values.

func validateChemistry(derived []domain.TestResult) *phase {
	p := &phase{name: "Phase 3: Chemistry Invariants (derived)"}

	table := domain.DefaultBalanceTable()
	labels := map[string]bool{}
	for _, th := range table.Thresholds() {
		labels[th.Label] = true
	}

	for i := range derived {
		checkChemistry(p, i, &derived[i], table, labels)
	}
	return p
}

func checkChemistry(p *phase, i int, r *domain.TestResult, table domain.BalanceTable, labels map[string]bool) {
	pf := func(format string, args ...any) {
		p.errorf("record %d (ID %s): "+format, append([]any{i, r.ID}, args...)...)
	}

	s, d := r.Measurements, r.Derived

	identities := []metricField{
		{"mg_hardness = total - ca", s.TotalHardness - s.CaHardness, d.MgHardness},
		{"res_alkalinity = alk - (ca/3.5 + mg/7)", s.TotalAlkalinity - (s.CaHardness/3.5 + d.MgHardness/7), d.ResAlkalinity},
		{"calcium = ca * 0.4", s.CaHardness * 0.4, d.Calcium},
		{"magnesium = mg * 0.25", d.MgHardness * 0.25, d.Magnesium},
		{"bicarbonate = alk * 1.22", s.TotalAlkalinity * 1.22, d.Bicarbonate},
	}
	for _, id := range identities {
		if !floatEq(id.want, id.got) {
			pf("%s: expected %g, got %g", id.name, id.want, id.got)
		}
	}

	if s.Chlorine == 0 {
		pf("chlorine is zero; result should have been skipped")
	} else if want := s.Sulfate / s.Chlorine; !floatEq(want, d.SulfateChlorineRatio) {
		pf("sulfate_chlorine_ratio: expected %g, got %g", want, d.SulfateChlorineRatio)
	}

	if !labels[d.Balance] {
		pf("balance %q is not a label in the balance table", d.Balance)
	} else if want := table.Classify(d.SulfateChlorineRatio); want != d.Balance {
		pf("balance: ratio %g classifies as %q, got %q", d.SulfateChlorineRatio, want, d.Balance)
	}

	if flagged := slices.Contains(r.Flags, domain.FlagCaExceedsTotal); flagged != (d.MgHardness < 0) {
		pf("flag %s is %t but mg_hardness is %g", domain.FlagCaExceedsTotal, flagged, d.MgHardness)
	}
	if r.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
