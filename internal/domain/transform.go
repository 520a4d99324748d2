package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Plausibility flags attached to results whose chemistry looks wrong. They
// never alter the computed values.
const (
	// FlagCaExceedsTotal marks a calcium hardness above total hardness,
	// which yields a negative magnesium hardness.
	FlagCaExceedsTotal = "ca_hardness_exceeds_total"

	// FlagNegativeMeasurement marks a raw measurement below zero.
	FlagNegativeMeasurement = "negative_measurement"
)

// sampleDateLayouts are tried in order when parsing a record's sample date.
var sampleDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseRawEvent deserializes a RawEvent's value into a TestResult.
// Derived metrics are not computed here; see EnrichTestResult.
func ParseRawEvent(raw RawEvent) (TestResult, error) {
	var rec LabResultRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return TestResult{}, fmt.Errorf("parse raw event: %w", err)
	}

	sample, err := rec.Sample()
	if err != nil {
		return TestResult{}, fmt.Errorf("parse raw event: %w", err)
	}

	sampleDate, err := parseSampleDate(rec.SampleDate)
	if err != nil {
		return TestResult{}, fmt.Errorf("parse raw event: %w", err)
	}

	return TestResult{
		ID:           generateID(rec.ResultID, rec.Source, rec.Label, rec.SampleDate, sample),
		ResultID:     strings.TrimSpace(rec.ResultID),
		SampleID:     strings.TrimSpace(rec.SampleID),
		Label:        rec.Label,
		SampleDate:   sampleDate,
		Source:       Source{Name: rec.Source, Type: rec.SourceType},
		Treatments:   rec.Treatments,
		Measurements: sample,

		RawPayload: raw.Value,
	}, nil
}

// parseSampleDate accepts the layouts in sampleDateLayouts. An empty string
// yields the zero time; samples are not required to carry a date.
func parseSampleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range sampleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: sample_date %q", ErrInvalidInput, s)
}

// generateID produces the result's message key. Upstream result IDs are used
// when present; otherwise the ID is a hash of the sample's identifying fields
// so that replays of the same record produce the same key.
func generateID(resultID, source, label, sampleDate string, s RawSample) string {
	if id := strings.TrimSpace(resultID); id != "" {
		return "result-" + id
	}
	input := fmt.Sprintf("%s|%s|%s|%g|%g|%g|%g|%g",
		strings.TrimSpace(source), strings.TrimSpace(label), strings.TrimSpace(sampleDate),
		s.TotalHardness, s.CaHardness, s.TotalAlkalinity, s.Sulfate, s.Chlorine)
	hash := sha256.Sum256([]byte(input))
	return "sample-" + hex.EncodeToString(hash[:8])
}

// EnrichTestResult computes the derived chemistry for a parsed result,
// normalizes its metadata, attaches plausibility flags, and stamps
// ProcessedAt. Calculation errors are returned unchanged.
func EnrichTestResult(result TestResult) (TestResult, error) {
	derived, err := ComputeMetrics(result.Measurements)
	if err != nil {
		return result, err
	}

	result.Derived = derived
	result.Flags = plausibilityFlags(result.Measurements, derived)
	result.Label = strings.TrimSpace(result.Label)
	result.Source = Source{
		Name: strings.TrimSpace(result.Source.Name),
		Type: strings.TrimSpace(result.Source.Type),
	}
	result.Treatments = normalizeTreatments(result.Treatments)
	result.ProcessedAt = clock.Now()
	return result, nil
}

// plausibilityFlags lists the chemistry warnings for a sample in a stable order.
func plausibilityFlags(s RawSample, m DerivedMetrics) []string {
	var flags []string
	if m.MgHardness < 0 {
		flags = append(flags, FlagCaExceedsTotal)
	}
	for _, f := range s.fields() {
		if f.value < 0 {
			flags = append(flags, FlagNegativeMeasurement)
			break
		}
	}
	return flags
}

// normalizeTreatments trims, drops empty names, and returns the remaining
// treatments sorted without duplicates.
func normalizeTreatments(treatments []string) []string {
	if len(treatments) == 0 {
		return nil
	}
	out := make([]string, 0, len(treatments))
	for _, t := range treatments {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
