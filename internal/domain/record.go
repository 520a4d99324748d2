package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reading is one measurement as it arrives from upstream. Lab exports emit
// either JSON numbers or numeric strings, so both are accepted.
type Reading float64

// UnmarshalJSON accepts a JSON number or a string holding a number.
func (r *Reading) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		return fmt.Errorf("%w: empty measurement", ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: measurement %q is not numeric", ErrInvalidInput, s)
	}
	*r = Reading(v)
	return nil
}

// LabResultRecord is the flat JSON produced upstream for one lab test result.
// A sample may have several results when it is retested.
type LabResultRecord struct {
	ResultID   string   `json:"result_id,omitempty"`
	SampleID   string   `json:"sample_id,omitempty"`
	Label      string   `json:"label,omitempty"`
	SampleDate string   `json:"sample_date,omitempty"` // RFC 3339, "2006-01-02 15:04:05" or "2006-01-02"
	Source     string   `json:"source,omitempty"`      // e.g. "Richmond"
	SourceType string   `json:"source_type,omitempty"` // e.g. "Public Utility", "Shallow Well"
	Treatments []string `json:"treatments,omitempty"`  // e.g. "Charcoal Filter", "RO Filter"

	TotalHardness   *Reading `json:"total_hardness"`
	CaHardness      *Reading `json:"ca_hardness"`
	TotalAlkalinity *Reading `json:"total_alkalinity"`
	Sulfate         *Reading `json:"sulfate"`
	Chlorine        *Reading `json:"chlorine"`
}

// Sample returns the record's measurements, or ErrInvalidInput naming every
// missing field.
func (r LabResultRecord) Sample() (RawSample, error) {
	var missing []string
	get := func(name string, v *Reading) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return float64(*v)
	}

	s := RawSample{
		TotalHardness:   get("total_hardness", r.TotalHardness),
		CaHardness:      get("ca_hardness", r.CaHardness),
		TotalAlkalinity: get("total_alkalinity", r.TotalAlkalinity),
		Sulfate:         get("sulfate", r.Sulfate),
		Chlorine:        get("chlorine", r.Chlorine),
	}
	if len(missing) > 0 {
		return RawSample{}, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return s, nil
}

// NewLabResultRecord builds a record carrying the given measurements.
func NewLabResultRecord(s RawSample) LabResultRecord {
	ptr := func(v float64) *Reading {
		r := Reading(v)
		return &r
	}
	return LabResultRecord{
		TotalHardness:   ptr(s.TotalHardness),
		CaHardness:      ptr(s.CaHardness),
		TotalAlkalinity: ptr(s.TotalAlkalinity),
		Sulfate:         ptr(s.Sulfate),
		Chlorine:        ptr(s.Chlorine),
	}
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Source identifies where a water sample was drawn.
type Source struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// TestResult is one lab result with its derived chemistry, as published to
// the sink topic.
type TestResult struct {
	ID         string    `json:"id"`
	ResultID   string    `json:"result_id,omitempty"`
	SampleID   string    `json:"sample_id,omitempty"`
	Label      string    `json:"label,omitempty"`
	SampleDate time.Time `json:"sample_date,omitzero"`
	Source     Source    `json:"source,omitzero"`
	Treatments []string  `json:"treatments,omitempty"`

	Measurements RawSample      `json:"measurements"`
	Derived      DerivedMetrics `json:"derived"`

	// Flags lists plausibility warnings; values are still published as computed.
	Flags []string `json:"flags,omitempty"`

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}
