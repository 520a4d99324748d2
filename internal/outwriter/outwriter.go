// Package outwriter renders derived water chemistry for the terminal, either
// as a human-readable table or as JSON.
package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
)

// Format selects how results are rendered.
type Format string

// Supported output formats.
const (
	TableOut Format = "table"
	JSONOut  Format = "json"
)

// DefaultPrecision is the number of decimals shown for derived values.
const DefaultPrecision = 2

// Options controls rendering.
type Options struct {
	Format    Format
	Precision int
	UseColors bool
}

// ParseFormat validates a user-supplied output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case TableOut, JSONOut:
		return f, nil
	case "", "text":
		return TableOut, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Entry is one sample to render. Exactly one of Metrics or Err is set.
type Entry struct {
	Name    string
	Sample  domain.RawSample
	Metrics *domain.DerivedMetrics
	Flags   []string
	Err     error
}

// NewEntry computes the metrics for a sample and wraps the outcome.
func NewEntry(name string, s domain.RawSample) Entry {
	e := Entry{Name: name, Sample: s}
	m, err := domain.ComputeMetrics(s)
	if err != nil {
		e.Err = err
		return e
	}
	e.Metrics = &m
	return e
}

// Failed reports whether any entry carries an error.
func Failed(entries []Entry) bool {
	for _, e := range entries {
		if e.Err != nil {
			return true
		}
	}
	return false
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// createFormatter returns a closure formatting floats at a fixed precision.
func createFormatter(precision int) func(float64) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}
