package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/couchcryptid/water-testing-etl/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errSomeFailed = errors.New("one or more records could not be computed")

func newFileCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Compute derived metrics for every lab result in a JSON file",
		Long: `Read a JSON array of lab result records (the same shape the ETL consumes)
and print the derived chemistry for each one. Records that cannot be computed
are listed with their error and make the command exit non-zero.

Examples:
  watercalc file data/mock/water_results_mock.json
  watercalc file results.json --source Richmond --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := renderOptions(v)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			entries, err := entriesFromRecords(data, v.GetString("source"))
			if err != nil {
				return err
			}

			if err := outwriter.WriteEntries(cmd.OutOrStdout(), entries, opts); err != nil {
				return err
			}
			if outwriter.Failed(entries) {
				return errSomeFailed
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Only include records from this source (case-insensitive); unparseable records are dropped")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

// entriesFromRecords runs each record through the same parse and enrich
// steps as the ETL pipeline. When source is set, only that source's records
// are kept and they are ordered by sample date, so a retest history reads
// oldest first; records with the same date keep their file order.
func entriesFromRecords(data []byte, source string) ([]outwriter.Entry, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	type dated struct {
		entry outwriter.Entry
		date  time.Time
	}
	rows := make([]dated, 0, len(records))
	for i, rec := range records {
		result, err := domain.ParseRawEvent(domain.RawEvent{Value: rec})
		if err == nil {
			result, err = domain.EnrichTestResult(result)
		}
		if source != "" && !strings.EqualFold(strings.TrimSpace(result.Source.Name), source) {
			continue
		}

		entry := outwriter.Entry{Name: entryName(result, i), Sample: result.Measurements, Err: err}
		if err == nil {
			derived := result.Derived
			entry.Metrics = &derived
			entry.Flags = result.Flags
		}
		rows = append(rows, dated{entry: entry, date: result.SampleDate})
	}

	if source != "" {
		slices.SortStableFunc(rows, func(a, b dated) int { return a.date.Compare(b.date) })
	}

	entries := make([]outwriter.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry)
	}
	return entries, nil
}

func entryName(r domain.TestResult, index int) string {
	switch {
	case r.Source.Name != "" && r.Label != "":
		return r.Source.Name + " / " + r.Label
	case r.Label != "":
		return r.Label
	case r.ID != "":
		return r.ID
	default:
		return fmt.Sprintf("record %d", index+1)
	}
}
