package main

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/couchcryptid/water-testing-etl/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sampleFlags are the measurement flags of the metrics command, in mg/L.
var sampleFlags = []struct {
	name  string
	usage string
}{
	{"total-hardness", "Total hardness as CaCO3"},
	{"ca-hardness", "Calcium hardness as CaCO3"},
	{"total-alkalinity", "Total alkalinity as CaCO3"},
	{"sulfate", "Sulfate"},
	{"chlorine", "Chlorine"},
}

func newMetricsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute derived metrics for a single sample",
		Long: `Compute the derived chemistry for one sample from its five lab measurements.

Every measurement must be given, either as a flag or through the matching
WATERCALC_* environment variable (for example WATERCALC_TOTAL_HARDNESS).

Examples:
  watercalc metrics --total-hardness 200 --ca-hardness 120 \
    --total-alkalinity 150 --sulfate 100 --chlorine 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := renderOptions(v)
			if err != nil {
				return err
			}
			sample, err := sampleFromViper(v)
			if err != nil {
				return err
			}

			entry := outwriter.NewEntry("sample", sample)
			if entry.Err != nil {
				return fmt.Errorf("compute metrics: %w", entry.Err)
			}
			return outwriter.WriteEntries(cmd.OutOrStdout(), []outwriter.Entry{entry}, opts)
		},
	}

	for _, f := range sampleFlags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

// sampleFromViper reads the five measurements, rejecting any that were not
// supplied rather than treating them as zero.
func sampleFromViper(v *viper.Viper) (domain.RawSample, error) {
	var missing []string
	for _, f := range sampleFlags {
		if !v.IsSet(f.name) {
			missing = append(missing, "--"+f.name)
		}
	}
	if len(missing) > 0 {
		return domain.RawSample{}, fmt.Errorf("missing required measurements: %s", strings.Join(missing, ", "))
	}

	return domain.RawSample{
		TotalHardness:   v.GetFloat64("total-hardness"),
		CaHardness:      v.GetFloat64("ca-hardness"),
		TotalAlkalinity: v.GetFloat64("total-alkalinity"),
		Sulfate:         v.GetFloat64("sulfate"),
		Chlorine:        v.GetFloat64("chlorine"),
	}, nil
}
