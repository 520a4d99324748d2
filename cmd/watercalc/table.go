package main

import (
	"fmt"
	"runtime"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/couchcryptid/water-testing-etl/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTableCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the sulfate/chlorine balance table",
		Long: `Print the thresholds used to classify the sulfate/chlorine ratio.

A ratio takes the label of the nearest threshold. When a ratio lies exactly
halfway between two thresholds, the lower threshold wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := renderOptions(v)
			if err != nil {
				return err
			}
			return outwriter.WriteBalanceTable(cmd.OutOrStdout(), domain.DefaultBalanceTable(), opts)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of watercalc",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "watercalc")
			fmt.Fprintf(out, "  Version: %s\n", version)
			fmt.Fprintf(out, "  Commit:  %s\n", commit)
			fmt.Fprintf(out, "  Built:   %s\n", date)
			fmt.Fprintf(out, "  Runtime: %s\n", runtime.Version())
		},
	}
}
