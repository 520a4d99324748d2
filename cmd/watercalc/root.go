package main

import (
	"strings"

	"github.com/couchcryptid/water-testing-etl/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set by the linker at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envPrefix = "WATERCALC"

// newRootCmd builds the command tree. Each tree gets its own viper instance
// so flags, WATERCALC_* environment variables, and defaults resolve
// independently per invocation.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", string(outwriter.TableOut))
	v.SetDefault("precision", outwriter.DefaultPrecision)
	v.SetDefault("no-color", false)

	root := &cobra.Command{
		Use:                "watercalc",
		Short:              "Compute derived water chemistry and sulfate/chlorine balance.",
		Long:               `watercalc turns raw lab measurements into magnesium hardness, residual alkalinity, ion concentrations, and a sulfate/chlorine balance label.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringP("output", "o", string(outwriter.TableOut), "Output format: table or json")
	root.PersistentFlags().Int("precision", outwriter.DefaultPrecision, "Decimal precision for derived values")
	root.PersistentFlags().Bool("no-color", false, "Disable colored balance labels")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(
		newMetricsCmd(v),
		newFileCmd(v),
		newTableCmd(v),
		newVersionCmd(),
	)
	return root
}

// renderOptions resolves output settings from flags, environment, and defaults.
func renderOptions(v *viper.Viper) (outwriter.Options, error) {
	format, err := outwriter.ParseFormat(v.GetString("output"))
	if err != nil {
		return outwriter.Options{}, err
	}
	return outwriter.Options{
		Format:    format,
		Precision: v.GetInt("precision"),
		UseColors: !v.GetBool("no-color"),
	}, nil
}
