package cmd

import (
	"strings"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/dispute"
	"github.com/paw-chain/qc/qc/types"
)

const (
	flagX          = "x"
	flagN          = "n"
	flagEps0       = "eps0"
	flagAlpha      = "alpha"
	flagEps        = "eps"
	flagDupRates   = "dup-rates"
	flagSpotRates  = "spot-rates"
	flagCanaryRate = "canary-rate"
)

var defaultEps = []float64{0.005, 0.01, 0.02}

// DisputeCmd runs the binomial dispute test.
func DisputeCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispute",
		Short: "Decide a dispute from x mismatches out of n checked items",
		Example: `  pawqc dispute --x 3 --n 100
  pawqc dispute --x 5 --n 100 --eps0 0.02 --alpha 0.05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, _ := cmd.Flags().GetInt(flagX)
			n, _ := cmd.Flags().GetInt(flagN)
			eps0, _ := cmd.Flags().GetFloat64(flagEps0)
			alpha, _ := cmd.Flags().GetFloat64(flagAlpha)

			d, err := dispute.Evaluate(x, n, eps0, alpha)
			if err != nil {
				return err
			}
			env.logger.Info("dispute decided", "outcome", string(d.Outcome), "x", x, "n", n, "p_value", d.PValue)
			return printJSON(cmd, d)
		},
	}

	cmd.Flags().Int(flagX, 0, "number of mismatching items")
	cmd.Flags().Int(flagN, 0, "number of checked items")
	cmd.Flags().Float64(flagEps0, dispute.DefaultEps0, "tolerated error rate under the null hypothesis")
	cmd.Flags().Float64(flagAlpha, dispute.DefaultAlpha, "significance level")
	_ = cmd.MarkFlagRequired(flagN)
	return cmd
}

// DetectionCmd prints the detection power of the configured policy.
func DetectionCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detection",
		Short: "Detection probability of the configured policy per error rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nItems, _ := cmd.Flags().GetInt(flagNItems)
			eps, _ := cmd.Flags().GetFloat64Slice(flagEps)

			report, err := dispute.DetectionTable(eps, nItems, env.params)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().Int(flagNItems, 0, "number of items in a package")
	cmd.Flags().Float64Slice(flagEps, defaultEps, "error rates to evaluate")
	_ = cmd.MarkFlagRequired(flagNItems)
	return cmd
}

// TuneCmd sweeps duplication and spot rates for a fixed canary rate.
func TuneCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Sweep duplication and spot rates and report detection power",
		Example: `  pawqc tune --n-items 1000 --dup-rates 0.01,0.05 --spot-rates 0.01,0.02,0.05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nItems, _ := cmd.Flags().GetInt(flagNItems)
			eps, _ := cmd.Flags().GetFloat64Slice(flagEps)
			dupStr, _ := cmd.Flags().GetStringSlice(flagDupRates)
			spotStr, _ := cmd.Flags().GetStringSlice(flagSpotRates)
			canaryStr, _ := cmd.Flags().GetString(flagCanaryRate)

			canary := env.params.CanaryRate
			if canaryStr != "" {
				var err error
				if canary, err = parseRate(flagCanaryRate, canaryStr); err != nil {
					return err
				}
			}
			dupRates, err := parseRates(flagDupRates, dupStr)
			if err != nil {
				return err
			}
			spotRates, err := parseRates(flagSpotRates, spotStr)
			if err != nil {
				return err
			}

			cells, err := dispute.TuningGrid(nItems, canary, dupRates, spotRates, eps, env.params)
			if err != nil {
				return err
			}
			return printJSON(cmd, cells)
		},
	}

	cmd.Flags().Int(flagNItems, 0, "number of items in a package")
	cmd.Flags().Float64Slice(flagEps, defaultEps, "error rates to evaluate")
	cmd.Flags().StringSlice(flagDupRates, []string{"0.01", "0.05", "0.1"}, "duplication rates to sweep")
	cmd.Flags().StringSlice(flagSpotRates, []string{"0.01", "0.02", "0.05"}, "spot rates to sweep")
	cmd.Flags().String(flagCanaryRate, "", "canary rate (defaults to the configured policy)")
	_ = cmd.MarkFlagRequired(flagNItems)
	return cmd
}

func parseRate(name, s string) (math.LegacyDec, error) {
	d, err := math.LegacyNewDecFromStr(strings.TrimSpace(s))
	if err != nil {
		return math.LegacyDec{}, types.ErrInvalidParams.Wrapf("%s: %q: %s", name, s, err)
	}
	return d, nil
}

func parseRates(name string, values []string) ([]math.LegacyDec, error) {
	out := make([]math.LegacyDec, 0, len(values))
	for _, s := range values {
		d, err := parseRate(name, s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
