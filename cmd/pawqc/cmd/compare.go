package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/compare"
)

const (
	flagMode   = "mode"
	flagRelTol = "rel-tol"
	flagMaxULP = "max-ulp"
)

// CompareCmd compares two canonical outputs of the same schema.
func CompareCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [a] [b]",
		Short: "Compare two canonical outputs (bit_exact or fp_tolerant)",
		Long: `Compare two canonical JSON Lines outputs of one schema.

Identical Merkle roots short-circuit to equal. Otherwise records are walked in
lock step and differences are counted per field. Inputs may be compressed.`,
		Example: `  pawqc compare --schema table@1 a.jsonl b.jsonl
  pawqc compare --schema vectors@1 --mode fp_tolerant --rel-tol 1e-5 a.jsonl.zst b.jsonl.zst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaID, _ := cmd.Flags().GetString(flagSchema)
			modeStr, _ := cmd.Flags().GetString(flagMode)
			relTol, _ := cmd.Flags().GetFloat64(flagRelTol)
			maxULP, _ := cmd.Flags().GetUint64(flagMaxULP)

			mode, err := compare.ParseMode(modeStr)
			if err != nil {
				return err
			}
			opts := compare.DefaultOptions(mode)
			if cmd.Flags().Changed(flagRelTol) {
				opts.RelTol = relTol
			}
			if cmd.Flags().Changed(flagMaxULP) {
				opts.MaxULP = maxULP
			}

			a, err := openInput(cmd, env, args[0])
			if err != nil {
				return err
			}
			b, err := openInput(cmd, env, args[1])
			if err != nil {
				a.Close()
				return err
			}

			// Compare closes both streams.
			res, err := compare.NewComparator(env.registry, env.logger).Compare(a, b, schemaID, opts)
			if err != nil {
				return err
			}
			env.logger.Info("comparison finished",
				"schema_id", schemaID, "mode", string(mode), "equal", res.Equal,
				"fast_path", res.FastPath, "differences", res.Summary.Differences)
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().String(flagSchema, "table@1", "schema id")
	cmd.Flags().String(flagMode, string(compare.ModeBitExact), "comparison mode (bit_exact|fp_tolerant)")
	cmd.Flags().Float64(flagRelTol, compare.DefaultRelTol, "relative tolerance for fp_tolerant")
	cmd.Flags().Uint64(flagMaxULP, compare.DefaultMaxULP, "ULP budget for fp_tolerant")
	return cmd
}
