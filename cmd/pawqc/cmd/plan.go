package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/sampling"
)

const (
	flagJob     = "job"
	flagWindow  = "window"
	flagTier    = "tier"
	flagPackage = "package"
	flagNItems  = "n-items"
	flagEpoch   = "epoch"
	flagSeed    = "seed"
)

// PlanCmd prints the audit plan of one package.
func PlanCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan duplication, canary and spot checks for a package",
		Long: `Plan derives the package seed from the master key (read from the
environment variable named by master_key_env) or from an explicit --seed, and
prints the duplication decision together with the canary and spot indices.`,
		Example: `  QC_MASTER_KEY=... pawqc plan --job job-7 --window w1 --tier gold --package pkg-3 --n-items 5000
  pawqc plan --seed 0xabab... --package pkg-3 --n-items 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := sampling.Request{}
			req.JobID, _ = cmd.Flags().GetString(flagJob)
			req.Window, _ = cmd.Flags().GetString(flagWindow)
			req.Tier, _ = cmd.Flags().GetString(flagTier)
			req.PackageID, _ = cmd.Flags().GetString(flagPackage)
			req.NItems, _ = cmd.Flags().GetInt(flagNItems)
			req.SecretEpoch, _ = cmd.Flags().GetString(flagEpoch)
			req.SeedHex, _ = cmd.Flags().GetString(flagSeed)

			var secret sampling.SecretSource
			if req.SeedHex == "" {
				enclave, err := sampling.EnclaveSecretFromEnv(env.cfg.MasterKeyEnv)
				if err != nil {
					return err
				}
				secret = enclave
			}

			sampler, err := sampling.NewSampler(env.params, secret, env.logger)
			if err != nil {
				return err
			}
			plan, err := sampler.Plan(req)
			if err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}

	cmd.Flags().String(flagJob, "", "job id")
	cmd.Flags().String(flagWindow, "", "window id")
	cmd.Flags().String(flagTier, "", "tier")
	cmd.Flags().String(flagPackage, "", "package id")
	cmd.Flags().Int(flagNItems, 0, "number of items in the package")
	cmd.Flags().String(flagEpoch, "0", "secret epoch")
	cmd.Flags().String(flagSeed, "", "explicit job seed (hex); bypasses the master key")
	_ = cmd.MarkFlagRequired(flagPackage)
	_ = cmd.MarkFlagRequired(flagNItems)
	return cmd
}
