package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/proof"
)

const (
	flagCommitment = "commitment"
	flagModulus    = "n"
	flagXValue     = "x"
	flagYValue     = "y"
)

type certificateOutput struct {
	*proof.Verification
	CommitmentMatches *bool `json:"commitment_matches,omitempty"`
}

// VerifyGF2Cmd checks a null-space certificate file.
func VerifyGF2Cmd(_ *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-gf2 [certificate.json]",
		Short: "Verify that a vector lies in the GF(2) kernel of a matrix",
		Long: `verify-gf2 loads a JSON certificate {"matrix_rows": [...], "vector_bits": "..."}
and checks that every row has an even dot product with the vector. With
--commitment the row commitment is also compared to a published value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			published, _ := cmd.Flags().GetString(flagCommitment)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			cert, err := proof.LoadCertificate(f)
			if err != nil {
				return err
			}
			v, err := proof.VerifyCertificate(cert)
			if err != nil {
				return err
			}

			out := certificateOutput{Verification: v}
			if published != "" {
				ok := proof.VerifyCommitment(cert.MatrixRows, published)
				out.CommitmentMatches = &ok
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().String(flagCommitment, "", "published row commitment (0x hex) to check against")
	return cmd
}

// CommitCmd prints the row commitment of a certificate.
func CommitCmd(_ *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "commit [certificate.json]",
		Short: "Print the SHA-256 commitment of a certificate's matrix rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			cert, err := proof.LoadCertificate(f)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"commitment": proof.CommitHash(cert.MatrixRows)})
		},
	}
}

// GCDCmd checks a factor claim gcd(x-y, n).
func GCDCmd(_ *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gcd",
		Short:   "Compute gcd(x-y, n) and report whether it is a non-trivial factor of n",
		Example: `  pawqc gcd --n 91 --x 10 --y 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := make(map[string]string, 3)
			for _, name := range []string{flagModulus, flagXValue, flagYValue} {
				values[name], _ = cmd.Flags().GetString(name)
			}
			n, err := proof.ParseInteger(values[flagModulus])
			if err != nil {
				return err
			}
			x, err := proof.ParseInteger(values[flagXValue])
			if err != nil {
				return err
			}
			y, err := proof.ParseInteger(values[flagYValue])
			if err != nil {
				return err
			}

			f, err := proof.GCDFactor(n, x, y)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Factor     string `json:"factor"`
				NonTrivial bool   `json:"non_trivial"`
			}{f.String(), proof.IsNonTrivialFactor(f, n)})
		},
	}
	cmd.Flags().String(flagModulus, "", "modulus (decimal or 0x hex)")
	cmd.Flags().String(flagXValue, "", "x (decimal or 0x hex)")
	cmd.Flags().String(flagYValue, "", "y (decimal or 0x hex)")
	for _, name := range []string{flagModulus, flagXValue, flagYValue} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
