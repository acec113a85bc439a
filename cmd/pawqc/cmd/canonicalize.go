package cmd

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/canon"
	"github.com/paw-chain/qc/qc/merkle"
	"github.com/paw-chain/qc/qc/schema"
)

const (
	flagSchema = "schema"
	flagFormat = "format"
	flagOut    = "out"
)

// canonicalizeOutput is printed when the canonical bytes go to a file.
type canonicalizeOutput struct {
	SchemaID string         `json:"schema_id"`
	Out      string         `json:"out"`
	Merkle   *merkle.Result `json:"merkle"`
}

// CanonicalizeCmd converts raw provider output into canonical JSON Lines.
func CanonicalizeCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canonicalize [input]",
		Short: "Canonicalize raw output (csv or jsonl, optionally compressed)",
		Long: `Canonicalize reads raw output and writes its canonical JSON Lines form.

Without --out the canonical bytes are written to stdout. With --out they are
written to the file and the Merkle commitment of the file is printed instead.`,
		Example: `  pawqc canonicalize --schema table@1 --format csv results.csv.gz
  pawqc canonicalize --schema vectors@1 --out canon.jsonl embeddings.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaID, _ := cmd.Flags().GetString(flagSchema)
			format, _ := cmd.Flags().GetString(flagFormat)
			out, _ := cmd.Flags().GetString(flagOut)

			in, err := openInput(cmd, env, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			c := canon.NewCanonicalizer(env.registry, env.logger)
			canonical, err := c.Canonicalize(schemaID, in, format)
			if err != nil {
				return err
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(canonical)
				return err
			}
			if err := os.WriteFile(out, canonical, 0o644); err != nil {
				return err
			}
			res, err := merkle.Stream(bytes.NewReader(canonical), merkle.DefaultChunkSize)
			if err != nil {
				return err
			}
			env.logger.Info("canonical output written", "schema_id", schemaID, "out", out, "root", res.Root.String())
			res.Leaves = nil
			return printJSON(cmd, canonicalizeOutput{SchemaID: schemaID, Out: out, Merkle: res})
		},
	}

	cmd.Flags().String(flagSchema, "table@1", "schema id")
	cmd.Flags().String(flagFormat, schema.FormatJSONL, "input format (csv|jsonl)")
	cmd.Flags().String(flagOut, "", "write canonical output to this file and print its commitment")
	return cmd
}
