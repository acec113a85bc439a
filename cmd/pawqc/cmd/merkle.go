package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/merkle"
)

const (
	flagChunkSize = "chunk-size"
	flagLeaves    = "leaves"
	flagIndex     = "index"
	flagRoot      = "root"
	flagLeaf      = "leaf"
	flagCount     = "count"
	flagProof     = "proof"
)

// MerkleCmd groups the artifact commitment commands.
func MerkleCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merkle [file]",
		Short: "Compute the chunked SHA-256 Merkle commitment of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunkSize, _ := cmd.Flags().GetInt(flagChunkSize)
			withLeaves, _ := cmd.Flags().GetBool(flagLeaves)

			res, err := hashFile(cmd, env, args[0], chunkSize)
			if err != nil {
				return err
			}
			if !withLeaves {
				res.Leaves = nil
			}
			return printJSON(cmd, res)
		},
	}
	cmd.PersistentFlags().Int(flagChunkSize, merkle.DefaultChunkSize, "leaf chunk size in bytes")
	cmd.Flags().Bool(flagLeaves, false, "include leaf hashes in the output")

	cmd.AddCommand(merkleProofCmd(env), merkleVerifyCmd())
	return cmd
}

type proofOutput struct {
	Root      merkle.Hash   `json:"root"`
	Leaf      merkle.Hash   `json:"leaf"`
	Index     int           `json:"index"`
	LeafCount int           `json:"leaf_count"`
	Proof     []merkle.Hash `json:"proof"`
}

func merkleProofCmd(env *appEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof [file]",
		Short: "Print the inclusion proof of one chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunkSize, _ := cmd.Flags().GetInt(flagChunkSize)
			index, _ := cmd.Flags().GetInt(flagIndex)

			res, err := hashFile(cmd, env, args[0], chunkSize)
			if err != nil {
				return err
			}
			proof, err := merkle.BuildProof(res.Leaves, index)
			if err != nil {
				return err
			}
			return printJSON(cmd, proofOutput{
				Root:      res.Root,
				Leaf:      res.Leaves[index],
				Index:     index,
				LeafCount: res.ChunkCount,
				Proof:     proof,
			})
		},
	}
	cmd.Flags().Int(flagIndex, 0, "chunk index")
	return cmd
}

func merkleVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-proof",
		Short: "Check a chunk inclusion proof against a published root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rootHex, _ := cmd.Flags().GetString(flagRoot)
			leafHex, _ := cmd.Flags().GetString(flagLeaf)
			index, _ := cmd.Flags().GetInt(flagIndex)
			count, _ := cmd.Flags().GetInt(flagCount)
			siblings, _ := cmd.Flags().GetStringSlice(flagProof)

			root, err := merkle.ParseHash(rootHex)
			if err != nil {
				return err
			}
			leaf, err := merkle.ParseHash(leafHex)
			if err != nil {
				return err
			}
			proof := make([]merkle.Hash, len(siblings))
			for i, s := range siblings {
				if proof[i], err = merkle.ParseHash(s); err != nil {
					return fmt.Errorf("proof[%d]: %w", i, err)
				}
			}
			return printJSON(cmd, map[string]bool{"valid": merkle.VerifyProof(root, leaf, index, count, proof)})
		},
	}
	cmd.Flags().String(flagRoot, "", "published root (0x hex)")
	cmd.Flags().String(flagLeaf, "", "leaf hash (0x hex)")
	cmd.Flags().Int(flagIndex, 0, "leaf index")
	cmd.Flags().Int(flagCount, 0, "number of leaves in the tree")
	cmd.Flags().StringSlice(flagProof, nil, "sibling hashes from the leaf upwards, comma separated")
	_ = cmd.MarkFlagRequired(flagRoot)
	_ = cmd.MarkFlagRequired(flagLeaf)
	_ = cmd.MarkFlagRequired(flagCount)
	return cmd
}

func hashFile(cmd *cobra.Command, env *appEnv, path string, chunkSize int) (*merkle.Result, error) {
	in, err := openInput(cmd, env, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return merkle.Stream(in, chunkSize)
}
