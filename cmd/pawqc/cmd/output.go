package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paw-chain/qc/qc/upload"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// openInput opens a possibly compressed upload. "-" reads stdin, which is
// spooled first so the result stays seekable.
func openInput(cmd *cobra.Command, env *appEnv, path string) (*upload.Stream, error) {
	if path != "-" {
		return upload.Open(path, env.uploadOptions())
	}

	spool, err := os.CreateTemp("", "pawqc-stdin-*")
	if err != nil {
		return nil, err
	}
	name := spool.Name()
	if _, err := io.Copy(spool, cmd.InOrStdin()); err != nil {
		spool.Close()
		os.Remove(name)
		return nil, err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		spool.Close()
		os.Remove(name)
		return nil, err
	}
	// The spool is unlinked right away; the open handle keeps it readable.
	if err := os.Remove(name); err != nil {
		spool.Close()
		return nil, err
	}
	s, err := upload.Wrap(spool, env.uploadOptions())
	if err != nil {
		spool.Close()
		return nil, err
	}
	return s, nil
}
