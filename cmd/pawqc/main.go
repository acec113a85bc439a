package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/paw-chain/qc/cmd/pawqc/cmd"
	"github.com/paw-chain/qc/qc/types"
)

func main() {
	// Wipe sealed secrets on SIGINT/SIGTERM as well as on normal exit.
	memguard.CatchInterrupt()

	rootCmd := cmd.NewRootCmd()
	err := rootCmd.Execute()
	memguard.Purge()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\nhint: %s\n", err, types.RecoverySuggestion(err))
		os.Exit(1)
	}
}
