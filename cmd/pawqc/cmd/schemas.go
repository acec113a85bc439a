package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SchemasCmd lists registered schemas or dumps one as YAML.
func SchemasCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas [schema-id]",
		Short: "List registered schemas, or print one definition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return printJSON(cmd, map[string][]string{"schemas": env.registry.IDs()})
			}
			s, err := env.registry.Get(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(s); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
