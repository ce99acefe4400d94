package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDumpCmd(opts *rootOptions) *cobra.Command {
	var statement string

	cmd := &cobra.Command{
		Use:   "dump CONFIG",
		Short: "Print the compiled configuration as YAML",
		Args:  configArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.build(cmd, args[0])
			if err != nil {
				return err
			}

			var v any = f.Configuration().Snapshot()

			if statement != "" {
				ms, err := f.Configuration().Statement(statement)
				if err != nil {
					return err
				}

				v = ms.Snapshot()
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)

			if err := enc.Encode(v); err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}

			return enc.Close()
		},
	}

	cmd.Flags().StringVarP(&statement, "statement", "s", "", "dump only this statement (qualified or short id)")

	return cmd
}
