package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/datasource"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		ping    bool
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "check CONFIG",
		Short: "Build a configuration and report problems",
		Args:  configArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.build(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			diags := f.Diagnostics()

			for _, w := range diags.Warnings {
				_, _ = fmt.Fprintf(out, "warning: %s\n", w.String())
			}

			if verbose {
				for _, i := range diags.Infos {
					_, _ = fmt.Fprintf(out, "info: %s\n", i.String())
				}
			}

			cfg := f.Configuration()
			_, _ = fmt.Fprintf(out, "ok: %d statements, %d result maps, %d mappers, %d resources\n",
				len(cfg.StatementIDs()), len(cfg.ResultMapIDs()), len(cfg.MapperNamespaces()), len(cfg.LoadedResources()))

			if !ping {
				return nil
			}

			env := cfg.Environment()
			if env == nil {
				return fmt.Errorf("cannot ping: %w", config.ErrUnknownEnvironment)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := datasource.Ping(ctx, env.DataSource); err != nil {
				return fmt.Errorf("environment %s: %w", env.ID, err)
			}

			_, _ = fmt.Fprintf(out, "ping: environment %s is reachable\n", env.ID)

			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "open the environment's data source and ping it")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "ping timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print informational diagnostics")

	return cmd
}
