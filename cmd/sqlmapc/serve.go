package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sqlmap-builder/internal/inspect"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve CONFIG",
		Short: "Serve the compiled configuration over a read-only HTTP API",
		Args:  configArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.build(cmd, args[0])
			if err != nil {
				return err
			}

			log := opts.logger(cmd)

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}

			srv := &http.Server{
				Handler:           inspect.NewRouter(f.Configuration(), log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", ln.Addr())

			g, ctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
					return err
				}

				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				log.Info("shutting down inspect server")

				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				return srv.Shutdown(sctx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")

	return cmd
}
