// Package main provides the CLI entrypoint for sqlmapc.
//
// sqlmapc compiles a mapper configuration the way an application would at
// startup and reports what it found:
//   - check: build the configuration, print warnings, optionally ping the data source
//   - dump: print the compiled configuration as YAML
//   - serve: expose the compiled configuration over a read-only HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)

		var uerr usageError
		if errors.As(err, &uerr) {
			_, _ = fmt.Fprintln(stderr, "run 'sqlmapc --help' for usage")
			return 2
		}

		return 1
	}

	return 0
}

// usageError marks command line mistakes, reported with exit code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }
