package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/session"
)

type rootOptions struct {
	logLevel  string
	logFormat string

	env        string
	properties map[string]string
	resources  string

	scan        bool
	scanDir     string
	packageRoot string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sqlmapc",
		Short:         "Compile and inspect SQL mapper configurations",
		Version:       version + " (commit " + commit + ", built " + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	f := cmd.PersistentFlags()
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.StringVarP(&opts.env, "env", "e", "", "environment id; defaults to the document's default")
	f.StringToStringVarP(&opts.properties, "property", "D", nil, "property override as name=value; repeatable")
	f.StringVar(&opts.resources, "resources", "", "directory mapper resources resolve against; defaults to the config file's directory")
	f.BoolVar(&opts.scan, "scan", false, "load Go packages to resolve types and class mappers")
	f.StringVar(&opts.scanDir, "scan-dir", ".", "directory Go packages are loaded from with --scan")
	f.StringVar(&opts.packageRoot, "package-root", "", "import path that maps to the resources directory")

	cmd.AddCommand(
		newCheckCmd(opts),
		newDumpCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return ctxlog.New(o.logLevel, o.logFormat, cmd.ErrOrStderr())
}

// build compiles the configuration file named by path.
func (o *rootOptions) build(cmd *cobra.Command, path string) (*session.Factory, error) {
	log := o.logger(cmd)

	bopts := session.Options{
		Logger:       log,
		ScanPackages: o.scan,
		ScanDir:      o.scanDir,
		PackageRoot:  o.packageRoot,
	}

	if o.resources != "" {
		bopts.Resources = os.DirFS(filepath.Clean(o.resources))
	}

	ctx := ctxlog.WithLogger(cmd.Context(), log)

	return session.NewBuilder(bopts).BuildFile(ctx, path, o.env, o.properties)
}

// configArg accepts exactly one configuration file argument.
func configArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return usageError{err: err}
	}

	return nil
}
