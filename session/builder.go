package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/analyze"
	"sqlmap-builder/internal/builder"
	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/internal/diagnostic"
	"sqlmap-builder/internal/resource"
)

// Builder turns configuration sources into factories. A Builder without a
// shared Options.Diagnostics may be used from several goroutines.
type Builder struct {
	opts Options
}

// NewBuilder returns a builder; unset options take their defaults.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts.withDefaults()}
}

// Build compiles src into a factory. Every stream in src is closed before
// Build returns and the diagnostic context is left empty. A failure is a
// *BuildError and no factory is returned.
func (b *Builder) Build(ctx context.Context, src Source) (*Factory, error) {
	buildID := uuid.NewString()
	log := b.opts.Logger.With("build", buildID)
	ctx = ctxlog.WithLogger(ctx, log)

	diag := b.opts.Diagnostics
	if diag == nil {
		diag = diagnostic.NewContext(buildID)
	} else {
		diag.BuildID = buildID
	}

	defer diag.Reset()
	defer src.close(ctx)

	if err := src.validate(); err != nil {
		return nil, b.fail(diag, err)
	}

	if src.Configuration != nil {
		f, err := b.wrap(ctx, src)
		if err != nil {
			return nil, b.fail(diag, err)
		}

		return f, nil
	}

	log.Debug("building configuration", "resource", src.name(), "format", src.Format.String(),
		"environment", src.Environment)

	diag.Resource(src.name()).Activity("parsing configuration")

	doc, err := src.decode()
	if err != nil {
		return nil, b.fail(diag, err)
	}

	cfg, err := builder.NewConfigBuilder(b.deps(), diag).Build(ctx, doc, src.Environment, src.Properties)
	if err != nil {
		return nil, b.fail(diag, err)
	}

	for _, w := range diag.Diagnostics.Warnings {
		log.Warn(w.String())
	}

	f := NewFactory(cfg)
	f.diagnostics = diag.Diagnostics

	log.Debug("configuration built", "statements", len(cfg.StatementIDs()), "mappers", len(cfg.MapperNamespaces()))

	return f, nil
}

// wrap returns a factory over a pre-built graph. Properties cannot be
// applied to it; a requested environment must be the one it was built for.
func (b *Builder) wrap(ctx context.Context, src Source) (*Factory, error) {
	cfg := src.Configuration

	if len(src.Properties) > 0 {
		ctxlog.FromContext(ctx).Debug("properties are ignored for a pre-built configuration")
	}

	if src.Environment != "" {
		env := cfg.Environment()
		if env == nil || env.ID != src.Environment {
			return nil, fmt.Errorf("%w: %q is not the environment the configuration was built for",
				config.ErrUnknownEnvironment, src.Environment)
		}
	}

	return NewFactory(cfg), nil
}

func (b *Builder) deps() builder.Deps {
	deps := builder.Deps{
		Loader:       resource.NewLoader(b.opts.Resources, b.opts.HTTPClient),
		Types:        b.opts.Types,
		TypeHandlers: b.opts.TypeHandlers,
		Interceptors: b.opts.Interceptors,
		PackageRoot:  b.opts.PackageRoot,
	}

	if b.opts.ScanPackages {
		a := analyze.NewAnalyzer()
		a.Dir = b.opts.ScanDir
		deps.Scanner = a
	}

	return deps
}

// fail wraps err with the diagnostic state, captured before the deferred
// reset clears it.
func (b *Builder) fail(diag *diagnostic.Context, err error) error {
	return &BuildError{
		BuildID:     diag.BuildID,
		Trail:       diag.Trail(),
		Diagnostics: diag.Diagnostics,
		Err:         err,
	}
}

// BuildReader builds from a character stream using the document's default
// environment.
func (b *Builder) BuildReader(ctx context.Context, r io.Reader) (*Factory, error) {
	return b.Build(ctx, Source{Text: readCloser(r)})
}

// BuildReaderEnv builds from a character stream for one environment.
func (b *Builder) BuildReaderEnv(ctx context.Context, r io.Reader, env string) (*Factory, error) {
	return b.Build(ctx, Source{Text: readCloser(r), Environment: env})
}

// BuildReaderProps builds from a character stream with property overrides.
func (b *Builder) BuildReaderProps(ctx context.Context, r io.Reader, props map[string]string) (*Factory, error) {
	return b.Build(ctx, Source{Text: readCloser(r), Properties: props})
}

// BuildBytes builds from a byte stream using the document's default
// environment.
func (b *Builder) BuildBytes(ctx context.Context, r io.Reader) (*Factory, error) {
	return b.Build(ctx, Source{Bytes: readCloser(r)})
}

// BuildBytesEnv builds from a byte stream for one environment.
func (b *Builder) BuildBytesEnv(ctx context.Context, r io.Reader, env string) (*Factory, error) {
	return b.Build(ctx, Source{Bytes: readCloser(r), Environment: env})
}

// BuildBytesProps builds from a byte stream with property overrides.
func (b *Builder) BuildBytesProps(ctx context.Context, r io.Reader, props map[string]string) (*Factory, error) {
	return b.Build(ctx, Source{Bytes: readCloser(r), Properties: props})
}

// BuildConfiguration wraps a pre-built graph.
func (b *Builder) BuildConfiguration(ctx context.Context, cfg *config.Configuration) (*Factory, error) {
	return b.Build(ctx, Source{Configuration: cfg})
}

// BuildFile builds from a file; the format follows its extension. Without
// Options.Resources, resources resolve relative to the file's directory.
func (b *Builder) BuildFile(ctx context.Context, name, env string, props map[string]string) (*Factory, error) {
	f, err := os.Open(name)
	if err != nil {
		diag := diagnostic.NewContext(uuid.NewString())
		diag.Resource(filepath.Base(name)).Activity("opening configuration")

		return nil, b.fail(diag, fmt.Errorf("%w: %v", config.ErrResourceNotFound, err))
	}

	fb := b
	if b.opts.Resources == nil {
		opts := b.opts
		opts.Resources = os.DirFS(filepath.Dir(name))
		fb = &Builder{opts: opts}
	}

	return fb.Build(ctx, Source{
		Bytes:       f,
		Environment: env,
		Properties:  props,
		Format:      FormatFor(name),
		Name:        filepath.Base(name),
	})
}

// readCloser adopts r. A reader that is also a Closer is closed by the
// build.
func readCloser(r io.Reader) io.ReadCloser {
	if r == nil {
		return nil
	}

	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}
