package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/datasource"
	"sqlmap-builder/internal/diagnostic"
)

// ErrSessionClosed is returned by DB after Close.
var ErrSessionClosed = errors.New("session is closed")

// Factory is an immutable handle over one frozen configuration. It is safe
// for concurrent use.
type Factory struct {
	cfg         *config.Configuration
	diagnostics diagnostic.Diagnostics
}

// NewFactory freezes cfg and wraps it. It panics on a nil configuration.
func NewFactory(cfg *config.Configuration) *Factory {
	if cfg == nil {
		panic("session: NewFactory called with a nil configuration")
	}

	cfg.Freeze()

	return &Factory{cfg: cfg}
}

// Configuration returns the frozen graph.
func (f *Factory) Configuration() *config.Configuration {
	return f.cfg
}

// Diagnostics returns the warnings and infos recorded while building.
func (f *Factory) Diagnostics() diagnostic.Diagnostics {
	return f.diagnostics
}

// SessionOption customizes OpenSession.
type SessionOption func(*Session)

// WithExecutor overrides the configuration's default executor type.
func WithExecutor(t config.ExecutorType) SessionOption {
	return func(s *Session) { s.executor = t }
}

// WithAutoCommit sets the session's autocommit mode.
func WithAutoCommit(on bool) SessionOption {
	return func(s *Session) { s.autoCommit = on }
}

// OpenSession returns a new session over the factory's configuration.
func (f *Factory) OpenSession(opts ...SessionOption) *Session {
	s := &Session{
		cfg:      f.cfg,
		executor: f.cfg.Settings().DefaultExecutorType,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Session is a unit of work over a configuration. Statements are only
// looked up here; executing them is the caller's business. A Session is
// not safe for concurrent use.
type Session struct {
	cfg        *config.Configuration
	executor   config.ExecutorType
	autoCommit bool

	once sync.Once
	db   *sqlx.DB
	err  error
}

// Configuration returns the configuration the session reads.
func (s *Session) Configuration() *config.Configuration {
	return s.cfg
}

// ExecutorType returns the executor the session was opened with.
func (s *Session) ExecutorType() config.ExecutorType {
	return s.executor
}

// AutoCommit reports whether the session commits every statement.
func (s *Session) AutoCommit() bool {
	return s.autoCommit
}

// Statement finds a mapped statement by qualified or unambiguous short id.
func (s *Session) Statement(id string) (*config.MappedStatement, error) {
	return s.cfg.Statement(id)
}

// DB opens the environment's data source on first use.
func (s *Session) DB() (*sqlx.DB, error) {
	s.once.Do(func() {
		env := s.cfg.Environment()
		if env == nil {
			s.err = fmt.Errorf("%w: configuration has no environment", config.ErrUnknownEnvironment)
			return
		}

		s.db, s.err = datasource.Open(env.DataSource)
	})

	return s.db, s.err
}

// Close releases the session's database handle, if one was opened. DB
// fails after Close.
func (s *Session) Close() error {
	s.once.Do(func() {})

	db := s.db
	s.db, s.err = nil, ErrSessionClosed

	if db == nil {
		return nil
	}

	return db.Close()
}
