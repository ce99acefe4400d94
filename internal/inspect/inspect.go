// Package inspect serves a read-only HTTP view of a built configuration.
//
// Routes:
//
//	GET /healthz                 liveness
//	GET /snapshot                the whole configuration summary
//	GET /statements              qualified statement ids
//	GET /statements/{id}         one statement; short ids are accepted
//	GET /sql/{id}                the statement's SQL as text/plain
//	GET /result-maps/{id}        one result map
//	GET /caches/{namespace}      the cache serving a namespace
//	GET /environment             the selected environment, password masked
//	GET /mappers                 bound mapper namespaces
//
// Ids contain slashes and dots, so the id routes match the rest of the path.
package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sqlmap-builder/config"
)

type server struct {
	cfg *config.Configuration
	log *slog.Logger
}

// NewRouter returns the routes over cfg, which must be frozen.
func NewRouter(cfg *config.Configuration, log *slog.Logger) http.Handler {
	s := &server{cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/snapshot", s.snapshot)
	r.Get("/statements", s.statementIDs)
	r.Get("/statements/*", s.statement)
	r.Get("/sql/*", s.sql)
	r.Get("/result-maps/*", s.resultMap)
	r.Get("/caches/*", s.cache)
	r.Get("/environment", s.environment)
	r.Get("/mappers", s.mappers)

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("inspect request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func (s *server) snapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.Snapshot())
}

func (s *server) statementIDs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.StatementIDs())
}

func (s *server) statement(w http.ResponseWriter, r *http.Request) {
	ms, err := s.cfg.Statement(chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ms.Snapshot())
}

func (s *server) sql(w http.ResponseWriter, r *http.Request) {
	ms, err := s.cfg.Statement(chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(ms.SQL()))
}

type resultMapView struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Resource string        `json:"resource"`
	Extends  string        `json:"extends,omitempty"`
	Mappings []mappingView `json:"mappings"`
}

type mappingView struct {
	Kind      config.MappingKind `json:"kind"`
	Property  string             `json:"property,omitempty"`
	Column    string             `json:"column,omitempty"`
	ResultMap string             `json:"resultMap,omitempty"`
	ID        bool               `json:"id,omitempty"`
}

func (s *server) resultMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")

	rm, ok := s.cfg.ResultMap(id)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %q", config.ErrUnresolvedResultMap, id))
		return
	}

	view := resultMapView{
		ID:       rm.ID,
		Type:     rm.Type.Name,
		Resource: rm.Resource,
		Extends:  rm.Extends,
		Mappings: make([]mappingView, 0, len(rm.Mappings)),
	}

	for _, m := range rm.Mappings {
		view.Mappings = append(view.Mappings, mappingView{
			Kind:      m.Kind,
			Property:  m.Property,
			Column:    m.Column,
			ResultMap: m.NestedResultMap,
			ID:        m.IsID(),
		})
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *server) cache(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "*")

	def, ok := s.cfg.CacheFor(ns)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: no cache serves %q", config.ErrUnresolvedCacheRef, ns))
		return
	}

	s.writeJSON(w, http.StatusOK, def)
}

func (s *server) environment(w http.ResponseWriter, _ *http.Request) {
	env := s.cfg.Environment()
	if env == nil {
		s.writeError(w, config.ErrUnknownEnvironment)
		return
	}

	s.writeJSON(w, http.StatusOK, env.Redacted())
}

func (s *server) mappers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.MapperNamespaces())
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, config.ErrStatementNotFound),
		errors.Is(err, config.ErrUnresolvedResultMap),
		errors.Is(err, config.ErrUnresolvedCacheRef),
		errors.Is(err, config.ErrUnknownEnvironment):
		status = http.StatusNotFound
	case errors.Is(err, config.ErrAmbiguousStatement):
		status = http.StatusConflict
	}

	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		s.log.Warn("inspect: failed to write response", "error", err)
	}
}
