package config

import (
	"sort"
	"sync/atomic"
)

// Configuration is the compiled graph a session factory reads from.
//
// A Configuration is mutated by a single goroutine while it is being built.
// Freeze ends that phase: every mutator then returns ErrFrozen and the graph
// can be read from any number of goroutines without locking.
type Configuration struct {
	frozen atomic.Bool

	settings    Settings
	variables   map[string]string
	aliases     *TypeAliasRegistry
	handlers    *TypeHandlerRegistry
	environment *Environment
	databaseID  string
	chain       InterceptorChain

	statements map[string]*MappedStatement
	shortIDs   map[string][]string
	resultMaps map[string]*ResultMap
	fragments  map[string]*SQLNode
	caches     map[string]*CacheDef
	cacheRefs  map[string]string
	mappers    map[string]MapperBinding
	loaded     map[string]struct{}
}

// New returns an empty configuration with default settings and the built-in
// aliases and type handlers.
func New() *Configuration {
	return &Configuration{
		settings:   DefaultSettings(),
		variables:  make(map[string]string),
		aliases:    NewTypeAliasRegistry(),
		handlers:   NewTypeHandlerRegistry(),
		statements: make(map[string]*MappedStatement),
		shortIDs:   make(map[string][]string),
		resultMaps: make(map[string]*ResultMap),
		fragments:  make(map[string]*SQLNode),
		caches:     make(map[string]*CacheDef),
		cacheRefs:  make(map[string]string),
		mappers:    make(map[string]MapperBinding),
		loaded:     make(map[string]struct{}),
	}
}

// Freeze ends the build phase. Calling it more than once is harmless.
func (c *Configuration) Freeze() {
	if c.frozen.Swap(true) {
		return
	}

	c.aliases.freeze()
	c.handlers.freeze()
}

// IsFrozen reports whether Freeze has been called.
func (c *Configuration) IsFrozen() bool {
	return c.frozen.Load()
}

func (c *Configuration) mutable() error {
	if c.frozen.Load() {
		return ErrFrozen
	}

	return nil
}

// Settings returns a copy of the effective settings.
func (c *Configuration) Settings() Settings {
	return c.settings.Clone()
}

// SetSettings replaces the effective settings.
func (c *Configuration) SetSettings(s Settings) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.settings = s.Clone()

	return nil
}

// Variables returns a copy of the effective properties.
func (c *Configuration) Variables() map[string]string {
	out := make(map[string]string, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}

	return out
}

// Variable returns one effective property.
func (c *Configuration) Variable(name string) (string, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// SetVariables replaces the effective properties.
func (c *Configuration) SetVariables(vars map[string]string) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.variables = make(map[string]string, len(vars))
	for k, v := range vars {
		c.variables[k] = v
	}

	return nil
}

// TypeAliases returns the alias registry.
func (c *Configuration) TypeAliases() *TypeAliasRegistry {
	return c.aliases
}

// TypeHandlers returns the type handler registry.
func (c *Configuration) TypeHandlers() *TypeHandlerRegistry {
	return c.handlers
}

// ResolveType looks name up in the alias registry.
func (c *Configuration) ResolveType(name string) (TypeRef, error) {
	if ref, ok := c.aliases.Lookup(name); ok {
		return ref, nil
	}

	return TypeRef{}, wrapf(ErrUnresolvedType, "%q", name)
}

// Environment returns the selected environment, or nil if none was set.
func (c *Configuration) Environment() *Environment {
	return c.environment
}

// SetEnvironment sets the selected environment.
func (c *Configuration) SetEnvironment(env *Environment) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.environment = env

	return nil
}

// DatabaseID returns the id chosen by the database id provider.
func (c *Configuration) DatabaseID() string {
	return c.databaseID
}

// SetDatabaseID sets the database id statements are filtered by.
func (c *Configuration) SetDatabaseID(id string) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.databaseID = id

	return nil
}

// InterceptorChain returns the plugin chain.
func (c *Configuration) InterceptorChain() *InterceptorChain {
	return &c.chain
}

// AddInterceptor appends an interceptor to the chain.
func (c *Configuration) AddInterceptor(name string, i Interceptor) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.chain.add(name, i)

	return nil
}

// AddStatement registers a statement under its qualified id. A second
// statement with the same id fails with ErrDuplicateStatement.
func (c *Configuration) AddStatement(ms *MappedStatement) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if existing, ok := c.statements[ms.ID]; ok {
		return wrapf(ErrDuplicateStatement, "%q is declared in %s and again in %s",
			ms.ID, existing.Resource, ms.Resource)
	}

	ms.shrink = c.settings.ShrinkWhitespacesInSQL
	c.statements[ms.ID] = ms

	short := ms.ShortID()
	if short != ms.ID {
		c.shortIDs[short] = append(c.shortIDs[short], ms.ID)
	}

	return nil
}

// ReplaceStatement swaps an already registered statement for ms. It is used
// when a database-specific statement supersedes a generic one.
func (c *Configuration) ReplaceStatement(ms *MappedStatement) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if _, ok := c.statements[ms.ID]; !ok {
		return wrapf(ErrStatementNotFound, "%q", ms.ID)
	}

	ms.shrink = c.settings.ShrinkWhitespacesInSQL
	c.statements[ms.ID] = ms

	return nil
}

// HasStatement reports whether a statement is registered under the
// qualified id.
func (c *Configuration) HasStatement(id string) bool {
	_, ok := c.statements[id]
	return ok
}

// Statement finds a statement by qualified id, or by short id when exactly
// one namespace declares it.
func (c *Configuration) Statement(id string) (*MappedStatement, error) {
	if ms, ok := c.statements[id]; ok {
		return ms, nil
	}

	switch ids := c.shortIDs[id]; len(ids) {
	case 0:
		return nil, wrapf(ErrStatementNotFound, "%q", id)
	case 1:
		return c.statements[ids[0]], nil
	default:
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)

		return nil, wrapf(ErrAmbiguousStatement, "%q matches %v", id, sorted)
	}
}

// StatementIDs returns every qualified statement id, sorted.
func (c *Configuration) StatementIDs() []string {
	return sortedKeys(c.statements)
}

// Statements returns every statement ordered by id.
func (c *Configuration) Statements() []*MappedStatement {
	ids := c.StatementIDs()
	out := make([]*MappedStatement, 0, len(ids))

	for _, id := range ids {
		out = append(out, c.statements[id])
	}

	return out
}

// AddResultMap registers a result map under its qualified id.
func (c *Configuration) AddResultMap(rm *ResultMap) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if existing, ok := c.resultMaps[rm.ID]; ok {
		return wrapf(ErrDuplicateResultMap, "%q is declared in %s and again in %s",
			rm.ID, existing.Resource, rm.Resource)
	}

	c.resultMaps[rm.ID] = rm

	return nil
}

// ResultMap returns a result map by qualified id.
func (c *Configuration) ResultMap(id string) (*ResultMap, bool) {
	rm, ok := c.resultMaps[id]
	return rm, ok
}

// ResultMapIDs returns every qualified result map id, sorted.
func (c *Configuration) ResultMapIDs() []string {
	return sortedKeys(c.resultMaps)
}

// AddFragment registers a reusable SQL fragment under its qualified id.
// Fragments are stored before property substitution.
func (c *Configuration) AddFragment(id string, node *SQLNode) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.fragments[id] = node

	return nil
}

// Fragment returns a fragment by qualified id.
func (c *Configuration) Fragment(id string) (*SQLNode, bool) {
	n, ok := c.fragments[id]
	return n, ok
}

// FragmentIDs returns every qualified fragment id, sorted.
func (c *Configuration) FragmentIDs() []string {
	return sortedKeys(c.fragments)
}

// AddCache registers a namespace's own cache.
func (c *Configuration) AddCache(def *CacheDef) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if _, ok := c.caches[def.Namespace]; ok {
		return wrapf(ErrDuplicateCache, "namespace %q", def.Namespace)
	}

	if target, ok := c.cacheRefs[def.Namespace]; ok {
		return wrapf(ErrDuplicateCache, "namespace %q already references the cache of %q", def.Namespace, target)
	}

	c.caches[def.Namespace] = def

	return nil
}

// AddCacheRef makes namespace share the cache of target. Target must already
// have a cache of its own or a resolved reference.
func (c *Configuration) AddCacheRef(namespace, target string) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if _, ok := c.caches[namespace]; ok {
		return wrapf(ErrDuplicateCache, "namespace %q declares both cache and cache-ref", namespace)
	}

	if _, ok := c.CacheFor(target); !ok {
		return wrapf(ErrUnresolvedCacheRef, "namespace %q refers to %q which has no cache yet", namespace, target)
	}

	c.cacheRefs[namespace] = target

	return nil
}

// Cache returns the cache declared by namespace itself.
func (c *Configuration) Cache(namespace string) (*CacheDef, bool) {
	def, ok := c.caches[namespace]
	return def, ok
}

// CacheFor returns the cache serving namespace, following cache-refs.
func (c *Configuration) CacheFor(namespace string) (*CacheDef, bool) {
	seen := make(map[string]struct{})
	for {
		if def, ok := c.caches[namespace]; ok {
			return def, true
		}

		next, ok := c.cacheRefs[namespace]
		if !ok {
			return nil, false
		}

		if _, loop := seen[next]; loop {
			return nil, false
		}

		seen[namespace] = struct{}{}
		namespace = next
	}
}

// CacheRefs returns a copy of every namespace -> referenced namespace binding.
func (c *Configuration) CacheRefs() map[string]string {
	out := make(map[string]string, len(c.cacheRefs))
	for k, v := range c.cacheRefs {
		out[k] = v
	}

	return out
}

// CacheNamespaces returns every namespace with its own cache, sorted.
func (c *Configuration) CacheNamespaces() []string {
	return sortedKeys(c.caches)
}

// AddMapper binds a namespace to a mapper interface.
func (c *Configuration) AddMapper(b MapperBinding) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if _, ok := c.mappers[b.Namespace]; ok {
		return wrapf(ErrDuplicateMapper, "%s is already known to the mapper registry", b.Namespace)
	}

	c.mappers[b.Namespace] = b

	return nil
}

// HasMapper reports whether an interface is bound to namespace.
func (c *Configuration) HasMapper(namespace string) bool {
	_, ok := c.mappers[namespace]
	return ok
}

// Mapper returns the binding for namespace.
func (c *Configuration) Mapper(namespace string) (MapperBinding, bool) {
	b, ok := c.mappers[namespace]
	return b, ok
}

// MapperNamespaces returns every bound namespace, sorted.
func (c *Configuration) MapperNamespaces() []string {
	return sortedKeys(c.mappers)
}

// MarkResourceLoaded records that a document has been compiled.
func (c *Configuration) MarkResourceLoaded(resource string) error {
	if err := c.mutable(); err != nil {
		return err
	}

	c.loaded[resource] = struct{}{}

	return nil
}

// IsResourceLoaded reports whether a document has been compiled.
func (c *Configuration) IsResourceLoaded(resource string) bool {
	_, ok := c.loaded[resource]
	return ok
}

// LoadedResources returns every compiled document, sorted.
func (c *Configuration) LoadedResources() []string {
	return sortedKeys(c.loaded)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
