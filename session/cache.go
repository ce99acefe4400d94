package session

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"sqlmap-builder/internal/ctxlog"
)

// Opener produces the source for one cache key. It is called at most once
// per successful build.
type Opener func() (Source, error)

// FactoryCache builds each key once and hands the same factory to every
// caller. Concurrent requests for a key share one build; failures are not
// cached.
type FactoryCache struct {
	builder *Builder
	group   singleflight.Group

	mu        sync.RWMutex
	factories map[string]*Factory
}

// NewFactoryCache returns an empty cache building with b. b must not use
// a shared Options.Diagnostics.
func NewFactoryCache(b *Builder) *FactoryCache {
	return &FactoryCache{builder: b, factories: make(map[string]*Factory)}
}

// Get returns the factory for key, building it from open on a miss.
func (c *FactoryCache) Get(ctx context.Context, key string, open Opener) (*Factory, error) {
	return c.load(ctx, key, func() (*Factory, error) {
		src, err := open()
		if err != nil {
			return nil, err
		}

		return c.builder.Build(ctx, src)
	})
}

// GetFile returns the factory for a configuration file and environment.
func (c *FactoryCache) GetFile(ctx context.Context, name, env string) (*Factory, error) {
	return c.load(ctx, name+"#"+env, func() (*Factory, error) {
		return c.builder.BuildFile(ctx, name, env, nil)
	})
}

func (c *FactoryCache) load(ctx context.Context, key string, build func() (*Factory, error)) (*Factory, error) {
	if f, ok := c.lookup(key); ok {
		return f, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if f, ok := c.lookup(key); ok {
			return f, nil
		}

		f, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.factories[key] = f
		c.mu.Unlock()

		return f, nil
	})
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("factory cache", "key", key, "shared", shared)

	return v.(*Factory), nil
}

// Forget drops key so the next Get builds again.
func (c *FactoryCache) Forget(key string) {
	c.mu.Lock()
	delete(c.factories, key)
	c.mu.Unlock()

	c.group.Forget(key)
}

// Keys returns the cached keys, sorted.
func (c *FactoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.factories))
	for k := range c.factories {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func (c *FactoryCache) lookup(key string) (*Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, ok := c.factories[key]

	return f, ok
}
