package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlmap-builder/config"
	"sqlmap-builder/examples/blog"
)

func TestFactoryCache_SharesOneBuild(t *testing.T) {
	c := NewFactoryCache(newBuilder(nil))

	var calls atomic.Int32
	release := make(chan struct{})

	open := func() (Source, error) {
		calls.Add(1)
		<-release

		return Source{Text: track(configWith("m1.xml"))}, nil
	}

	const callers = 8

	var (
		wg        sync.WaitGroup
		factories = make([]*Factory, callers)
		errs      = make([]error, callers)
	)

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)

		go func() {
			defer wg.Done()
			factories[i], errs[i] = c.Get(context.Background(), "main", open)
		}()
	}

	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, factories[0], factories[i])
	}

	f, err := c.Get(context.Background(), "main", open)
	require.NoError(t, err)
	assert.Same(t, factories[0], f)
	assert.LessOrEqual(t, calls.Load(), int32(callers))
	assert.Equal(t, []string{"main"}, c.Keys())
}

func TestFactoryCache_FailuresAreNotCached(t *testing.T) {
	c := NewFactoryCache(newBuilder(nil))

	var calls int

	broken := func() (Source, error) {
		calls++
		return Source{Text: track(configWith("dup.xml", "m1.xml"))}, nil
	}

	_, err := c.Get(context.Background(), "k", broken)
	assert.ErrorIs(t, err, config.ErrDuplicateStatement)
	assert.Empty(t, c.Keys())

	openErr := errors.New("cannot open")
	_, err = c.Get(context.Background(), "k", func() (Source, error) { return Source{}, openErr })
	assert.ErrorIs(t, err, openErr)

	fixed := func() (Source, error) {
		calls++
		return Source{Text: track(configWith("m1.xml"))}, nil
	}

	f, err := c.Get(context.Background(), "k", fixed)
	require.NoError(t, err)
	assert.NotNil(t, f)
	assert.Equal(t, 2, calls)
}

func TestFactoryCache_Forget(t *testing.T) {
	c := NewFactoryCache(newBuilder(nil))

	open := func() (Source, error) {
		return Source{Text: track(configWith("m1.xml"))}, nil
	}

	a, err := c.Get(context.Background(), "b", open)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "a", open)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	c.Forget("b")
	assert.Equal(t, []string{"a"}, c.Keys())

	b, err := c.Get(context.Background(), "b", open)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestFactoryCache_GetFile(t *testing.T) {
	c := NewFactoryCache(NewBuilder(Options{}))

	_, err := c.GetFile(context.Background(), "../examples/blog/mybatis-config.xml", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnresolvedType)
	assert.Empty(t, c.Keys())

	c = NewFactoryCache(NewBuilder(Options{Types: blog.Types(), PackageRoot: blog.PackageRoot}))

	f1, err := c.GetFile(context.Background(), "../examples/blog/mybatis-config.xml", "development")
	require.NoError(t, err)

	f2, err := c.GetFile(context.Background(), "../examples/blog/mybatis-config.xml", "development")
	require.NoError(t, err)
	assert.Same(t, f1, f2)
	assert.Equal(t, []string{"../examples/blog/mybatis-config.xml#development"}, c.Keys())
}
