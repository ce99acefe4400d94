package config

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stmt(ns, id, resource string) *MappedStatement {
	return &MappedStatement{
		ID:        ns + "." + id,
		Namespace: ns,
		Resource:  resource,
		Kind:      KindSelect,
		Body:      TextNode("select 1"),
	}
}

func TestConfiguration_DuplicateStatementNamesBothResources(t *testing.T) {
	c := New()
	require.NoError(t, c.AddStatement(stmt("blog", "selectBlog", "a.xml")))

	err := c.AddStatement(stmt("blog", "selectBlog", "b.xml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateStatement))
	assert.Contains(t, err.Error(), "a.xml")
	assert.Contains(t, err.Error(), "b.xml")
}

func TestConfiguration_StatementLookup(t *testing.T) {
	c := New()
	require.NoError(t, c.AddStatement(stmt("blog", "selectBlog", "a.xml")))
	require.NoError(t, c.AddStatement(stmt("blog", "selectAll", "a.xml")))
	require.NoError(t, c.AddStatement(stmt("author", "selectAll", "b.xml")))

	ms, err := c.Statement("blog.selectBlog")
	require.NoError(t, err)
	assert.Equal(t, "selectBlog", ms.ShortID())

	ms, err = c.Statement("selectBlog")
	require.NoError(t, err)
	assert.Equal(t, "blog.selectBlog", ms.ID)

	_, err = c.Statement("selectAll")
	assert.ErrorIs(t, err, ErrAmbiguousStatement)

	_, err = c.Statement("missing")
	assert.ErrorIs(t, err, ErrStatementNotFound)

	assert.Equal(t, []string{"author.selectAll", "blog.selectAll", "blog.selectBlog"}, c.StatementIDs())
}

func TestConfiguration_FreezeRejectsMutation(t *testing.T) {
	c := New()
	c.Freeze()
	c.Freeze()

	assert.True(t, c.IsFrozen())
	assert.ErrorIs(t, c.AddStatement(stmt("a", "b", "x.xml")), ErrFrozen)
	assert.ErrorIs(t, c.SetSettings(DefaultSettings()), ErrFrozen)
	assert.ErrorIs(t, c.SetVariables(nil), ErrFrozen)
	assert.ErrorIs(t, c.SetEnvironment(&Environment{}), ErrFrozen)
	assert.ErrorIs(t, c.AddCache(&CacheDef{Namespace: "a"}), ErrFrozen)
	assert.ErrorIs(t, c.MarkResourceLoaded("x.xml"), ErrFrozen)
	assert.ErrorIs(t, c.TypeAliases().Register("blog", NamedType("x.Blog")), ErrFrozen)
	assert.ErrorIs(t, c.TypeHandlers().Register(NamedType("x.Blog"), JdbcUndefined, PrimitiveHandler(1)), ErrFrozen)
}

func TestConfiguration_CacheRef(t *testing.T) {
	c := New()

	err := c.AddCacheRef("blog", "author")
	assert.ErrorIs(t, err, ErrUnresolvedCacheRef)

	require.NoError(t, c.AddCache(&CacheDef{Namespace: "author", Eviction: EvictionLRU}))
	require.NoError(t, c.AddCacheRef("blog", "author"))
	require.NoError(t, c.AddCacheRef("post", "blog"))

	def, ok := c.CacheFor("post")
	require.True(t, ok)
	assert.Equal(t, "author", def.Namespace)

	assert.ErrorIs(t, c.AddCache(&CacheDef{Namespace: "blog"}), ErrDuplicateCache)
	assert.ErrorIs(t, c.AddCache(&CacheDef{Namespace: "author"}), ErrDuplicateCache)
}

func TestConfiguration_DuplicateMapper(t *testing.T) {
	c := New()
	require.NoError(t, c.AddMapper(MapperBinding{Namespace: "blog.Mapper"}))
	assert.ErrorIs(t, c.AddMapper(MapperBinding{Namespace: "blog.Mapper"}), ErrDuplicateMapper)
	assert.True(t, c.HasMapper("blog.Mapper"))
}

func TestConfiguration_ShrinkWhitespace(t *testing.T) {
	c := New()
	s := c.Settings()
	require.NoError(t, s.Apply("shrinkWhitespacesInSql", "true"))
	require.NoError(t, c.SetSettings(s))

	ms := stmt("blog", "q", "a.xml")
	ms.Body = TextNode("select *\n\t  from   blog")
	require.NoError(t, c.AddStatement(ms))

	assert.Equal(t, "select * from blog", ms.SQL())
}

func TestConfiguration_ConcurrentReadsAfterFreeze(t *testing.T) {
	c := New()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.AddStatement(stmt("ns", id, "m.xml")))
	}

	c.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, id := range c.StatementIDs() {
				_, err := c.Statement(id)
				assert.NoError(t, err)
			}

			_ = c.Snapshot()
		}()
	}

	wg.Wait()
}

func TestConfiguration_Snapshot(t *testing.T) {
	c := New()
	require.NoError(t, c.AddCache(&CacheDef{Namespace: "author"}))
	require.NoError(t, c.AddCacheRef("blog", "author"))

	ms := stmt("blog", "q", "a.xml")
	ms.Cache = "author"
	require.NoError(t, c.AddStatement(ms))
	require.NoError(t, c.MarkResourceLoaded("a.xml"))

	s := c.Snapshot()
	assert.Equal(t, "true", s.Settings["cacheEnabled"])
	assert.Equal(t, "int", s.TypeAliases["int"])
	assert.Equal(t, map[string]string{"author": "author", "blog": "author"}, s.Caches)
	require.Len(t, s.Statements, 1)
	assert.Equal(t, "select 1", s.Statements[0].SQL)
	assert.Equal(t, []string{"a.xml"}, s.Resources)
}

func TestEnvironment_Redacted(t *testing.T) {
	var nilEnv *Environment
	assert.Nil(t, nilEnv.Redacted())

	env := &Environment{
		ID:                 "dev",
		TransactionFactory: TransactionFactory{Type: TransactionJDBC},
		DataSource: DataSource{Type: DataSourcePooled, Properties: map[string]string{
			"url":      "postgres://db/app",
			"password": "hunter2",
		}},
	}

	r := env.Redacted()
	assert.Equal(t, "******", r.DataSource.Password())
	assert.Equal(t, "postgres://db/app", r.DataSource.URL())
	assert.Equal(t, "hunter2", env.DataSource.Password())

	c := New()
	require.NoError(t, c.SetEnvironment(env))
	assert.Equal(t, "******", c.Snapshot().Environment.DataSource.Password())
}
