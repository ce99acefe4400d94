package builder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/diagnostic"
	"sqlmap-builder/internal/resource"
	"sqlmap-builder/internal/xmldoc"
	"sqlmap-builder/primitive"
)

const testPkg = "sqlmap-builder/internal/builder"

type testAuthor struct {
	ID       int64
	Username string
}

type testBlog struct {
	ID     int64
	Title  string
	Author *testAuthor
}

type testBlogMapper interface {
	SelectBlog(id int64) (*testBlog, error)
	CountBlogs() (int, error)
}

const authorMapperXML = `<?xml version="1.0" encoding="UTF-8"?>
<mapper namespace="author">
  <cache eviction="FIFO" flushInterval="60000" size="512" readOnly="true">
    <property name="ttl" value="${ttl:10}"/>
  </cache>
  <resultMap id="authorResult" type="Author">
    <id property="ID" column="author_id"/>
    <result property="Username" column="username"/>
  </resultMap>
  <sql id="authorColumns">${alias}.id as author_id, ${alias}.username</sql>
  <select id="selectAuthor" parameterType="long" resultMap="authorResult">
    select <include refid="authorColumns"><property name="alias" value="a"/></include>
    from author a where a.id = #{id}
  </select>
</mapper>`

const blogMapperXML = `<?xml version="1.0" encoding="UTF-8"?>
<mapper namespace="blog">
  <cache-ref namespace="author"/>
  <resultMap id="detailedBlog" type="Blog" extends="blogResult">
    <association property="Author" resultMap="author.authorResult"/>
  </resultMap>
  <resultMap id="blogResult" type="Blog">
    <id property="ID" column="id"/>
    <result property="Title" column="title"/>
  </resultMap>
  <select id="selectBlog" parameterType="long" resultMap="detailedBlog">
    select <include refid="blogColumns"/>,
      <include refid="author.authorColumns"><property name="alias" value="au"/></include>
    from blog b join author au on au.id = b.author_id
    where b.id = #{id}
  </select>
  <select id="findBlogs" resultType="Blog">
    select <include refid="blogColumns"/> from blog b
    <where><if test="title != null">b.title like #{title}</if></where>
  </select>
  <insert id="insertBlog" parameterType="Blog" useGeneratedKeys="true" keyProperty="ID">
    insert into blog (title) values (#{Title})
  </insert>
  <sql id="blogColumns">b.id, b.title</sql>
</mapper>`

const configTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<configuration>
  <properties>
    <property name="driver" value="postgres"/>
    <property name="url" value="postgres://localhost/blog"/>
    <property name="org.apache.ibatis.parsing.PropertyParser.enable-default-value" value="true"/>
  </properties>
  <settings>
    <setting name="defaultStatementTimeout" value="30"/>
    <setting name="shrinkWhitespacesInSql" value="true"/>
  </settings>
  <typeAliases>
    <typeAlias alias="Author" type="sqlmap-builder/internal/builder.testAuthor"/>
    <typeAlias alias="Blog" type="sqlmap-builder/internal/builder.testBlog"/>
  </typeAliases>
  <environments default="development">
    <environment id="development">
      <transactionManager type="JDBC"/>
      <dataSource type="POOLED">
        <property name="driver" value="${driver}"/>
        <property name="url" value="${url}"/>
      </dataSource>
    </environment>
    <environment id="test">
      <transactionManager type="managed"/>
      <dataSource type="unpooled">
        <property name="driver" value="sqlite3"/>
      </dataSource>
    </environment>
  </environments>
  <mappers>
%s
  </mappers>
</configuration>`

func mapperEntries(resources ...string) string {
	var sb strings.Builder
	for _, r := range resources {
		fmt.Fprintf(&sb, "    <mapper resource=%q/>\n", r)
	}

	return sb.String()
}

func testDeps(files fstest.MapFS) Deps {
	types := config.NewRegistry[reflect.Type]()
	for _, t := range []reflect.Type{
		reflect.TypeOf(testAuthor{}),
		reflect.TypeOf(testBlog{}),
		reflect.TypeOf((*testBlogMapper)(nil)).Elem(),
	} {
		types.Register(config.QualifiedTypeName(t), t)
	}

	return Deps{
		Loader:       resource.NewLoader(files, nil),
		Types:        types,
		TypeHandlers: config.NewRegistry[config.TypeHandler](),
		Interceptors: config.NewRegistry[config.InterceptorFactory](),
		PackageRoot:  testPkg,
	}
}

func blogFiles() fstest.MapFS {
	return fstest.MapFS{
		"mappers/AuthorMapper.xml": {Data: []byte(authorMapperXML)},
		"mappers/BlogMapper.xml":   {Data: []byte(blogMapperXML)},
	}
}

func build(t *testing.T, deps Deps, configXML, env string, props map[string]string) (*config.Configuration, *diagnostic.Context, error) {
	t.Helper()

	doc, err := xmldoc.ParseConfig(strings.NewReader(configXML), xmldoc.Text, "mybatis-config.xml")
	require.NoError(t, err)

	diag := diagnostic.NewContext("test")
	cfg, err := NewConfigBuilder(deps, diag).Build(context.Background(), doc, env, props)

	return cfg, diag, err
}

func blogConfig() string {
	return fmt.Sprintf(configTemplate, mapperEntries("mappers/AuthorMapper.xml", "mappers/BlogMapper.xml"))
}

func TestBuild_Blog(t *testing.T) {
	cfg, diag, err := build(t, testDeps(blogFiles()), blogConfig(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, diag.Diagnostics.Warnings)

	assert.Equal(t, []string{
		"author.selectAuthor", "blog.findBlogs", "blog.insertBlog", "blog.selectBlog",
	}, cfg.StatementIDs())

	env := cfg.Environment()
	require.NotNil(t, env)
	assert.Equal(t, "development", env.ID)
	assert.Equal(t, config.TransactionJDBC, env.TransactionFactory.Type)
	assert.Equal(t, config.DataSourcePooled, env.DataSource.Type)
	assert.Equal(t, "postgres", env.DataSource.Driver())

	settings := cfg.Settings()
	require.NotNil(t, settings.DefaultStatementTimeout)
	assert.Equal(t, 30, *settings.DefaultStatementTimeout)

	t.Run("forward include in the same mapper", func(t *testing.T) {
		ms, err := cfg.Statement("blog.selectBlog")
		require.NoError(t, err)

		sql := ms.SQL()
		assert.Contains(t, sql, "b.id, b.title")
		assert.Contains(t, sql, "au.id as author_id, au.username")
		assert.Contains(t, sql, "from blog b join author au on au.id = b.author_id where b.id = #{id}")
		assert.False(t, ms.IsDynamic())
		assert.Equal(t, []string{"blog.detailedBlog"}, ms.ResultMaps)
		assert.Equal(t, "author", ms.Cache)
		require.NotNil(t, ms.Timeout)
		assert.Equal(t, 30, *ms.Timeout)
	})

	t.Run("include properties", func(t *testing.T) {
		ms, err := cfg.Statement("selectAuthor")
		require.NoError(t, err)
		assert.Equal(t, "select a.id as author_id, a.username from author a where a.id = #{id}", ms.SQL())
		assert.Equal(t, "int64", ms.ParameterType.Name)
	})

	t.Run("dynamic body", func(t *testing.T) {
		ms, err := cfg.Statement("blog.findBlogs")
		require.NoError(t, err)
		assert.True(t, ms.IsDynamic())
		assert.Contains(t, ms.SQL(), `<where> <if test="title != null"> b.title like #{title} </if> </where>`)
		assert.Equal(t, reflect.TypeOf(testBlog{}), ms.ResultType.Type)
		assert.False(t, ms.FlushCache)
		assert.True(t, ms.UseCache)
	})

	t.Run("insert defaults", func(t *testing.T) {
		ms, err := cfg.Statement("blog.insertBlog")
		require.NoError(t, err)
		assert.Equal(t, config.KindInsert, ms.Kind)
		assert.True(t, ms.UseGeneratedKeys)
		assert.True(t, ms.FlushCache)
		assert.False(t, ms.UseCache)
		assert.Equal(t, []string{"ID"}, ms.KeyProperties)
	})

	t.Run("result map inheritance", func(t *testing.T) {
		rm, ok := cfg.ResultMap("blog.detailedBlog")
		require.True(t, ok)
		assert.Equal(t, "blog.blogResult", rm.Extends)
		require.Len(t, rm.Mappings, 3)
		assert.Equal(t, config.MappingAssociation, rm.Mappings[0].Kind)
		assert.Equal(t, "author.authorResult", rm.Mappings[0].NestedResultMap)
		assert.Equal(t, "ID", rm.Mappings[1].Property)
		assert.True(t, rm.Mappings[1].IsID())
	})

	t.Run("cache", func(t *testing.T) {
		def, ok := cfg.Cache("author")
		require.True(t, ok)
		assert.Equal(t, config.EvictionFIFO, def.Eviction)
		assert.Equal(t, 512, def.Size)
		assert.True(t, def.ReadOnly)
		assert.Equal(t, time.Minute, def.FlushInterval)
		assert.Equal(t, map[string]string{"ttl": "10"}, def.Properties)

		served, ok := cfg.CacheFor("blog")
		require.True(t, ok)
		assert.Same(t, def, served)
	})

	assert.Equal(t, []string{"mappers/AuthorMapper.xml", "mappers/BlogMapper.xml"}, cfg.LoadedResources())
}

func TestBuild_ExternalPropertiesWin(t *testing.T) {
	cfg, _, err := build(t, testDeps(blogFiles()), blogConfig(), "", map[string]string{
		"driver":                            "B",
		"settings.mapUnderscoreToCamelCase": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "B", cfg.Environment().DataSource.Driver())
	assert.True(t, cfg.Settings().MapUnderscoreToCamelCase)

	v, _ := cfg.Variable("driver")
	assert.Equal(t, "B", v)
}

func TestBuild_DocumentPropertiesSeeExternal(t *testing.T) {
	doc := strings.Replace(blogConfig(), "postgres://localhost/blog", "postgres://${host}/app", 1)

	cfg, _, err := build(t, testDeps(blogFiles()), doc, "", map[string]string{"host": "db1"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://db1/app", cfg.Environment().DataSource.URL())

	v, _ := cfg.Variable("url")
	assert.Equal(t, "postgres://db1/app", v)
}

func TestBuild_SelectsRequestedEnvironment(t *testing.T) {
	cfg, _, err := build(t, testDeps(blogFiles()), blogConfig(), "test", nil)
	require.NoError(t, err)

	env := cfg.Environment()
	assert.Equal(t, "test", env.ID)
	assert.Equal(t, config.TransactionManaged, env.TransactionFactory.Type)
	assert.Equal(t, config.DataSourceUnpooled, env.DataSource.Type)
}

func TestBuild_UnknownEnvironment(t *testing.T) {
	_, _, err := build(t, testDeps(blogFiles()), blogConfig(), "tset", nil)
	require.ErrorIs(t, err, config.ErrUnknownEnvironment)
	assert.Contains(t, err.Error(), `did you mean "test"`)
}

func TestBuild_EnvironmentProblemsReportedTogether(t *testing.T) {
	broken := `  <environments default="development">
    <environment id="development">
      <transactionManager type="XA"/>
      <dataSource type="POOLED"/>
    </environment>
    <environment id="test">
      <transactionManager type="JDBC"/>
    </environment>
    <environment id="development">
      <transactionManager type="JDBC"/>
      <dataSource type="POOLED"/>
    </environment>
  </environments>
  <mappers>`
	start := strings.Index(blogConfig(), "  <environments")
	end := strings.Index(blogConfig(), "  <mappers>") + len("  <mappers>")
	doc := blogConfig()[:start] + broken + blogConfig()[end:]

	_, diag, err := build(t, testDeps(blogFiles()), doc, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnresolvedType)
	assert.ErrorIs(t, err, config.ErrMalformedDocument)
	assert.Contains(t, err.Error(), `"XA"`)
	assert.Contains(t, err.Error(), `environment "test" has no dataSource`)
	assert.Contains(t, err.Error(), `environment "development" is declared twice`)

	require.Len(t, diag.Diagnostics.Errors, 3)
	assert.Equal(t, "invalid_environment", diag.Diagnostics.Errors[0].Code)
	assert.Equal(t, "test", diag.Diagnostics.Errors[1].Element)
	assert.Equal(t, "duplicate_environment", diag.Diagnostics.Errors[2].Code)
}

func TestBuild_DuplicateStatement(t *testing.T) {
	files := blogFiles()
	files["mappers/BlogMapper2.xml"] = &fstest.MapFile{Data: []byte(`<mapper namespace="blog">
  <select id="findBlogs" resultType="Blog">select * from blog</select>
</mapper>`)}

	_, _, err := build(t, testDeps(files),
		fmt.Sprintf(configTemplate, mapperEntries("mappers/AuthorMapper.xml", "mappers/BlogMapper.xml", "mappers/BlogMapper2.xml")),
		"", nil)
	require.ErrorIs(t, err, config.ErrDuplicateStatement)
	assert.Contains(t, err.Error(), "mappers/BlogMapper.xml")
	assert.Contains(t, err.Error(), "mappers/BlogMapper2.xml")
}

func TestBuild_CacheRefOrdering(t *testing.T) {
	_, diag, err := build(t, testDeps(blogFiles()),
		fmt.Sprintf(configTemplate, mapperEntries("mappers/BlogMapper.xml", "mappers/AuthorMapper.xml")),
		"", nil)
	require.ErrorIs(t, err, config.ErrUnresolvedCacheRef)
	assert.Contains(t, strings.Join(diag.Trail(), "\n"), "in mappers/BlogMapper.xml")
}

func TestBuild_CrossMapperForwardIncludeFails(t *testing.T) {
	files := blogFiles()
	files["mappers/AuthorMapper.xml"] = &fstest.MapFile{Data: []byte(`<mapper namespace="author">
  <cache/>
  <resultMap id="authorResult" type="Author"/>
  <select id="selectAuthor">select <include refid="blog.blogColumns"/> from author</select>
</mapper>`)}

	_, _, err := build(t, testDeps(files), blogConfig(), "", nil)
	require.ErrorIs(t, err, config.ErrUnresolvedInclude)
}

func TestBuild_MapperErrors(t *testing.T) {
	tests := []struct {
		name   string
		mapper string
		want   error
	}{
		{
			name: "include cycle",
			mapper: `<mapper namespace="m">
  <sql id="a">x <include refid="b"/></sql>
  <sql id="b">y <include refid="a"/></sql>
  <select id="s">select <include refid="a"/></select>
</mapper>`,
			want: config.ErrIncludeCycle,
		},
		{
			name:   "unresolved include",
			mapper: `<mapper namespace="m"><select id="s">select <include refid="nope"/></select></mapper>`,
			want:   config.ErrUnresolvedInclude,
		},
		{
			name:   "unresolved result map",
			mapper: `<mapper namespace="m"><select id="s" resultMap="nope">select 1</select></mapper>`,
			want:   config.ErrUnresolvedResultMap,
		},
		{
			name: "unresolved nested result map",
			mapper: `<mapper namespace="m">
  <resultMap id="r" type="Blog"><association property="Author" resultMap="other.author"/></resultMap>
</mapper>`,
			want: config.ErrUnresolvedResultMap,
		},
		{
			name:   "unresolved type",
			mapper: `<mapper namespace="m"><select id="s" resultType="Blgo">select 1</select></mapper>`,
			want:   config.ErrUnresolvedType,
		},
		{
			name:   "cache and cache-ref",
			mapper: `<mapper namespace="m"><cache/><cache-ref namespace="m"/></mapper>`,
			want:   config.ErrDuplicateCache,
		},
		{
			name:   "cache-ref to unknown namespace",
			mapper: `<mapper namespace="m"><cache-ref namespace="nowhere"/></mapper>`,
			want:   config.ErrUnresolvedCacheRef,
		},
		{
			name:   "empty namespace",
			mapper: `<mapper><select id="s">select 1</select></mapper>`,
			want:   config.ErrMalformedDocument,
		},
		{
			name:   "dotted id",
			mapper: `<mapper namespace="m"><select id="a.b">select 1</select></mapper>`,
			want:   config.ErrMalformedDocument,
		},
		{
			name:   "duplicate in one mapper",
			mapper: `<mapper namespace="m"><select id="s">select 1</select><select id="s">select 2</select></mapper>`,
			want:   config.ErrDuplicateStatement,
		},
		{
			name:   "bad attribute",
			mapper: `<mapper namespace="m"><select id="s" timeout="soon">select 1</select></mapper>`,
			want:   config.ErrMalformedDocument,
		},
		{
			name:   "unknown element",
			mapper: `<mapper namespace="m"><select id="s">select <bogus/></select></mapper>`,
			want:   config.ErrMalformedDocument,
		},
		{
			name: "extends cycle",
			mapper: `<mapper namespace="m">
  <resultMap id="a" type="Blog" extends="b"/>
  <resultMap id="b" type="Blog" extends="a"/>
</mapper>`,
			want: config.ErrMalformedDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := fstest.MapFS{"m.xml": {Data: []byte(tt.mapper)}}
			_, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, mapperEntries("m.xml")), "", nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_UnknownSetting(t *testing.T) {
	doc := strings.Replace(blogConfig(), "shrinkWhitespacesInSql", "shrinkWhitespaceInSql", 1)

	_, _, err := build(t, testDeps(blogFiles()), doc, "", nil)
	require.ErrorIs(t, err, config.ErrUnknownSetting)
	assert.Contains(t, err.Error(), `did you mean "shrinkWhitespacesInSql"`)
}

func TestBuild_InvalidSetting(t *testing.T) {
	_, _, err := build(t, testDeps(blogFiles()), blogConfig(), "", map[string]string{
		"settings.cacheEnabled": "sometimes",
	})
	assert.ErrorIs(t, err, config.ErrInvalidSetting)
}

func TestBuild_PropertiesResource(t *testing.T) {
	files := blogFiles()
	files["db.properties"] = &fstest.MapFile{Data: []byte("driver = mysql\nurl=mysql://db/${schema}\n")}

	doc := strings.Replace(blogConfig(), "<properties>", `<properties resource="db.properties">`, 1)

	cfg, _, err := build(t, testDeps(files), doc, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Environment().DataSource.Driver())
	assert.Equal(t, "mysql://db/${schema}", cfg.Environment().DataSource.URL())

	t.Run("missing", func(t *testing.T) {
		doc := strings.Replace(blogConfig(), "<properties>", `<properties resource="missing.properties">`, 1)
		_, _, err := build(t, testDeps(blogFiles()), doc, "", nil)
		assert.ErrorIs(t, err, config.ErrResourceNotFound)
	})

	t.Run("resource and url", func(t *testing.T) {
		doc := strings.Replace(blogConfig(), "<properties>", `<properties resource="db.properties" url="file:db.properties">`, 1)
		_, _, err := build(t, testDeps(files), doc, "", nil)
		assert.ErrorIs(t, err, config.ErrMalformedDocument)
	})
}

func TestBuild_URLMapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/AuthorMapper.xml" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(authorMapperXML))
	}))
	defer srv.Close()

	entries := fmt.Sprintf("    <mapper url=%q/>\n", srv.URL+"/AuthorMapper.xml") + mapperEntries("mappers/BlogMapper.xml")

	cfg, _, err := build(t, testDeps(blogFiles()), fmt.Sprintf(configTemplate, entries), "", nil)
	require.NoError(t, err)
	assert.True(t, cfg.HasStatement("author.selectAuthor"))
	assert.True(t, cfg.IsResourceLoaded(srv.URL+"/AuthorMapper.xml"))

	entries = fmt.Sprintf("    <mapper url=%q/>\n", srv.URL+"/missing.xml")
	_, _, err = build(t, testDeps(blogFiles()), fmt.Sprintf(configTemplate, entries), "", nil)
	assert.ErrorIs(t, err, config.ErrResourceNotFound)
}

func TestBuild_ResourceLoadedOnce(t *testing.T) {
	cfg, _, err := build(t, testDeps(blogFiles()),
		fmt.Sprintf(configTemplate, mapperEntries("mappers/AuthorMapper.xml", "/mappers/AuthorMapper.xml")), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mappers/AuthorMapper.xml"}, cfg.LoadedResources())
}

func TestBuild_ClassMapper(t *testing.T) {
	mapperName := testPkg + ".testBlogMapper"
	files := fstest.MapFS{
		"testBlogMapper.xml": {Data: []byte(fmt.Sprintf(`<mapper namespace=%q>
  <select id="SelectBlog" resultType="Blog">select * from blog where id = #{id}</select>
</mapper>`, mapperName))},
	}

	entries := fmt.Sprintf("    <mapper class=%q/>\n", mapperName)

	cfg, diag, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, entries), "", nil)
	require.NoError(t, err)

	binding, ok := cfg.Mapper(mapperName)
	require.True(t, ok)
	assert.Equal(t, []string{"CountBlogs", "SelectBlog"}, binding.Methods)
	assert.True(t, cfg.HasStatement(mapperName+".SelectBlog"))
	assert.True(t, cfg.IsResourceLoaded("testBlogMapper.xml"))

	require.Len(t, diag.Diagnostics.Infos, 1)
	assert.Equal(t, "unmapped_method", diag.Diagnostics.Infos[0].Code)

	t.Run("bound twice", func(t *testing.T) {
		entries := fmt.Sprintf("    <mapper class=%q/>\n    <mapper class=%q/>\n", mapperName, mapperName)
		_, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, entries), "", nil)
		assert.ErrorIs(t, err, config.ErrDuplicateMapper)
	})

	t.Run("namespace mismatch", func(t *testing.T) {
		files := fstest.MapFS{"testBlogMapper.xml": {Data: []byte(`<mapper namespace="other"/>`)}}
		_, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, entries), "", nil)
		assert.ErrorIs(t, err, config.ErrMalformedDocument)
	})

	t.Run("not an interface", func(t *testing.T) {
		entries := fmt.Sprintf("    <mapper class=%q/>\n", testPkg+".testBlog")
		_, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, entries), "", nil)
		assert.ErrorIs(t, err, config.ErrUnresolvedType)
	})

	t.Run("package", func(t *testing.T) {
		entries := fmt.Sprintf("    <package name=%q/>\n", testPkg)
		cfg, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, entries), "", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{mapperName}, cfg.MapperNamespaces())
	})
}

func TestBuild_MapperEntryWithTwoLocations(t *testing.T) {
	doc := strings.Replace(blogConfig(), `<mapper resource="mappers/AuthorMapper.xml"/>`,
		`<mapper resource="mappers/AuthorMapper.xml" url="http://example.com/x.xml"/>`, 1)

	_, _, err := build(t, testDeps(blogFiles()), doc, "", nil)
	assert.ErrorIs(t, err, config.ErrMalformedDocument)
}

func TestBuild_DatabaseID(t *testing.T) {
	files := fstest.MapFS{"m.xml": {Data: []byte(`<mapper namespace="m">
  <sql id="now">now()</sql>
  <sql id="now" databaseId="sqlite">datetime('now')</sql>
  <select id="clock">select <include refid="now"/></select>
  <select id="clock" databaseId="pg">select current_timestamp</select>
  <select id="other" databaseId="sqlite">select 1</select>
  <select id="version" databaseId="pg">select version()</select>
  <select id="version">select 'generic'</select>
</mapper>`)}}

	doc := strings.Replace(fmt.Sprintf(configTemplate, mapperEntries("m.xml")), "  <mappers>", `  <databaseIdProvider type="DB_VENDOR">
    <property name="Postgres" value="pg"/>
    <property name="SQLite" value="sqlite"/>
  </databaseIdProvider>
  <mappers>`, 1)

	cfg, _, err := build(t, testDeps(files), doc, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.DatabaseID())

	clock, err := cfg.Statement("m.clock")
	require.NoError(t, err)
	assert.Equal(t, "pg", clock.DatabaseID)
	assert.Equal(t, "select current_timestamp", clock.SQL())

	version, err := cfg.Statement("m.version")
	require.NoError(t, err)
	assert.Equal(t, "select version()", version.SQL())

	assert.False(t, cfg.HasStatement("m.other"))

	cfg, _, err = build(t, testDeps(files), doc, "test", nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DatabaseID())
	assert.True(t, cfg.HasStatement("m.other"))

	clock, err = cfg.Statement("m.clock")
	require.NoError(t, err)
	assert.Equal(t, "select datetime('now')", clock.SQL())
}

func TestBuild_Plugins(t *testing.T) {
	deps := testDeps(blogFiles())

	var seen []string

	deps.Interceptors.Register("audit", func(props map[string]string) (config.Interceptor, error) {
		seen = append(seen, "audit:"+props["level"])
		return config.InterceptorFunc(func(target any) any { return target }), nil
	})
	deps.Interceptors.Register("limit", func(props map[string]string) (config.Interceptor, error) {
		seen = append(seen, "limit:"+props["max"])
		return config.InterceptorFunc(func(target any) any { return target }), nil
	})

	plugins := `  <plugins>
    <plugin interceptor="limit"><property name="max" value="100"/></plugin>
    <plugin interceptor="audit"><property name="level" value="${driver}"/></plugin>
  </plugins>
  <environments`
	doc := strings.Replace(blogConfig(), "  <environments", plugins, 1)

	cfg, _, err := build(t, deps, doc, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"limit:100", "audit:postgres"}, seen)
	assert.Equal(t, []string{"limit", "audit"}, cfg.InterceptorChain().Names())

	_, _, err = build(t, testDeps(blogFiles()), doc, "", nil)
	assert.ErrorIs(t, err, config.ErrUnknownPlugin)
}

func TestBuild_PluginsAfterEnvironments(t *testing.T) {
	deps := testDeps(blogFiles())
	deps.Interceptors.Register("audit", func(map[string]string) (config.Interceptor, error) {
		return config.InterceptorFunc(func(target any) any { return target }), nil
	})

	plugins := `  </environments>
  <plugins>
    <plugin interceptor="audit"/>
  </plugins>`
	doc := strings.Replace(blogConfig(), "  </environments>", plugins, 1)

	cfg, _, err := build(t, deps, doc, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit"}, cfg.InterceptorChain().Names())
}

func TestBuild_TypeHandlers(t *testing.T) {
	deps := testDeps(blogFiles())
	deps.TypeHandlers.Register("example.com/handlers.Upper", config.PrimitiveHandler(primitive.KindString))

	handlers := `  <typeHandlers>
    <typeHandler handler="example.com/handlers.Upper" javaType="Author" jdbcType="varchar"/>
    <package name="example.com/handlers"/>
  </typeHandlers>
  <environments`
	doc := strings.Replace(blogConfig(), "  <environments", handlers, 1)

	cfg, _, err := build(t, deps, doc, "", nil)
	require.NoError(t, err)

	_, ok := cfg.TypeHandlers().Lookup(config.TypeOf(reflect.TypeOf(testAuthor{})), config.JdbcType("VARCHAR"))
	assert.True(t, ok)

	doc = strings.Replace(doc, `handler="example.com/handlers.Upper"`, `handler="example.com/handlers.Uper"`, 1)
	_, _, err = build(t, deps, doc, "", nil)
	require.ErrorIs(t, err, config.ErrUnknownPlugin)
	assert.Contains(t, err.Error(), "example.com/handlers.Upper")
}

func TestBuild_UnknownPropertyWarning(t *testing.T) {
	files := fstest.MapFS{"m.xml": {Data: []byte(`<mapper namespace="m">
  <resultMap id="r" type="Author">
    <id property="ID" column="id"/>
    <result property="Usernme" column="username"/>
  </resultMap>
</mapper>`)}}

	_, diag, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, mapperEntries("m.xml")), "", nil)
	require.NoError(t, err)
	require.Len(t, diag.Diagnostics.Warnings, 1)

	w := diag.Diagnostics.Warnings[0]
	assert.Equal(t, "unknown_property", w.Code)
	assert.Equal(t, "m.xml", w.Resource)
	assert.Equal(t, []string{"Username"}, w.Suggestions)
}

func TestBuild_InlineNestedResultMap(t *testing.T) {
	files := fstest.MapFS{"m.xml": {Data: []byte(`<mapper namespace="m">
  <resultMap id="blog" type="Blog">
    <id property="ID" column="id"/>
    <association property="Author" javaType="Author" columnPrefix="author_">
      <id property="ID" column="id"/>
      <result property="Username" column="username"/>
    </association>
  </resultMap>
</mapper>`)}}

	cfg, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, mapperEntries("m.xml")), "", nil)
	require.NoError(t, err)

	rm, ok := cfg.ResultMap("m.blog")
	require.True(t, ok)
	require.Len(t, rm.Mappings, 2)
	assert.Equal(t, "m.blog_association[Author]", rm.Mappings[1].NestedResultMap)
	assert.Equal(t, "author_", rm.Mappings[1].ColumnPrefix)

	nested, ok := cfg.ResultMap("m.blog_association[Author]")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(testAuthor{}), nested.Type.Type)
	assert.Len(t, nested.Mappings, 2)
}

func TestBuild_SelectKey(t *testing.T) {
	files := fstest.MapFS{"m.xml": {Data: []byte(`<mapper namespace="m">
  <insert id="add">
    <selectKey keyProperty="ID" resultType="long" order="before">select nextval('seq')</selectKey>
    insert into t (id) values (#{ID})
  </insert>
</mapper>`)}}

	cfg, _, err := build(t, testDeps(files), fmt.Sprintf(configTemplate, mapperEntries("m.xml")), "", nil)
	require.NoError(t, err)

	ms, err := cfg.Statement("m.add")
	require.NoError(t, err)
	require.NotNil(t, ms.KeyGenerator)
	assert.Equal(t, "BEFORE", ms.KeyGenerator.Order)
	assert.Equal(t, "select nextval('seq')", ms.KeyGenerator.Body.Render(false))
	assert.Equal(t, "insert into t (id) values (#{ID})", ms.SQL())
}

func TestBuild_IgnoredSectionsAreReported(t *testing.T) {
	doc := strings.Replace(blogConfig(), "  <environments", `  <objectFactory type="x"/>
  <environments`, 1)

	_, diag, err := build(t, testDeps(blogFiles()), doc, "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, diag.Diagnostics.Infos)
	assert.Equal(t, "ignored_element", diag.Diagnostics.Infos[0].Code)
}

func TestConfigBuilder_SingleUse(t *testing.T) {
	doc, err := xmldoc.ParseConfig(strings.NewReader(blogConfig()), xmldoc.Text, "c.xml")
	require.NoError(t, err)

	b := NewConfigBuilder(testDeps(blogFiles()), nil)
	_, err = b.Build(context.Background(), doc, "", nil)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), doc, "", nil)
	assert.Error(t, err)
}
