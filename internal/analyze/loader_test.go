package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	modelPkg   = "sqlmap-builder/examples/blog/model"
	mappersPkg = "sqlmap-builder/examples/blog/mappers"
)

func TestAnalyzer_LoadPackages(t *testing.T) {
	analyzer := NewAnalyzer()
	graph, err := analyzer.LoadPackages(modelPkg, mappersPkg)
	require.NoError(t, err)
	require.NotNil(t, graph)

	assert.Contains(t, graph.Packages, modelPkg)
	assert.Contains(t, graph.Packages, mappersPkg)

	assert.Contains(t, graph.Types, TypeID{PkgPath: modelPkg, Name: "Blog"})
	assert.NotContains(t, graph.Types, TypeID{PkgPath: modelPkg, Name: "draft"})
}

func field(t *testing.T, info *TypeInfo, name string) FieldInfo {
	t.Helper()

	for _, f := range info.Fields {
		if f.Name == name {
			return f
		}
	}

	require.Failf(t, "missing field", "%s has no field %s", info.ID, name)

	return FieldInfo{}
}

func TestAnalyzer_StructFields(t *testing.T) {
	analyzer := NewAnalyzer()

	post, err := analyzer.Lookup(modelPkg + ".Post")
	require.NoError(t, err)
	assert.Equal(t, TypeKindStruct, post.Kind)
	assert.Equal(t, []string{"ID", "BlogID", "Subject", "Body", "State", "CreatedOn", "Tags"}, post.FieldNames())

	assert.Equal(t, "blog_id", field(t, post, "BlogID").Tag.Get("db"))
	assert.Equal(t, TypeKindSlice, field(t, post, "Tags").Type.Kind)
	assert.Equal(t, TypeKindExternal, field(t, post, "CreatedOn").Type.Kind)
	assert.Equal(t, TypeKindAlias, field(t, post, "State").Type.Kind)
}

func TestAnalyzer_PointerField(t *testing.T) {
	analyzer := NewAnalyzer()

	author, err := analyzer.Lookup(modelPkg + ".Author")
	require.NoError(t, err)

	bio := field(t, author, "Bio")
	assert.Equal(t, TypeKindPointer, bio.Type.Kind)
	require.NotNil(t, bio.Type.ElemType)
	assert.Equal(t, TypeKindBasic, bio.Type.ElemType.Kind)
}

func TestAnalyzer_Interfaces(t *testing.T) {
	analyzer := NewAnalyzer()

	ifaces, err := analyzer.Exported(mappersPkg, TypeKindInterface)
	require.NoError(t, err)
	require.Len(t, ifaces, 2)

	assert.Equal(t, "AuthorMapper", ifaces[0].ID.Name)
	assert.Equal(t, "BlogMapper", ifaces[1].ID.Name)
	assert.Equal(t, []string{"SelectBlog", "SelectBlogs", "InsertBlog"}, ifaces[1].Methods)

	all, err := analyzer.Exported(modelPkg, TypeKindUnknown)
	require.NoError(t, err)

	names := make([]string, 0, len(all))
	for _, ti := range all {
		names = append(names, ti.ID.Name)
	}

	assert.Equal(t, []string{"Author", "Blog", "Post", "PostState"}, names)
}

func TestAnalyzer_LookupErrors(t *testing.T) {
	analyzer := NewAnalyzer()

	_, err := analyzer.Lookup("Blog")
	assert.ErrorIs(t, err, ErrTypeNotFound)

	_, err = analyzer.Lookup(modelPkg + ".Missing")
	assert.ErrorIs(t, err, ErrTypeNotFound)

	_, err = analyzer.Lookup("sqlmap-builder/examples/none.Blog")
	assert.Error(t, err)
}

func TestTypeID_String(t *testing.T) {
	id := TypeID{PkgPath: modelPkg, Name: "Blog"}
	assert.Equal(t, modelPkg+".Blog", id.String())
	assert.Equal(t, "int", TypeID{Name: "int"}.String())
}

func TestTypeKind_String(t *testing.T) {
	assert.Equal(t, "basic", TypeKindBasic.String())
	assert.Equal(t, "struct", TypeKindStruct.String())
	assert.Equal(t, "interface", TypeKindInterface.String())
	assert.Equal(t, "pointer", TypeKindPointer.String())
	assert.Equal(t, "slice", TypeKindSlice.String())
	assert.Equal(t, "alias", TypeKindAlias.String())
	assert.Equal(t, "external", TypeKindExternal.String())
	assert.Equal(t, "unknown", TypeKindUnknown.String())
}
