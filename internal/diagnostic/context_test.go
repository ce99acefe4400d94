package diagnostic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_TrailOrder(t *testing.T) {
	ctx := NewContext("b-1")
	ctx.Resource("mybatis-config.xml").Activity("parsing mappers")
	ctx.Store()
	ctx.Resource("blog/BlogMapper.xml").Activity("parsing statement").Object("selectBlog")

	trail := ctx.Trail()
	require.Len(t, trail, 2)
	assert.Equal(t, "in mybatis-config.xml, while parsing mappers", trail[0])
	assert.Equal(t, "in blog/BlogMapper.xml, while parsing statement, involving selectBlog", trail[1])

	ctx.Recall()
	assert.Equal(t, "mybatis-config.xml", ctx.Current().Resource)
	assert.Len(t, ctx.Trail(), 1)
}

func TestContext_RecallWithoutStore(t *testing.T) {
	ctx := NewContext("")
	ctx.Resource("a.xml")
	ctx.Recall()

	assert.Equal(t, "a.xml", ctx.Current().Resource)
}

func TestContext_Reset(t *testing.T) {
	ctx := NewContext("b-2")
	ctx.Resource("a.xml").Store().Object("x")
	ctx.Diagnostics.AddWarning("skipped", "statement skipped", "a.xml", "x")
	require.False(t, ctx.IsEmpty())

	ctx.Reset()

	assert.True(t, ctx.IsEmpty())
	assert.Empty(t, ctx.Trail())
	assert.Equal(t, "b-2", ctx.BuildID)
}

func TestDiagnostics_Error(t *testing.T) {
	var d Diagnostics
	assert.NoError(t, d.Error())

	errUnknown := errors.New("unknown setting \"cacheEnable\"")
	errInvalid := errors.New("invalid value")

	d.AddError("unknown_setting", errUnknown, "config.xml", "settings")
	d.Errors[0].Suggestions = []string{"cacheEnabled"}
	d.AddError("bad_value", errInvalid, "", "")

	err := d.Error()
	require.Error(t, err)
	assert.Equal(t,
		`[config.xml] settings: [unknown_setting] unknown setting "cacheEnable" (did you mean "cacheEnabled"?); [bad_value] invalid value`,
		err.Error())
	assert.ErrorIs(t, err, errUnknown)
	assert.ErrorIs(t, err, errInvalid)
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics
	a.AddInfo("i", "info", "", "")
	b.AddWarning("w", "warn", "", "")
	b.AddError("e", errors.New("err"), "", "")

	a.Merge(b)

	assert.Len(t, a.Infos, 1)
	assert.Len(t, a.Warnings, 1)
	assert.True(t, a.HasErrors())
	assert.Len(t, a.Errors, 1)
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "info", DiagnosticInfo.String())
	assert.Equal(t, "warning", DiagnosticWarning.String())
	assert.Equal(t, "error", DiagnosticError.String())
	assert.Equal(t, "unknown", DiagnosticSeverity(42).String())
}
