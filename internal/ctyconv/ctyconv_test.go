package ctyconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFromInterface_NestedYAMLShapes(t *testing.T) {
	in := map[string]any{
		"url":     "http://localhost/register",
		"retries": 2,
		"ratio":   0.5,
		"verbose": true,
		"headers": map[string]any{"X-Id": "abc"},
		"tags":    []any{"a", 1},
		"missing": nil,
	}

	val, err := FromInterface(in)
	require.NoError(t, err)
	require.True(t, val.Type().IsObjectType())

	assert.Equal(t, cty.StringVal("http://localhost/register"), val.GetAttr("url"))
	assert.True(t, val.GetAttr("retries").RawEquals(cty.NumberIntVal(2)))
	assert.True(t, val.GetAttr("verbose").True())
	assert.Equal(t, cty.StringVal("abc"), val.GetAttr("headers").GetAttr("X-Id"))
	assert.Equal(t, 2, val.GetAttr("tags").LengthInt())
	assert.True(t, val.GetAttr("missing").IsNull())
}

func TestFromInterface_EmptyCollections(t *testing.T) {
	val, err := FromInterface(map[string]any{})
	require.NoError(t, err)
	assert.True(t, val.RawEquals(cty.EmptyObjectVal))

	val, err = FromInterface([]any{})
	require.NoError(t, err)
	assert.True(t, val.RawEquals(cty.EmptyTupleVal))
}

func TestToInterface_RoundTripsArguments(t *testing.T) {
	val := cty.ObjectVal(map[string]cty.Value{
		"method": cty.StringVal("POST"),
		"port":   cty.NumberIntVal(8080),
		"ratio":  cty.NumberFloatVal(1.5),
		"list":   cty.TupleVal([]cty.Value{cty.True, cty.StringVal("x")}),
		"none":   cty.NullVal(cty.String),
	})

	out, err := ToInterface(val)
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "POST", m["method"])
	assert.Equal(t, int64(8080), m["port"])
	assert.Equal(t, 1.5, m["ratio"])
	assert.Equal(t, []any{true, "x"}, m["list"])
	assert.Nil(t, m["none"])
}

func TestForLogs(t *testing.T) {
	assert.Equal(t, "plain", ForLogs("plain"))
	assert.Nil(t, ForLogs(cty.NilVal))
	assert.Equal(t, map[string]any{"a": "b"}, ForLogs(cty.ObjectVal(map[string]cty.Value{"a": cty.StringVal("b")})))
}
