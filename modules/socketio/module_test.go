package socketio

import (
	"testing"
	"time"

	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func build(input module.Result, args map[string]cty.Value) (any, error) {
	return newExchange("", module.Arguments{Settings: module.Settings{Input: input, Args: cty.ObjectVal(args)}})
}

func TestNewExchange_Defaults(t *testing.T) {
	inst, err := build(nil, map[string]cty.Value{
		"url":        cty.StringVal("ws://localhost:3000/socket.io/"),
		"on_event":   cty.StringVal("pong"),
		"emit_event": cty.StringVal("ping"),
		"emit_data":  cty.ObjectVal(map[string]cty.Value{"n": cty.NumberIntVal(1)}),
	})
	require.NoError(t, err)

	ex := inst.(*Exchange)
	assert.Equal(t, "/", ex.Namespace)
	assert.Equal(t, 10*time.Second, ex.Timeout)
	assert.Equal(t, map[string]any{"n": int64(1)}, ex.EmitData)
	assert.False(t, ex.InsecureSkipVerify)
	var _ module.Runnable = ex
}

func TestNewExchange_EmitInput(t *testing.T) {
	inst, err := build("token", map[string]cty.Value{
		"url":        cty.StringVal("ws://localhost:3000"),
		"on_event":   cty.StringVal("ack"),
		"emit_input": cty.True,
		"timeout":    cty.StringVal("250ms"),
		"namespace":  cty.StringVal("/agents"),
	})
	require.NoError(t, err)

	ex := inst.(*Exchange)
	assert.Equal(t, "token", ex.EmitData)
	assert.Equal(t, 250*time.Millisecond, ex.Timeout)
	assert.Equal(t, "/agents", ex.Namespace)
}

func TestNewExchange_Errors(t *testing.T) {
	_, err := build(nil, map[string]cty.Value{"on_event": cty.StringVal("x")})
	assert.ErrorContains(t, err, "\"url\" is required")

	_, err = build(nil, map[string]cty.Value{"url": cty.StringVal("ws://x")})
	assert.ErrorContains(t, err, "\"on_event\" is required")

	_, err = build(nil, map[string]cty.Value{"url": cty.StringVal("ws://x"), "on_event": cty.StringVal("x"), "timeout": cty.StringVal("later")})
	assert.ErrorContains(t, err, "timeout")
}
