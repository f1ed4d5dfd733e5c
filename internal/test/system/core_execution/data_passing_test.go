package system

import (
	"testing"

	"github.com/specialistvlad/chainrunner/internal/testutil"
	"github.com/specialistvlad/chainrunner/modules/echo"
	"github.com/stretchr/testify/require"
)

// Test for: outputs thread through the chain and ignore_output passes input along
func TestCoreExecution_ThreadsOutputsThroughChain(t *testing.T) {
	recorder := &testutil.RecorderModule{}
	files := map[string]string{"agents.hcl": `
agent "pipeline" {
  mode = "load"

  chain "REG" {
    step "echo" {
      args = { value = { token = "abc", ttl = 30 } }
    }
    step "recorder" {
      args = { id = "reg" }
    }
  }

  chain "CLIENT" {
    step "echo" {
      args = { value = "seed" }
    }
    step "recorder" {
      args = { id = "first", result = "first-output" }
    }
    step "recorder" {
      ignore_output = true
      args = { id = "ignored", result = "dropped" }
    }
    step "recorder" {
      args = { id = "last" }
    }
  }
}
`}

	result := testutil.RunIntegrationTest(t, files, recorder, &echo.Module{})

	require.NoError(t, result.Err)
	testutil.RequireOutcome(t, result, "pipeline", true)

	reg := recorder.CallsFor("reg")
	require.Len(t, reg, 1)
	require.Equal(t, "load", reg[0].Mode)
	require.Equal(t, map[string]any{"token": "abc", "ttl": int64(30)}, reg[0].Input)

	first := recorder.CallsFor("first")
	require.Len(t, first, 1)
	require.Equal(t, "seed", first[0].Input)

	ignored := recorder.CallsFor("ignored")
	require.Len(t, ignored, 1)
	require.Equal(t, "first-output", ignored[0].Input)

	last := recorder.CallsFor("last")
	require.Len(t, last, 1)
	require.Equal(t, "first-output", last[0].Input)
}
