package system

import (
	"testing"

	"github.com/specialistvlad/chainrunner/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Test for: a failed registration skips the client chain
func TestErrorHandling_RegistrationFailureSkipsClient(t *testing.T) {
	recorder := &testutil.RecorderModule{}
	files := map[string]string{"agents.hcl": `
agent "probe" {
  chain "REG" {
    step "recorder" {
      args = { id = "reg", result = false }
    }
  }
  chain "CLIENT" {
    step "recorder" {
      args = { id = "client", result = true }
    }
  }
}
`}

	result := testutil.RunIntegrationTest(t, files, recorder)

	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "1 of 1 agents failed: probe")
	testutil.RequireOutcome(t, result, "probe", false)
	require.Len(t, recorder.CallsFor("reg"), 3, "registration step should use every attempt")
	require.Empty(t, recorder.CallsFor("client"))
	require.Contains(t, result.LogOutput, "Registration failed, client chain will not run.")
}

// Test for: one failing agent does not stop the others
func TestErrorHandling_FailureIsIsolatedPerAgent(t *testing.T) {
	recorder := &testutil.RecorderModule{}
	files := map[string]string{"agents.yaml": `
agents:
  - name: good
    chains:
      CLIENT:
        - module: recorder
          args: { id: good, result: ok }
  - name: bad
    chains:
      CLIENT:
        - module: recorder
          args: { id: bad, result: "" }
`}

	result := testutil.RunIntegrationTest(t, files, recorder)

	require.Error(t, result.Err)
	testutil.RequireOutcome(t, result, "good", true)
	testutil.RequireOutcome(t, result, "bad", false)
	require.Len(t, recorder.CallsFor("good"), 1)
	require.Len(t, recorder.CallsFor("bad"), 3)
}
