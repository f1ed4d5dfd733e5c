package testutil

import (
	"testing"

	"github.com/specialistvlad/chainrunner/internal/sink"
	"github.com/stretchr/testify/require"
)

// RequireOutcome finds the single outcome published by agentName and checks
// its success flag.
func RequireOutcome(t *testing.T, result *HarnessResult, agentName string, success bool) sink.Outcome {
	t.Helper()
	require.NotNil(t, result.App, "app was not started: %v", result.Err)

	var found []sink.Outcome
	for _, o := range result.App.Outcomes() {
		if o.Agent == agentName {
			found = append(found, o)
		}
	}
	require.Len(t, found, 1, "expected exactly one outcome for agent '%s'", agentName)
	require.Equal(t, success, found[0].Success, "unexpected success flag for agent '%s'", agentName)
	return found[0]
}
