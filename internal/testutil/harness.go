package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/chainrunner/internal/agent"
	"github.com/specialistvlad/chainrunner/internal/app"
	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/registry"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// HarnessOptions tunes RunIntegrationTest.
type HarnessOptions struct {
	Workers int
	// Backoff replaces the retry pause; zero retries immediately.
	Backoff time.Duration
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, HarnessOptions{}, files, modules...)
}

// RunIntegrationTestWithContext writes files into a temporary directory,
// builds an App from them with the given modules and runs it with ctx.
// Startup panics are returned as Err.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, opts HarnessOptions, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	configDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(configDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		ConfigPath:  configDir,
		LogFormat:   "text",
		WorkerCount: opts.Workers,
	}

	var (
		testApp  *app.App
		logs     *app.SafeBuffer
		panicErr any
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp, logs = app.SetupAppTest(t, appConfig, modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{Err: fmt.Errorf("application startup panicked | %v", panicErr)}
	}

	backoff := opts.Backoff
	testApp.SetAgentOptions(agent.WithExecutorOptions(chain.WithRetryPolicy(chain.RetryPolicy{
		Attempts: chain.DefaultRetryPolicy.Attempts,
		Backoff:  backoff,
	})))

	runErr := testApp.Run(ctx)
	return &HarnessResult{LogOutput: logs.String(), Err: runErr, App: testApp}
}
