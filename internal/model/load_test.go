// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const probeHCL = `
agent "probe" {
  mode      = "http"
  interval  = 30
  verbosity = 1

  chain "REG" {
    step "http_request" {
      function = "register"
      args     = { url = "http://localhost:8080/register", method = "POST", retries = 2 }
    }
  }

  chain "CLIENT" {
    step "env_vars" { function = "collect" }
    step "print" {
      function      = "show"
      ignore_output = true
    }
  }
}
`

const probeYAML = `
agents:
  - name: probe
    mode: http
    interval: 30
    verbosity: 1
    chains:
      REG:
        - module: http_request
          function: register
          args:
            url: http://localhost:8080/register
            method: POST
            retries: 2
      CLIENT:
        - module: env_vars
          function: collect
        - module: print
          function: show
          ignore_output: true
`

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// ctyComparer compares argument values by their plain Go shape, so numbers
// parsed by different front ends compare equal.
var ctyComparer = cmp.Comparer(func(a, b cty.Value) bool {
	av, aerr := ctyconv.ToInterface(a)
	bv, berr := ctyconv.ToInterface(b)
	return aerr == nil && berr == nil && cmp.Equal(av, bv)
})

func TestParseHCL_Probe(t *testing.T) {
	agents, err := ParseHCL([]byte(probeHCL), "probe.hcl")
	require.NoError(t, err)
	require.Len(t, agents, 1)

	a := agents[0]
	assert.Equal(t, "probe", a.Name)
	assert.Equal(t, "http", a.Mode)
	assert.Equal(t, 30, a.Interval)
	require.NotNil(t, a.Verbosity)
	assert.Equal(t, 1, *a.Verbosity)
	assert.Equal(t, "probe.hcl", a.FSInformation.FilePath)

	require.Len(t, a.Chains, 2)
	assert.Equal(t, RegistrationChain, a.Chains[0].Name)
	assert.Equal(t, ClientChain, a.Chains[1].Name)

	reg := a.Chain(RegistrationChain).Steps[0]
	assert.Equal(t, "http_request", reg.Module)
	assert.Equal(t, "register", reg.Function)
	args, err := ctyconv.ToInterface(reg.Args)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"url": "http://localhost:8080/register", "method": "POST", "retries": int64(2)}, args)

	client := a.Chain(ClientChain)
	require.Len(t, client.Steps, 2)
	assert.True(t, client.Steps[0].Args.IsNull(), "absent args must be null")
	assert.False(t, client.Steps[0].IgnoreOutput)
	assert.True(t, client.Steps[1].IgnoreOutput)
}

func TestParseHCL_EnvFunction(t *testing.T) {
	t.Setenv("CHAINRUNNER_TEST_TARGET", "https://example.test")

	src := `
agent "a" {
  mode = lower("HTTP")
  chain "CLIENT" {
    step "http_request" {
      args = {
        url      = env("CHAINRUNNER_TEST_TARGET")
        token    = env("CHAINRUNNER_TEST_UNSET_VARIABLE", "none")
        missing  = env("CHAINRUNNER_TEST_UNSET_VARIABLE")
      }
    }
  }
}
`
	agents, err := ParseHCL([]byte(src), "env.hcl")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "http", agents[0].Mode)

	args, err := ctyconv.ToInterface(agents[0].Chain(ClientChain).Steps[0].Args)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"url": "https://example.test", "token": "none", "missing": ""}, args)
}

func TestParseHCL_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `agent "a" {`, "failed to parse HCL file"},
		{"unknown attribute", `agent "a" { colour = "red" }`, "failed to decode HCL file"},
		{"non integer interval", `agent "a" { interval = "soon" }`, "failed to decode HCL file"},
		{"unknown function", `
agent "a" {
  chain "CLIENT" {
    step "print" { args = nope() }
  }
}`, "failed to evaluate step arguments"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("agents:\n  - name: a\n    colour: red\n"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode YAML file bad.yaml")

	_, err = ParseYAML([]byte("agents:\n  - name: a\n    chains: [1, 2]\n"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'chains' must be a mapping")

	_, err = ParseYAML([]byte("agents:\n  - name: a\n    chains:\n      CLIENT:\n        - module: echo\n          ignore_ouput: true\n"), "typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain 'CLIENT': step 0: line 6: field ignore_ouput not found in step")

	agents, err := ParseYAML([]byte("  \n"), "empty.yaml")
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestLoaders_RejectUnknownStepKeys(t *testing.T) {
	_, hclErr := ParseHCL([]byte(`
agent "a" {
  chain "CLIENT" {
    step "echo" {
      ignore_ouput = true
    }
  }
}
`), "typo.hcl")
	_, yamlErr := ParseYAML([]byte(`
agents:
  - name: a
    chains:
      CLIENT:
        - module: echo
          ignore_ouput: true
`), "typo.yaml")

	assert.Error(t, hclErr)
	assert.Error(t, yamlErr)
}

func TestLoaders_ProduceEquivalentModels(t *testing.T) {
	fromHCL, err := ParseHCL([]byte(probeHCL), "probe")
	require.NoError(t, err)
	fromYAML, err := ParseYAML([]byte(probeYAML), "probe")
	require.NoError(t, err)

	if diff := cmp.Diff(fromHCL, fromYAML, ctyComparer, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("HCL and YAML models differ (-hcl +yaml):\n%s", diff)
	}
}

func TestLoadAgentsRecursively(t *testing.T) {
	// --- Arrange ---
	root := writeFiles(t, map[string]string{
		"agents/probe.hcl": probeHCL,
		"agents/nested/worker.yml": `
agents:
  - name: worker
    chains:
      CLIENT:
        - module: echo
`,
		"README.md": "not a config file",
	})

	// --- Act ---
	cfg, err := LoadAgentsRecursively(testContext(), root)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 2)
	names := []string{cfg.Agents[0].Name, cfg.Agents[1].Name}
	assert.ElementsMatch(t, []string{"probe", "worker"}, names)
}

func TestLoadAgentsRecursively_SingleFile(t *testing.T) {
	root := writeFiles(t, map[string]string{"probe.hcl": probeHCL})

	cfg, err := LoadAgentsRecursively(testContext(), filepath.Join(root, "probe.hcl"))
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, filepath.Join(root, "probe.hcl"), cfg.Agents[0].FSInformation.FilePath)
}

func TestLoadAgentsRecursively_NoFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{"notes.txt": "hi"})

	_, err := LoadAgentsRecursively(testContext(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration files")
}

func TestLoadAgentsRecursively_DuplicateAgentAcrossFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.hcl":  probeHCL,
		"b.yaml": probeYAML,
	})

	_, err := LoadAgentsRecursively(testContext(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent 'probe' is already defined")
}

func TestConfigValidate(t *testing.T) {
	client := &Chain{Name: ClientChain, Steps: []*Step{NewStep("echo")}}

	testCases := []struct {
		name   string
		agents []*Agent
		want   []string
	}{
		{
			name:   "valid",
			agents: []*Agent{{Name: "a", Chains: []*Chain{client}}},
		},
		{
			name:   "missing client chain",
			agents: []*Agent{{Name: "a", Chains: []*Chain{{Name: RegistrationChain, Steps: []*Step{NewStep("echo")}}}}},
			want:   []string{"missing required chain 'CLIENT'"},
		},
		{
			name:   "empty chain and empty module",
			agents: []*Agent{{Name: "a", Chains: []*Chain{client, {Name: "REG"}, {Name: "extra", Steps: []*Step{NewStep("")}}}}},
			want:   []string{"chain 'REG' has no steps", "chain 'extra' step 0 has no module"},
		},
		{
			name:   "duplicate chain",
			agents: []*Agent{{Name: "a", Chains: []*Chain{client, client}}},
			want:   []string{"chain 'CLIENT' is defined more than once"},
		},
		{
			name:   "empty and duplicate agent names",
			agents: []*Agent{{Chains: []*Chain{client}}, {Name: "a", Chains: []*Chain{client}}, {Name: "a", Chains: []*Chain{client}}},
			want:   []string{"agent has an empty name", "agent 'a' is already defined"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := (&Config{Agents: tc.agents}).Validate()
			if len(tc.want) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			for _, w := range tc.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
