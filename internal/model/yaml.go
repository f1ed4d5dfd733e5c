// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes agent definitions from YAML. Chains are read from a
// mapping node rather than a Go map so that their file order is preserved.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"gopkg.in/yaml.v3"
)

type yamlConfigFile struct {
	Agents []yamlAgent `yaml:"agents"`
}

type yamlAgent struct {
	Name      string    `yaml:"name"`
	Mode      string    `yaml:"mode"`
	Interval  int       `yaml:"interval"`
	Verbosity *int      `yaml:"verbosity"`
	Chains    yaml.Node `yaml:"chains"`
}

type yamlStep struct {
	Module       string `yaml:"module"`
	Function     string `yaml:"function"`
	Args         any    `yaml:"args"`
	IgnoreOutput bool   `yaml:"ignore_output"`
}

// yamlStepKeys are the keys a step mapping may use. Node.Decode does not
// honour KnownFields, so step keys are checked by hand.
var yamlStepKeys = map[string]bool{
	"module":        true,
	"function":      true,
	"args":          true,
	"ignore_output": true,
}

// ParseYAML decodes the agents defined in src. filename is used for error
// messages and FSInfo only.
func ParseYAML(src []byte, filename string) ([]*Agent, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var raw yamlConfigFile
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}

	agents := make([]*Agent, 0, len(raw.Agents))
	for _, ra := range raw.Agents {
		agent := &Agent{
			Name:          ra.Name,
			Mode:          ra.Mode,
			Interval:      ra.Interval,
			Verbosity:     ra.Verbosity,
			FSInformation: NewFSInfo(filename),
		}
		chains, err := decodeYAMLChains(&ra.Chains)
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: agent '%s': %w", filename, ra.Name, err)
		}
		agent.Chains = chains
		agents = append(agents, agent)
	}
	return agents, nil
}

func decodeYAMLChains(node *yaml.Node) ([]*Chain, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: 'chains' must be a mapping of chain name to steps", node.Line)
	}

	chains := make([]*Chain, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		if err := checkStepKeys(valNode); err != nil {
			return nil, fmt.Errorf("chain '%s': %w", keyNode.Value, err)
		}

		var rawSteps []yamlStep
		if err := valNode.Decode(&rawSteps); err != nil {
			return nil, fmt.Errorf("chain '%s': %w", keyNode.Value, err)
		}

		c := &Chain{Name: keyNode.Value}
		for idx, rs := range rawSteps {
			step := NewStep(rs.Module)
			step.Function = rs.Function
			step.IgnoreOutput = rs.IgnoreOutput
			if rs.Args != nil {
				val, err := ctyconv.FromInterface(rs.Args)
				if err != nil {
					return nil, fmt.Errorf("chain '%s' step %d: args: %w", keyNode.Value, idx, err)
				}
				step.Args = val
			}
			c.Steps = append(c.Steps, step)
		}
		chains = append(chains, c)
	}
	return chains, nil
}

func checkStepKeys(steps *yaml.Node) error {
	if steps.Kind != yaml.SequenceNode {
		return nil
	}
	for idx, item := range steps.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i]
			if !yamlStepKeys[key.Value] {
				return fmt.Errorf("step %d: line %d: field %s not found in step", idx, key.Line, key.Value)
			}
		}
	}
	return nil
}
