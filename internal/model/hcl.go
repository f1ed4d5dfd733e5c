// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes agent definitions from HCL.
//
// Blocks are decoded with gohcl into the private hcl* structs below and then
// converted into the format-agnostic model. The `args` attribute is kept as a
// raw expression during decoding so that it can hold any value shape; it is
// evaluated afterwards with the same evaluation context.
package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

type hclConfigFile struct {
	Agents []*hclAgent `hcl:"agent,block"`
}

type hclAgent struct {
	Name      string      `hcl:"name,label"`
	Mode      string      `hcl:"mode,optional"`
	Interval  int         `hcl:"interval,optional"`
	Verbosity *int        `hcl:"verbosity,optional"`
	Chains    []*hclChain `hcl:"chain,block"`
}

type hclChain struct {
	Name  string     `hcl:"name,label"`
	Steps []*hclStep `hcl:"step,block"`
}

type hclStep struct {
	Module       string         `hcl:"module,label"`
	Function     string         `hcl:"function,optional"`
	Args         hcl.Expression `hcl:"args,optional"`
	IgnoreOutput bool           `hcl:"ignore_output,optional"`
}

// ParseHCL decodes the agents defined in src. filename is used for
// diagnostics and FSInfo only.
func ParseHCL(src []byte, filename string) ([]*Agent, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeHCLBody(file.Body, filename)
}

func decodeHCLBody(body hcl.Body, filename string) ([]*Agent, error) {
	evalCtx := newEvalContext()

	var raw hclConfigFile
	if diags := gohcl.DecodeBody(body, evalCtx, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	var allDiags hcl.Diagnostics
	agents := make([]*Agent, 0, len(raw.Agents))
	for _, ra := range raw.Agents {
		agent := &Agent{
			Name:          ra.Name,
			Mode:          ra.Mode,
			Interval:      ra.Interval,
			Verbosity:     ra.Verbosity,
			FSInformation: NewFSInfo(filename),
		}
		for _, rc := range ra.Chains {
			c := &Chain{Name: rc.Name}
			for _, rs := range rc.Steps {
				step := NewStep(rs.Module)
				step.Function = rs.Function
				step.IgnoreOutput = rs.IgnoreOutput
				if rs.Args != nil {
					val, diags := rs.Args.Value(evalCtx)
					allDiags = append(allDiags, diags...)
					if !diags.HasErrors() {
						step.Args = val
					}
				}
				c.Steps = append(c.Steps, step)
			}
			agent.Chains = append(agent.Chains, c)
		}
		agents = append(agents, agent)
	}

	if allDiags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate step arguments in %s: %w", filename, allDiags)
	}
	return agents, nil
}
