// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Agent, Chain and Step definitions shared by every
// configuration format.
package model

import (
	"github.com/zclconf/go-cty/cty"
)

// Reserved chain names.
const (
	RegistrationChain = "REG"
	ClientChain       = "CLIENT"
)

// Config is the merged result of loading one or more configuration files.
type Config struct {
	Agents []*Agent
}

// Agent is the format-agnostic representation of an `agent` definition.
type Agent struct {
	Name string
	Mode string

	// Interval is the pause in seconds between CLIENT passes. Values below 1
	// mean the CLIENT chain runs exactly once.
	Interval int

	// Verbosity overrides the process log level for this agent when set.
	Verbosity *int

	Chains        []*Chain
	FSInformation *FSInfo
}

// Chain returns the chain with the given name, or nil.
func (a *Agent) Chain(name string) *Chain {
	for _, c := range a.Chains {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Chain is an ordered sequence of steps.
type Chain struct {
	Name  string
	Steps []*Step
}

// Step is one module invocation inside a chain.
type Step struct {
	Module       string
	Function     string
	Args         cty.Value
	IgnoreOutput bool
}

// NewStep returns a Step with null arguments.
func NewStep(moduleName string) *Step {
	return &Step{
		Module: moduleName,
		Args:   cty.NullVal(cty.DynamicPseudoType),
	}
}
