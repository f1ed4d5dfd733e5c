// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"fmt"
	"strings"
)

// Validate performs the structural checks that do not depend on which modules
// are registered. All problems are reported together.
func (c *Config) Validate() error {
	var errs []string
	seen := make(map[string]*FSInfo)

	for _, a := range c.Agents {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: agent has an empty name", a.FSInformation))
			continue
		}
		if prev, dup := seen[a.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: agent '%s' is already defined in %s", a.FSInformation, a.Name, prev))
			continue
		}
		seen[a.Name] = a.FSInformation
		errs = append(errs, a.validate()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (a *Agent) validate() []string {
	var errs []string
	where := fmt.Sprintf("%s: agent '%s'", a.FSInformation, a.Name)

	chains := make(map[string]struct{}, len(a.Chains))
	for _, c := range a.Chains {
		if c.Name == "" {
			errs = append(errs, where+": chain has an empty name")
			continue
		}
		if _, dup := chains[c.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: chain '%s' is defined more than once", where, c.Name))
			continue
		}
		chains[c.Name] = struct{}{}

		if len(c.Steps) == 0 {
			errs = append(errs, fmt.Sprintf("%s: chain '%s' has no steps", where, c.Name))
		}
		for i, s := range c.Steps {
			if s.Module == "" {
				errs = append(errs, fmt.Sprintf("%s: chain '%s' step %d has no module", where, c.Name, i))
			}
		}
	}

	if _, ok := chains[ClientChain]; !ok {
		errs = append(errs, fmt.Sprintf("%s: missing required chain '%s'", where, ClientChain))
	}
	return errs
}
