// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/fsutil"
)

// Extensions lists the file extensions recognized as agent configuration.
var Extensions = []string{".hcl", ".yaml", ".yml"}

// LoadAgentsRecursively loads every configuration file found under path, which
// may also name a single file, merges the agents and validates the result.
func LoadAgentsRecursively(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading agent definitions...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, Extensions...)
	if err != nil {
		logger.Error("Failed to walk configuration path", "path", path, "error", err)
		return nil, err
	}
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no configuration files (%s) found in %s", strings.Join(Extensions, ", "), path)
	}
	logger.Debug("Found configuration files to load", "files", filePaths)

	cfg := &Config{}
	for _, filePath := range filePaths {
		agents, err := LoadFile(filePath)
		if err != nil {
			return nil, err
		}
		cfg.Agents = append(cfg.Agents, agents...)
		logger.Debug("Successfully loaded definitions from file", "file", filePath, "agents", len(agents))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded successfully.", "files", len(filePaths), "agents", len(cfg.Agents))
	return cfg, nil
}

// LoadFile parses a single configuration file, picking the format from its
// extension.
func LoadFile(filePath string) ([]*Agent, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".hcl":
		return ParseHCL(src, filePath)
	case ".yaml", ".yml":
		return ParseYAML(src, filePath)
	default:
		return nil, fmt.Errorf("unsupported configuration file %s", filePath)
	}
}
