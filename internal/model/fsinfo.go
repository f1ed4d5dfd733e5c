// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

// FSInfo records where a definition was loaded from.
type FSInfo struct {
	FilePath string
}

func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}

// String returns the file path, or "<unknown>" for definitions built in code.
func (f *FSInfo) String() string {
	if f == nil || f.FilePath == "" {
		return "<unknown>"
	}
	return f.FilePath
}
