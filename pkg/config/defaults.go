// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"path/filepath"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
)

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Chunker: DefaultChunkerConfig(),
		Global:  DefaultGlobalConfig(),
	}
}

// DefaultChunkerConfig returns default packing configuration.
func DefaultChunkerConfig() ChunkerConfig {
	order := make([]string, len(buildctx.DefaultPriorityOrder))
	copy(order, buildctx.DefaultPriorityOrder)

	return ChunkerConfig{
		MaxTokens:           buildctx.DefaultMaxTokens,
		ChunkSize:           DefaultChunkSize(buildctx.DefaultMaxTokens),
		MinChunkSize:        buildctx.DefaultMinChunkSize,
		TruncationThreshold: buildctx.DefaultTruncationThreshold,
		MarkerReserve:       IntPtr(buildctx.DefaultMarkerReserve),
		Encoding:            buildctx.DefaultEncoding,
		PriorityOrder:       order,
		ReviewBodyLimit:     buildctx.DefaultReviewBodyLimit,
		CheckSummaryLimit:   buildctx.DefaultCheckSummaryLimit,
	}
}

// DefaultChunkSize derives the advisory chunk size from the token budget.
func DefaultChunkSize(maxTokens int) int {
	size := maxTokens - buildctx.DefaultChunkHeadroom
	if size < buildctx.MinChunkSizeFloor {
		return buildctx.MinChunkSizeFloor
	}
	return size
}

// DefaultGlobalConfig returns default global configuration.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// GetProjectConfigPaths returns the candidate project config file paths.
func GetProjectConfigPaths(projectRoot string) []string {
	if projectRoot == "" {
		projectRoot = "."
	}
	paths := make([]string, len(ProjectConfigFiles))
	for i, name := range ProjectConfigFiles {
		paths[i] = filepath.Join(projectRoot, name)
	}
	return paths
}
