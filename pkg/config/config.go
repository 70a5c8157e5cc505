// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for the context chunker.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.cicd-ai-toolkit/context-chunker.yaml
// 3. Project Config: ./.context-chunker.{yaml,yml,toml,json,jsonc}
// 4. Environment Variables: CICD_TOOLKIT_*
//
// An explicit path replaces steps 2 and 3. Missing or broken files never
// stop a run: they are reported as warnings and the defaults stand.
package config

import (
	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
)

// Config represents the complete application configuration.
type Config struct {
	Chunker ChunkerConfig `yaml:"chunker" toml:"chunker" json:"chunker"`
	Global  GlobalConfig  `yaml:"global" toml:"global" json:"global"`
}

// ChunkerConfig contains the packing settings.
type ChunkerConfig struct {
	MaxTokens           int    `yaml:"max_tokens" toml:"max_tokens" json:"max_tokens"`
	ChunkSize           int    `yaml:"chunk_size" toml:"chunk_size" json:"chunk_size"`
	MinChunkSize        int    `yaml:"min_chunk_size" toml:"min_chunk_size" json:"min_chunk_size"`
	TruncationThreshold int    `yaml:"truncation_threshold" toml:"truncation_threshold" json:"truncation_threshold"`
	MarkerReserve       *int   `yaml:"marker_reserve,omitempty" toml:"marker_reserve,omitempty" json:"marker_reserve,omitempty"`
	Encoding            string `yaml:"encoding" toml:"encoding" json:"encoding"`
	// PriorityOrder lists section names, highest priority first.
	PriorityOrder []string `yaml:"priority_order" toml:"priority_order" json:"priority_order"`
	// ExcludeFiles holds glob patterns for changed files to leave out.
	ExcludeFiles      []string `yaml:"exclude_files,omitempty" toml:"exclude_files,omitempty" json:"exclude_files,omitempty"`
	ReviewBodyLimit   int      `yaml:"review_body_limit" toml:"review_body_limit" json:"review_body_limit"`
	CheckSummaryLimit int      `yaml:"check_summary_limit" toml:"check_summary_limit" json:"check_summary_limit"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" toml:"log_format" json:"log_format"` // text, json
}

// Reserve returns the marker reserve, or the default when unset.
func (c *ChunkerConfig) Reserve() int {
	if c.MarkerReserve == nil {
		return buildctx.DefaultMarkerReserve
	}
	return *c.MarkerReserve
}

// Budget resolves the immutable packing budget.
func (c *ChunkerConfig) Budget() buildctx.BudgetConfig {
	return buildctx.BudgetConfig{
		MaxTokens:           c.MaxTokens,
		ChunkSize:           c.ChunkSize,
		MinChunkSize:        c.MinChunkSize,
		TruncationThreshold: c.TruncationThreshold,
		MarkerReserve:       c.Reserve(),
		Encoding:            c.Encoding,
	}.Normalize()
}

// CatalogOptions resolves the section formatting options.
func (c *ChunkerConfig) CatalogOptions() buildctx.CatalogOptions {
	return buildctx.CatalogOptions{
		ReviewBodyLimit:   c.ReviewBodyLimit,
		CheckSummaryLimit: c.CheckSummaryLimit,
		Pruner:            buildctx.NewPruner(c.ExcludeFiles),
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
