// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "CICD_TOOLKIT"
	// EnvConfigPath overrides the config file path.
	EnvConfigPath = "CICD_AI_TOOLKIT_CONFIG"
	// GlobalConfigDir is the global config directory name.
	GlobalConfigDir = ".cicd-ai-toolkit"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "context-chunker.yaml"
)

// ProjectConfigFiles are the project-level config file names, first found wins.
var ProjectConfigFiles = []string{
	".context-chunker.yaml",
	".context-chunker.yml",
	".context-chunker.toml",
	".context-chunker.json",
	".context-chunker.jsonc",
}

// Warnings collects recoverable configuration problems.
type Warnings []error

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot string
	path        string
	skipGlobal  bool
	getenv      func(string) string
	homeDir     func() (string, error)
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{
		getenv:  os.Getenv,
		homeDir: os.UserHomeDir,
	}
}

// WithProjectRoot sets the project root directory.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithPath loads only the given file instead of the global and project files.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv replaces the environment lookup.
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// SkipGlobal skips loading global config.
func (l *Loader) SkipGlobal() *Loader {
	l.skipGlobal = true
	return l
}

// Load builds the configuration with full precedence order. It always
// returns a usable config; problems come back as warnings.
func (l *Loader) Load() (*Config, Warnings) {
	cfg := DefaultConfig()
	var warns Warnings

	for _, path := range l.Files() {
		fileCfg, err := LoadFromPath(path)
		if err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) || path == l.explicitPath() {
				warns = append(warns, err)
			}
			continue
		}
		mergeConfig(cfg, fileCfg)
		if l.explicitPath() == "" && l.isProjectFile(path) {
			// Only the first project file found applies.
			break
		}
	}

	warns = append(warns, l.applyEnvOverrides(cfg)...)
	warns = append(warns, cfg.Repair()...)
	return cfg, warns
}

// Files lists the candidate config files in load order. An explicit path
// replaces all the others.
func (l *Loader) Files() []string {
	if p := l.explicitPath(); p != "" {
		return []string{p}
	}

	var paths []string
	if !l.skipGlobal {
		if home, err := l.homeDir(); err == nil {
			paths = append(paths, filepath.Join(home, GlobalConfigDir, GlobalConfigFile))
		}
	}
	return append(paths, GetProjectConfigPaths(l.projectRoot)...)
}

func (l *Loader) explicitPath() string {
	if l.path != "" {
		return l.path
	}
	return l.getenv(EnvConfigPath)
}

func (l *Loader) isProjectFile(path string) bool {
	for _, p := range GetProjectConfigPaths(l.projectRoot) {
		if p == path {
			return true
		}
	}
	return false
}

// LoadFromPath decodes a single config file. The format follows the file
// extension: YAML (default), TOML, or JSON with comments.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// Format: CICD_TOOLKIT_SECTION__KEY=value
func (l *Loader) applyEnvOverrides(cfg *Config) Warnings {
	var warns Warnings

	intVar := func(key string, dst *int) {
		v := l.getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			warns = append(warns, errors.ConfigError("invalid integer in "+key, err))
			return
		}
		*dst = n
	}

	// A chunk size derived from the old budget follows the new one.
	derived := cfg.Chunker.ChunkSize == DefaultChunkSize(cfg.Chunker.MaxTokens)
	intVar(EnvPrefix+"_CHUNKER__MAX_TOKENS", &cfg.Chunker.MaxTokens)
	if derived {
		cfg.Chunker.ChunkSize = DefaultChunkSize(cfg.Chunker.MaxTokens)
	}
	intVar(EnvPrefix+"_CHUNKER__CHUNK_SIZE", &cfg.Chunker.ChunkSize)
	intVar(EnvPrefix+"_CHUNKER__MIN_CHUNK_SIZE", &cfg.Chunker.MinChunkSize)
	intVar(EnvPrefix+"_CHUNKER__TRUNCATION_THRESHOLD", &cfg.Chunker.TruncationThreshold)

	reserve := cfg.Chunker.Reserve()
	intVar(EnvPrefix+"_CHUNKER__MARKER_RESERVE", &reserve)
	cfg.Chunker.MarkerReserve = IntPtr(reserve)

	if v := l.getenv(EnvPrefix + "_CHUNKER__ENCODING"); v != "" {
		cfg.Chunker.Encoding = v
	}
	if v := l.getenv(EnvPrefix + "_CHUNKER__PRIORITY_ORDER"); v != "" {
		cfg.Chunker.PriorityOrder = SplitList(v)
	}
	if v := l.getenv(EnvPrefix + "_CHUNKER__EXCLUDE_FILES"); v != "" {
		cfg.Chunker.ExcludeFiles = SplitList(v)
	}

	if v := l.getenv(EnvPrefix + "_GLOBAL__LOG_LEVEL"); v != "" {
		cfg.Global.LogLevel = v
	}
	if v := l.getenv(EnvPrefix + "_GLOBAL__LOG_FORMAT"); v != "" {
		cfg.Global.LogFormat = v
	}

	return warns
}

// mergeConfig merges src into dst (src overrides dst).
func mergeConfig(dst, src *Config) {
	if src.Chunker.MaxTokens != 0 {
		dst.Chunker.MaxTokens = src.Chunker.MaxTokens
		if src.Chunker.ChunkSize == 0 {
			dst.Chunker.ChunkSize = DefaultChunkSize(src.Chunker.MaxTokens)
		}
	}
	if src.Chunker.ChunkSize != 0 {
		dst.Chunker.ChunkSize = src.Chunker.ChunkSize
	}
	if src.Chunker.MinChunkSize != 0 {
		dst.Chunker.MinChunkSize = src.Chunker.MinChunkSize
	}
	if src.Chunker.TruncationThreshold != 0 {
		dst.Chunker.TruncationThreshold = src.Chunker.TruncationThreshold
	}
	if src.Chunker.MarkerReserve != nil {
		dst.Chunker.MarkerReserve = IntPtr(*src.Chunker.MarkerReserve)
	}
	if src.Chunker.Encoding != "" {
		dst.Chunker.Encoding = src.Chunker.Encoding
	}
	if len(src.Chunker.PriorityOrder) > 0 {
		dst.Chunker.PriorityOrder = src.Chunker.PriorityOrder
	}
	if len(src.Chunker.ExcludeFiles) > 0 {
		dst.Chunker.ExcludeFiles = src.Chunker.ExcludeFiles
	}
	if src.Chunker.ReviewBodyLimit != 0 {
		dst.Chunker.ReviewBodyLimit = src.Chunker.ReviewBodyLimit
	}
	if src.Chunker.CheckSummaryLimit != 0 {
		dst.Chunker.CheckSummaryLimit = src.Chunker.CheckSummaryLimit
	}

	if src.Global.LogLevel != "" {
		dst.Global.LogLevel = src.Global.LogLevel
	}
	if src.Global.LogFormat != "" {
		dst.Global.LogFormat = src.Global.LogFormat
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
