// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

// ValidationErrors aggregates every problem found in a config.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration without changing it.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ValidationError("config is nil", nil)
	}
	if errs := c.check(false); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

// Repair resets every invalid value to its default and reports what it changed.
func (c *Config) Repair() Warnings {
	return c.check(true)
}

func (c *Config) check(fix bool) []error {
	var errs []error
	def := DefaultConfig()
	ch := &c.Chunker

	invalid := func(field, reason string) {
		errs = append(errs, errors.ValidationError(fmt.Sprintf("%s %s", field, reason), nil))
	}

	if ch.MaxTokens <= 0 {
		invalid("chunker.max_tokens", fmt.Sprintf("must be positive, got %d", ch.MaxTokens))
		if fix {
			ch.MaxTokens = def.Chunker.MaxTokens
		}
	}
	if ch.ChunkSize < 0 {
		invalid("chunker.chunk_size", fmt.Sprintf("must not be negative, got %d", ch.ChunkSize))
		if fix {
			ch.ChunkSize = DefaultChunkSize(ch.MaxTokens)
		}
	}
	if ch.MinChunkSize < 0 {
		invalid("chunker.min_chunk_size", fmt.Sprintf("must not be negative, got %d", ch.MinChunkSize))
		if fix {
			ch.MinChunkSize = def.Chunker.MinChunkSize
		}
	}
	if r := ch.Reserve(); r < 0 || r >= ch.MaxTokens {
		invalid("chunker.marker_reserve", fmt.Sprintf("must be within [0, %d), got %d", ch.MaxTokens, r))
		if fix {
			ch.MarkerReserve = IntPtr(min(buildctx.DefaultMarkerReserve, ch.MaxTokens/2))
		}
	}
	// The threshold must leave room to truncate the first section.
	if room := ch.MaxTokens - ch.Reserve(); ch.TruncationThreshold < 0 || ch.TruncationThreshold >= room {
		invalid("chunker.truncation_threshold", fmt.Sprintf("must be within [0, %d), got %d", max(room, 0), ch.TruncationThreshold))
		if fix {
			ch.TruncationThreshold = buildctx.FitThreshold(ch.MaxTokens, ch.Reserve())
		}
	}
	if ch.ReviewBodyLimit < 0 {
		invalid("chunker.review_body_limit", "must not be negative")
		if fix {
			ch.ReviewBodyLimit = def.Chunker.ReviewBodyLimit
		}
	}
	if ch.CheckSummaryLimit < 0 {
		invalid("chunker.check_summary_limit", "must not be negative")
		if fix {
			ch.CheckSummaryLimit = def.Chunker.CheckSummaryLimit
		}
	}

	kept := ch.ExcludeFiles[:0:0]
	for _, pattern := range ch.ExcludeFiles {
		if !doublestar.ValidatePattern(pattern) {
			invalid("chunker.exclude_files", fmt.Sprintf("has an invalid glob %q", pattern))
			continue
		}
		kept = append(kept, pattern)
	}
	if fix {
		ch.ExcludeFiles = kept
	}

	order := ch.PriorityOrder[:0:0]
	for _, name := range ch.PriorityOrder {
		if strings.TrimSpace(name) != "" && !buildctx.KnownSection(name) {
			msg := fmt.Sprintf("names an unknown section %q", name)
			if hint := buildctx.SuggestSection(name); hint != "" {
				msg += fmt.Sprintf(", did you mean %q?", hint)
			}
			invalid("chunker.priority_order", msg)
			continue
		}
		order = append(order, name)
	}
	if fix && len(order) != len(ch.PriorityOrder) {
		ch.PriorityOrder = order
	}

	switch strings.ToLower(c.Global.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("global.log_level", fmt.Sprintf("must be one of debug, info, warn, error, got %q", c.Global.LogLevel))
		if fix {
			c.Global.LogLevel = def.Global.LogLevel
		}
	}
	switch strings.ToLower(c.Global.LogFormat) {
	case "text", "json":
	default:
		invalid("global.log_format", fmt.Sprintf("must be text or json, got %q", c.Global.LogFormat))
		if fix {
			c.Global.LogFormat = def.Global.LogFormat
		}
	}

	return errs
}
