// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
)

const (
	// DefaultEncoding is the BPE encoding used when none is configured.
	DefaultEncoding = "cl100k_base"

	// CharsPerToken is the ratio used by the estimate mode.
	CharsPerToken = 4

	// TruncationSuffix is appended by Truncate when text is cut.
	TruncationSuffix = "..."
)

// estimateEncodings disable the exact tokenizer on purpose.
var estimateEncodings = map[string]bool{
	"none":     true,
	"estimate": true,
}

// TokenCounter counts tokens and truncates text to a token budget.
//
// It uses an exact BPE codec when one could be loaded and otherwise falls
// back to a rune-based estimate. A codec failure at any point switches the
// counter to the estimate for the rest of its lifetime. The counter is safe
// for concurrent use.
type TokenCounter struct {
	codec    tokenizer.Codec
	encoding string
	degraded atomic.Bool
	logger   observability.Logger
}

// NewTokenCounter loads the codec for encoding, which may be an encoding name
// ("cl100k_base", "o200k_base") or a model name ("gpt-4o"). Failure to load
// it is logged and leaves the counter in estimate mode.
func NewTokenCounter(encoding string, logger observability.Logger) *TokenCounter {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	tc := &TokenCounter{logger: logger}

	name := strings.TrimSpace(encoding)
	if estimateEncodings[strings.ToLower(name)] {
		logger.Info("exact tokenizer disabled, using estimate", observability.String("encoding", name))
		return tc
	}
	if name == "" {
		logger.Warn("no tokenizer encoding configured, using estimate")
		return tc
	}

	codec, err := tokenizer.Get(tokenizer.Encoding(name))
	if err != nil {
		var modelErr error
		codec, modelErr = tokenizer.ForModel(tokenizer.Model(name))
		if modelErr != nil {
			logger.Warn("exact tokenizer unavailable, using estimate",
				observability.String("encoding", name),
				observability.Err(errors.TokenizerError("load encoding", err)))
			return tc
		}
	}

	tc.codec = codec
	tc.encoding = name
	return tc
}

// NewEstimatingCounter returns a counter that never uses an exact codec.
func NewEstimatingCounter(logger observability.Logger) *TokenCounter {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &TokenCounter{logger: logger}
}

// Exact reports whether counts come from the BPE codec.
func (tc *TokenCounter) Exact() bool {
	return tc.codec != nil && !tc.degraded.Load()
}

// Encoding returns the encoding in use, or "estimate".
func (tc *TokenCounter) Encoding() string {
	if !tc.Exact() {
		return "estimate"
	}
	return tc.encoding
}

// Count returns the number of tokens in text.
func (tc *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if tc.Exact() {
		ids, _, err := tc.codec.Encode(text)
		if err == nil {
			return len(ids)
		}
		tc.degrade("encode", err)
	}
	return estimateTokens(text)
}

// Truncate cuts text to roughly maxTokens tokens and appends "...".
// Text that already fits is returned unchanged; nothing fits a budget of
// zero or less.
func (tc *TokenCounter) Truncate(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return ""
	}

	if tc.Exact() {
		out, err := tc.truncateExact(text, maxTokens)
		if err == nil {
			return out
		}
		tc.degrade("truncate", err)
	}

	if estimateTokens(text) <= maxTokens {
		return text
	}
	runes := []rune(text)
	limit := maxTokens * CharsPerToken
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit]) + TruncationSuffix
}

func (tc *TokenCounter) truncateExact(text string, maxTokens int) (string, error) {
	ids, _, err := tc.codec.Encode(text)
	if err != nil {
		return "", err
	}
	if len(ids) <= maxTokens {
		return text, nil
	}
	decoded, err := tc.codec.Decode(ids[:maxTokens])
	if err != nil {
		return "", err
	}
	// A token boundary can split a multi-byte rune.
	return strings.ToValidUTF8(decoded, "") + TruncationSuffix, nil
}

func (tc *TokenCounter) degrade(op string, err error) {
	if tc.degraded.CompareAndSwap(false, true) {
		tc.logger.Warn("exact tokenizer failed, switching to estimate",
			observability.String("op", op),
			observability.String("encoding", tc.encoding),
			observability.Err(errors.TokenizerError(op, err)))
	}
}

func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}
