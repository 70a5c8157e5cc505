// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
)

// Budget defaults.
const (
	DefaultMaxTokens           = 32000
	DefaultChunkHeadroom       = 4000
	MinChunkSizeFloor          = 1000
	DefaultMinChunkSize        = 100
	DefaultTruncationThreshold = 100
	DefaultMarkerReserve       = 50
)

// TruncationMarker follows a partially included section.
const TruncationMarker = "\n\n[... truncated due to context size limits ...]"

const (
	sectionSeparator = "\n\n"
	truncatedSuffix  = " (truncated)"
	// maxShrinkAttempts bounds the retries when a truncated block still
	// overshoots the budget.
	maxShrinkAttempts = 8
)

// BudgetConfig is the resolved, immutable packing configuration.
type BudgetConfig struct {
	MaxTokens int
	// ChunkSize and MinChunkSize are advisory and only reported.
	ChunkSize           int
	MinChunkSize        int
	TruncationThreshold int
	// MarkerReserve is held back from a truncated section for its heading
	// and the truncation marker.
	MarkerReserve int
	Encoding      string
}

// DefaultBudgetConfig returns the documented defaults.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxTokens:           DefaultMaxTokens,
		ChunkSize:           DefaultMaxTokens - DefaultChunkHeadroom,
		MinChunkSize:        DefaultMinChunkSize,
		TruncationThreshold: DefaultTruncationThreshold,
		MarkerReserve:       DefaultMarkerReserve,
		Encoding:            DefaultEncoding,
	}
}

// FitThreshold returns the truncation threshold to use when the configured
// one leaves no room to truncate: half the room left after the marker
// reserve, capped at the default.
func FitThreshold(maxTokens, markerReserve int) int {
	return min(DefaultTruncationThreshold, max(0, (maxTokens-markerReserve)/2))
}

// Normalize fills zero values with defaults and enforces
// 0 <= MarkerReserve < MaxTokens and
// TruncationThreshold < MaxTokens-MarkerReserve, so the first section
// can always be truncated.
func (b BudgetConfig) Normalize() BudgetConfig {
	if b.MaxTokens <= 0 {
		b.MaxTokens = DefaultMaxTokens
	}
	if b.ChunkSize <= 0 {
		b.ChunkSize = b.MaxTokens - DefaultChunkHeadroom
	}
	if b.ChunkSize < MinChunkSizeFloor {
		b.ChunkSize = MinChunkSizeFloor
	}
	if b.MinChunkSize <= 0 {
		b.MinChunkSize = DefaultMinChunkSize
	}
	if b.TruncationThreshold <= 0 {
		b.TruncationThreshold = DefaultTruncationThreshold
	}
	if b.MarkerReserve < 0 {
		b.MarkerReserve = DefaultMarkerReserve
	}
	if b.MarkerReserve >= b.MaxTokens {
		b.MarkerReserve = b.MaxTokens / 2
	}
	if b.TruncationThreshold >= b.MaxTokens-b.MarkerReserve {
		b.TruncationThreshold = FitThreshold(b.MaxTokens, b.MarkerReserve)
	}
	return b
}

// Result is the outcome of one packing pass.
type Result struct {
	Content      string   `json:"content"`
	Chunked      bool     `json:"chunked"`
	OriginalKeys []string `json:"original_keys"`
	TokenCount   int      `json:"token_count"`
	ChunkCount   int      `json:"chunk_count"`
}

// Chunker packs sections into the token budget by priority.
type Chunker struct {
	budget  BudgetConfig
	counter *TokenCounter
	index   *PriorityIndex
	catalog *SectionCatalog
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewChunker creates a chunker. Nil collaborators get defaults: an
// estimating counter, the default priority order and a default catalog.
func NewChunker(budget BudgetConfig, counter *TokenCounter, index *PriorityIndex, catalog *SectionCatalog, logger observability.Logger) *Chunker {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if counter == nil {
		counter = NewEstimatingCounter(logger)
	}
	if index == nil {
		index = NewPriorityIndex(nil)
	}
	if catalog == nil {
		catalog = NewSectionCatalog(CatalogOptions{}, logger)
	}
	return &Chunker{
		budget:  budget.Normalize(),
		counter: counter,
		index:   index,
		catalog: catalog,
		logger:  logger,
	}
}

// WithMetrics records per-section outcomes and token usage into m.
func (c *Chunker) WithMetrics(m *observability.Metrics) *Chunker {
	c.metrics = m
	return c
}

// Budget returns the normalized budget.
func (c *Chunker) Budget() BudgetConfig {
	return c.budget
}

// Process formats, ranks and packs the payload. The only error it returns
// is an ErrInternal for a failure inside packing.
func (c *Chunker) Process(p *Payload) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.InternalError(fmt.Sprintf("packing failed: %v", r), nil).
				WithContext("stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	c.logger.Debug("processing payload",
		observability.String("fingerprint", p.Fingerprint()),
		observability.Int("bytes", p.Size()),
		observability.Strings("keys", p.Keys()),
		observability.String("encoding", c.counter.Encoding()))

	sections := c.catalog.Sections(p)
	for i := range sections {
		sections[i].Priority = c.index.Resolve(sections[i].Name)
	}

	content, chunked := c.Pack(sections)
	if content == "" {
		content, chunked = c.fallback(p)
	}

	res = &Result{
		Content:      content,
		Chunked:      chunked,
		OriginalKeys: p.Keys(),
		TokenCount:   c.counter.Count(content),
	}
	if content != "" {
		res.ChunkCount = 1
	}

	c.metrics.Gauge("token_count", float64(res.TokenCount), nil)
	c.metrics.Gauge("max_tokens", float64(c.budget.MaxTokens), nil)
	c.metrics.Timing("process", time.Since(start), nil)

	c.logger.Info("context packed",
		observability.Int("token_count", res.TokenCount),
		observability.Int("max_tokens", c.budget.MaxTokens),
		observability.Bool("chunked", res.Chunked))
	return res, nil
}

// Pack assembles sections in priority order. The first section that does
// not fit is truncated or dropped, and no later section is considered.
// It reports whether any information was cut.
func (c *Chunker) Pack(sections []Section) (string, bool) {
	live := make([]Section, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Content) != "" {
			live = append(live, s)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Priority < live[j].Priority
	})

	assembled := ""
	for i, s := range live {
		prefix := assembled
		if prefix != "" {
			prefix += sectionSeparator
		}

		block := heading(s.Title, false) + s.Content
		if c.counter.Count(prefix+block) <= c.budget.MaxTokens {
			assembled = prefix + block
			c.logger.Debug("section packed", observability.String("section", s.Name))
			c.record("packed", s.Name)
			continue
		}

		if partial, ok := c.truncateSection(prefix, s); ok {
			assembled = prefix + partial
			c.logger.Debug("section truncated", observability.String("section", s.Name))
			c.record("truncated", s.Name)
		} else {
			c.logger.Debug("section dropped", observability.String("section", s.Name))
			c.record("dropped", s.Name)
		}
		if rest := len(live) - i - 1; rest > 0 {
			c.logger.Debug("lower priority sections skipped", observability.Int("count", rest))
			for _, skipped := range live[i+1:] {
				c.record("skipped", skipped.Name)
			}
		}
		return assembled, true
	}
	return assembled, false
}

// truncateSection renders the largest part of s that fits after prefix,
// cut at a line boundary and followed by the truncation marker.
func (c *Chunker) truncateSection(prefix string, s Section) (string, bool) {
	remaining := c.budget.MaxTokens - c.counter.Count(prefix)
	if remaining <= c.budget.TruncationThreshold {
		return "", false
	}

	allowance := remaining - c.budget.MarkerReserve
	for attempt := 0; attempt < maxShrinkAttempts && allowance > 0; attempt++ {
		partial := c.counter.Truncate(s.Content, allowance)
		if partial != s.Content {
			partial = trimToLine(partial)
		}
		if strings.TrimSpace(partial) == "" {
			return "", false
		}

		block := heading(s.Title, true) + partial + TruncationMarker
		over := c.counter.Count(prefix+block) - c.budget.MaxTokens
		if over <= 0 {
			return block, true
		}
		allowance -= over
	}
	return "", false
}

// fallback serializes the raw payload when no section was packed. Output
// larger than the budget is cut like a section and reported as chunked.
func (c *Chunker) fallback(p *Payload) (string, bool) {
	verbatim := p.Verbatim()
	if verbatim == "" || c.counter.Count(verbatim) <= c.budget.MaxTokens {
		c.logger.Debug("no sections packed, using verbatim payload")
		return verbatim, false
	}

	c.logger.Warn("verbatim payload exceeds budget, truncating")
	allowance := c.budget.MaxTokens - c.budget.MarkerReserve
	for attempt := 0; attempt < maxShrinkAttempts && allowance > 0; attempt++ {
		partial := trimToLine(c.counter.Truncate(verbatim, allowance))
		if strings.TrimSpace(partial) == "" {
			break
		}
		out := partial + TruncationMarker
		over := c.counter.Count(out) - c.budget.MaxTokens
		if over <= 0 {
			return out, true
		}
		allowance -= over
	}
	return "", true
}

func (c *Chunker) record(outcome, section string) {
	c.metrics.Counter("sections_"+outcome, 1, map[string]string{"section": section})
}

func heading(title string, truncated bool) string {
	if truncated {
		return "## " + title + truncatedSuffix + "\n"
	}
	return "## " + title + "\n"
}

// trimToLine cuts text back to its last complete line when it has more
// than one; a single line is kept as cut.
func trimToLine(text string) string {
	idx := strings.LastIndex(text, "\n")
	if idx < 0 {
		return text
	}
	return strings.TrimRight(text[:idx], "\r")
}
