// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
)

// Section names, also used in the priority order.
const (
	SectionReviews = "review_comments"
	SectionChecks  = "test_failures"
	SectionFiles   = "changed_files"
	SectionLogs    = "ci_logs"
	SectionDiff    = "full_diff"
)

// Default excerpt limits in characters.
const (
	DefaultReviewBodyLimit   = 500
	DefaultCheckSummaryLimit = 200
)

// Section is one named block of formatted context.
type Section struct {
	Priority int
	Name     string
	Title    string
	Content  string
}

// Review is a pull request review or review comment.
type Review struct {
	User  Author `json:"user"`
	State string `json:"state"`
	Body  string `json:"body"`
}

// Author accepts either a login string or a user object with a login.
type Author string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Author) UnmarshalJSON(data []byte) error {
	switch kindOf(data) {
	case "null":
		return nil
	case "string":
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Author(s)
		return nil
	case "object":
		var u struct {
			Login string `json:"login"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if u.Login != "" {
			*a = Author(u.Login)
		} else {
			*a = Author(u.Name)
		}
		return nil
	default:
		return fmt.Errorf("user: unexpected %s", kindOf(data))
	}
}

// CheckRun is a CI check or status result.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Output     struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	} `json:"output"`
}

// ChangedFile is one file touched by the pull request.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CatalogOptions configures the SectionCatalog.
type CatalogOptions struct {
	ReviewBodyLimit   int
	CheckSummaryLimit int
	Pruner            *Pruner
}

// SectionCatalog formats recognized payload keys into sections.
// It never fails: bad values are logged and skipped.
type SectionCatalog struct {
	opts   CatalogOptions
	logger observability.Logger
}

// NewSectionCatalog creates a catalog. Zero limits take the defaults.
func NewSectionCatalog(opts CatalogOptions, logger observability.Logger) *SectionCatalog {
	if opts.ReviewBodyLimit == 0 {
		opts.ReviewBodyLimit = DefaultReviewBodyLimit
	}
	if opts.CheckSummaryLimit == 0 {
		opts.CheckSummaryLimit = DefaultCheckSummaryLimit
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &SectionCatalog{opts: opts, logger: logger}
}

// Sections formats every recognized key in discovery order:
// reviews, checks, files, logs, diff. Empty sections are included with
// empty content; the packer drops them.
func (c *SectionCatalog) Sections(p *Payload) []Section {
	return []Section{
		{Name: SectionReviews, Title: "Review Comments", Content: c.FormatReviews(p.Field(KeyReviews))},
		{Name: SectionChecks, Title: "Check Results", Content: c.FormatCheckRuns(p.Field(KeyCheckRuns))},
		{Name: SectionFiles, Title: "Changed Files", Content: c.FormatFiles(p.Field(KeyFiles))},
		{Name: SectionLogs, Title: "CI Logs", Content: c.FormatLogs(p.Field(KeyLogs))},
		{Name: SectionDiff, Title: "Diff", Content: c.FormatDiff(p.Field(KeyDiff))},
	}
}

// FormatReviews renders one line per review with a non-empty body.
func (c *SectionCatalog) FormatReviews(f Field) string {
	items, ok := c.listItems(KeyReviews, f)
	if !ok {
		return ""
	}

	var lines []string
	for i, raw := range items {
		var r Review
		if err := json.Unmarshal(raw, &r); err != nil {
			c.skipEntry(KeyReviews, i, err)
			continue
		}
		body := collapse(r.Body)
		if body == "" {
			c.logger.Debug("review without body skipped", observability.Int("index", i))
			continue
		}
		user := string(r.User)
		if user == "" {
			user = "unknown"
		}
		state := strings.ToUpper(strings.TrimSpace(r.State))
		if state == "" {
			state = "COMMENTED"
		}
		lines = append(lines, fmt.Sprintf("- @%s (%s): %s", user, state, excerpt(body, c.opts.ReviewBodyLimit)))
	}
	return strings.Join(lines, "\n")
}

// FormatCheckRuns renders one line per named check with its conclusion
// and a short summary.
func (c *SectionCatalog) FormatCheckRuns(f Field) string {
	items, ok := c.listItems(KeyCheckRuns, f)
	if !ok {
		return ""
	}

	var lines []string
	for i, raw := range items {
		var run CheckRun
		if err := json.Unmarshal(raw, &run); err != nil {
			c.skipEntry(KeyCheckRuns, i, err)
			continue
		}
		name := strings.TrimSpace(run.Name)
		if name == "" {
			c.logger.Debug("check run without name skipped", observability.Int("index", i))
			continue
		}
		conclusion := strings.TrimSpace(run.Conclusion)
		if conclusion == "" {
			conclusion = strings.TrimSpace(run.Status)
		}
		if conclusion == "" {
			conclusion = "pending"
		}

		line := fmt.Sprintf("- %s: %s", name, conclusion)
		summary := collapse(run.Output.Summary)
		if summary == "" {
			summary = collapse(run.Output.Title)
		}
		if summary != "" {
			line += " - " + excerpt(summary, c.opts.CheckSummaryLimit)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatFiles renders one line per changed file with its line counts.
func (c *SectionCatalog) FormatFiles(f Field) string {
	items, ok := c.listItems(KeyFiles, f)
	if !ok {
		return ""
	}

	var lines []string
	pruned := 0
	for i, raw := range items {
		var file ChangedFile
		if err := json.Unmarshal(raw, &file); err != nil {
			c.skipEntry(KeyFiles, i, err)
			continue
		}
		name := strings.TrimSpace(file.Filename)
		if name == "" {
			c.logger.Debug("file without filename skipped", observability.Int("index", i))
			continue
		}
		if !c.opts.Pruner.ShouldInclude(name) {
			pruned++
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (+%d/-%d)", name, file.Additions, file.Deletions))
	}
	if pruned > 0 {
		c.logger.Debug("excluded changed files", observability.Int("count", pruned))
	}
	return strings.Join(lines, "\n")
}

// listItems unwraps a list field, logging when the value has another type.
func (c *SectionCatalog) listItems(key string, f Field) ([]json.RawMessage, bool) {
	switch f.State {
	case FieldList:
		return f.Items, len(f.Items) > 0
	case FieldMissing:
		return nil, false
	default:
		c.logger.Warn("payload key is not a list, section skipped",
			observability.String("key", key),
			observability.String("kind", f.Kind))
		return nil, false
	}
}

func (c *SectionCatalog) skipEntry(key string, index int, err error) {
	c.logger.Warn("malformed entry skipped",
		observability.String("key", key),
		observability.Int("index", index),
		observability.Err(err))
}

// collapse trims s and folds internal whitespace so an entry stays on one line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// excerpt caps s at limit runes, marking the cut with "...".
func excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
