// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"encoding/json"
	"strings"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
)

// LogEntry is one named CI log excerpt.
type LogEntry struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// FormatDiff returns the unified diff text with trailing whitespace removed.
// Diff lines are kept as-is; they are the unit the packer truncates on.
func (c *SectionCatalog) FormatDiff(f Field) string {
	switch f.State {
	case FieldText:
		return strings.TrimRight(normalizeNewlines(f.Text), " \t\n")
	case FieldMissing:
		return ""
	default:
		c.logger.Warn("payload key is not a string, section skipped",
			observability.String("key", KeyDiff),
			observability.String("kind", f.Kind))
		return ""
	}
}

// FormatLogs accepts a single log string, a list of strings, or a list of
// {name, content} objects. Named entries get a sub-heading.
func (c *SectionCatalog) FormatLogs(f Field) string {
	if f.State == FieldText {
		return strings.TrimRight(normalizeNewlines(f.Text), " \t\n")
	}
	items, ok := c.listItems(KeyLogs, f)
	if !ok {
		return ""
	}

	var blocks []string
	for i, raw := range items {
		switch kindOf(raw) {
		case "string":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				c.skipEntry(KeyLogs, i, err)
				continue
			}
			if s = strings.TrimRight(normalizeNewlines(s), " \t\n"); s != "" {
				blocks = append(blocks, s)
			}
		default:
			var entry LogEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				c.skipEntry(KeyLogs, i, err)
				continue
			}
			content := strings.TrimRight(normalizeNewlines(entry.Content), " \t\n")
			if content == "" {
				continue
			}
			if name := strings.TrimSpace(entry.Name); name != "" {
				content = "### " + name + "\n" + content
			}
			blocks = append(blocks, content)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
