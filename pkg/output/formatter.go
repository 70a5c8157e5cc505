// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output renders packing results and fatal errors.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formatter renders a packing result.
type Formatter struct {
	format string
}

// NewFormatter creates a formatter for the named format.
func NewFormatter(format string) (*Formatter, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		f = FormatText
	case FormatText, FormatJSON:
	case FormatMarkdown:
		// The packed content is already markdown.
		f = FormatText
	default:
		return nil, errors.InputError(fmt.Sprintf("unknown output format %q", format), nil).
			WithContext("supported", []string{FormatText, FormatMarkdown, FormatJSON})
	}
	return &Formatter{format: f}, nil
}

// Format returns the format name in use.
func (f *Formatter) Format() string {
	return f.format
}

// Write renders result to w. Text output is the packed content followed by
// a newline when it has any; JSON output is the full result record.
func (f *Formatter) Write(w io.Writer, result *buildctx.Result) error {
	if result == nil {
		return errors.InternalError("nil result", nil)
	}

	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(resultView(result)); err != nil {
			return errors.InternalError("failed to encode result", err)
		}
	default:
		if result.Content == "" {
			return nil
		}
		if _, err := io.WriteString(w, result.Content+"\n"); err != nil {
			return errors.InternalError("failed to write result", err)
		}
	}
	return nil
}

// resultView keeps original_keys an array even when nothing was parsed.
func resultView(r *buildctx.Result) *buildctx.Result {
	if r.OriginalKeys != nil {
		return r
	}
	view := *r
	view.OriginalKeys = []string{}
	return &view
}

// Summary describes a result in one line for logs and terminals.
func Summary(r *buildctx.Result) string {
	if r == nil {
		return "no result"
	}
	state := "complete"
	if r.Chunked {
		state = "truncated"
	}
	return fmt.Sprintf("%d tokens, %d sections, %d keys, %s", r.TokenCount, r.ChunkCount, len(r.OriginalKeys), state)
}

// WriteError renders err as the JSON error envelope.
func WriteError(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(errors.Envelope(err))
}
