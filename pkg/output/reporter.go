// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
)

// Reporter delivers a formatted result to stdout or a file.
type Reporter struct {
	formatter *Formatter
	stdout    io.Writer
	path      string
	logger    observability.Logger
}

// NewReporter creates a reporter. An empty path or "-" means stdout.
func NewReporter(formatter *Formatter, stdout io.Writer, path string, logger observability.Logger) *Reporter {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if path == "-" {
		path = ""
	}
	return &Reporter{formatter: formatter, stdout: stdout, path: path, logger: logger}
}

// Report renders result and writes it out. Files are replaced atomically so
// a failed run never leaves a half-written context behind.
func (r *Reporter) Report(result *buildctx.Result) error {
	var buf bytes.Buffer
	if err := r.formatter.Write(&buf, result); err != nil {
		return err
	}

	if r.path == "" {
		if _, err := r.stdout.Write(buf.Bytes()); err != nil {
			return errors.InternalError("failed to write output", err)
		}
		return nil
	}

	if err := writeFileAtomic(r.path, buf.Bytes()); err != nil {
		return err
	}
	r.logger.Info("context written",
		observability.String("path", r.path),
		observability.String("format", r.formatter.Format()),
		observability.Int("bytes", buf.Len()),
	)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.InputError("failed to create output directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".context-chunker-*")
	if err != nil {
		return errors.InputError("failed to create output file", err).WithContext("path", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.InternalError("failed to write output file", err).WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.InternalError("failed to close output file", err).WithContext("path", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.InternalError("failed to replace output file", err).WithContext("path", path)
	}
	return nil
}
