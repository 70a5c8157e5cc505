// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/config"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/output"
)

// packFlags holds the flags for the pack command.
type packFlags struct {
	input         string
	output        string
	format        string
	maxTokens     int
	encoding      string
	priority      []string
	exclude       []string
	threshold     int
	markerReserve int
}

func newPackCmd(a *app) *cobra.Command {
	var opts packFlags

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack a context payload into the token budget",
		Long: `Read a JSON context payload from --input or stdin and write the packed
result. Sections are added in priority order; the first one that does not
fit is truncated at a line boundary and everything after it is left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyPackFlags(cmd, a.cfg, &opts)
			for _, w := range a.cfg.Repair() {
				a.logger.Warn("invalid flag value, using default", observability.Err(w))
			}

			formatter, err := output.NewFormatter(opts.format)
			if err != nil {
				return err
			}

			payload, err := readPayload(a.stdin, opts.input)
			if err != nil {
				return err
			}

			metrics := observability.NewMetrics()
			result, err := newChunker(a.cfg, a.logger).WithMetrics(metrics).Process(payload)
			if err != nil {
				return err
			}
			a.logger.Debug("pack metrics", metrics.Fields()...)
			a.logger.Debug("result",
				observability.String("summary", output.Summary(result)),
				observability.Duration("elapsed", metrics.GetAverageDuration("process")))

			return output.NewReporter(formatter, a.stdout, opts.output, a.logger).Report(result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Payload file (default stdin)")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	f.StringVarP(&opts.format, "format", "f", output.FormatJSON, "Output format: json, text, markdown")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "Token budget (overrides config)")
	f.StringVar(&opts.encoding, "encoding", "", "Tokenizer encoding or model name, \"none\" to estimate")
	f.StringSliceVar(&opts.priority, "priority", nil, "Section priority order, highest first")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "Glob patterns for changed files to leave out")
	f.IntVar(&opts.threshold, "threshold", 0, "Minimum remaining tokens worth a truncated section")
	f.IntVar(&opts.markerReserve, "marker-reserve", 0, "Tokens held back for the truncation heading and marker")
	return cmd
}

// applyPackFlags overrides configuration with the flags the user set.
func applyPackFlags(cmd *cobra.Command, cfg *config.Config, opts *packFlags) {
	f := cmd.Flags()
	if f.Changed("max-tokens") {
		cfg.Chunker.MaxTokens = opts.maxTokens
		cfg.Chunker.ChunkSize = config.DefaultChunkSize(opts.maxTokens)
	}
	if f.Changed("encoding") {
		cfg.Chunker.Encoding = opts.encoding
	}
	if f.Changed("priority") {
		cfg.Chunker.PriorityOrder = opts.priority
	}
	if f.Changed("exclude") {
		cfg.Chunker.ExcludeFiles = opts.exclude
	}
	if f.Changed("threshold") {
		cfg.Chunker.TruncationThreshold = opts.threshold
	}
	if f.Changed("marker-reserve") {
		cfg.Chunker.MarkerReserve = config.IntPtr(opts.markerReserve)
	}
}

func newChunker(cfg *config.Config, logger observability.Logger) *buildctx.Chunker {
	ch := &cfg.Chunker
	return buildctx.NewChunker(
		ch.Budget(),
		buildctx.NewTokenCounter(ch.Encoding, logger),
		buildctx.NewPriorityIndex(ch.PriorityOrder),
		buildctx.NewSectionCatalog(ch.CatalogOptions(), logger),
		logger,
	)
}

// openInput returns the named file, or stdin for "" and "-".
func openInput(stdin io.Reader, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InputError("failed to open input", err).WithContext("path", path)
	}
	return f, nil
}

func readPayload(stdin io.Reader, path string) (*buildctx.Payload, error) {
	r, err := openInput(stdin, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return buildctx.ReadPayload(r)
}
