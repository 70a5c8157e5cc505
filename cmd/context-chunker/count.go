// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/output"
)

// countResult is the JSON form of the count command.
type countResult struct {
	Tokens   int    `json:"tokens"`
	Encoding string `json:"encoding"`
	Exact    bool   `json:"exact"`
}

func newCountCmd(a *app) *cobra.Command {
	var (
		input    string
		encoding string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the tokens of a text",
		Long:  `Count the tokens of --input or stdin with the configured encoding.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("encoding") {
				encoding = a.cfg.Chunker.Encoding
			}

			r, err := openInput(a.stdin, input)
			if err != nil {
				return err
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				return errors.InputError("read input", err)
			}

			counter := buildctx.NewTokenCounter(encoding, a.logger)
			res := countResult{Tokens: counter.Count(string(data))}
			// Read the mode after counting, a codec failure degrades it.
			res.Encoding = counter.Encoding()
			res.Exact = counter.Exact()

			switch format {
			case output.FormatJSON:
				enc := json.NewEncoder(a.stdout)
				if err := enc.Encode(res); err != nil {
					return errors.InternalError("failed to encode count", err)
				}
			case output.FormatText, "":
				fmt.Fprintln(a.stdout, res.Tokens)
			default:
				return errors.InputError(fmt.Sprintf("unknown output format %q", format), nil)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "Text file (default stdin)")
	f.StringVar(&encoding, "encoding", "", "Tokenizer encoding or model name, \"none\" to estimate")
	f.StringVarP(&format, "format", "f", output.FormatText, "Output format: text, json")
	return cmd
}
