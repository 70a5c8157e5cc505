// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/config"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/version"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	warnings config.Warnings
	logger   observability.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
		logger: observability.NewNopLogger(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "context-chunker",
		Short: "Pack pull request context into an LLM token budget",
		Long: `context-chunker reads a pull request context payload (reviews, check runs,
changed files, CI logs and the diff) and packs it into a single markdown
document that fits a token budget, keeping the most important sections.`,
		Version:           version.FullString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (replaces global and project files)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text, json")

	root.AddCommand(newPackCmd(a))
	root.AddCommand(newCountCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, warns := a.loader().Load()
	if a.logLevel != "" {
		cfg.Global.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Global.LogFormat = a.logFormat
	}
	// Flags may have brought back bad values.
	warns = append(warns, cfg.Repair()...)

	a.cfg = cfg
	a.warnings = warns
	a.logger = observability.NewLogger(a.stderr, cfg.Global.LogLevel, cfg.Global.LogFormat).
		With(observability.String("command", cmd.Name()))

	for _, w := range warns {
		a.logger.Warn("configuration problem, using defaults", observability.Err(w))
	}
	return nil
}

func (a *app) loader() *config.Loader {
	loader := config.NewLoader().WithEnv(a.getenv)
	if a.configPath != "" {
		loader = loader.WithPath(a.configPath)
	}
	return loader
}
