// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/config"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long:  `Show the effective configuration or check configuration files for problems.`,
	}
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigValidateCmd(a))
	cmd.AddCommand(newConfigPathsCmd(a))
	cmd.AddCommand(newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return errors.InternalError("failed to encode config", err)
			}
			return enc.Close()
		},
	}
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report configuration problems",
		Long: `Load configuration like every other command and fail if any file,
environment variable or value had to be ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(a.warnings) == 0 {
				fmt.Fprintln(a.stdout, "configuration is valid")
				return nil
			}
			for _, w := range a.warnings {
				fmt.Fprintf(a.stdout, "- %v\n", w)
			}
			return errors.ValidationError(fmt.Sprintf("%d configuration problems", len(a.warnings)), nil)
		},
	}
}

func newConfigPathsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List the configuration files searched, in load order",
		Long: `List the configuration files searched, in load order. A path given with
--config or CICD_AI_TOOLKIT_CONFIG replaces all the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, p := range a.loader().Files() {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
