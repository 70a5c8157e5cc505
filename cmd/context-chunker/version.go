// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display detailed version information including build date, git commit, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Info()
			fmt.Fprintf(a.stdout, "context-chunker version: %s\n", info["version"])
			fmt.Fprintf(a.stdout, "  build date: %s\n", info["buildDate"])
			fmt.Fprintf(a.stdout, "  git commit: %s\n", info["gitCommit"])
			fmt.Fprintf(a.stdout, "  go version: %s\n", info["goVersion"])
		},
	}
}
