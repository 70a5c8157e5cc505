// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package main is the entry point for the context-chunker CLI.
package main

import (
	stderrors "errors"
	"os"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/observability"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/output"
)

func main() {
	os.Exit(run(newApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:]))
}

// run executes the CLI and returns the process exit code. Fatal errors are
// written to stderr as a JSON error object.
func run(a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)

	return a.exit(root.Execute())
}

// exit reports err and maps it to an exit code. Errors that are recovered
// locally only warn.
func (a *app) exit(err error) int {
	if err == nil {
		return errors.ExitOK
	}
	if !errors.IsFatal(err) {
		a.logger.Warn("recovered error, continuing", observability.Err(err))
		return errors.ExitOK
	}

	var cicdErr *errors.CICDError
	if !stderrors.As(err, &cicdErr) {
		// Cobra reports bad commands and flags as plain errors.
		err = errors.InputError("invalid command line", err)
	}
	_ = output.WriteError(a.stderr, err)
	return errors.ExitCode(err)
}
