// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pruner drops changed files that add tokens without adding review value,
// such as lockfiles and vendored code.
type Pruner struct {
	patterns []string
}

// NewPruner creates a pruner for the given glob patterns.
// Patterns use doublestar syntax ("**/*.lock", "vendor/**"); a pattern
// without a slash also matches the base name in any directory.
// Invalid patterns are ignored.
func NewPruner(patterns []string) *Pruner {
	p := &Pruner{}
	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat == "" || !doublestar.ValidatePattern(pat) {
			continue
		}
		p.patterns = append(p.patterns, pat)
	}
	return p
}

// Patterns returns the active patterns.
func (p *Pruner) Patterns() []string {
	return p.patterns
}

// ShouldInclude determines if a file should be included.
func (p *Pruner) ShouldInclude(filename string) bool {
	if p == nil || len(p.patterns) == 0 {
		return true
	}
	name := strings.TrimPrefix(path.Clean(filename), "./")
	base := path.Base(name)

	for _, pat := range p.patterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return false
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := doublestar.Match(pat, base); ok {
				return false
			}
		}
		// A bare directory name excludes everything beneath it.
		if strings.HasPrefix(name, strings.TrimSuffix(pat, "/")+"/") {
			return false
		}
	}
	return true
}
