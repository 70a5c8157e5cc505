// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package buildctx

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// minSuggestSimilarity is the Jaro-Winkler score a name needs to be offered
// as a correction.
const minSuggestSimilarity = 0.8

// DefaultPriorityOrder is used when no order is configured, highest first.
var DefaultPriorityOrder = []string{
	SectionReviews,
	SectionChecks,
	SectionFiles,
	SectionLogs,
	SectionDiff,
}

// sectionAliases lets configuration use payload key names.
var sectionAliases = map[string]string{
	"reviews":    SectionReviews,
	"review":     SectionReviews,
	"check_runs": SectionChecks,
	"checks":     SectionChecks,
	"files":      SectionFiles,
	"logs":       SectionLogs,
	"diff":       SectionDiff,
}

// CanonicalSection normalizes a configured section name.
func CanonicalSection(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	if alias, ok := sectionAliases[n]; ok {
		return alias
	}
	return n
}

// PriorityIndex maps section names to ranks; lower ranks pack first.
// It is read-only after construction.
type PriorityIndex struct {
	order []string
	rank  map[string]int
}

// NewPriorityIndex builds an index from an ordered list of names.
// Blank and duplicate names are ignored; an empty list yields
// DefaultPriorityOrder.
func NewPriorityIndex(order []string) *PriorityIndex {
	idx := &PriorityIndex{rank: make(map[string]int)}
	for _, name := range order {
		n := CanonicalSection(name)
		if n == "" {
			continue
		}
		if _, dup := idx.rank[n]; dup {
			continue
		}
		idx.rank[n] = len(idx.order)
		idx.order = append(idx.order, n)
	}
	if len(idx.order) == 0 {
		return NewPriorityIndex(DefaultPriorityOrder)
	}
	return idx
}

// Resolve returns the rank of name. Unknown names rank after every
// configured name.
func (p *PriorityIndex) Resolve(name string) int {
	if r, ok := p.rank[CanonicalSection(name)]; ok {
		return r
	}
	return len(p.order)
}

// Names returns the configured order.
func (p *PriorityIndex) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// KnownSection reports whether name refers to a section the catalog builds.
func KnownSection(name string) bool {
	n := CanonicalSection(name)
	for _, s := range DefaultPriorityOrder {
		if s == n {
			return true
		}
	}
	return false
}

// SuggestSection returns the known section name closest to name, or "" when
// nothing is similar enough.
func SuggestSection(name string) string {
	n := CanonicalSection(name)
	if n == "" {
		return ""
	}

	candidates := make([]string, 0, len(DefaultPriorityOrder)+len(sectionAliases))
	candidates = append(candidates, DefaultPriorityOrder...)
	for alias := range sectionAliases {
		candidates = append(candidates, alias)
	}

	best, bestScore := "", float32(minSuggestSimilarity)
	for _, cand := range candidates {
		score, err := edlib.StringsSimilarity(n, cand, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		canonical := CanonicalSection(cand)
		// Ties go to the alphabetically first name so map order never leaks.
		if score > bestScore || (score == bestScore && best != "" && canonical < best) {
			best, bestScore = canonical, score
		}
	}
	return best
}
