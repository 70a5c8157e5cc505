// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package buildctx packs pull-request context into a token budget.
//
// A Payload is decoded from the JSON handed over by the fetch step, the
// SectionCatalog turns its recognized keys into named text sections, the
// PriorityIndex ranks them and the Chunker packs them greedily under the
// budget, truncating the first section that does not fit and dropping
// everything after it.
package buildctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/jsonc"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

// Recognized payload keys.
const (
	KeyReviews   = "reviews"
	KeyCheckRuns = "check_runs"
	KeyFiles     = "files"
	KeyLogs      = "logs"
	KeyDiff      = "diff"
)

// FieldState tags what a payload key held.
type FieldState int

const (
	// FieldMissing means the key was absent or null.
	FieldMissing FieldState = iota
	// FieldInvalid means the key held an unexpected JSON type.
	FieldInvalid
	// FieldList means the key held an array.
	FieldList
	// FieldText means the key held a string.
	FieldText
)

// Field is the decoded value of one recognized payload key.
type Field struct {
	State FieldState
	// Kind is the JSON kind seen ("array", "string", "object", ...).
	Kind  string
	Items []json.RawMessage
	Text  string
}

// Payload is one pull request's raw context.
type Payload struct {
	keys   []string
	values map[string]json.RawMessage
	raw    []byte
}

// ParsePayload decodes a JSON object. Comments and trailing commas are
// tolerated. Blank input is treated as an empty object.
func ParsePayload(data []byte) (*Payload, error) {
	clean := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(clean) == 0 {
		clean = []byte("{}")
	}
	if !json.Valid(clean) {
		var probe any
		err := json.Unmarshal(clean, &probe)
		return nil, errors.InputError("payload is not valid JSON", err)
	}

	dec := json.NewDecoder(bytes.NewReader(clean))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.InputError("read payload", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.InputError("payload must be a JSON object", nil).
			WithContext("kind", kindOf(clean))
	}

	p := &Payload{
		keys:   []string{},
		values: make(map[string]json.RawMessage),
		raw:    clean,
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.InputError("read payload key", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.InputError(fmt.Sprintf("unexpected token %v", tok), nil)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errors.InputError("read payload value", err).WithContext("key", key)
		}
		if _, seen := p.values[key]; !seen {
			p.keys = append(p.keys, key)
		}
		// Later duplicates win, the key keeps its first position.
		p.values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.InputError("read payload end", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.InputError("unexpected data after payload object", err)
	}
	return p, nil
}

// ReadPayload reads the whole stream and parses it.
func ReadPayload(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.InputError("read input", err)
	}
	return ParsePayload(data)
}

// Keys returns the top-level keys in document order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Field classifies the value stored under key.
func (p *Payload) Field(key string) Field {
	raw, ok := p.values[key]
	if !ok {
		return Field{State: FieldMissing, Kind: "missing"}
	}
	kind := kindOf(raw)
	switch kind {
	case "null":
		return Field{State: FieldMissing, Kind: kind}
	case "array":
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Field{State: FieldInvalid, Kind: kind}
		}
		return Field{State: FieldList, Kind: kind, Items: items}
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Field{State: FieldInvalid, Kind: kind}
		}
		return Field{State: FieldText, Kind: kind, Text: s}
	default:
		return Field{State: FieldInvalid, Kind: kind}
	}
}

// Verbatim returns the payload re-indented with its key order intact,
// or "" when the payload has no keys.
func (p *Payload) Verbatim() string {
	if len(p.keys) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(p.raw), "", "  "); err != nil {
		return string(p.raw)
	}
	return buf.String()
}

// Fingerprint identifies the payload content in logs.
func (p *Payload) Fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(p.raw))
}

// Size returns the payload size in bytes after comment stripping.
func (p *Payload) Size() int {
	return len(p.raw)
}

func kindOf(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
