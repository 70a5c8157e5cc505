// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

// SchemaID identifies the published configuration schema.
const SchemaID = "https://cicd-ai-toolkit.dev/schemas/context-chunker.json"

// Schema returns the JSON Schema of the configuration file, for editor
// completion of the .json, .jsonc and .yaml forms.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&Config{})
	s.ID = jsonschema.ID(SchemaID)
	s.Title = "context-chunker configuration"
	return s
}

// SchemaJSON renders Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, errors.InternalError("failed to encode config schema", err)
	}
	return data, nil
}
