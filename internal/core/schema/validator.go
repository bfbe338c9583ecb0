// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the JSON schema the project config file is validated
// against before unmarshaling, so a typoed key or a wrong type fails with a
// pointed message instead of being silently ignored.
var ConfigSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"data_dirs": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"data_extensions": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"loader_calls": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"skip_blocks": map[string]interface{}{"type": "string"},
		"workers": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"max_print_lines": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"max_print_bytes": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"render_theme": map[string]interface{}{"type": "string"},
	},
}

// TODO: The gojsonschema library is quite old with no updates. It might be
// worth looking to see if there's a newer maintained alternative.

// Validate checks a document against a JSON schema, both given as generic
// maps.
func Validate(schema map[string]interface{}, doc map[string]interface{}) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize schema: %w", err)
	}
	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize document: %w", err)
	}
	documentLoader := gojsonschema.NewBytesLoader(docBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errorMsg := "config validation failed:\n"
		for _, err := range result.Errors() {
			errorMsg += fmt.Sprintf("- %s\n", err)
		}
		return fmt.Errorf("%s", errorMsg)
	}

	return nil
}

// ValidateConfig validates a raw config map against ConfigSchema.
func ValidateConfig(raw map[string]interface{}) error {
	return Validate(ConfigSchema, raw)
}
