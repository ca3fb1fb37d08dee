package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// packSchema is the JSON Schema every test pack must satisfy.
var packSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title", "duration_minutes", "sections"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"duration_minutes": map[string]any{
			"type":    "integer",
			"minimum": 1,
		},
		"sections": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"$ref": "#/$defs/section"},
		},
	},
	"$defs": map[string]any{
		"section": map[string]any{
			"type":     "object",
			"required": []any{"name", "questions"},
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"questions": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"$ref": "#/$defs/question"},
				},
			},
		},
		"question": map[string]any{
			"type":     "object",
			"required": []any{"id", "type", "text", "marks"},
			"properties": map[string]any{
				"id":   map[string]any{"type": "string", "minLength": 1},
				"type": map[string]any{"enum": []any{"MCQ_SINGLE", "MCQ_MULTIPLE", "NUMERICAL", "INTEGER"}},
				"text": map[string]any{"type": "string"},
				"options": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"id", "text"},
						"properties": map[string]any{
							"id":   map[string]any{"type": "string", "minLength": 1},
							"text": map[string]any{"type": "string"},
						},
					},
				},
				"marks":          map[string]any{"type": "number", "minimum": 0},
				"negative_marks": map[string]any{"type": "number", "minimum": 0},
				"correct": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"correct_value": map[string]any{"type": "number"},
				"tolerance":     map[string]any{"type": "number", "minimum": 0},
			},
			"allOf": []any{
				map[string]any{
					"if": map[string]any{
						"properties": map[string]any{"type": map[string]any{"enum": []any{"MCQ_SINGLE", "MCQ_MULTIPLE"}}},
					},
					"then": map[string]any{
						"required": []any{"options", "correct"},
						"properties": map[string]any{
							"options": map[string]any{"minItems": 2},
							"correct": map[string]any{"minItems": 1},
						},
					},
					"else": map[string]any{"required": []any{"correct_value"}},
				},
			},
		},
	},
}

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

// compilePackSchema compiles packSchema once.
func compilePackSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		// The compiler expects a decoded JSON value, not Go maps with typed slices.
		raw, err := json.Marshal(packSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal pack schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse pack schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://test-pack.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// validatePack checks raw pack JSON against the schema.
func validatePack(raw []byte) error {
	schema, err := compilePackSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
