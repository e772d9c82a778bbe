package api

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// payloadSchema is a JSON Schema applied to a raw response before it is
// normalized.
type payloadSchema struct {
	Name       string
	Definition string
}

var (
	quizSchema = payloadSchema{Name: "quiz", Definition: `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"$ref": "#/$defs/id"},
			"questions": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["id"],
					"properties": {
						"id": {"$ref": "#/$defs/id"},
						"reponses": {
							"type": ["array", "null"],
							"items": {
								"type": "object",
								"required": ["id"],
								"properties": {"id": {"$ref": "#/$defs/id"}}
							}
						}
					}
				}
			}
		},
		"$defs": {"id": {"type": ["integer", "string"]}}
	}`}

	attemptSchema = payloadSchema{Name: "attempt", Definition: `{
		"type": "object",
		"required": ["passer_id"],
		"properties": {"passer_id": {"type": ["integer", "string"]}}
	}`}

	resultSchema = payloadSchema{Name: "result", Definition: `{
		"type": "object",
		"properties": {
			"score": {"type": ["number", "string", "null"]},
			"points": {"type": ["number", "string", "null"]},
			"correct_answers": {"type": ["integer", "string", "null"]},
			"total_questions": {"type": ["integer", "string", "null"]},
			"message": {"type": ["string", "null"]}
		}
	}`}

	loginSchema = payloadSchema{Name: "login", Definition: `{
		"type": "object",
		"required": ["token"],
		"properties": {"token": {"type": "string", "minLength": 1}}
	}`}

	listSchema = payloadSchema{Name: "list", Definition: `{
		"type": "array",
		"items": {"type": "object"}
	}`}
)

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validatePayload checks raw JSON against schema.
func validatePayload(schema payloadSchema, raw []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("schema %q validation failed: %w", schema.Name, err)
	}
	return nil
}

func compiledSchema(schema payloadSchema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema.Definition))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://jsp/%s.json", schema.Name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
