package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "unused-config.schema.json"

// Schema is the JSON schema every config file must satisfy, whatever its syntax.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "strings": {"type": "array", "items": {"type": "string"}}
  },
  "properties": {
    "entries": {"$ref": "#/definitions/strings", "minItems": 1},
    "sources": {"$ref": "#/definitions/strings", "minItems": 1},
    "checks": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "files": {"type": "boolean"},
        "dependencies": {"type": "boolean"},
        "assets": {"type": "boolean"},
        "localization": {"type": "boolean"},
        "locator": {"type": "boolean"}
      }
    },
    "exclude": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "dirs": {"$ref": "#/definitions/strings"},
        "patterns": {"$ref": "#/definitions/strings"},
        "gitignore": {"type": "boolean"}
      }
    },
    "files": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ignore": {"$ref": "#/definitions/strings"}
      }
    },
    "dependencies": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ignore": {"$ref": "#/definitions/strings"},
        "include_dev": {"type": "boolean"}
      }
    },
    "assets": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ignore": {"$ref": "#/definitions/strings"},
        "match_file_name": {"type": "boolean"}
      }
    },
    "localization": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "class_names": {"$ref": "#/definitions/strings"},
        "exclude": {"$ref": "#/definitions/strings"}
      }
    },
    "locator": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "names": {"$ref": "#/definitions/strings"}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "format": {"enum": ["text", "json", "markdown", "md", "toon"]},
        "color": {"type": "boolean"},
        "verbose": {"type": "boolean"}
      }
    }
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// checkSchema validates the raw key tree of a config file against Schema.
func checkSchema(tree map[string]any) error {
	// Round-trip through JSON so YAML/TOML values arrive in the shapes the
	// validator expects (float64 numbers, []any arrays).
	raw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return sch.Validate(inst)
}

// ValidateFile loads a config file, which checks it against Schema, and then
// validates the resulting effective config.
func ValidateFile(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
