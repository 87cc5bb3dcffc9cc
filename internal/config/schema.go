package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Schema is the JSON Schema configuration files must satisfy.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "log_dir": {"type": "string", "minLength": 1},
    "log_frequency": {"type": "integer", "minimum": 1},
    "console": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "color": {"enum": ["auto", "always", "never"]}
      }
    },
    "backend": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "kinds": {
          "type": "array",
          "items": {"enum": ["events", "plot", "prom"]},
          "uniqueItems": true
        },
        "histogram_bins": {"type": "integer", "minimum": 1},
        "plot_format": {"type": "string"},
        "prom_dir": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string"},
        "format": {"enum": ["console", "json"]}
      }
    },
    "run": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "steps": {"type": "integer", "minimum": 1},
        "eval_every": {"type": "integer", "minimum": 1},
        "dump_every": {"type": "integer", "minimum": 1},
        "seed": {"type": "integer"}
      }
    }
  }
}`

// ValidationErrors represents a collection of schema violations
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

var compiled *jsonschema.Schema

func compileSchema() (*jsonschema.Schema, error) {
	if compiled != nil {
		return compiled, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", strings.NewReader(Schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled = schema
	return schema, nil
}

// ValidateSchema checks raw YAML (or JSON) configuration against Schema. An
// empty document is valid. Violations are returned as ValidationErrors.
func ValidateSchema(raw []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees JSON types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("unsupported YAML value: %w", err)
	}
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractValidationErrors(validationErr)
		}
		return ValidationErrors{err}
	}
	return nil
}

// extractValidationErrors flattens the leaves of a jsonschema.ValidationError
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		return ValidationErrors{fmt.Errorf("validation error at %q: %s", err.InstanceLocation, err.Message)}
	}
	var errs ValidationErrors
	for _, childErr := range err.Causes {
		errs = append(errs, extractValidationErrors(childErr)...)
	}
	return errs
}
