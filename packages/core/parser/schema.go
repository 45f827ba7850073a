package parser

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// fileSchema describes an unrendered test document. Scalars that may hold a
// template accept strings as well as their natural type.
const fileSchema = `{
  "type": "object",
  "required": ["requests"],
  "properties": {
    "variables": {"type": "object"},
    "allowInsecure": {"type": ["boolean", "string"]},
    "requests": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/request"}
    }
  },
  "definitions": {
    "request": {
      "type": "object",
      "required": ["request"],
      "properties": {
        "request": {
          "type": "object",
          "required": ["url", "method"],
          "properties": {
            "url": {"type": "string"},
            "method": {"type": "string"},
            "headers": {"type": "object"},
            "queryString": {"type": "object"},
            "postData": {
              "type": "object",
              "properties": {
                "text": {"type": "string"}
              }
            }
          }
        },
        "auth": {
          "type": "object",
          "properties": {
            "basic": {
              "type": "object",
              "required": ["username", "password"]
            }
          }
        },
        "validate": {
          "type": ["array", "object"],
          "items": {"$ref": "#/definitions/assertion"},
          "properties": {
            "max_retries": {"type": ["integer", "string"]},
            "checks": {"type": "array", "items": {"$ref": "#/definitions/assertion"}}
          }
        },
        "log": {"type": ["boolean", "string"]},
        "if": {
          "type": "object",
          "required": ["operand", "equals"]
        },
        "delay": {"type": ["integer", "string"]}
      }
    },
    "assertion": {
      "type": "object",
      "required": ["jsonpath"],
      "properties": {
        "jsonpath": {"type": "string"},
        "type": {"type": "string"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(fileSchema)

// ValidateSchema checks the structure of an unrendered document.
func ValidateSchema(file *File) error {
	var doc any
	if err := yaml.Unmarshal([]byte(file.Raw), &doc); err != nil {
		return &ParseError{File: file.Path, Message: err.Error()}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: schema validation error: %w", file.Path, err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%s: schema validation failed: %s", file.Path, strings.Join(errs, "; "))
}
