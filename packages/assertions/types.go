package assertions

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// typeSchemas maps each supported type name to the JSON Schema its values
// must satisfy. Values are matched by their JSON type; strings are never
// coerced to numbers or booleans.
var typeSchemas = map[string]string{
	"string":           `{"type": "string"}`,
	"string.hex":       `{"type": "string", "pattern": "^[0-9a-fA-F]+$"}`,
	"string.email":     `{"type": "string", "format": "email"}`,
	"string.ip":        `{"type": "string", "anyOf": [{"format": "ipv4"}, {"format": "ipv6"}]}`,
	"string.url":       `{"type": "string", "format": "uri"}`,
	"string.uri":       `{"type": "string", "format": "uri"}`,
	"string.lowercase": `{"type": "string", "pattern": "^[^\\p{Lu}]*$"}`,
	"string.uppercase": `{"type": "string", "pattern": "^[^\\p{Ll}]*$"}`,
	"string.base64":    `{"type": "string", "pattern": "^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$"}`,
	"bool":             `{"type": "boolean"}`,
	"boolean":          `{"type": "boolean"}`,
	"object":           `{"type": "object"}`,
	"array":            `{"type": "array"}`,
	"number":           `{"type": "number"}`,
	"number.positive":  `{"type": "number", "not": {"maximum": 0}}`,
	"number.negative":  `{"type": "number", "not": {"minimum": 0}}`,
	"null":             `{"type": "null"}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema, len(typeSchemas))
		for name, src := range typeSchemas {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
			if err != nil {
				compileErr = fmt.Errorf("compiling schema for type %s: %w", name, err)
				return
			}
			compiled[name] = s
		}
	})
	return compiled, compileErr
}

// IsKnownType reports whether name is a supported type predicate.
func IsKnownType(name string) bool {
	_, ok := typeSchemas[name]
	return ok
}

// KnownTypes lists the supported type names in sorted order.
func KnownTypes() []string {
	names := make([]string, 0, len(typeSchemas))
	for name := range typeSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchesType reports whether value satisfies the named type predicate.
func MatchesType(name string, value any) (bool, error) {
	all, err := schemas()
	if err != nil {
		return false, err
	}
	schema, ok := all[name]
	if !ok {
		return false, fmt.Errorf("unsupported type %q (supported: %s)", name, strings.Join(KnownTypes(), ", "))
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return false, fmt.Errorf("validating value: %w", err)
	}
	return result.Valid(), nil
}
