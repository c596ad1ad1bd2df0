// Package schema provides a declarative description of expected JSON
// output shapes and a recursive validator for decoded JSON values.
// It performs no I/O and has no knowledge of the transport layer, so
// it can be exercised fully in unit tests.
package schema

import (
	"fmt"
	"strings"
)

// Node describes the expected shape of a JSON value. Nodes nest
// recursively through Properties and Items. The zero value of every
// constraint field means "not declared"; only declared constraints are
// checked.
//
// Node is JSON-tagged so the same value that drives validation can be
// serialized directly into a response_format request payload.
type Node struct {
	Type                 string           `json:"type,omitempty"`
	Properties           map[string]*Node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
	Items                *Node            `json:"items,omitempty"`
	MinItems             *int             `json:"minItems,omitempty"`
	MaxItems             *int             `json:"maxItems,omitempty"`
	MinLength            *int             `json:"minLength,omitempty"`
	MaxLength            *int             `json:"maxLength,omitempty"`
	Minimum              *float64         `json:"minimum,omitempty"`
	Maximum              *float64         `json:"maximum,omitempty"`
}

// Violation describes a single rule the value broke, tagged with the
// JSON path of the offending element (empty path means the root).
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the violation as "path: message" for log lines and
// error messages.
func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Bool returns a pointer to b, for use in Node literals.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for use in Node literals.
func Int(n int) *int { return &n }

// Float returns a pointer to f, for use in Node literals.
func Float(f float64) *float64 { return &f }

// Validate checks value against node and returns every violation found,
// not just the first. An empty slice means the value conforms.
//
// A type mismatch stops descent into that subtree: once the type itself
// is wrong, child rules would only produce noise. Null values bypass
// the type check entirely; this is a deliberate nullable-field
// allowance, and callers that cannot tolerate nulls must enforce that
// themselves.
func Validate(value any, node *Node) []Violation {
	violations := make([]Violation, 0)
	if node != nil {
		walk(value, node, "", &violations)
	}
	return violations
}

func walk(value any, node *Node, path string, violations *[]Violation) {
	if node.Type != "" && value != nil {
		actual := typeName(value)
		if actual != node.Type {
			*violations = append(*violations, Violation{
				Path:    path,
				Message: fmt.Sprintf("Expected type %s but got %s", node.Type, actual),
			})
			return
		}
	}

	switch v := value.(type) {
	case map[string]any:
		if node.Type == "object" {
			walkObject(v, node, path, violations)
		}
	case []any:
		if node.Type == "array" {
			walkArray(v, node, path, violations)
		}
	case string:
		if node.Type == "string" {
			checkString(v, node, path, violations)
		}
	case float64:
		if node.Type == "number" {
			checkNumber(v, node, path, violations)
		}
	}
}

func walkObject(obj map[string]any, node *Node, path string, violations *[]Violation) {
	for _, name := range node.Required {
		if _, ok := obj[name]; !ok {
			*violations = append(*violations, Violation{
				Path:    path,
				Message: "Required property missing: " + name,
			})
		}
	}

	for name, child := range node.Properties {
		if childValue, ok := obj[name]; ok {
			walk(childValue, child, childPath(path, name), violations)
		}
	}

	if node.AdditionalProperties != nil && !*node.AdditionalProperties {
		for key := range obj {
			if _, declared := node.Properties[key]; !declared {
				*violations = append(*violations, Violation{
					Path:    path,
					Message: "Additional property not allowed: " + key,
				})
			}
		}
	}
}

func walkArray(arr []any, node *Node, path string, violations *[]Violation) {
	if node.MinItems != nil && len(arr) < *node.MinItems {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("Array must have at least %d items but has %d", *node.MinItems, len(arr)),
		})
	}
	if node.MaxItems != nil && len(arr) > *node.MaxItems {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("Array must have at most %d items but has %d", *node.MaxItems, len(arr)),
		})
	}

	if node.Items != nil {
		for i, item := range arr {
			walk(item, node.Items, fmt.Sprintf("%s[%d]", path, i), violations)
		}
	}
}

func checkString(s string, node *Node, path string, violations *[]Violation) {
	if node.MinLength != nil && len(s) < *node.MinLength {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("String must be at least %d characters but is %d", *node.MinLength, len(s)),
		})
	}
	if node.MaxLength != nil && len(s) > *node.MaxLength {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("String must be at most %d characters but is %d", *node.MaxLength, len(s)),
		})
	}
}

func checkNumber(n float64, node *Node, path string, violations *[]Violation) {
	if node.Minimum != nil && n < *node.Minimum {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("Number must be >= %v but is %v", *node.Minimum, n),
		})
	}
	if node.Maximum != nil && n > *node.Maximum {
		*violations = append(*violations, Violation{
			Path:    path,
			Message: fmt.Sprintf("Number must be <= %v but is %v", *node.Maximum, n),
		})
	}
}

// childPath joins a parent path and a property name, leaving off the
// separator at the root.
func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// typeName reports the JSON type of a decoded value, distinguishing
// arrays from plain objects. Decoded JSON only ever yields the types
// listed here.
func typeName(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return strings.ToLower(fmt.Sprintf("%T", value))
	}
}
