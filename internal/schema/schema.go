// Package schema declares the parameter fields accepted by tools and actions
// and validates decoded JSON payloads against them.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	xerrors "AgentKit-Chain/internal/errors"
)

// Kind is the primitive JSON type a field accepts.
type Kind string

const (
	String  Kind = "string"
	Number  Kind = "number"
	Integer Kind = "integer"
	Boolean Kind = "boolean"
)

// Field describes one accepted parameter.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Description string
	Enum        []string
	Default     any
}

// Fields is an ordered parameter list.
type Fields []Field

// Lookup returns the field with the given name.
func (f Fields) Lookup(name string) (Field, bool) {
	for _, field := range f {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Validate confirms that every required field is present and that each
// present field holds a value of its declared kind. Values are not coerced.
func (f Fields) Validate(params map[string]any) error {
	for _, field := range f {
		value, ok := params[field.Name]
		if !ok || value == nil {
			if field.Required {
				return xerrors.Newf(xerrors.CodeValidationFailed, "missing required field: %s", field.Name)
			}
			continue
		}
		if !matches(field.Kind, value) {
			return xerrors.Newf(xerrors.CodeValidationFailed,
				"invalid type for field %s: expected %s, got %s", field.Name, field.Kind, typeName(value))
		}
	}
	return nil
}

// Decode parses a JSON object. Empty input decodes to an empty mapping.
func Decode(input string) (map[string]any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	var params map[string]any
	if err := decoder.Decode(&params); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeDecodeFailed, err, "input is not a JSON object")
	}
	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, xerrors.New(xerrors.CodeDecodeFailed, "unexpected data after JSON object")
	}
	if params == nil {
		return nil, xerrors.New(xerrors.CodeDecodeFailed, "input is not a JSON object")
	}
	return params, nil
}

// JSONSchema renders the fields as a JSON-schema object.
func (f Fields) JSONSchema() map[string]any {
	properties := make(map[string]any, len(f))
	required := make([]string, 0, len(f))
	for _, field := range f {
		prop := map[string]any{"type": string(field.Kind)}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		if len(field.Enum) > 0 {
			prop["enum"] = append([]string(nil), field.Enum...)
		}
		if field.Default != nil {
			prop["default"] = field.Default
		}
		properties[field.Name] = prop
		if field.Required {
			required = append(required, field.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func matches(kind Kind, value any) bool {
	switch kind {
	case String:
		_, ok := value.(string)
		return ok
	case Number:
		_, ok := asFloat(value)
		return ok
	case Integer:
		// float64(math.MaxInt) 取整为 2^63，上界须排除。
		n, ok := asFloat(value)
		return ok && n == math.Trunc(n) && n >= math.MinInt && n < math.MaxInt
	case Boolean:
		_, ok := value.(bool)
		return ok
	default:
		return false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
