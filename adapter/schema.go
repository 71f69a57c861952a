package adapter

import (
	"fmt"
	"math"

	"github.com/petal-labs/toolgate/mcp"
)

// Parameter kind literals for translated tool schemas.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindNumber  ParamKind = "number"
	KindInteger ParamKind = "integer"
	KindBoolean ParamKind = "boolean"
	KindArray   ParamKind = "array"
	KindObject  ParamKind = "object"
	KindAny     ParamKind = "any"
)

// ParamSpec is one node of a translated parameter schema. Items is set for
// arrays with a typed element; a nil Items means an untyped sequence.
// Properties is set for objects with declared fields; a nil Properties on
// an object means an open key-value map.
type ParamSpec struct {
	Kind        ParamKind
	Description string
	Required    bool
	Items       *ParamSpec
	Properties  map[string]ParamSpec
}

// EmptyObjectSpec is the schema of a tool that takes no parameters.
func EmptyObjectSpec() ParamSpec {
	return ParamSpec{Kind: KindObject, Properties: map[string]ParamSpec{}}
}

// TranslateSchema maps a tool's JSON-Schema subset into a ParamSpec. A nil
// schema, or one whose top level is not an object type, degrades to "no
// parameters".
func TranslateSchema(schema map[string]any) ParamSpec {
	if schema == nil {
		return EmptyObjectSpec()
	}
	if kind, _ := schema["type"].(string); kind != "object" {
		return EmptyObjectSpec()
	}
	return translateNode(schema)
}

func translateNode(schema map[string]any) ParamSpec {
	if schema == nil {
		return ParamSpec{Kind: KindAny}
	}

	spec := ParamSpec{}
	if desc, ok := schema["description"].(string); ok {
		spec.Description = desc
	}

	kind, _ := schema["type"].(string)
	switch kind {
	case "string":
		spec.Kind = KindString
	case "number":
		spec.Kind = KindNumber
	case "integer":
		spec.Kind = KindInteger
	case "boolean":
		spec.Kind = KindBoolean
	case "array":
		spec.Kind = KindArray
		if items, ok := schema["items"].(map[string]any); ok {
			item := translateNode(items)
			spec.Items = &item
		}
	case "object":
		spec.Kind = KindObject
		props, ok := schema["properties"].(map[string]any)
		if !ok || len(props) == 0 {
			// Open key-value map.
			return spec
		}
		required := requiredSet(schema["required"])
		spec.Properties = make(map[string]ParamSpec, len(props))
		for name, raw := range props {
			child, _ := raw.(map[string]any)
			childSpec := translateNode(child)
			childSpec.Required = required[name]
			spec.Properties[name] = childSpec
		}
	default:
		spec.Kind = KindAny
	}
	return spec
}

func requiredSet(raw any) map[string]bool {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, entry := range list {
		if name, ok := entry.(string); ok {
			set[name] = true
		}
	}
	return set
}

// ValidateArgs checks call arguments against a translated schema. Failures
// are ProtocolError/INVALID_PARAMS naming the offending field.
func ValidateArgs(spec ParamSpec, args map[string]any) error {
	if spec.Kind != KindObject {
		return nil
	}
	return validateObject("", spec, args)
}

func validateObject(path string, spec ParamSpec, args map[string]any) error {
	if spec.Properties == nil {
		// Open map, anything goes.
		return nil
	}
	for name, field := range spec.Properties {
		value, present := args[name]
		fieldPath := joinPath(path, name)
		if !present {
			if field.Required {
				return mcp.NewProtocolError(mcp.CodeInvalidParams, "missing required parameter %q", fieldPath)
			}
			continue
		}
		if err := validateValue(fieldPath, field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, spec ParamSpec, value any) error {
	if value == nil {
		return nil
	}
	switch spec.Kind {
	case KindAny:
		return nil
	case KindString:
		if _, ok := value.(string); !ok {
			return typeMismatch(path, "string", value)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(path, "boolean", value)
		}
	case KindNumber:
		if !isNumeric(value) {
			return typeMismatch(path, "number", value)
		}
	case KindInteger:
		if !isIntegral(value) {
			return typeMismatch(path, "integer", value)
		}
	case KindArray:
		items, ok := value.([]any)
		if !ok {
			return typeMismatch(path, "array", value)
		}
		if spec.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), *spec.Items, item); err != nil {
				return err
			}
		}
	case KindObject:
		fields, ok := value.(map[string]any)
		if !ok {
			return typeMismatch(path, "object", value)
		}
		return validateObject(path, spec, fields)
	}
	return nil
}

func isNumeric(value any) bool {
	switch value.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func isIntegral(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == math.Trunc(v)
	case float32:
		return float64(v) == math.Trunc(float64(v))
	}
	return false
}

func typeMismatch(path, want string, value any) error {
	return mcp.NewProtocolError(mcp.CodeInvalidParams, "parameter %q: expected %s, got %T", path, want, value)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
