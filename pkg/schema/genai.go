package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
	"google.golang.org/genai"
)

// ToGenai converts a JSON Schema contract to the genai.Schema sent as
// ResponseSchema
func ToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{}

	switch schema.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	default:
		if schema.Type != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
	}

	out.Description = schema.Description

	if len(schema.Enum) > 0 {
		out.Enum = make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := ToGenai(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
		out.PropertyOrdering = propertyOrdering(schema.Properties)
	}

	if len(schema.Required) > 0 {
		out.Required = append([]string(nil), schema.Required...)
	}

	if schema.Items != nil {
		converted, err := ToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	if schema.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*schema.MinItems))
	}
	if schema.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*schema.MaxItems))
	}
	if schema.MaxLength != nil {
		out.MaxLength = genai.Ptr(int64(*schema.MaxLength))
	}

	return out, nil
}

// propertyOrdering keeps package fields in display order so the model writes
// the script first
func propertyOrdering(props map[string]*jsonschema.Schema) []string {
	var order []string
	for _, s := range model.Sections() {
		if _, ok := props[string(s)]; ok {
			order = append(order, string(s))
		}
	}
	if len(order) != len(props) {
		return nil
	}
	return order
}
