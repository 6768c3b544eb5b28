// Package openapi derives OpenAPI 3 documents from scheme fields, so
// registered schemas can be served to generators and API explorers.
package openapi

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/pkg/ports"
)

// SchemaFromField converts a field into an OpenAPI schema.
func SchemaFromField(field scheme.Field) (*openapi3.Schema, error) {
	return SchemaFromDescription(field.Describe())
}

// SchemaFromDescription converts a portable field description, as
// produced by scheme.Field.Describe, into an OpenAPI schema.
func SchemaFromDescription(description map[string]any) (*openapi3.Schema, error) {
	token, _ := description["__type__"].(string)
	if token == "" {
		token, _ = description["fieldtype"].(string)
	}
	if token == "" {
		return nil, fmt.Errorf("openapi: field description lacks a type")
	}

	schema, err := schemaForType(token, description)
	if err != nil {
		return nil, err
	}

	applyCommon(schema, description)
	return schema, nil
}

func schemaForType(token string, description map[string]any) (*openapi3.Schema, error) {
	switch token {
	case "binary":
		return withLengths(openapi3.NewBytesSchema(), description), nil
	case "boolean":
		return openapi3.NewBoolSchema(), nil
	case "date":
		return openapi3.NewStringSchema().WithFormat("date"), nil
	case "datetime":
		return openapi3.NewDateTimeSchema(), nil
	case "decimal":
		return openapi3.NewStringSchema().WithFormat("decimal"), nil
	case "definition", "error", "surrogate":
		return openapi3.NewObjectSchema().WithAnyAdditionalProperties(), nil
	case "email":
		return withLengths(openapi3.NewStringSchema().WithFormat("email"), description), nil
	case "enumeration":
		return enumerationSchema(description), nil
	case "field":
		return openapi3.NewSchema(), nil
	case "float":
		return withBounds(openapi3.NewFloat64Schema(), description), nil
	case "integer":
		return withBounds(openapi3.NewInt64Schema(), description), nil
	case "map":
		return mapSchema(description)
	case "object", "objectreference":
		return openapi3.NewStringSchema(), nil
	case "sequence":
		return sequenceSchema(description)
	case "structure":
		return structureSchema(description)
	case "text", "token":
		return textSchema(description), nil
	case "time":
		return openapi3.NewStringSchema().WithFormat("time"), nil
	case "tuple":
		return tupleSchema(description)
	case "union":
		return unionSchema(description)
	case "url":
		return withLengths(openapi3.NewStringSchema().WithFormat("uri"), description), nil
	case "uuid":
		return openapi3.NewUUIDSchema(), nil
	}
	return nil, fmt.Errorf("openapi: unknown field type %q", token)
}

func applyCommon(schema *openapi3.Schema, description map[string]any) {
	if title, ok := description["title"].(string); ok {
		schema.Title = title
	}
	if text, ok := description["description"].(string); ok {
		schema.Description = text
	}
	if value, ok := description["default"]; ok && value != nil {
		schema.Default = value
	}
	if value, ok := description["constant"]; ok && value != nil {
		schema.Enum = []any{value}
	}
	if nonnull, _ := description["nonnull"].(bool); !nonnull {
		schema.Nullable = true
	}
}

func textSchema(description map[string]any) *openapi3.Schema {
	schema := openapi3.NewStringSchema()
	if pattern, ok := description["pattern"].(string); ok {
		schema.WithPattern(pattern)
	}
	return withLengths(schema, description)
}

func enumerationSchema(description map[string]any) *openapi3.Schema {
	members, _ := description["enumeration"].([]any)

	schema := openapi3.NewSchema()
	for _, member := range members {
		if _, ok := member.(string); !ok {
			schema.Enum = append([]any(nil), members...)
			return schema
		}
	}
	schema = openapi3.NewStringSchema()
	schema.Enum = append([]any(nil), members...)
	return schema
}

func mapSchema(description map[string]any) (*openapi3.Schema, error) {
	schema := openapi3.NewObjectSchema()
	value, ok := description["value"].(map[string]any)
	if !ok {
		return schema.WithAnyAdditionalProperties(), nil
	}
	valueSchema, err := SchemaFromDescription(value)
	if err != nil {
		return nil, err
	}
	return schema.WithAdditionalProperties(valueSchema), nil
}

func sequenceSchema(description map[string]any) (*openapi3.Schema, error) {
	schema := openapi3.NewArraySchema()
	if item, ok := description["item"].(map[string]any); ok {
		itemSchema, err := SchemaFromDescription(item)
		if err != nil {
			return nil, err
		}
		schema.WithItems(itemSchema)
	}
	if min, ok := intParam(description, "min_length"); ok {
		schema.WithMinItems(min)
	}
	if max, ok := intParam(description, "max_length"); ok {
		schema.WithMaxItems(max)
	}
	if unique, _ := description["unique"].(bool); unique {
		schema.UniqueItems = true
	}
	return schema, nil
}

func tupleSchema(description map[string]any) (*openapi3.Schema, error) {
	values, _ := description["values"].([]any)

	schemas := make([]*openapi3.Schema, 0, len(values))
	for i, value := range values {
		member, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("openapi: tuple value %d is not a field description", i)
		}
		memberSchema, err := SchemaFromDescription(member)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, memberSchema)
	}

	schema := openapi3.NewArraySchema()
	switch len(schemas) {
	case 0:
	case 1:
		schema.WithItems(schemas[0])
	default:
		schema.Items = openapi3.NewSchemaRef("", openapi3.NewOneOfSchema(schemas...))
	}
	return schema.WithMinItems(int64(len(values))).WithMaxItems(int64(len(values))), nil
}

func unionSchema(description map[string]any) (*openapi3.Schema, error) {
	fields, _ := description["fields"].([]any)

	schemas := make([]*openapi3.Schema, 0, len(fields))
	for i, field := range fields {
		member, ok := field.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("openapi: union field %d is not a field description", i)
		}
		memberSchema, err := SchemaFromDescription(member)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, memberSchema)
	}
	return openapi3.NewOneOfSchema(schemas...), nil
}

func structureSchema(description map[string]any) (*openapi3.Schema, error) {
	structure, _ := description["structure"].(map[string]any)

	discriminator, polymorphic := description["polymorphic_on"].(map[string]any)
	if !polymorphic {
		return objectSchema(structure)
	}
	discName, _ := discriminator["name"].(string)

	identities := make([]string, 0, len(structure))
	for identity := range structure {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	variants := make([]*openapi3.Schema, 0, len(identities))
	for _, identity := range identities {
		fields, ok := structure[identity].(map[string]any)
		if !ok {
			continue
		}
		variant, err := objectSchema(fields)
		if err != nil {
			return nil, err
		}
		variant.Title = identity
		if discName != "" {
			if _, ok := fields[discName]; !ok {
				variant.WithProperty(discName, openapi3.NewStringSchema().WithEnum(identity))
				variant.Required = append(variant.Required, discName)
			}
		}
		variants = append(variants, variant)
	}

	schema := openapi3.NewOneOfSchema(variants...)
	if discName != "" {
		schema.Discriminator = &openapi3.Discriminator{PropertyName: discName}
	}
	return schema, nil
}

func objectSchema(fields map[string]any) (*openapi3.Schema, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := openapi3.NewObjectSchema()
	for _, name := range names {
		child, ok := fields[name].(map[string]any)
		if !ok {
			continue
		}
		childSchema, err := SchemaFromDescription(child)
		if err != nil {
			return nil, err
		}
		schema.WithProperty(name, childSchema)
		if required, _ := child["required"].(bool); required {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema, nil
}

func withBounds(schema *openapi3.Schema, description map[string]any) *openapi3.Schema {
	if min, ok := floatParam(description, "minimum"); ok {
		schema.WithMin(min)
	}
	if max, ok := floatParam(description, "maximum"); ok {
		schema.WithMax(max)
	}
	return schema
}

func withLengths(schema *openapi3.Schema, description map[string]any) *openapi3.Schema {
	if min, ok := intParam(description, "min_length"); ok {
		schema.WithMinLength(min)
	}
	if max, ok := intParam(description, "max_length"); ok {
		schema.WithMaxLength(max)
	}
	return schema
}

// Descriptions carry native Go integers, but the same maps decoded from
// JSON carry float64, so both spellings are accepted.
func floatParam(description map[string]any, key string) (float64, bool) {
	switch v := description[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func intParam(description map[string]any, key string) (int64, bool) {
	switch v := description[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	}
	return 0, false
}

// Document builds an OpenAPI description of the validation API over the
// given schema documents: one component per schema plus its validate
// operation.
func Document(title string, documents []*ports.Document) (*openapi3.T, error) {
	components := &openapi3.Components{Schemas: make(openapi3.Schemas, len(documents))}
	paths := openapi3.NewPaths()

	for _, document := range documents {
		schema, err := SchemaFromDescription(document.Description)
		if err != nil {
			return nil, fmt.Errorf("openapi: schema %q: %w", document.Name, err)
		}
		if schema.Description == "" {
			schema.Description = fmt.Sprintf("Schema %q, version %d.", document.Name, document.Version)
		}
		components.Schemas[document.Name] = openapi3.NewSchemaRef("", schema)

		responses := openapi3.NewResponses()
		responses.Set("200", &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("The value is valid; the body carries its canonical form.").
				WithJSONSchema(resultSchema(true)),
		})
		responses.Set("422", &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("The value is invalid; the body carries the error tree.").
				WithJSONSchema(resultSchema(false)),
		})

		paths.Set("/schemas/"+document.Name+"/validate", &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "validate-" + document.Name,
				Summary:     fmt.Sprintf("Validate a value against the %q schema", document.Name),
				RequestBody: &openapi3.RequestBodyRef{
					Value: openapi3.NewRequestBody().
						WithRequired(true).
						WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/"+document.Name, schema)),
				},
				Responses: responses,
			},
		})
	}

	return &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: title, Version: scheme.Version},
		Paths:      paths,
		Components: components,
	}, nil
}

func resultSchema(valid bool) *openapi3.Schema {
	schema := openapi3.NewObjectSchema().
		WithProperty("valid", openapi3.NewBoolSchema().WithEnum(valid))
	if valid {
		schema.WithProperty("value", openapi3.NewSchema())
	} else {
		schema.WithProperty("errors", openapi3.NewArraySchema().WithItems(openapi3.NewSchema()))
	}
	schema.Required = []string{"valid"}
	return schema
}
