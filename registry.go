package scheme

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// fieldType binds a type token to its error vocabulary and its
// reconstruction function.
type fieldType struct {
	errors      errorTable
	reconstruct func(description map[string]any) (Field, error)
}

// fieldTypes is the registry of every field kind this package implements,
// keyed by type token. It is populated in init because the reconstruction
// functions of container fields refer back to it through Reconstruct.
var fieldTypes map[string]fieldType

func init() {
	fieldTypes = map[string]fieldType{
		"binary":          {binaryErrors, reconstructBinary},
		"boolean":         {booleanErrors, reconstructBoolean},
		"date":            {dateErrors, reconstructDate},
		"datetime":        {datetimeErrors, reconstructDateTime},
		"decimal":         {decimalErrors, reconstructDecimal},
		"definition":      {definitionErrors, reconstructDefinition},
		"email":           {emailErrors, reconstructEmail},
		"enumeration":     {enumerationErrors, reconstructEnumeration},
		"error":           {errorFieldErrors, reconstructErrorField},
		"field":           {baseErrors, reconstructAny},
		"float":           {floatErrors, reconstructFloat},
		"integer":         {integerErrors, reconstructInteger},
		"map":             {mapErrors, reconstructMap},
		"object":          {objectErrors, reconstructObject},
		"objectreference": {objectReferenceErrors, reconstructObjectReference},
		"sequence":        {sequenceErrors, reconstructSequence},
		"structure":       {structureErrors, reconstructStructure},
		"surrogate":       {surrogateErrors, reconstructSurrogate},
		"text":            {textErrors, reconstructText},
		"time":            {timeErrors, reconstructTime},
		"token":           {tokenErrors, reconstructToken},
		"tuple":           {tupleErrors, reconstructTuple},
		"union":           {unionErrors, reconstructUnion},
		"url":             {urlErrors, reconstructUrl},
		"uuid":            {uuidErrors, reconstructUUID},
	}
}

// vocabulary is implemented by fields which refine their error table per
// instance, the way Email swaps its pattern message in multiple mode.
type vocabulary interface {
	errorDefinitions() errorTable
}

func fieldErrorTable(f Field) errorTable {
	if v, ok := f.(vocabulary); ok {
		return v.errorDefinitions()
	}
	if ft, ok := fieldTypes[f.Type()]; ok {
		return ft.errors
	}
	return baseErrors
}

// Reconstruct rebuilds a field from a description previously produced by
// Describe. Nested descriptions are rebuilt recursively.
func Reconstruct(description map[string]any) (Field, error) {
	if description == nil {
		return nil, fmt.Errorf("scheme: empty field description")
	}

	token, ok := description["__type__"].(string)
	if !ok {
		if token, ok = description["fieldtype"].(string); !ok {
			return nil, fmt.Errorf("scheme: field description lacks a type")
		}
	}

	ft, ok := fieldTypes[token]
	if !ok {
		return nil, fmt.Errorf("scheme: unknown field type %q", token)
	}

	field, err := ft.reconstruct(description)
	if err != nil {
		return nil, fmt.Errorf("scheme: reconstructing %s field: %w", token, err)
	}
	return field, nil
}

// reconstructParameter rebuilds a parameter value from a description:
// maps carrying a type token become fields, containers recurse, scalars
// pass through.
func reconstructParameter(parameter any) (any, error) {
	switch p := parameter.(type) {
	case map[string]any:
		if _, ok := p["__type__"]; ok {
			return Reconstruct(p)
		}
		if _, ok := p["fieldtype"]; ok {
			return Reconstruct(p)
		}
		rebuilt := make(map[string]any, len(p))
		for key, value := range p {
			item, err := reconstructParameter(value)
			if err != nil {
				return nil, err
			}
			rebuilt[key] = item
		}
		return rebuilt, nil
	case []any:
		rebuilt := make([]any, len(p))
		for i, value := range p {
			item, err := reconstructParameter(value)
			if err != nil {
				return nil, err
			}
			rebuilt[i] = item
		}
		return rebuilt, nil
	}
	return parameter, nil
}

// baseParams mirrors the common field parameters for decoding
// descriptions.
type baseParams struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Title       string `mapstructure:"title"`
	Notes       string `mapstructure:"notes"`
	Default     any    `mapstructure:"default"`
	Constant    any    `mapstructure:"constant"`
	Required    bool   `mapstructure:"required"`
	Nonnull     bool   `mapstructure:"nonnull"`
	IgnoreNull  bool   `mapstructure:"ignore_null"`
}

func (p baseParams) base() Base {
	return Base{
		Name:        p.Name,
		Description: p.Description,
		Title:       p.Title,
		Notes:       p.Notes,
		Default:     p.Default,
		Constant:    p.Constant,
		Required:    p.Required,
		Nonnull:     p.Nonnull,
		IgnoreNull:  p.IgnoreNull,
	}
}

// decodeParams decodes a description into a parameter struct, returning
// the leftover keys so the caller can keep them as aspects. Descriptions
// arriving from JSON carry float64 numbers, so decoding is weakly typed.
func decodeParams(description map[string]any, target any) ([]string, error) {
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &metadata,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(description); err != nil {
		return nil, err
	}
	return metadata.Unused, nil
}

// aspectsFromUnused gathers leftover description entries into an aspects
// map, skipping bookkeeping keys.
func aspectsFromUnused(description map[string]any, unused []string) map[string]any {
	var aspects map[string]any
	for _, key := range unused {
		if key == "__type__" || key == "fieldtype" {
			continue
		}
		value, ok := description[key]
		if !ok || value == nil {
			continue
		}
		if aspects == nil {
			aspects = make(map[string]any)
		}
		aspects[key] = value
	}
	return aspects
}

// Visit maps callback over the nested field descriptions of description,
// returning the structural parameters of the described field keyed the
// way the field declares them. Non-structural fields yield an empty map.
func Visit(description map[string]any, callback func(any) any) (map[string]any, error) {
	token, _ := description["__type__"].(string)
	if _, ok := fieldTypes[token]; !ok {
		return nil, fmt.Errorf("scheme: unknown field type %q", token)
	}

	switch token {
	case "map":
		params := map[string]any{"value": callback(description["value"])}
		if key, ok := description["key"]; ok {
			params["key"] = callback(key)
		}
		return params, nil
	case "sequence":
		return map[string]any{"item": callback(description["item"])}, nil
	case "structure":
		visit := func(structure map[string]any) map[string]any {
			visited := make(map[string]any, len(structure))
			for name, field := range structure {
				visited[name] = callback(field)
			}
			return visited
		}
		structure, _ := description["structure"].(map[string]any)
		if _, polymorphic := description["polymorphic_on"]; polymorphic {
			visited := make(map[string]any, len(structure))
			for identity, candidate := range structure {
				if fields, ok := candidate.(map[string]any); ok {
					visited[identity] = visit(fields)
				}
			}
			return map[string]any{"structure": visited}, nil
		}
		return map[string]any{"structure": visit(structure)}, nil
	case "tuple":
		values, _ := description["values"].([]any)
		visited := make([]any, len(values))
		for i, value := range values {
			visited[i] = callback(value)
		}
		return map[string]any{"values": visited}, nil
	case "union":
		fields, _ := description["fields"].([]any)
		visited := make([]any, len(fields))
		for i, field := range fields {
			visited[i] = callback(field)
		}
		return map[string]any{"fields": visited}, nil
	}
	return map[string]any{}, nil
}
