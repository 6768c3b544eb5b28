package scheme

import (
	"fmt"
	"slices"
	"strings"
)

// Definition is a field whose values are themselves field definitions,
// carried as described maps on the wire and as Field values in program
// space.
type Definition struct {
	Base

	// Fields optionally restricts values to the given type tokens.
	Fields []string
}

var definitionErrors = baseErrors.with(errorTable{
	"invalid":      {"invalid value", "%(field)s must be a field definition"},
	"invalidfield": {"invalid field", "%(field)s must be one of %(fields)s"},
})

func (f *Definition) Type() string { return "definition" }

func (f *Definition) representation() string {
	tokens := slices.Clone(f.Fields)
	slices.Sort(tokens)
	return strings.Join(tokens, ", ")
}

func (f *Definition) Describe() map[string]any {
	params := map[string]any{}
	if len(f.Fields) > 0 {
		tokens := make([]any, len(f.Fields))
		for i, token := range f.Fields {
			tokens[i] = token
		}
		params["fields"] = tokens
	}
	return describeField(f, params)
}

func (f *Definition) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	clone.Fields = slices.Clone(f.Fields)
	return &clone
}

func (f *Definition) validate(value any, ancestry []string) (any, error) {
	field, ok := value.(Field)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if len(f.Fields) > 0 {
		for _, token := range f.Fields {
			if _, known := fieldTypes[token]; !known {
				return nil, fmt.Errorf("%w: unknown field type %q", ErrInvalidDefinition, token)
			}
		}
		if !slices.Contains(f.Fields, field.Type()) {
			return nil, fieldError(f, ancestry, "invalidfield", map[string]any{"fields": f.representation()})
		}
	}
	return nil, nil
}

func (f *Definition) serializeValue(value any, ancestry []string) (any, error) {
	field, ok := value.(Field)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return field.Describe(), nil
}

func (f *Definition) unserializeValue(value any, ancestry []string) (any, error) {
	if _, ok := value.(Field); ok {
		return value, nil
	}
	description, ok := value.(map[string]any)
	if !ok {
		return nil, fieldError(f, ancestry, "invalid", nil)
	}
	field, err := Reconstruct(description)
	if err != nil {
		return nil, fieldError(f, ancestry, "invalid", nil)
	}
	return field, nil
}

func reconstructDefinition(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Fields     []string `mapstructure:"fields"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Definition{Base: p.base(), Fields: p.Fields}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
