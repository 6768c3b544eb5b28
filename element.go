package scheme

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Element binds a schema to a struct type T, wiring the schema's
// extractor and instantiator so that extraction reads struct values by
// their mapstructure tags and instantiation produces *T instances.
type Element[T any] struct {
	// Schema validates and shapes the element's values. A Structure
	// covers the whole struct; any other named field covers a single
	// attribute.
	Schema Field

	// KeyAttr names the struct attribute that receives the key under
	// which an instance was instantiated, for elements held in maps.
	KeyAttr string

	implementations map[string]func(values map[string]any) any
	defaults        map[string]any
}

// NewElement binds schema to T, attaching the element's hooks to it.
func NewElement[T any](schema Field) (*Element[T], error) {
	element := &Element[T]{Schema: schema}

	if structure, ok := schema.(*Structure); ok {
		if err := structure.ensure(); err != nil {
			return nil, err
		}
		element.defaults = structure.GenerateDefault(false)
		if structure.Polymorphic() {
			element.implementations = make(map[string]func(values map[string]any) any)
		}
	} else if guaranteedName(schema) == "" {
		return nil, fmt.Errorf("%w: an element schema must be a structure or a named field", ErrInvalidDefinition)
	}

	params := schema.params()
	params.Extractor = element.extractValue
	params.Instantiator = element.instantiateValue
	return element, nil
}

// RegisterImplementation associates a polymorphic identity with a
// constructor used in place of T when instantiating values carrying it.
func (e *Element[T]) RegisterImplementation(identity string, construct func(values map[string]any) any) error {
	if e.implementations == nil {
		return fmt.Errorf("%w: element schema is not polymorphic", ErrInvalidDefinition)
	}
	e.implementations[identity] = construct
	return nil
}

func (e *Element[T]) extractValue(field Field, subject any) any {
	if values, ok := subject.(map[string]any); ok {
		return values
	}

	values := make(map[string]any)
	if err := mapstructure.Decode(subject, &values); err != nil {
		return subject
	}
	if _, ok := field.(*Structure); ok {
		return values
	}
	return values[guaranteedName(field)]
}

func (e *Element[T]) instantiateValue(field Field, value any, key any) any {
	source, ok := value.(map[string]any)
	if !ok {
		source = map[string]any{guaranteedName(field): value}
	}

	defaults := e.defaults
	if structure, ok := field.(*Structure); ok && structure.Polymorphic() {
		identity, _ := source[structure.discriminator.params().Name].(string)
		if construct, ok := e.implementations[identity]; ok {
			return construct(source)
		}
		defaults, _ = e.defaults[identity].(map[string]any)
	}

	instance := new(T)
	if defaults != nil {
		if err := mapstructure.Decode(defaults, instance); err != nil {
			return value
		}
	}
	if err := mapstructure.Decode(source, instance); err != nil {
		return value
	}
	if key != nil && e.KeyAttr != "" {
		if err := mapstructure.Decode(map[string]any{e.KeyAttr: key}, instance); err != nil {
			return value
		}
	}
	return instance
}

// Serialize extracts the values of instance and serializes them,
// optionally encoding to the named format.
func (e *Element[T]) Serialize(instance *T, formatName string) (any, error) {
	extracted, err := Extract(e.Schema, instance, false, true, nil)
	if err != nil {
		return nil, err
	}
	return Serialize(e.Schema, extracted, formatName)
}

// Unserialize decodes value from the named format, processes it through
// the schema and instantiates the result.
func (e *Element[T]) Unserialize(value any, formatName string) (*T, error) {
	processed, err := Unserialize(e.Schema, value, formatName)
	if err != nil {
		return nil, err
	}
	instantiated, err := Instantiate(e.Schema, processed, nil)
	if err != nil {
		return nil, err
	}
	instance, ok := instantiated.(*T)
	if !ok {
		return nil, fmt.Errorf("scheme: instantiation produced %T", instantiated)
	}
	return instance, nil
}
