package scheme

// ErrorField is a field for structural error values, serialized as the
// two-element form produced by ValidationError.Serialize.
type ErrorField struct {
	Base
}

var errorFieldErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a structural error"},
})

func (f *ErrorField) Type() string { return "error" }

func (f *ErrorField) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *ErrorField) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

// asStructuralError extracts the error tree node from a value of either
// error kind.
func asStructuralError(value any) (*ValidationError, bool) {
	switch v := value.(type) {
	case *ValidationError:
		return v, true
	case *InvalidTypeError:
		return &v.ValidationError, true
	}
	return nil, false
}

func (f *ErrorField) validate(value any, ancestry []string) (any, error) {
	if _, ok := asStructuralError(value); !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return nil, nil
}

func (f *ErrorField) serializeValue(value any, ancestry []string) (any, error) {
	node, ok := asStructuralError(value)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return node.Serialize(), nil
}

func (f *ErrorField) unserializeValue(value any, ancestry []string) (any, error) {
	if _, ok := asStructuralError(value); ok {
		return value, nil
	}
	if serialized, ok := value.([]any); ok && len(serialized) == 2 {
		err, uerr := UnserializeError(serialized)
		if uerr != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return err, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func reconstructErrorField(description map[string]any) (Field, error) {
	var p baseParams
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &ErrorField{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Errors describes the serialized form of a ValidationError: a two-tuple
// of global errors and structural errors.
var Errors = &Tuple{
	Base: Base{Description: "A two-tuple containing the errors for this request."},
	Values: []Field{
		&Sequence{
			Base: Base{Description: "A sequence of global errors for this request."},
			Item: &Map{
				Base:  Base{Description: "A mapping describing an error with this request."},
				Value: &Text{Base: Base{Nonnull: true}},
			},
		},
		&Any{Base: Base{Description: "A structure containing structural errors for this request."}},
	},
}
