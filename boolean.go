package scheme

// Boolean is a field for boolean values.
type Boolean struct {
	Base
}

var booleanErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a boolean value"},
})

func (f *Boolean) Type() string { return "boolean" }

func (f *Boolean) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *Boolean) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Boolean) validate(value any, ancestry []string) (any, error) {
	if _, ok := value.(bool); !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return nil, nil
}

func reconstructBoolean(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Boolean{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
