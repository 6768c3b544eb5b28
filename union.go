package scheme

// Union is a structural field accepting values of several field kinds,
// tried in order of preference.
type Union struct {
	Base

	// Fields lists the candidate fields, most preferred first. Required.
	Fields []Field
}

// Union reports errors with the shared vocabulary; a value no candidate
// accepts is simply invalid.
var unionErrors = baseErrors

func (f *Union) Type() string { return "union" }

func (f *Union) Describe() map[string]any {
	fields := make([]any, len(f.Fields))
	for i, field := range f.Fields {
		fields[i] = field.Describe()
	}
	return describeField(f, map[string]any{"fields": fields})
}

func (f *Union) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	clone.Fields = make([]Field, len(f.Fields))
	for i, field := range f.Fields {
		clone.Fields[i] = field.Clone()
	}
	return &clone
}

func (f *Union) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Union) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
	}
	if len(f.Fields) == 0 {
		return nil, ErrUndefinedField
	}

	for _, field := range f.Fields {
		processed, err := processValue(field, value, phase, serialized, ancestry)
		if err == nil {
			return processed, nil
		}
		// A candidate of the wrong kind is skipped; a candidate of the
		// right kind with an invalid value reports its own failure.
		if !IsInvalidType(err) {
			return nil, err
		}
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func reconstructUnion(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Fields     []map[string]any `mapstructure:"fields"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Union{Base: p.base(), Fields: make([]Field, len(p.Fields))}
	for i, member := range p.Fields {
		if field.Fields[i], err = Reconstruct(member); err != nil {
			return nil, err
		}
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
