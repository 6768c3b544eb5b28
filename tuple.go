package scheme

import "strconv"

// Tuple is a structural field for fixed-length lists of heterogeneous values.
type Tuple struct {
	Base

	// Values describes each position of the tuple, in order. Required.
	Values []Field
}

var tupleErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a tuple"},
	"length":  {"invalid length", "%(field)s must contain exactly %(length)d values"},
})

func (f *Tuple) Type() string { return "tuple" }

func (f *Tuple) Describe() map[string]any {
	values := make([]any, len(f.Values))
	for i, value := range f.Values {
		values[i] = value.Describe()
	}
	params := map[string]any{"values": values}

	if defaults, ok := f.Default.([]any); ok && len(defaults) == len(f.Values) {
		described := make([]any, len(defaults))
		for i, value := range defaults {
			serialized, err := Process(f.Values[i], value, Outgoing, true)
			if err != nil {
				continue
			}
			described[i] = serialized
		}
		params["default"] = described
	}
	return describeField(f, params)
}

func (f *Tuple) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	clone.Values = make([]Field, len(f.Values))
	for i, value := range f.Values {
		clone.Values[i] = value.Clone()
	}
	return &clone
}

func (f *Tuple) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Tuple) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
	}

	source, ok := value.([]any)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Preprocessor != nil {
		if source, ok = f.Preprocessor(source).([]any); !ok {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
	}

	if len(source) != len(f.Values) {
		return nil, fieldError(f, ancestry, "length", map[string]any{"length": len(f.Values)})
	}

	valid := true
	processed := make([]any, len(source))
	structure := make([]error, len(source))

	for i, field := range f.Values {
		child, err := processValue(field, source[i], phase, serialized, extendAncestry(ancestry, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			valid = false
			structure[i] = err
			continue
		}
		processed[i] = child
	}

	if !valid {
		return nil, (&ValidationError{}).Attach(structure)
	}
	return processed, nil
}

func reconstructTuple(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Values     []map[string]any `mapstructure:"values"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Tuple{Base: p.base(), Values: make([]Field, len(p.Values))}
	for i, value := range p.Values {
		if field.Values[i], err = Reconstruct(value); err != nil {
			return nil, err
		}
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
