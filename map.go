package scheme

// Map is a structural field for mappings of homogeneous values under
// arbitrary string keys.
type Map struct {
	Base

	// Value describes the values of the map. Required.
	Value Field

	// Key optionally describes the keys. Processed keys must remain
	// strings.
	Key Field

	// RequiredKeys lists keys which must be present.
	RequiredKeys []string
}

var mapErrors = baseErrors.with(errorTable{
	"invalid":     {"invalid value", "%(field)s must be a map"},
	"invalidkeys": {"invalid keys", "%(field)s must have valid keys"},
	"required":    {"required key", "%(field)s is missing required key '%(name)s'"},
})

func (f *Map) Type() string { return "map" }

func (f *Map) Describe() map[string]any {
	params := map[string]any{}
	if f.Value != nil {
		params["value"] = f.Value.Describe()
	}
	if f.Key != nil {
		params["key"] = f.Key.Describe()
	}
	if defaults, ok := f.Default.(map[string]any); ok && f.Value != nil {
		described := make(map[string]any, len(defaults))
		for key, value := range defaults {
			serialized, err := Process(f.Value, value, Outgoing, true)
			if err != nil {
				continue
			}
			described[key] = serialized
		}
		params["default"] = described
	}
	description := describeField(f, params)
	if len(f.RequiredKeys) > 0 {
		description["required_keys"] = append([]string{}, f.RequiredKeys...)
	}
	return description
}

func (f *Map) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	if f.Value != nil {
		clone.Value = f.Value.Clone()
	}
	if f.Key != nil {
		clone.Key = f.Key.Clone()
	}
	clone.RequiredKeys = append([]string{}, f.RequiredKeys...)
	return &clone
}

func (f *Map) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Map) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
	}
	if f.Value == nil {
		return nil, ErrUndefinedField
	}

	source, ok := value.(map[string]any)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Preprocessor != nil {
		if source, ok = f.Preprocessor(source).(map[string]any); !ok {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
	}

	valid := true
	processed := make(map[string]any, len(source))
	structure := make(map[string]error)

	for name, subvalue := range source {
		if f.Key != nil {
			candidate, err := processValue(f.Key, name, phase, serialized, extendAncestry(ancestry, "["+name+"]"))
			if err != nil {
				return nil, fieldError(f, ancestry, "invalidkeys", nil)
			}
			if name, ok = candidate.(string); !ok {
				return nil, fieldError(f, ancestry, "invalidkeys", nil)
			}
		}

		child, err := processValue(f.Value, subvalue, phase, serialized, extendAncestry(ancestry, "["+name+"]"))
		if err != nil {
			valid = false
			structure[name] = err
			continue
		}
		processed[name] = child
	}

	for _, name := range f.RequiredKeys {
		if _, present := processed[name]; present {
			continue
		}
		if _, failed := structure[name]; failed {
			continue
		}
		valid = false
		structure[name] = fieldError(f, ancestry, "required", map[string]any{"name": name})
	}

	if !valid {
		return nil, (&ValidationError{}).Attach(structure)
	}
	return processed, nil
}

func reconstructMap(description map[string]any) (Field, error) {
	var p struct {
		baseParams   `mapstructure:",squash"`
		Value        map[string]any `mapstructure:"value"`
		Key          map[string]any `mapstructure:"key"`
		RequiredKeys []string       `mapstructure:"required_keys"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Map{Base: p.base(), RequiredKeys: p.RequiredKeys}
	if p.Value != nil {
		if field.Value, err = Reconstruct(p.Value); err != nil {
			return nil, err
		}
	}
	if p.Key != nil {
		if field.Key, err = Reconstruct(p.Key); err != nil {
			return nil, err
		}
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
