package scheme

import "strconv"

// Integer is a field for integer values. All signed and unsigned integer
// kinds are accepted and canonicalized to int64; booleans are rejected.
type Integer struct {
	Base

	Minimum *int64
	Maximum *int64
}

var integerErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be an integer"},
	"minimum": {"minimum value", "%(field)s must be greater then or equal to %(minimum)d"},
	"maximum": {"maximum value", "%(field)s must be less then or equal to %(maximum)d"},
})

func (f *Integer) Type() string { return "integer" }

func (f *Integer) Describe() map[string]any {
	params := map[string]any{}
	if f.Minimum != nil {
		params["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		params["maximum"] = *f.Maximum
	}
	return describeField(f, params)
}

func (f *Integer) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Integer) validate(value any, ancestry []string) (any, error) {
	if _, ok := value.(bool); ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	candidate, ok := asInt64(value)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Minimum != nil && candidate < *f.Minimum {
		return nil, fieldError(f, ancestry, "minimum", map[string]any{"minimum": *f.Minimum})
	}
	if f.Maximum != nil && candidate > *f.Maximum {
		return nil, fieldError(f, ancestry, "maximum", map[string]any{"maximum": *f.Maximum})
	}
	return candidate, nil
}

func (f *Integer) unserializeValue(value any, ancestry []string) (any, error) {
	if _, ok := value.(bool); ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if candidate, ok := asInt64(value); ok {
		return candidate, nil
	}
	switch v := value.(type) {
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		candidate, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return candidate, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func reconstructInteger(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Minimum    *int64 `mapstructure:"minimum"`
		Maximum    *int64 `mapstructure:"maximum"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Integer{Base: p.base(), Minimum: p.Minimum, Maximum: p.Maximum}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Float is a field for floating-point values, canonicalized to float64.
type Float struct {
	Base

	Minimum *float64
	Maximum *float64
}

var floatErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a floating-point number"},
	"minimum": {"minimum value", "%(field)s must be greater then or equal to %(minimum)f"},
	"maximum": {"maximum value", "%(field)s must be less then or equal to %(maximum)f"},
})

func (f *Float) Type() string { return "float" }

func (f *Float) Describe() map[string]any {
	params := map[string]any{}
	if f.Minimum != nil {
		params["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		params["maximum"] = *f.Maximum
	}
	return describeField(f, params)
}

func (f *Float) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Float) validate(value any, ancestry []string) (any, error) {
	candidate, ok := asFloat64(value)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Minimum != nil && candidate < *f.Minimum {
		return nil, fieldError(f, ancestry, "minimum", map[string]any{"minimum": *f.Minimum})
	}
	if f.Maximum != nil && candidate > *f.Maximum {
		return nil, fieldError(f, ancestry, "maximum", map[string]any{"maximum": *f.Maximum})
	}
	return candidate, nil
}

func (f *Float) unserializeValue(value any, ancestry []string) (any, error) {
	if candidate, ok := asFloat64(value); ok {
		return candidate, nil
	}
	if candidate, ok := asInt64(value); ok {
		return float64(candidate), nil
	}
	if v, ok := value.(string); ok {
		candidate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return candidate, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func reconstructFloat(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Minimum    *float64 `mapstructure:"minimum"`
		Maximum    *float64 `mapstructure:"maximum"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Float{Base: p.base(), Minimum: p.Minimum, Maximum: p.Maximum}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
