package scheme

import "encoding/base64"

// Binary is a field for byte-sequence values. The serialized form is
// url-safe base64.
type Binary struct {
	Base

	MinLength *int
	MaxLength *int

	// Nonempty implies Required, Nonnull and a minimum length of one.
	Nonempty bool
}

var binaryErrors = baseErrors.with(errorTable{
	"invalid":    {"invalid value", "%(field)s must be a binary value"},
	"min_length": {"minimum length", "%(field)s must contain at least %(min_length)d %(noun)s"},
	"max_length": {"maximum length", "%(field)s must contain at most %(max_length)d %(noun)s"},
})

func (f *Binary) Type() string { return "binary" }

func (f *Binary) nonemptySet() bool { return f.Nonempty }

func (f *Binary) lengthBounds() (*int, *int) {
	minLength := f.MinLength
	if f.Nonempty && minLength == nil {
		minLength = IntPtr(1)
	}
	return minLength, f.MaxLength
}

func (f *Binary) Describe() map[string]any {
	params := map[string]any{}
	minLength, maxLength := f.lengthBounds()
	if minLength != nil {
		params["min_length"] = *minLength
	}
	if maxLength != nil {
		params["max_length"] = *maxLength
	}
	return describeField(f, params)
}

func (f *Binary) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Binary) validate(value any, ancestry []string) (any, error) {
	candidate, ok := value.([]byte)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	minLength, maxLength := f.lengthBounds()
	if minLength != nil && len(candidate) < *minLength {
		return nil, fieldError(f, ancestry, "min_length", map[string]any{
			"min_length": *minLength, "noun": byteNoun(*minLength),
		})
	}
	if maxLength != nil && len(candidate) > *maxLength {
		return nil, fieldError(f, ancestry, "max_length", map[string]any{
			"max_length": *maxLength, "noun": byteNoun(*maxLength),
		})
	}
	return nil, nil
}

func (f *Binary) unserializeValue(value any, ancestry []string) (any, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		decoded, err := base64.URLEncoding.DecodeString(v)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return decoded, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func (f *Binary) serializeValue(value any, ancestry []string) (any, error) {
	candidate, ok := value.([]byte)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return base64.URLEncoding.EncodeToString(candidate), nil
}

func byteNoun(quantity int) string {
	if quantity > 1 {
		return "bytes"
	}
	return "byte"
}

func reconstructBinary(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		MinLength  *int `mapstructure:"min_length"`
		MaxLength  *int `mapstructure:"max_length"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Binary{Base: p.base(), MinLength: p.MinLength, MaxLength: p.MaxLength}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
