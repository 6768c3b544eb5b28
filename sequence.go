package scheme

import "strconv"

// Sequence is a structural field for ordered lists of homogeneous items.
type Sequence struct {
	Base

	// Item describes the items of the sequence. Required.
	Item Field

	MinLength *int
	MaxLength *int

	// Unique rejects sequences containing duplicate items.
	Unique bool
}

var sequenceErrors = baseErrors.with(errorTable{
	"invalid":    {"invalid value", "%(field)s must be a sequence"},
	"min_length": {"minimum length", "%(field)s must have at least %(min_length)d %(noun)s"},
	"max_length": {"maximum length", "%(field)s must have at most %(max_length)d %(noun)s"},
	"duplicate":  {"duplicate value", "%(field)s must not have duplicate values"},
})

func (f *Sequence) Type() string { return "sequence" }

func (f *Sequence) Describe() map[string]any {
	params := map[string]any{}
	if f.Item != nil {
		params["item"] = f.Item.Describe()
	}
	if defaults, ok := f.Default.([]any); ok && f.Item != nil {
		described := make([]any, 0, len(defaults))
		for _, value := range defaults {
			serialized, err := Process(f.Item, value, Outgoing, true)
			if err != nil {
				continue
			}
			described = append(described, serialized)
		}
		params["default"] = described
	}
	if f.MinLength != nil {
		params["min_length"] = *f.MinLength
	}
	if f.MaxLength != nil {
		params["max_length"] = *f.MaxLength
	}
	if f.Unique {
		params["unique"] = true
	}
	return describeField(f, params)
}

func (f *Sequence) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	if f.Item != nil {
		clone.Item = f.Item.Clone()
	}
	return &clone
}

func (f *Sequence) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Sequence) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
	}
	if f.Item == nil {
		return nil, ErrUndefinedField
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

	if f.MinLength != nil && len(source) < *f.MinLength {
		return nil, fieldError(f, ancestry, "min_length", map[string]any{
			"min_length": *f.MinLength, "noun": pluralizeNoun("item", *f.MinLength),
		})
	}
	if f.MaxLength != nil && len(source) > *f.MaxLength {
		return nil, fieldError(f, ancestry, "max_length", map[string]any{
			"max_length": *f.MaxLength, "noun": pluralizeNoun("item", *f.MaxLength),
		})
	}

	valid := true
	processed := make([]any, len(source))
	structure := make([]error, len(source))

	for i, subvalue := range source {
		child, err := processValue(f.Item, subvalue, phase, serialized, extendAncestry(ancestry, "["+strconv.Itoa(i)+"]"))
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

	if f.Unique {
		for i := range processed {
			for j := i + 1; j < len(processed); j++ {
				if deepEqual(processed[i], processed[j]) {
					return nil, fieldError(f, ancestry, "duplicate", nil)
				}
			}
		}
	}
	return processed, nil
}

func reconstructSequence(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Item       map[string]any `mapstructure:"item"`
		MinLength  *int           `mapstructure:"min_length"`
		MaxLength  *int           `mapstructure:"max_length"`
		Unique     bool           `mapstructure:"unique"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Sequence{Base: p.base(), MinLength: p.MinLength, MaxLength: p.MaxLength, Unique: p.Unique}
	if p.Item != nil {
		if field.Item, err = Reconstruct(p.Item); err != nil {
			return nil, err
		}
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
