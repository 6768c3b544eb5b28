package scheme

import (
	"strconv"

	"github.com/woodsbury/decimal128"
)

// Decimal is a field for arbitrary-precision decimal values. The
// serialized form is the decimal's string representation.
type Decimal struct {
	Base

	Minimum *decimal128.Decimal
	Maximum *decimal128.Decimal
}

var decimalErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a decimal value"},
	"minimum": {"minimum value", "%(field)s must be greater then or equal to %(minimum)s"},
	"maximum": {"maximum value", "%(field)s must be less then or equal to %(maximum)s"},
})

func (f *Decimal) Type() string { return "decimal" }

func (f *Decimal) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *Decimal) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Decimal) validate(value any, ancestry []string) (any, error) {
	candidate, ok := value.(decimal128.Decimal)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Minimum != nil && candidate.Cmp(*f.Minimum).Less() {
		return nil, fieldError(f, ancestry, "minimum", map[string]any{"minimum": f.Minimum.String()})
	}
	if f.Maximum != nil && candidate.Cmp(*f.Maximum).Greater() {
		return nil, fieldError(f, ancestry, "maximum", map[string]any{"maximum": f.Maximum.String()})
	}
	return nil, nil
}

func (f *Decimal) unserializeValue(value any, ancestry []string) (any, error) {
	var text string
	switch v := value.(type) {
	case decimal128.Decimal:
		return v, nil
	case string:
		text = v
	default:
		if i, ok := asInt64(value); ok {
			text = strconv.FormatInt(i, 10)
		} else if fv, ok := asFloat64(value); ok {
			text = strconv.FormatFloat(fv, 'f', -1, 64)
		} else {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
	}
	candidate, err := decimal128.Parse(text)
	if err != nil {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return candidate, nil
}

func (f *Decimal) serializeValue(value any, ancestry []string) (any, error) {
	candidate, ok := value.(decimal128.Decimal)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return candidate.String(), nil
}

// MustDecimal parses a decimal literal and panics when it is malformed.
// Intended for field bounds and constants in schema literals.
func MustDecimal(text string) decimal128.Decimal {
	d, err := decimal128.Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalPtr returns a pointer to d, for bound parameters in field literals.
func DecimalPtr(d decimal128.Decimal) *decimal128.Decimal {
	return &d
}

func reconstructDecimal(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Decimal{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
