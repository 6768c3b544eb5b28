package scheme

import (
	"fmt"
	"regexp"
	"strings"
)

const emailExpr = `([-!#$%&'*+/=?^_` + "`" + `{}|~0-9a-zA-Z]+(\.[-!#$%&'*+/=?^_` + "`" + `{}|~0-9a-zA-Z]+)*` +
	`|"([\001-\010\013\014\016-\037!#-\[\]-\177]|\\[\001-\011\013\014\016-\177])*"` +
	`)@([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,6}`

var (
	emailAddressPattern         = regexp.MustCompile(`^(` + emailExpr + `)?$`)
	extendedEmailAddressPattern = regexp.MustCompile(`^(("[^"]+"[ ]+<` + emailExpr + `>)|([^<]+[ ]+<` + emailExpr + `>)|(` + emailExpr + `))?$`)
	emailListPattern            = regexp.MustCompile(`^(` + emailExpr + `(,` + emailExpr + `)*)?$`)

	emailSeparatorRuns = regexp.MustCompile(`[\s,;:]+`)
)

const emailSeparators = " \t\n\r\v\f,;:"

// Email is a field for one or more email addresses, separated by
// whitespace, commas, semicolons or colons.
type Email struct {
	Base

	// Multiple accepts a separated list of addresses, normalized to a
	// comma-separated list.
	Multiple bool

	// Extended accepts display-name forms such as "Jo Doe" <jo@example.com>.
	// Extended addresses are passed through without normalization and
	// cannot be combined with Multiple.
	Extended bool

	MinLength *int
	MaxLength *int
	Nonempty  bool
}

var emailErrors = textErrors.with(errorTable{
	"pattern": {"invalid value", "%(field)s must be a valid email address"},
})

var emailMultipleErrors = textErrors.with(errorTable{
	"pattern": {"invalid value", "%(field)s must be a list of valid email addresses"},
})

func (f *Email) Type() string { return "email" }

func (f *Email) nonemptySet() bool { return f.Nonempty }

func (f *Email) errorDefinitions() errorTable {
	if f.Multiple {
		return emailMultipleErrors
	}
	return emailErrors
}

func (f *Email) minLength() *int {
	if f.MinLength == nil && f.Nonempty {
		return IntPtr(1)
	}
	return f.MinLength
}

func (f *Email) preprocess(value any) any {
	text, ok := value.(string)
	if !ok || f.Extended {
		return value
	}
	text = strings.ToLower(strings.Trim(text, emailSeparators))
	if f.Multiple {
		text = emailSeparatorRuns.ReplaceAllString(text, ",")
	}
	return text
}

func (f *Email) Describe() map[string]any {
	params := map[string]any{}
	if f.Multiple {
		params["multiple"] = true
	}
	if f.Extended {
		params["extended"] = true
	}
	if min := f.minLength(); min != nil {
		params["min_length"] = *min
	}
	if f.MaxLength != nil {
		params["max_length"] = *f.MaxLength
	}
	return describeField(f, params)
}

func (f *Email) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Email) validate(value any, ancestry []string) (any, error) {
	if f.Multiple && f.Extended {
		return nil, fmt.Errorf("%w: email field cannot combine multiple and extended", ErrInvalidDefinition)
	}
	text, ok := value.(string)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}

	if min := f.minLength(); min != nil && len(text) < *min {
		return nil, fieldError(f, ancestry, "min_length", map[string]any{
			"min_length": *min, "noun": pluralizeNoun("character", *min),
		})
	}
	if f.MaxLength != nil && len(text) > *f.MaxLength {
		return nil, fieldError(f, ancestry, "max_length", map[string]any{
			"max_length": *f.MaxLength, "noun": pluralizeNoun("character", *f.MaxLength),
		})
	}

	pattern := emailAddressPattern
	switch {
	case f.Multiple:
		pattern = emailListPattern
	case f.Extended:
		pattern = extendedEmailAddressPattern
	}
	if !pattern.MatchString(text) {
		return nil, fieldError(f, ancestry, "pattern", nil)
	}
	return text, nil
}

func reconstructEmail(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Multiple   bool `mapstructure:"multiple"`
		Extended   bool `mapstructure:"extended"`
		MinLength  *int `mapstructure:"min_length"`
		MaxLength  *int `mapstructure:"max_length"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Email{
		Base:     p.base(),
		Multiple: p.Multiple, Extended: p.Extended,
		MinLength: p.MinLength, MaxLength: p.MaxLength,
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Url is a field for URLs.
type Url struct {
	Base

	MinLength *int
	MaxLength *int
	Nonempty  bool
}

var urlPattern = regexp.MustCompile(`(?i)` +
	`^(?:([^:]+)://)?` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

var urlErrors = textErrors.with(errorTable{
	"pattern": {"invalid value", "%(field)s must be a valid URL"},
})

func (f *Url) Type() string { return "url" }

func (f *Url) nonemptySet() bool { return f.Nonempty }

func (f *Url) minLength() *int {
	if f.MinLength == nil && f.Nonempty {
		return IntPtr(1)
	}
	return f.MinLength
}

func (f *Url) Describe() map[string]any {
	params := map[string]any{}
	if min := f.minLength(); min != nil {
		params["min_length"] = *min
	}
	if f.MaxLength != nil {
		params["max_length"] = *f.MaxLength
	}
	return describeField(f, params)
}

func (f *Url) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Url) validate(value any, ancestry []string) (any, error) {
	text, ok := value.(string)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}

	if min := f.minLength(); min != nil && len(text) < *min {
		return nil, fieldError(f, ancestry, "min_length", map[string]any{
			"min_length": *min, "noun": pluralizeNoun("character", *min),
		})
	}
	if f.MaxLength != nil && len(text) > *f.MaxLength {
		return nil, fieldError(f, ancestry, "max_length", map[string]any{
			"max_length": *f.MaxLength, "noun": pluralizeNoun("character", *f.MaxLength),
		})
	}

	if !urlPattern.MatchString(text) {
		return nil, fieldError(f, ancestry, "pattern", nil)
	}
	return text, nil
}

func reconstructUrl(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		MinLength  *int `mapstructure:"min_length"`
		MaxLength  *int `mapstructure:"max_length"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Url{Base: p.base(), MinLength: p.MinLength, MaxLength: p.MaxLength}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// ObjectReference is a field for references to registered program
// objects. Unlike Object, serialization always resolves the reference,
// never passing a name through untouched.
type ObjectReference struct {
	Base
}

var objectReferenceErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a registered object"},
	"import":  {"object import", "%(field)s specifies %(value)r, which cannot be imported"},
})

func (f *ObjectReference) Type() string { return "objectreference" }

func (f *ObjectReference) rawDefault() any { return f.Default }

func (f *ObjectReference) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *ObjectReference) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *ObjectReference) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *ObjectReference) serializeValue(value any, ancestry []string) (any, error) {
	name, ok := IdentifyObject(value)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return name, nil
}

func (f *ObjectReference) unserializeValue(value any, ancestry []string) (any, error) {
	name, ok := value.(string)
	if !ok {
		return value, nil
	}
	object, ok := LookupObject(name)
	if !ok {
		return nil, fieldError(f, ancestry, "import", map[string]any{"value": name})
	}
	return object, nil
}

func reconstructObjectReference(description map[string]any) (Field, error) {
	var p baseParams
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &ObjectReference{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
