package scheme

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Text is a field for textual values.
type Text struct {
	Base

	// Pattern optionally restricts values to those matching a regular
	// expression.
	Pattern *regexp.Regexp

	// MinLength and MaxLength bound the length of the value after
	// stripping, in characters.
	MinLength *int
	MaxLength *int

	// Nonempty marks the field required, nonnull and at least one
	// character long.
	Nonempty bool

	// DisableStrip retains surrounding whitespace instead of stripping it
	// before validation.
	DisableStrip bool

	// DisableHTMLEscape retains the characters &, < and > instead of
	// escaping them as entities.
	DisableHTMLEscape bool
}

var textErrors = baseErrors.with(errorTable{
	"invalid":    {"invalid value", "%(field)s must be a textual value"},
	"pattern":    {"invalid value", "%(field)s has an invalid value"},
	"min_length": {"minimum length", "%(field)s must contain at least %(min_length)d non-whitespace %(noun)s"},
	"max_length": {"maximum length", "%(field)s may contain at most %(max_length)d %(noun)s"},
})

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (f *Text) Type() string { return "text" }

func (f *Text) nonemptySet() bool { return f.Nonempty }

// minLength resolves the effective minimum length; Nonempty implies one.
func (f *Text) minLength() *int {
	if f.MinLength == nil && f.Nonempty {
		return IntPtr(1)
	}
	return f.MinLength
}

func (f *Text) Describe() map[string]any {
	params := map[string]any{}
	if f.Pattern != nil {
		params["pattern"] = f.Pattern.String()
	}
	if min := f.minLength(); min != nil {
		params["min_length"] = *min
	}
	if f.MaxLength != nil {
		params["max_length"] = *f.MaxLength
	}
	if f.DisableStrip {
		params["strip"] = false
	}
	if f.DisableHTMLEscape {
		params["escape_html_entities"] = false
	}
	return describeField(f, params)
}

func (f *Text) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Text) validate(value any, ancestry []string) (any, error) {
	text, ok := value.(string)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if !f.DisableStrip {
		text = strings.TrimSpace(text)
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

	if f.Pattern != nil && !f.Pattern.MatchString(text) {
		return nil, fieldError(f, ancestry, "pattern", nil)
	}

	if !f.DisableHTMLEscape {
		text = htmlEscaper.Replace(text)
	}
	return text, nil
}

func reconstructText(description map[string]any) (Field, error) {
	var p struct {
		baseParams         `mapstructure:",squash"`
		Pattern            string `mapstructure:"pattern"`
		MinLength          *int   `mapstructure:"min_length"`
		MaxLength          *int   `mapstructure:"max_length"`
		Strip              *bool  `mapstructure:"strip"`
		EscapeHTMLEntities *bool  `mapstructure:"escape_html_entities"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Text{Base: p.base(), MinLength: p.MinLength, MaxLength: p.MaxLength}
	if p.Pattern != "" {
		if field.Pattern, err = regexp.Compile(p.Pattern); err != nil {
			return nil, err
		}
	}
	if p.Strip != nil && !*p.Strip {
		field.DisableStrip = true
	}
	if p.EscapeHTMLEntities != nil && !*p.EscapeHTMLEntities {
		field.DisableHTMLEscape = true
	}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Token is a field for identifier tokens: one or more colon-separated
// segments, each starting and ending with a word character and containing
// word characters, hyphens, plus signs and periods.
type Token struct {
	Base

	// Segments optionally requires an exact number of segments.
	Segments *int
}

var tokenPattern = regexp.MustCompile(`^\w(?:[-+.\w]*\w)?(?::\w(?:[-+.\w]*\w)?)*$`)

var tokenErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a valid token"},
})

func (f *Token) Type() string { return "token" }

func (f *Token) Describe() map[string]any {
	params := map[string]any{}
	if f.Segments != nil {
		params["segments"] = *f.Segments
	}
	return describeField(f, params)
}

func (f *Token) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Token) validate(value any, ancestry []string) (any, error) {
	text, ok := value.(string)
	if !ok || !tokenPattern.MatchString(text) {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if f.Segments != nil && strings.Count(text, ":")+1 != *f.Segments {
		return nil, fieldError(f, ancestry, "invalid", nil)
	}
	return nil, nil
}

func reconstructToken(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Segments   *int `mapstructure:"segments"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Token{Base: p.base(), Segments: p.Segments}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// UUID is a field for lowercase hexadecimal UUIDs.
type UUID struct {
	Base
}

var uuidPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

var uuidErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a UUID"},
})

func (f *UUID) Type() string { return "uuid" }

func (f *UUID) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *UUID) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *UUID) validate(value any, ancestry []string) (any, error) {
	text, ok := value.(string)
	if !ok || !uuidPattern.MatchString(text) {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return nil, nil
}

// GenerateUUID returns a random UUID in the form accepted by UUID fields.
func GenerateUUID() string {
	return uuid.NewString()
}

func reconstructUUID(description map[string]any) (Field, error) {
	var p baseParams
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &UUID{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Any is a field which accepts values of any kind, validating nothing
// beyond the common parameters.
type Any struct {
	Base
}

func (f *Any) Type() string { return "field" }

func (f *Any) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *Any) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Any) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func reconstructAny(description map[string]any) (Field, error) {
	var p baseParams
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Any{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
