package scheme

import (
	"fmt"
	"maps"
)

// Phase indicates the direction a value is moving through the engine.
type Phase string

const (
	// Incoming marks values entering the program from the outside.
	Incoming Phase = "incoming"
	// Outgoing marks values leaving the program.
	Outgoing Phase = "outgoing"
)

// Field is a typed descriptor governing validation and serialization of a
// value of a given kind. Implementations live in this package; compose
// them with Structure, Sequence, Map, Tuple and Union to describe whole
// payloads.
type Field interface {
	// Type returns the field's type token, e.g. "integer".
	Type() string
	// Describe returns a serializable description of this field, with
	// enough information to reconstruct it in another context.
	Describe() map[string]any
	// Clone returns a copy of this field. The copy shares no mutable
	// bookkeeping with the original; parameter overrides are applied by
	// asserting the concrete type and setting its fields.
	Clone() Field

	params() *Base
	validate(value any, ancestry []string) (any, error)
	unserializeValue(value any, ancestry []string) (any, error)
	serializeValue(value any, ancestry []string) (any, error)
}

// Base holds the parameters common to every field. Embed it in field
// literals:
//
//	field := &scheme.Text{Base: scheme.Base{Name: "tag", Required: true}}
type Base struct {
	// Name is the field's name within an enclosing structure.
	Name string
	// Description is a concise description used in generated documentation.
	Description string
	// Title is a public title for the field.
	Title string
	// Notes holds documentation notes of any length.
	Notes string
	// Default is the value applied by Structure when the field is absent
	// from an incoming value. A func() any is invoked on each use.
	Default any
	// Constant restricts the field to exactly this value.
	Constant any
	// Required marks the field as mandatory within a Structure.
	Required bool
	// Nonnull rejects explicit null values.
	Nonnull bool
	// IgnoreNull makes a Structure treat a null value as absent.
	IgnoreNull bool
	// Errors overrides message templates by error token.
	Errors map[string]string
	// Aspects carries free-form extension parameters, preserved by
	// Describe and usable with Filter and Screen.
	Aspects map[string]any

	// Preprocessor transforms a value after unserialization and before
	// validation.
	Preprocessor func(any) any
	// Instantiator converts a processed value into a richer in-program
	// representation; see Instantiate.
	Instantiator func(field Field, value any, key any) any
	// Extractor pulls a value for this field out of an arbitrary subject;
	// see Extract.
	Extractor func(field Field, subject any) any
}

func (b *Base) params() *Base { return b }

func (b *Base) unserializeValue(value any, ancestry []string) (any, error) {
	return value, nil
}

func (b *Base) serializeValue(value any, ancestry []string) (any, error) {
	return value, nil
}

// clone returns a copy of the base with its own maps.
func (b Base) clone() Base {
	b.Errors = maps.Clone(b.Errors)
	b.Aspects = maps.Clone(b.Aspects)
	return b
}

// GetDefault resolves the field's default, invoking it when callable.
func (b *Base) GetDefault() any {
	if fn, ok := b.Default.(func() any); ok {
		return fn()
	}
	return deepCopyValue(b.Default)
}

func guaranteedName(f Field) string {
	if name := f.params().Name; name != "" {
		return name
	}
	return "(" + f.Type() + ")"
}

// Process runs value through the field for the given phase, validating it
// and converting between representations. When serialized is true, an
// incoming value is unserialized before validation and an outgoing value
// is serialized after it. A nil value passes unless the field is Nonnull.
// Failures are reported as a *ValidationError tree; a wrong-kind value
// yields an *InvalidTypeError.
func Process(f Field, value any, phase Phase, serialized bool) (any, error) {
	return processValue(f, value, phase, serialized, nil)
}

// processor is implemented by structural fields which take over the full
// processing pipeline for their values, recursing into children.
type processor interface {
	process(value any, phase Phase, serialized bool, ancestry []string) (any, error)
}

// nullMapper is implemented by fields which coerce particular values to
// null before the nonnull check, such as Enumeration's ignored values.
type nullMapper interface {
	treatAsNull(value any) bool
}

// nonemptySetter is implemented by fields with a Nonempty parameter, which
// implies both Required and Nonnull.
type nonemptySetter interface {
	nonemptySet() bool
}

// preprocessing is implemented by fields with an intrinsic preprocessor,
// such as Email's address normalization. A Preprocessor set on the field
// replaces it.
type preprocessing interface {
	preprocess(value any) any
}

// rawDefault is implemented by fields whose defaults are handed back
// untouched, neither copied nor invoked.
type rawDefault interface {
	rawDefault() any
}

// fieldDefault resolves the default value for a field.
func fieldDefault(f Field) any {
	if rd, ok := f.(rawDefault); ok {
		return rd.rawDefault()
	}
	return f.params().GetDefault()
}

func isNonnull(f Field) bool {
	if f.params().Nonnull {
		return true
	}
	ne, ok := f.(nonemptySetter)
	return ok && ne.nonemptySet()
}

func isRequired(f Field) bool {
	if f.params().Required {
		return true
	}
	ne, ok := f.(nonemptySetter)
	return ok && ne.nonemptySet()
}

// checkNull applies the null handling shared by every field. It reports
// whether processing should short-circuit with a nil result.
func checkNull(f Field, value any, ancestry []string) (bool, error) {
	null := value == nil
	if !null {
		if nm, ok := f.(nullMapper); ok && nm.treatAsNull(value) {
			null = true
		}
	}
	if !null {
		return false, nil
	}
	if isNonnull(f) {
		return true, fieldError(f, ancestry, "nonnull", nil)
	}
	return true, nil
}

func processValue(f Field, value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if len(ancestry) == 0 {
		ancestry = []string{guaranteedName(f)}
	}
	if p, ok := f.(processor); ok {
		return p.process(value, phase, serialized, ancestry)
	}

	b := f.params()
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
	}

	var err error
	if serialized && phase == Incoming {
		value, err = f.unserializeValue(value, ancestry)
		if err != nil {
			return nil, err
		}
	}
	if b.Preprocessor != nil {
		value = b.Preprocessor(value)
	} else if pp, ok := f.(preprocessing); ok {
		value = pp.preprocess(value)
	}
	if b.Constant != nil && !deepEqual(value, b.Constant) {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}

	candidate, err := f.validate(value, ancestry)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		value = candidate
	}

	if serialized && phase == Outgoing {
		value, err = f.serializeValue(value, ancestry)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// describeField assembles the common portion of a field description.
// Zero-valued entries of params are expected to be pre-filtered by the
// caller; nil values are skipped here.
func describeField(f Field, params map[string]any) map[string]any {
	b := f.params()
	description := map[string]any{"__type__": f.Type()}

	for attr, value := range b.Aspects {
		if value == nil {
			continue
		}
		if described, err := describeParameter(value); err == nil {
			description[attr] = described
		}
	}

	if b.Name != "" {
		description["name"] = b.Name
	}
	if b.Description != "" {
		description["description"] = b.Description
	}
	if b.Title != "" {
		description["title"] = b.Title
	}
	if b.Notes != "" {
		description["notes"] = b.Notes
	}
	if isRequired(f) {
		description["required"] = true
	}
	if isNonnull(f) {
		description["nonnull"] = true
	}
	if b.IgnoreNull {
		description["ignore_null"] = true
	}
	if b.Default != nil {
		if described, err := describeParameter(b.Default); err == nil {
			description["default"] = described
		}
	}
	if b.Constant != nil {
		if described, err := describeParameter(b.Constant); err == nil {
			description["constant"] = described
		}
	}

	for name, value := range params {
		if value == nil {
			continue
		}
		if described, err := describeParameter(value); err == nil {
			description[name] = described
		}
	}
	return description
}

var errCannotDescribe = fmt.Errorf("parameter cannot be described")

// describeParameter renders a parameter value for inclusion in a field
// description. Nested fields describe themselves; values that have no
// serializable form report errCannotDescribe and are omitted.
func describeParameter(value any) (any, error) {
	switch v := value.(type) {
	case Field:
		return v.Describe(), nil
	case map[string]any:
		described := make(map[string]any, len(v))
		for key, item := range v {
			d, err := describeParameter(item)
			if err != nil {
				return nil, err
			}
			described[key] = d
		}
		return described, nil
	case []any:
		described := make([]any, len(v))
		for i, item := range v {
			d, err := describeParameter(item)
			if err != nil {
				return nil, err
			}
			described[i] = d
		}
		return described, nil
	case nil, bool, string, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, nil
	}
	return nil, errCannotDescribe
}

// Screen reports whether every criterion matches the field's parameters,
// as surfaced by its description.
func Screen(f Field, criteria map[string]any) bool {
	if len(criteria) == 0 {
		return true
	}
	description := f.Describe()
	for attr, expected := range criteria {
		actual, present := description[attr]
		if !present {
			// Descriptions omit zero-valued parameters, so an absent
			// attribute screens as null or false.
			if expected == nil || expected == false {
				continue
			}
			return false
		}
		if !deepEqual(actual, expected) {
			return false
		}
	}
	return true
}
