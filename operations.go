package scheme

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/woodsbury/decimal128"

	"github.com/aretw0/scheme/format"
	"github.com/aretw0/scheme/interpolate"
)

// GetDefault resolves the default value of a field, invoking callable
// defaults except for object fields, which hand their defaults back
// untouched.
func GetDefault(f Field) any {
	return fieldDefault(f)
}

// Filter prunes a schema by attribute criteria, testing each field's
// described attributes. A criterion of true includes fields with a truthy
// attribute; false excludes them. Structures filter their fields and
// sequences their structural items, recursively; a field excluded
// entirely yields nil.
func Filter(f Field, exclusive bool, criteria map[string]any) Field {
	if !filterIncluded(f, exclusive, criteria) {
		return nil
	}

	switch field := f.(type) {
	case *Structure:
		clone := field.Clone().(*Structure)
		if field.Polymorphic() {
			variants := make(map[string]map[string]Field, len(field.Variants))
			for identity, variant := range field.Variants {
				variants[identity] = filterFieldMap(variant, exclusive, criteria)
			}
			clone.Variants = variants
		} else {
			clone.Fields = filterFieldMap(field.Fields, exclusive, criteria)
		}
		return clone
	case *Sequence:
		if _, structural := field.Item.(processor); structural {
			clone := field.Clone().(*Sequence)
			clone.Item = Filter(field.Item, exclusive, criteria)
			return clone
		}
	}
	return f
}

func filterIncluded(f Field, exclusive bool, criteria map[string]any) bool {
	included := !exclusive
	description := f.Describe()
	for attr, expected := range criteria {
		switch expected {
		case true:
			if truthy(description[attr]) {
				included = true
			}
		case false:
			if truthy(description[attr]) {
				return false
			}
			included = true
		}
	}
	return included
}

func filterFieldMap(fields map[string]Field, exclusive bool, criteria map[string]any) map[string]Field {
	filtered := make(map[string]Field, len(fields))
	for name, field := range fields {
		if candidate := Filter(field, exclusive, criteria); candidate != nil {
			filtered[name] = candidate
		}
	}
	return filtered
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if i, ok := asInt64(value); ok {
		return i != 0
	}
	if fl, ok := asFloat64(value); ok {
		return fl != 0
	}
	return true
}

// Extract pulls a value for the field out of subject, screening against
// criteria and applying the fields' extractors along the way. Structures
// recurse into maps, or into arbitrary subjects by field name when strict
// is unset; sparse extraction skips null entries. A screened-out field
// reports ErrFieldExcluded, which container extraction swallows by
// omitting the entry.
func Extract(f Field, subject any, strict, sparse bool, criteria map[string]any) (any, error) {
	if len(criteria) > 0 && !Screen(f, criteria) {
		return nil, ErrFieldExcluded
	}
	if subject == nil {
		return nil, nil
	}
	if extractor := f.params().Extractor; extractor != nil {
		subject = extractor(f, subject)
		if subject == nil {
			return nil, nil
		}
	}

	switch field := f.(type) {
	case *Structure:
		return extractStructure(field, subject, strict, sparse, criteria)

	case *Map:
		source, ok := subject.(map[string]any)
		if !ok || field.Value == nil {
			return nil, fmt.Errorf("scheme: cannot extract map from %T value", subject)
		}
		extraction := make(map[string]any, len(source))
		for key, value := range source {
			extracted, err := Extract(field.Value, value, strict, sparse, criteria)
			if errors.Is(err, ErrFieldExcluded) {
				continue
			} else if err != nil {
				return nil, err
			}
			extraction[key] = extracted
		}
		return extraction, nil

	case *Sequence:
		source, ok := subject.([]any)
		if !ok || field.Item == nil {
			return nil, fmt.Errorf("scheme: cannot extract sequence from %T value", subject)
		}
		extraction := make([]any, 0, len(source))
		for _, item := range source {
			extracted, err := Extract(field.Item, item, strict, sparse, criteria)
			if errors.Is(err, ErrFieldExcluded) {
				continue
			} else if err != nil {
				return nil, err
			}
			extraction = append(extraction, extracted)
		}
		return extraction, nil

	case *Tuple:
		source, ok := subject.([]any)
		if !ok {
			return nil, fmt.Errorf("scheme: cannot extract tuple from %T value", subject)
		}
		if len(source) < len(field.Values) {
			return nil, fmt.Errorf("scheme: cannot extract tuple of %d values from %d", len(field.Values), len(source))
		}
		extraction := make([]any, 0, len(field.Values))
		for i, value := range field.Values {
			extracted, err := Extract(value, source[i], strict, sparse, criteria)
			if errors.Is(err, ErrFieldExcluded) {
				continue
			} else if err != nil {
				return nil, err
			}
			extraction = append(extraction, extracted)
		}
		return extraction, nil
	}
	return subject, nil
}

func extractStructure(f *Structure, subject any, strict, sparse bool, criteria map[string]any) (any, error) {
	if err := f.ensure(); err != nil {
		return nil, err
	}

	source, ok := subject.(map[string]any)
	if !ok {
		if strict {
			return nil, fmt.Errorf("scheme: cannot extract structure from %T value", subject)
		}
		// Arbitrary subjects are extracted by field name through their
		// mapstructure tags.
		source = make(map[string]any)
		if err := mapstructure.Decode(subject, &source); err != nil {
			return nil, fmt.Errorf("scheme: cannot extract structure from %T value: %w", subject, err)
		}
	}

	definition, err := f.definition(source)
	if err != nil {
		return nil, err
	}

	extraction := make(map[string]any)
	for name, field := range definition {
		value, present := source[name]
		if !present || (sparse && value == nil) {
			continue
		}
		extracted, err := Extract(field, value, strict, sparse, criteria)
		if errors.Is(err, ErrFieldExcluded) {
			continue
		} else if err != nil {
			return nil, err
		}
		extraction[name] = extracted
	}
	return extraction, nil
}

// Instantiate converts a processed value into its in-program
// representation by applying the fields' instantiators, containers first.
// The key identifies the value within its parent, for map entries and
// named fields.
func Instantiate(f Field, value any, key any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch field := f.(type) {
	case *Structure:
		if err := field.ensure(); err != nil {
			return nil, err
		}
		source, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scheme: cannot instantiate structure from %T value", value)
		}
		definition, err := field.definition(source)
		if err != nil {
			return nil, err
		}
		instantiated := make(map[string]any, len(source))
		for name, subvalue := range source {
			child, defined := definition[name]
			if !defined {
				instantiated[name] = subvalue
				continue
			}
			if instantiated[name], err = Instantiate(child, subvalue, nil); err != nil {
				return nil, err
			}
		}
		value = instantiated

	case *Map:
		source, ok := value.(map[string]any)
		if !ok || field.Value == nil {
			return nil, fmt.Errorf("scheme: cannot instantiate map from %T value", value)
		}
		instantiated := make(map[string]any, len(source))
		for entryKey, subvalue := range source {
			var err error
			if instantiated[entryKey], err = Instantiate(field.Value, subvalue, entryKey); err != nil {
				return nil, err
			}
		}
		value = instantiated

	case *Sequence:
		source, ok := value.([]any)
		if !ok || field.Item == nil {
			return nil, fmt.Errorf("scheme: cannot instantiate sequence from %T value", value)
		}
		instantiated := make([]any, len(source))
		for i, item := range source {
			var err error
			if instantiated[i], err = Instantiate(field.Item, item, nil); err != nil {
				return nil, err
			}
		}
		value = instantiated

	case *Tuple:
		source, ok := value.([]any)
		if !ok || len(source) != len(field.Values) {
			return nil, fmt.Errorf("scheme: cannot instantiate tuple from %T value", value)
		}
		instantiated := make([]any, len(source))
		for i, subvalue := range source {
			var err error
			if instantiated[i], err = Instantiate(field.Values[i], subvalue, nil); err != nil {
				return nil, err
			}
		}
		value = instantiated

	case *Union:
		return nil, fmt.Errorf("scheme: union fields cannot be instantiated")
	}

	if instantiator := f.params().Instantiator; instantiator != nil {
		return instantiator(f, value, key), nil
	}
	return value, nil
}

// Interpolate renders the template expressions within subject against
// params, returning a value fit for processing by the field. Scalar
// fields evaluate whole-string ${...} expressions to typed values;
// textual fields render templates; containers recurse. Structures and
// maps drop entries whose expressions reference undefined parameters,
// while sequences and tuples report them.
func Interpolate(f Field, subject any, params map[string]any) (any, error) {
	switch field := f.(type) {
	case *Integer:
		if subject == nil {
			return nil, nil
		}
		if i, ok := asInt64(subject); ok {
			return i, nil
		}
		if fl, ok := asFloat64(subject); ok {
			return int64(fl), nil
		}
		evaluated, err := evaluateSubject(f, subject, params)
		if err != nil {
			return nil, err
		}
		return coerceInterpolatedInt(f, evaluated)

	case *Float:
		if subject == nil {
			return nil, nil
		}
		if fl, ok := asFloat64(subject); ok {
			return fl, nil
		}
		if i, ok := asInt64(subject); ok {
			return float64(i), nil
		}
		evaluated, err := evaluateSubject(f, subject, params)
		if err != nil {
			return nil, err
		}
		return coerceInterpolatedFloat(f, evaluated)

	case *Text, *Token, *Email, *Url:
		if subject == nil {
			return nil, nil
		}
		text, ok := subject.(string)
		if !ok {
			return nil, interpolationError(f, subject)
		}
		rendered, err := interpolate.Render(text, params)
		if err != nil {
			return nil, err
		}
		return rendered, nil

	case *Enumeration:
		if subject == nil || contains(field.Enumeration, subject) {
			return subject, nil
		}
		evaluated, err := evaluateSubject(f, subject, params)
		if err != nil {
			return nil, err
		}
		if !contains(field.Enumeration, evaluated) {
			return nil, interpolationError(f, subject)
		}
		return evaluated, nil

	case *Structure:
		subject, err := evaluateStringSubject(subject, params)
		if subject == nil || err != nil {
			return nil, err
		}
		source, ok := subject.(map[string]any)
		if !ok {
			return nil, interpolationError(f, subject)
		}
		if err := field.ensure(); err != nil {
			return nil, err
		}
		definition, err := field.definition(source)
		if err != nil {
			return nil, err
		}

		interpolation := make(map[string]any)
		for name, child := range definition {
			value, present := source[name]
			if !present {
				continue
			}
			interpolated, err := Interpolate(child, value, params)
			if errors.Is(err, interpolate.ErrUndefinedValue) {
				continue
			} else if err != nil {
				return nil, err
			}
			interpolation[name] = interpolated
		}
		return interpolation, nil

	case *Map:
		subject, err := evaluateStringSubject(subject, params)
		if subject == nil || err != nil {
			return nil, err
		}
		source, ok := subject.(map[string]any)
		if !ok || field.Value == nil {
			return nil, interpolationError(f, subject)
		}

		interpolation := make(map[string]any, len(source))
		for key, value := range source {
			interpolated, err := Interpolate(field.Value, value, params)
			if errors.Is(err, interpolate.ErrUndefinedValue) {
				continue
			} else if err != nil {
				return nil, err
			}
			interpolation[key] = interpolated
		}
		return interpolation, nil

	case *Sequence:
		subject, err := evaluateStringSubject(subject, params)
		if subject == nil || err != nil {
			return nil, err
		}
		source, ok := subject.([]any)
		if !ok || field.Item == nil {
			return nil, interpolationError(f, subject)
		}

		interpolation := make([]any, len(source))
		for i, item := range source {
			if interpolation[i], err = Interpolate(field.Item, item, params); err != nil {
				return nil, err
			}
		}
		return interpolation, nil

	case *Tuple:
		subject, err := evaluateStringSubject(subject, params)
		if subject == nil || err != nil {
			return nil, err
		}
		source, ok := subject.([]any)
		if !ok || len(source) < len(field.Values) {
			return nil, interpolationError(f, subject)
		}

		interpolation := make([]any, len(field.Values))
		for i, value := range field.Values {
			if interpolation[i], err = Interpolate(value, source[i], params); err != nil {
				return nil, err
			}
		}
		return interpolation, nil

	case *Union:
		return nil, fmt.Errorf("scheme: union fields cannot be interpolated")

	case *SurrogateField:
		subject, err := evaluateStringSubject(subject, params)
		if subject == nil || err != nil {
			return nil, err
		}
		switch subject := subject.(type) {
		case *Surrogate:
			return subject, nil
		case map[string]any:
			interpolated, err := InterpolateSurrogate(subject, params)
			if err != nil {
				return nil, err
			}
			return interpolated, nil
		}
		return nil, interpolationError(f, subject)

	case *UUID:
		return interpolateScalar(f, subject, params, nil)
	case *Boolean:
		return interpolateScalar(f, subject, params, func(v any) bool { _, ok := v.(bool); return ok })
	case *Date, *Time, *DateTime:
		return interpolateScalar(f, subject, params, func(v any) bool { _, ok := v.(time.Time); return ok })
	case *Decimal:
		return interpolateScalar(f, subject, params, func(v any) bool { _, ok := v.(decimal128.Decimal); return ok })
	case *Binary:
		return interpolateScalar(f, subject, params, func(v any) bool { _, ok := v.([]byte); return ok })
	case *Definition:
		return interpolateScalar(f, subject, params, func(v any) bool { _, ok := v.(Field); return ok })
	}
	return interpolateScalar(f, subject, params, nil)
}

// interpolateScalar is the interpolation shared by scalar fields: nulls
// and values already of the field's kind pass through, strings evaluate.
func interpolateScalar(f Field, subject any, params map[string]any, equivalent func(any) bool) (any, error) {
	if subject == nil {
		return nil, nil
	}
	if equivalent != nil && equivalent(subject) {
		return subject, nil
	}
	return evaluateSubject(f, subject, params)
}

func evaluateSubject(f Field, subject any, params map[string]any) (any, error) {
	text, ok := subject.(string)
	if !ok {
		return nil, interpolationError(f, subject)
	}
	return interpolate.Evaluate(text, params)
}

// evaluateStringSubject resolves a string subject to its evaluated value,
// so containers accept an expression yielding the whole container.
func evaluateStringSubject(subject any, params map[string]any) (any, error) {
	if text, ok := subject.(string); ok {
		return interpolate.Evaluate(text, params)
	}
	return subject, nil
}

func coerceInterpolatedInt(f Field, value any) (any, error) {
	if i, ok := asInt64(value); ok {
		return i, nil
	}
	if fl, ok := asFloat64(value); ok {
		return int64(fl), nil
	}
	if text, ok := value.(string); ok {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
	}
	return nil, interpolationError(f, value)
}

func coerceInterpolatedFloat(f Field, value any) (any, error) {
	if fl, ok := asFloat64(value); ok {
		return fl, nil
	}
	if i, ok := asInt64(value); ok {
		return float64(i), nil
	}
	if text, ok := value.(string); ok {
		if fl, err := strconv.ParseFloat(text, 64); err == nil {
			return fl, nil
		}
	}
	return nil, interpolationError(f, value)
}

func interpolationError(f Field, subject any) error {
	return fmt.Errorf("scheme: cannot interpolate %T value for %s field", subject, f.Type())
}

// Transformer inspects a field during Transform. A non-nil replacement
// substitutes the field and ends the walk below it; a nil replacement
// keeps the field, descending into its children only when descend is set.
type Transformer func(field Field) (replacement Field, descend bool)

// Transform rewrites a schema by applying transformer to the field and,
// where it elects to descend, to the children of structures, maps,
// sequences and tuples. Untouched subtrees are returned as is; any
// change rebuilds the enclosing field as a clone.
func Transform(f Field, transformer Transformer) Field {
	replacement, descend := transformer(f)
	if replacement != nil {
		return replacement
	}
	if !descend {
		return f
	}

	switch field := f.(type) {
	case *Structure:
		if field.Polymorphic() {
			changed := false
			variants := make(map[string]map[string]Field, len(field.Variants))
			for identity, variant := range field.Variants {
				transformed, variantChanged := transformFieldMap(variant, transformer)
				variants[identity] = transformed
				changed = changed || variantChanged
			}
			if !changed {
				return field
			}
			clone := field.Clone().(*Structure)
			clone.Variants = variants
			return clone
		}
		transformed, changed := transformFieldMap(field.Fields, transformer)
		if !changed {
			return field
		}
		clone := field.Clone().(*Structure)
		clone.Fields = transformed
		return clone

	case *Map:
		if field.Value == nil {
			return field
		}
		candidate := Transform(field.Value, transformer)
		if candidate == field.Value {
			return field
		}
		clone := field.Clone().(*Map)
		clone.Value = candidate
		return clone

	case *Sequence:
		if field.Item == nil {
			return field
		}
		candidate := Transform(field.Item, transformer)
		if candidate == field.Item {
			return field
		}
		clone := field.Clone().(*Sequence)
		clone.Item = candidate
		return clone

	case *Tuple:
		changed := false
		values := make([]Field, len(field.Values))
		for i, value := range field.Values {
			values[i] = Transform(value, transformer)
			if values[i] != value {
				changed = true
			}
		}
		if !changed {
			return field
		}
		clone := field.Clone().(*Tuple)
		clone.Values = values
		return clone
	}
	return f
}

func transformFieldMap(fields map[string]Field, transformer Transformer) (map[string]Field, bool) {
	changed := false
	transformed := make(map[string]Field, len(fields))
	for name, field := range fields {
		transformed[name] = Transform(field, transformer)
		if transformed[name] != field {
			changed = true
		}
	}
	return transformed, changed
}

// Serialize processes value as an outgoing serialized value, optionally
// encoding the result to the named format.
func Serialize(f Field, value any, formatName string) (any, error) {
	processed, err := Process(f, value, Outgoing, true)
	if err != nil {
		return nil, err
	}
	if formatName == "" {
		return processed, nil
	}
	return format.Serialize(formatName, processed)
}

// Unserialize decodes value from the named format, if given, then
// processes it as an incoming serialized value.
func Unserialize(f Field, value any, formatName string) (any, error) {
	if formatName != "" {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("scheme: %s input must be a string", formatName)
		}
		decoded, err := format.Unserialize(formatName, text)
		if err != nil {
			return nil, err
		}
		value = decoded
	}
	return Process(f, value, Incoming, true)
}

// Read loads the file at path, decodes it per formatName or the file
// extension, and processes the result as an incoming value.
func Read(f Field, path, formatName string) (any, error) {
	value, err := format.Read(path, formatName)
	if err != nil {
		return nil, err
	}
	return Process(f, value, Incoming, true)
}

// Write processes value as an outgoing value and writes it to the file
// at path, encoded per formatName or the file extension.
func Write(f Field, path string, value any, formatName string) error {
	processed, err := Process(f, value, Outgoing, true)
	if err != nil {
		return err
	}
	return format.Write(path, processed, formatName)
}
