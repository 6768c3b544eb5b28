package scheme

import (
	"fmt"
	"sync"
)

// Structure is a structural field for mappings with an explicit set of
// keys, each validated by its own field.
//
// A structure can be polymorphic: a discriminator value within a candidate
// value selects the variant used to validate the rest of the value. A
// polymorphic structure defines PolymorphicOn and Variants instead of
// Fields; the variant keyed "*" holds fields common to every variant.
//
// Child fields are bound to their keys on first use; structures should be
// fully configured before being shared between goroutines.
type Structure struct {
	Base

	// Fields describes the keys of a plain structure.
	Fields map[string]Field

	// PolymorphicOn is either the name of an autogenerated discriminator
	// enumeration or an explicit discriminator Field.
	PolymorphicOn any

	// Variants maps polymorphic identities to their field sets.
	Variants map[string]map[string]Field

	// Lenient ignores unknown keys instead of reporting them.
	Lenient bool

	// KeyOrder restricts and orders the keys processed for a plain
	// structure.
	KeyOrder []string

	// GenerateDefaults populates Default from the child defaults when no
	// explicit default is set.
	GenerateDefaults bool

	prepared      sync.Once
	discriminator Field
	variants      map[string]map[string]Field
	invalid       error
}

var structureErrors = baseErrors.with(errorTable{
	"invalid":      {"invalid value", "%(field)s must be a structure"},
	"required":     {"required field", "%(field)s is missing required field '%(name)s'"},
	"unknown":      {"unknown field", "%(field)s includes an unknown field '%(name)s'"},
	"unrecognized": {"unrecognized polymorphic identity", "%(field)s must specify a recognized polymorphic identity"},
})

func (f *Structure) Type() string { return "structure" }

// Polymorphic reports whether this structure dispatches on a
// discriminator field.
func (f *Structure) Polymorphic() bool {
	return f.PolymorphicOn != nil
}

// ensure binds child fields to their keys and resolves the polymorphic
// definition on first use. Later calls, from any goroutine, see the
// derived state.
func (f *Structure) ensure() error {
	f.prepared.Do(f.prepare)
	return f.invalid
}

func (f *Structure) prepare() {
	if f.Polymorphic() {
		identities := make([]any, 0, len(f.Variants))
		for identity := range f.Variants {
			if identity != "*" {
				identities = append(identities, identity)
			}
		}

		switch on := f.PolymorphicOn.(type) {
		case string:
			f.discriminator = &Enumeration{
				Base:        Base{Name: on, Required: true},
				Enumeration: identities,
			}
		case Field:
			f.discriminator = on.Clone()
			f.discriminator.params().Required = true
		default:
			f.invalid = fmt.Errorf("%w: polymorphic_on must be a string or a Field", ErrInvalidDefinition)
			return
		}
		if f.discriminator.params().Name == "" {
			f.invalid = fmt.Errorf("%w: discriminator field must be named", ErrInvalidDefinition)
			return
		}

		common := f.Variants["*"]
		discName := f.discriminator.params().Name

		f.variants = make(map[string]map[string]Field, len(f.Variants))
		for identity, variant := range f.Variants {
			if identity == "*" {
				continue
			}
			effective := make(map[string]Field, len(variant)+len(common)+1)
			for name, field := range variant {
				effective[name] = field
			}
			for name, field := range common {
				effective[name] = field
			}
			// A discriminator provided by the variant itself, as happens when
			// reconstructing a described structure, is replaced wholesale.
			marker := f.discriminator.Clone()
			marker.params().Constant = identity
			effective[discName] = marker

			bindFieldNames(effective)
			f.variants[identity] = effective
		}
	} else {
		bindFieldNames(f.Fields)
	}

	if f.GenerateDefaults && f.Default == nil {
		f.Default = f.generateDefault(true)
	}
}

func bindFieldNames(fields map[string]Field) {
	for name, field := range fields {
		if field != nil && field.params().Name == "" {
			field.params().Name = name
		}
	}
}

// definition resolves the field set for a value, following the
// discriminator for polymorphic structures.
func (f *Structure) definition(value map[string]any) (map[string]Field, error) {
	if !f.Polymorphic() {
		return f.Fields, nil
	}
	identity, ok := value[f.discriminator.params().Name].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing polymorphic identity", ErrInvalidDefinition)
	}
	variant, ok := f.variants[identity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown polymorphic identity %q", ErrInvalidDefinition, identity)
	}
	return variant, nil
}

// HasRequiredFields reports whether processing an empty value could
// report a missing field.
func (f *Structure) HasRequiredFields() bool {
	if f.ensure() != nil {
		return false
	}
	if f.Polymorphic() {
		return true
	}
	for _, field := range f.Fields {
		if isRequired(field) && field.params().Default == nil {
			return true
		}
	}
	return false
}

// GenerateDefault collects the default values of the child fields. When
// sparse is set, only children with explicit defaults contribute. For a
// polymorphic structure the defaults are keyed by identity.
func (f *Structure) GenerateDefault(sparse bool) map[string]any {
	if f.ensure() != nil {
		return nil
	}
	return f.generateDefault(sparse)
}

func (f *Structure) generateDefault(sparse bool) map[string]any {
	if f.Polymorphic() {
		defaults := make(map[string]any, len(f.variants))
		for identity, variant := range f.variants {
			defaults[identity] = generateDefaultValues(variant, sparse)
		}
		return defaults
	}
	return generateDefaultValues(f.Fields, sparse)
}

func generateDefaultValues(fields map[string]Field, sparse bool) map[string]any {
	defaults := make(map[string]any)
	for name, field := range fields {
		if !sparse || field.params().Default != nil {
			defaults[name] = fieldDefault(field)
		}
	}
	return defaults
}

// Get returns the named child field of a plain structure, or nil.
func (f *Structure) Get(name string) Field {
	return f.Fields[name]
}

// Extend returns a clone of this structure with the given fields added,
// replacing children with the same names.
func (f *Structure) Extend(fields map[string]Field) *Structure {
	extension := f.Clone().(*Structure)
	for name, field := range fields {
		extension.Fields[name] = renamed(field, name)
	}
	return extension
}

// Insert adds a named field to this structure. An existing field with the
// same name is only replaced when overwrite is set.
func (f *Structure) Insert(field Field, overwrite bool) error {
	if field == nil || field.params().Name == "" {
		return fmt.Errorf("%w: inserted field must be named", ErrInvalidDefinition)
	}
	name := field.params().Name
	if _, present := f.Fields[name]; present && !overwrite {
		return nil
	}
	if f.Fields == nil {
		f.Fields = make(map[string]Field)
	}
	f.Fields[name] = field
	return nil
}

// Merge adds the given fields to this structure, skipping names already
// present unless prefer is set.
func (f *Structure) Merge(fields map[string]Field, prefer bool) {
	if f.Fields == nil {
		f.Fields = make(map[string]Field, len(fields))
	}
	for name, field := range fields {
		if _, present := f.Fields[name]; present && !prefer {
			continue
		}
		f.Fields[name] = renamed(field, name)
	}
}

// Replace returns a clone with the given fields substituted for existing
// children of the same names. When no names match, the structure is
// returned unchanged.
func (f *Structure) Replace(fields map[string]Field) *Structure {
	matched := false
	for name := range fields {
		if _, present := f.Fields[name]; present {
			matched = true
			break
		}
	}
	if !matched {
		return f
	}

	replacement := f.Clone().(*Structure)
	for name, field := range fields {
		if _, present := replacement.Fields[name]; present {
			replacement.Fields[name] = renamed(field, name)
		}
	}
	return replacement
}

// renamed returns field bound to name, cloning when the name differs.
func renamed(field Field, name string) Field {
	if field.params().Name == name {
		return field
	}
	bound := field.Clone()
	bound.params().Name = name
	return bound
}

func (f *Structure) Describe() map[string]any {
	if f.ensure() != nil {
		return describeField(f, nil)
	}

	params := map[string]any{}
	if f.Polymorphic() {
		structure := make(map[string]any, len(f.variants))
		for identity, variant := range f.variants {
			structure[identity] = describeFieldMap(variant)
		}
		params["structure"] = structure
		params["polymorphic_on"] = f.discriminator.Describe()

		if defaults, ok := f.Default.(map[string]any); ok {
			if identity, ok := defaults[f.discriminator.params().Name].(string); ok {
				if variant, ok := f.variants[identity]; ok {
					params["default"] = describeDefaultValues(variant, defaults)
				}
			}
		}
	} else {
		params["structure"] = describeFieldMap(f.Fields)
		if defaults, ok := f.Default.(map[string]any); ok {
			params["default"] = describeDefaultValues(f.Fields, defaults)
		}
	}
	if f.Lenient {
		params["strict"] = false
	}
	return describeField(f, params)
}

func describeFieldMap(fields map[string]Field) map[string]any {
	description := make(map[string]any, len(fields))
	for name, field := range fields {
		description[name] = field.Describe()
	}
	return description
}

func describeDefaultValues(fields map[string]Field, defaults map[string]any) map[string]any {
	description := make(map[string]any, len(defaults))
	for name, value := range defaults {
		field, ok := fields[name]
		if !ok {
			continue
		}
		serialized, err := Process(field, value, Outgoing, true)
		if err != nil {
			continue
		}
		description[name] = serialized
	}
	return description
}

// Clone copies the structure without its derived state, so callers may
// adjust the clone's field maps before its first use re-derives it.
func (f *Structure) Clone() Field {
	clone := &Structure{
		Base:             f.Base.clone(),
		Fields:           cloneFieldMap(f.Fields),
		PolymorphicOn:    f.PolymorphicOn,
		Lenient:          f.Lenient,
		KeyOrder:         append([]string{}, f.KeyOrder...),
		GenerateDefaults: f.GenerateDefaults,
	}
	if f.Variants != nil {
		clone.Variants = make(map[string]map[string]Field, len(f.Variants))
		for identity, variant := range f.Variants {
			clone.Variants[identity] = cloneFieldMap(variant)
		}
	}
	return clone
}

func cloneFieldMap(fields map[string]Field) map[string]Field {
	if fields == nil {
		return nil
	}
	cloned := make(map[string]Field, len(fields))
	for name, field := range fields {
		cloned[name] = field.Clone()
	}
	return cloned
}

func (f *Structure) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Structure) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	return f.processStructure(value, phase, serialized, ancestry, false)
}

// ProcessPartial processes value for this structure without applying
// defaults or reporting missing required fields, validating only the
// keys present.
func (f *Structure) ProcessPartial(value any, phase Phase, serialized bool) (any, error) {
	return f.processStructure(value, phase, serialized, []string{guaranteedName(f)}, true)
}

func (f *Structure) processStructure(value any, phase Phase, serialized bool, ancestry []string, partial bool) (any, error) {
	if err := f.ensure(); err != nil {
		return nil, err
	}
	if null, err := checkNull(f, value, ancestry); null || err != nil {
		return nil, err
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

	unknown := make(map[string]bool, len(source))
	for name := range source {
		unknown[name] = true
	}

	definition := f.Fields
	if f.Polymorphic() {
		discName := f.discriminator.params().Name
		rawIdentity, present := source[discName]
		if !present || rawIdentity == nil {
			return nil, fieldError(f, ancestry, "required", map[string]any{"name": discName})
		}

		identity, err := processValue(f.discriminator, rawIdentity, phase, serialized, extendAncestry(ancestry, "."+discName))
		if err != nil {
			return nil, err
		}
		name, ok := identity.(string)
		if !ok {
			return nil, fieldError(f, ancestry, "unrecognized", nil)
		}
		if definition, ok = f.variants[name]; !ok {
			return nil, fieldError(f, ancestry, "unrecognized", nil)
		}
	}

	order := f.KeyOrder
	if f.Polymorphic() || len(order) == 0 {
		order = make([]string, 0, len(definition))
		for name := range definition {
			order = append(order, name)
		}
	}

	valid := true
	processed := make(map[string]any, len(definition))
	structure := make(map[string]error)

	for _, name := range order {
		field, defined := definition[name]
		if !defined {
			continue
		}

		var fieldValue any
		if _, present := source[name]; present {
			fieldValue = source[name]
			delete(unknown, name)
		} else if partial {
			continue
		} else if phase == Incoming && field.params().Default != nil {
			fieldValue = fieldDefault(field)
		} else if isRequired(field) {
			valid = false
			structure[name] = fieldError(f, ancestry, "required", map[string]any{"name": name})
			continue
		} else {
			continue
		}

		if field.params().IgnoreNull && fieldValue == nil {
			continue
		}

		child, err := processValue(field, fieldValue, phase, serialized, extendAncestry(ancestry, "."+name))
		if err != nil {
			valid = false
			structure[name] = err
			continue
		}
		processed[name] = child
	}

	if !f.Lenient {
		for name := range unknown {
			valid = false
			structure[name] = fieldError(f, ancestry, "unknown", map[string]any{"name": name})
		}
	}

	if !valid {
		return nil, (&ValidationError{}).Attach(structure)
	}
	return processed, nil
}

func reconstructStructure(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Strict     *bool    `mapstructure:"strict"`
		KeyOrder   []string `mapstructure:"key_order"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}

	field := &Structure{Base: p.base(), KeyOrder: p.KeyOrder}
	if p.Strict != nil && !*p.Strict {
		field.Lenient = true
	}

	rawStructure, _ := description["structure"].(map[string]any)
	if rawPolymorphic, ok := description["polymorphic_on"].(map[string]any); ok {
		if field.PolymorphicOn, err = Reconstruct(rawPolymorphic); err != nil {
			return nil, err
		}
		field.Variants = make(map[string]map[string]Field, len(rawStructure))
		for identity, rawVariant := range rawStructure {
			variant, ok := rawVariant.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: malformed variant %q", ErrInvalidDefinition, identity)
			}
			if field.Variants[identity], err = reconstructFieldMap(variant); err != nil {
				return nil, err
			}
		}
	} else if rawStructure != nil {
		if field.Fields, err = reconstructFieldMap(rawStructure); err != nil {
			return nil, err
		}
	}

	field.Aspects = aspectsFromUnused(description, unused)
	delete(field.Aspects, "structure")
	delete(field.Aspects, "polymorphic_on")
	return field, nil
}

func reconstructFieldMap(descriptions map[string]any) (map[string]Field, error) {
	fields := make(map[string]Field, len(descriptions))
	for name, raw := range descriptions {
		description, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed field %q", ErrInvalidDefinition, name)
		}
		field, err := Reconstruct(description)
		if err != nil {
			return nil, err
		}
		fields[name] = field
	}
	return fields, nil
}
