package scheme

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Surrogate is a schema-described map value carrying its type identity,
// so it can cross process boundaries and be rebuilt without sharing code
// with its producer. A surrogate serializes to a plain map holding its
// identity under "_", plus either an embedded schema description under
// "__schema__" or a schema version under "__version__".
type Surrogate struct {
	// Values holds the surrogate's data.
	Values map[string]any

	// Identity names the implementation registered with RegisterSurrogate,
	// or is empty for an anonymous surrogate.
	Identity string

	// Schema is the dynamic schema of this surrogate, nil when the
	// implementation's versioned schemas apply or no schema is known.
	Schema Field

	// Version is the implementation schema version in effect, counted
	// from one; zero when a dynamic schema applies or no schema is known.
	Version int
}

// SurrogateImplementation describes a registered surrogate type.
type SurrogateImplementation struct {
	// Schemas lists the versioned schemas of this type, oldest first.
	Schemas []Field

	// Acquire produces the values of a surrogate on demand; see
	// AcquireSurrogate.
	Acquire func(version int, params map[string]any) (map[string]any, error)

	// Contribute amends freshly constructed values, for computed or
	// migrated entries. The version is zero for dynamic schemas.
	Contribute func(values map[string]any, version int)
}

var (
	surrogatesMu   sync.RWMutex
	surrogateImpls = make(map[string]SurrogateImplementation)
)

// RegisterSurrogate associates a surrogate implementation with an
// identity token, replacing any previous registration.
func RegisterSurrogate(identity string, impl SurrogateImplementation) {
	surrogatesMu.Lock()
	defer surrogatesMu.Unlock()
	surrogateImpls[identity] = impl
}

// lookupSurrogate resolves an identity to its implementation; unknown
// identities behave as schemaless surrogates.
func lookupSurrogate(identity string) SurrogateImplementation {
	surrogatesMu.RLock()
	defer surrogatesMu.RUnlock()
	return surrogateImpls[identity]
}

// AcquireSurrogate obtains a surrogate of the identified type through its
// implementation's Acquire hook. A zero version selects the newest schema.
func AcquireSurrogate(identity string, version int, params map[string]any) (*Surrogate, error) {
	impl := lookupSurrogate(identity)
	if len(impl.Schemas) == 0 {
		return nil, fmt.Errorf("scheme: surrogate %q has no schemas", identity)
	}
	if version == 0 {
		version = len(impl.Schemas)
	}
	if impl.Acquire == nil {
		return nil, fmt.Errorf("scheme: surrogate %q cannot be acquired", identity)
	}

	values, err := impl.Acquire(version, params)
	if err != nil {
		return nil, err
	}
	return ConstructSurrogate(identity, values, nil, version, nil)
}

// ConstructSurrogate builds a surrogate of the identified type from a
// subject value. Map subjects are extracted through the effective schema
// when one applies; other subjects are extracted loosely, through their
// fields' extractors. Params are merged into the extracted values, and
// the implementation's Contribute hook runs last. Passing a schema is
// only valid for types without inherent schemas; a zero version selects
// the newest schema.
func ConstructSurrogate(identity string, subject any, schema Field, version int, params map[string]any) (*Surrogate, error) {
	impl := lookupSurrogate(identity)

	effective := schema
	if effective != nil {
		if len(impl.Schemas) > 0 {
			return nil, fmt.Errorf("scheme: cannot specify dynamic schema for surrogate %q with inherent schemas", identity)
		}
	} else if len(impl.Schemas) > 0 {
		if version == 0 {
			version = len(impl.Schemas)
		}
		if version < 1 || version > len(impl.Schemas) {
			return nil, fmt.Errorf("scheme: invalid version %d for surrogate %q", version, identity)
		}
		effective = impl.Schemas[version-1]
	}

	var values map[string]any
	switch subject := subject.(type) {
	case nil:
		if len(params) == 0 {
			return nil, fmt.Errorf("scheme: no values for surrogate %q", identity)
		}
		values = maps.Clone(params)
		params = nil
	case map[string]any:
		values = maps.Clone(subject)
		if effective != nil {
			extracted, err := Extract(effective, values, true, true, nil)
			if err != nil {
				return nil, err
			}
			values, _ = extracted.(map[string]any)
		}
	default:
		if effective == nil {
			return nil, fmt.Errorf("scheme: cannot construct surrogate %q from %T", identity, subject)
		}
		extracted, err := Extract(effective, subject, false, true, nil)
		if err != nil {
			return nil, err
		}
		if values, _ = extracted.(map[string]any); values == nil {
			return nil, fmt.Errorf("scheme: cannot construct surrogate %q from %T", identity, subject)
		}
	}

	for name, value := range params {
		values[name] = value
	}
	if impl.Contribute != nil {
		impl.Contribute(values, version)
	}
	return &Surrogate{Values: values, Identity: identity, Schema: schema, Version: version}, nil
}

// Serialize renders the surrogate to its wire form.
func (s *Surrogate) Serialize() (map[string]any, error) {
	values := any(maps.Clone(s.Values))

	var err error
	switch {
	case s.Schema != nil:
		if values, err = Process(s.Schema, values, Outgoing, true); err != nil {
			return nil, err
		}
	case s.Version > 0:
		impl := lookupSurrogate(s.Identity)
		if s.Version > len(impl.Schemas) {
			return nil, fmt.Errorf("scheme: invalid version %d for surrogate %q", s.Version, s.Identity)
		}
		if values, err = Process(impl.Schemas[s.Version-1], values, Outgoing, true); err != nil {
			return nil, err
		}
	}

	serialized, ok := values.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("scheme: surrogate %q did not serialize to a map", s.Identity)
	}
	if s.Schema != nil {
		serialized["__schema__"] = s.Schema.Describe()
	} else if s.Version > 1 {
		serialized["__version__"] = s.Version
	}
	if s.Identity != "" {
		serialized["_"] = s.Identity
	}
	return serialized, nil
}

// UnserializeSurrogate rebuilds a surrogate from its wire form.
func UnserializeSurrogate(value map[string]any, ancestry []string) (*Surrogate, error) {
	values := maps.Clone(value)
	identity, _ := values["_"].(string)
	delete(values, "_")

	if rawSchema, ok := values["__schema__"]; ok {
		description, ok := rawSchema.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scheme: malformed schema for surrogate %q", identity)
		}
		delete(values, "__schema__")

		schema, err := Reconstruct(description)
		if err != nil {
			return nil, err
		}
		unserialized, err := processValue(schema, any(values), Incoming, true, ancestry)
		if err != nil {
			return nil, err
		}
		return &Surrogate{Values: unserialized.(map[string]any), Identity: identity, Schema: schema}, nil
	}

	impl := lookupSurrogate(identity)
	if len(impl.Schemas) > 0 {
		version := 1
		if v, ok := values["__version__"]; ok {
			if version, ok = asInt(v); !ok {
				return nil, fmt.Errorf("scheme: malformed version for surrogate %q", identity)
			}
			delete(values, "__version__")
		}
		if version < 1 || version > len(impl.Schemas) {
			return nil, fmt.Errorf("scheme: invalid version %d for surrogate %q", version, identity)
		}

		unserialized, err := processValue(impl.Schemas[version-1], any(values), Incoming, true, ancestry)
		if err != nil {
			return nil, err
		}
		return &Surrogate{Values: unserialized.(map[string]any), Identity: identity, Version: version}, nil
	}
	return &Surrogate{Values: values, Identity: identity}, nil
}

// InterpolateSurrogate renders the template expressions within a
// serialized surrogate and rebuilds it; see Interpolate.
func InterpolateSurrogate(value map[string]any, params map[string]any) (*Surrogate, error) {
	values := maps.Clone(value)
	identity, _ := values["_"].(string)
	delete(values, "_")

	if rawSchema, ok := values["__schema__"]; ok {
		description, ok := rawSchema.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scheme: malformed schema for surrogate %q", identity)
		}
		delete(values, "__schema__")

		schema, err := Reconstruct(description)
		if err != nil {
			return nil, err
		}
		interpolated, err := Interpolate(schema, any(values), params)
		if err != nil {
			return nil, err
		}
		values, ok = interpolated.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scheme: surrogate %q did not interpolate to a map", identity)
		}

		impl := lookupSurrogate(identity)
		if impl.Contribute != nil {
			impl.Contribute(values, 0)
		}
		return &Surrogate{Values: values, Identity: identity, Schema: schema}, nil
	}

	impl := lookupSurrogate(identity)
	if len(impl.Schemas) == 0 {
		return nil, fmt.Errorf("scheme: surrogate %q has no schemas", identity)
	}
	version := len(impl.Schemas)
	if v, ok := values["__version__"]; ok {
		if version, ok = asInt(v); !ok {
			return nil, fmt.Errorf("scheme: malformed version for surrogate %q", identity)
		}
		delete(values, "__version__")
	}
	if version < 1 || version > len(impl.Schemas) {
		return nil, fmt.Errorf("scheme: invalid version %d for surrogate %q", version, identity)
	}

	interpolated, err := Interpolate(impl.Schemas[version-1], any(values), params)
	if err != nil {
		return nil, err
	}
	interpolatedValues, ok := interpolated.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("scheme: surrogate %q did not interpolate to a map", identity)
	}
	if impl.Contribute != nil {
		impl.Contribute(interpolatedValues, version)
	}
	return &Surrogate{Values: interpolatedValues, Identity: identity, Version: version}, nil
}

// SurrogateField is a field for surrogate values.
type SurrogateField struct {
	Base

	// Surrogates optionally restricts values to the given identities.
	Surrogates []string
}

var surrogateErrors = baseErrors.with(errorTable{
	"invalid":           {"invalid value", "%(field)s must be a surrogate"},
	"invalid-surrogate": {"invalid surrogate", "%(field)s must be one of %(surrogates)s"},
})

func (f *SurrogateField) Type() string { return "surrogate" }

func (f *SurrogateField) Describe() map[string]any {
	params := map[string]any{}
	if len(f.Surrogates) > 0 {
		identities := make([]any, len(f.Surrogates))
		for i, identity := range f.Surrogates {
			identities[i] = identity
		}
		params["surrogates"] = identities
	}
	return describeField(f, params)
}

func (f *SurrogateField) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	clone.Surrogates = slices.Clone(f.Surrogates)
	return &clone
}

func (f *SurrogateField) validate(value any, ancestry []string) (any, error) {
	s, ok := value.(*Surrogate)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	if len(f.Surrogates) > 0 && !slices.Contains(f.Surrogates, s.Identity) {
		identities := slices.Clone(f.Surrogates)
		slices.Sort(identities)
		return nil, fieldError(f, ancestry, "invalid-surrogate", map[string]any{
			"surrogates": strings.Join(identities, ", "),
		})
	}
	return nil, nil
}

func (f *SurrogateField) serializeValue(value any, ancestry []string) (any, error) {
	s, ok := value.(*Surrogate)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return s.Serialize()
}

func (f *SurrogateField) unserializeValue(value any, ancestry []string) (any, error) {
	switch value := value.(type) {
	case *Surrogate:
		return value, nil
	case map[string]any:
		return UnserializeSurrogate(value, ancestry)
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func reconstructSurrogate(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		Surrogates []string `mapstructure:"surrogates"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &SurrogateField{Base: p.base(), Surrogates: p.Surrogates}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
