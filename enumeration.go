package scheme

import (
	"fmt"
	"strings"
)

// Enumeration is a field restricted to an explicit set of scalar values.
type Enumeration struct {
	Base

	// Enumeration lists the valid values. When Constant is set, the
	// constant is the sole valid value.
	Enumeration []any

	// IgnoredValues lists values which are coerced to null instead of
	// failing validation.
	IgnoredValues []any
}

var enumerationErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be one of %(values)s"},
})

func (f *Enumeration) Type() string { return "enumeration" }

func (f *Enumeration) members() []any {
	if f.Constant != nil {
		return []any{f.Constant}
	}
	return f.Enumeration
}

func (f *Enumeration) representation() string {
	rendered := make([]string, len(f.members()))
	for i, value := range f.members() {
		rendered[i] = represent(value)
	}
	return strings.Join(rendered, ", ")
}

// RedefineEnumeration rebuilds the set of valid values, either appending
// to or replacing the current set, dropping duplicates.
func (f *Enumeration) RedefineEnumeration(values []any, strategy string) {
	baseline := f.Enumeration
	if strategy == "replace" {
		baseline = nil
	}

	var merged []any
	for _, value := range append(append([]any{}, baseline...), values...) {
		if !contains(merged, value) {
			merged = append(merged, value)
		}
	}
	f.Enumeration = merged
}

func (f *Enumeration) Describe() map[string]any {
	return describeField(f, map[string]any{"enumeration": f.members()})
}

func (f *Enumeration) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	clone.Enumeration = append([]any{}, f.Enumeration...)
	clone.IgnoredValues = append([]any{}, f.IgnoredValues...)
	return &clone
}

func (f *Enumeration) treatAsNull(value any) bool {
	return contains(f.IgnoredValues, value)
}

func (f *Enumeration) validate(value any, ancestry []string) (any, error) {
	if !contains(f.members(), value) {
		return nil, invalidTypeError(f, ancestry, "invalid", map[string]any{
			"values": f.representation(),
		})
	}
	return canonical(value), nil
}

func contains(values []any, value any) bool {
	for _, member := range values {
		if deepEqual(member, value) {
			return true
		}
	}
	return false
}

// represent renders a scalar for inclusion in an error message, quoting
// strings.
func represent(value any) string {
	if s, ok := value.(string); ok {
		return "'" + s + "'"
	}
	return fmt.Sprintf("%v", value)
}

func reconstructEnumeration(description map[string]any) (Field, error) {
	var p struct {
		baseParams    `mapstructure:",squash"`
		Enumeration   []any `mapstructure:"enumeration"`
		IgnoredValues []any `mapstructure:"ignored_values"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Enumeration{Base: p.base(), Enumeration: p.Enumeration, IgnoredValues: p.IgnoredValues}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
