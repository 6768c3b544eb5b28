package scheme

// Undefined is a placeholder for a field defined at a later time, letting
// recursive schemas refer to fields which do not exist yet. Every method
// delegates to the defined field; using an Undefined before Define
// reports ErrUndefinedField.
type Undefined struct {
	base  Base
	field Field
}

// NewUndefined returns a placeholder, optionally already defined.
func NewUndefined(field Field) *Undefined {
	return &Undefined{field: field}
}

// Define resolves the placeholder to a concrete field.
func (f *Undefined) Define(field Field) {
	f.field = field
}

// Defined returns the field this placeholder resolves to, or nil.
func (f *Undefined) Defined() Field {
	return f.field
}

func (f *Undefined) Type() string {
	if f.field != nil {
		return f.field.Type()
	}
	return "undefined"
}

func (f *Undefined) Describe() map[string]any {
	if f.field != nil {
		return f.field.Describe()
	}
	return map[string]any{"__type__": "undefined"}
}

func (f *Undefined) Clone() Field {
	if f.field != nil {
		return f.field.Clone()
	}
	// An unresolved placeholder is shared, so a later Define reaches
	// every holder.
	return f
}

func (f *Undefined) params() *Base {
	if f.field != nil {
		return f.field.params()
	}
	return &f.base
}

func (f *Undefined) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Undefined) unserializeValue(value any, ancestry []string) (any, error) {
	return value, nil
}

func (f *Undefined) serializeValue(value any, ancestry []string) (any, error) {
	return value, nil
}

func (f *Undefined) process(value any, phase Phase, serialized bool, ancestry []string) (any, error) {
	if f.field == nil {
		return nil, ErrUndefinedField
	}
	return processValue(f.field, value, phase, serialized, ancestry)
}
