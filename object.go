package scheme

import (
	"reflect"
	"sync"
)

// Object is a field for references to registered program objects. The
// serialized form of an object is the name it was registered under; see
// RegisterObject.
type Object struct {
	Base
}

var objectErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a registered object"},
	"import":  {"object import", "cannot import %(value)r"},
})

func (f *Object) Type() string { return "object" }

func (f *Object) rawDefault() any { return f.Default }

func (f *Object) Describe() map[string]any {
	return describeField(f, nil)
}

func (f *Object) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *Object) validate(value any, ancestry []string) (any, error) {
	return nil, nil
}

func (f *Object) serializeValue(value any, ancestry []string) (any, error) {
	if name, ok := value.(string); ok {
		return name, nil
	}
	name, ok := IdentifyObject(value)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return name, nil
}

func (f *Object) unserializeValue(value any, ancestry []string) (any, error) {
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

func reconstructObject(description map[string]any) (Field, error) {
	var p baseParams
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Object{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

var (
	objectsMu sync.RWMutex
	objects   = make(map[string]any)
)

// RegisterObject associates an object with a name for use by Object and
// ObjectReference fields, replacing any previous registration of that
// name. Names conventionally follow the package/path:Symbol form.
func RegisterObject(name string, object any) {
	objectsMu.Lock()
	defer objectsMu.Unlock()
	objects[name] = object
}

// UnregisterObject removes a registration made with RegisterObject.
func UnregisterObject(name string) {
	objectsMu.Lock()
	defer objectsMu.Unlock()
	delete(objects, name)
}

// LookupObject returns the object registered under name.
func LookupObject(name string) (any, bool) {
	objectsMu.RLock()
	defer objectsMu.RUnlock()
	object, ok := objects[name]
	return object, ok
}

// IdentifyObject returns the name under which object was registered.
func IdentifyObject(object any) (string, bool) {
	objectsMu.RLock()
	defer objectsMu.RUnlock()
	for name, registered := range objects {
		if sameObject(registered, object) {
			return name, true
		}
	}
	return "", false
}

// sameObject reports whether two values refer to the same object,
// comparing by pointer for reference kinds to tolerate values Go cannot
// compare with the equality operator.
func sameObject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() != bv.Kind() {
		return false
	}
	switch av.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	}
	return av.Comparable() && av.Equal(bv)
}
