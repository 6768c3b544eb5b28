package scheme

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/woodsbury/decimal128"

	"github.com/aretw0/scheme/interpolate"
)

var templateParam = regexp.MustCompile(`%\((\w+)\)([sdrf])`)

// expand substitutes %(name)s style parameters into an error message
// template. Unknown parameters are left in place.
func expand(template string, params map[string]any) string {
	return templateParam.ReplaceAllStringFunc(template, func(match string) string {
		groups := templateParam.FindStringSubmatch(match)
		value, ok := params[groups[1]]
		if !ok {
			return match
		}
		switch groups[2] {
		case "r":
			if s, ok := value.(string); ok {
				return "'" + s + "'"
			}
		case "f":
			if f, ok := asFloat64(value); ok {
				return strconv.FormatFloat(f, 'f', 6, 64)
			}
		}
		return fmt.Sprintf("%v", value)
	})
}

// identity renders an ancestry as a display path. Ancestry segments carry
// their own separators, so they concatenate directly.
func identity(ancestry []string) string {
	return strings.Join(ancestry, "")
}

// extendAncestry returns ancestry plus one segment, without aliasing the
// original backing array.
func extendAncestry(ancestry []string, segment string) []string {
	extended := make([]string, 0, len(ancestry)+1)
	extended = append(extended, ancestry...)
	return append(extended, segment)
}

// asInt64 reports value as an int64 when it is any integer kind other
// than bool.
func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > 1<<63-1 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

// asInt reports value as an int when it is an integer kind, or a float
// holding an integral value, as JSON decoding produces.
func asInt(value any) (int, bool) {
	if i, ok := asInt64(value); ok {
		return int(i), true
	}
	if f, ok := asFloat64(value); ok && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

// asFloat64 reports value as a float64 when it is a floating point kind.
func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// canonical normalizes a value for comparison: integer kinds widen to
// int64, float32 widens to float64, everything else passes through.
func canonical(value any) any {
	if i, ok := asInt64(value); ok {
		return i
	}
	if f, ok := asFloat64(value); ok {
		return f
	}
	return value
}

// deepEqual compares two values structurally, normalizing numeric kinds so
// an int constant compares equal to the int64 the engine canonicalizes to.
func deepEqual(a, b any) bool {
	a, b = canonical(a), canonical(b)

	switch left := a.(type) {
	case nil:
		return b == nil
	case []byte:
		right, ok := b.([]byte)
		return ok && bytes.Equal(left, right)
	case time.Time:
		right, ok := b.(time.Time)
		return ok && left.Equal(right)
	case decimal128.Decimal:
		right, ok := b.(decimal128.Decimal)
		return ok && left.Cmp(right).Equal()
	case map[string]any:
		right, ok := b.(map[string]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for key, value := range left {
			other, present := right[key]
			if !present || !deepEqual(value, other) {
				return false
			}
		}
		return true
	case []any:
		right, ok := b.([]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for i, value := range left {
			if !deepEqual(value, right[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// deepCopyValue copies maps and slices recursively; scalars pass through.
func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(v))
		for key, item := range v {
			copied[key] = deepCopyValue(item)
		}
		return copied
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = deepCopyValue(item)
		}
		return copied
	case []byte:
		return bytes.Clone(v)
	}
	return value
}

// pluralizeNoun renders the noun for a quantity in length error messages.
func pluralizeNoun(word string, quantity int) string {
	return interpolate.Pluralize(word, quantity)
}

// IntPtr returns a pointer to v, for length parameters in field literals.
func IntPtr(v int) *int {
	return &v
}

// Int64Ptr returns a pointer to v, for bound parameters in field literals.
func Int64Ptr(v int64) *int64 {
	return &v
}

// Float64Ptr returns a pointer to v, for bound parameters in field literals.
func Float64Ptr(v float64) *float64 {
	return &v
}
