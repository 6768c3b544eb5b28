package scheme

import "time"

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02T15:04:05Z"
	timeLayout     = "15:04:05"
)

// temporalBound resolves a minimum or maximum parameter which can be
// either a time.Time or a callable returning one.
func temporalBound(bound any) (time.Time, bool) {
	switch b := bound.(type) {
	case time.Time:
		return b, true
	case func() time.Time:
		return b(), true
	}
	return time.Time{}, false
}

// Date is a field for calendar date values, canonicalized to midnight UTC.
// Minimum and Maximum can each be a time.Time or a func() time.Time.
type Date struct {
	Base

	Minimum any
	Maximum any
}

var dateErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a date value"},
	"minimum": {"minimum value", "%(field)s must not occur before %(minimum)s"},
	"maximum": {"maximum value", "%(field)s must not occur after %(maximum)s"},
})

func (f *Date) Type() string { return "date" }

func (f *Date) Describe() map[string]any {
	return describeField(f, map[string]any{"minimum": f.Minimum, "maximum": f.Maximum})
}

func (f *Date) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func dateOnly(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (f *Date) validate(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	candidate := dateOnly(v)

	if minimum, ok := temporalBound(f.Minimum); ok {
		minimum = dateOnly(minimum)
		if candidate.Before(minimum) {
			return nil, fieldError(f, ancestry, "minimum", map[string]any{
				"minimum": minimum.Format(dateLayout),
			})
		}
	}
	if maximum, ok := temporalBound(f.Maximum); ok {
		maximum = dateOnly(maximum)
		if candidate.After(maximum) {
			return nil, fieldError(f, ancestry, "maximum", map[string]any{
				"maximum": maximum.Format(dateLayout),
			})
		}
	}
	return candidate, nil
}

func (f *Date) unserializeValue(value any, ancestry []string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return parsed, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func (f *Date) serializeValue(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return v.Format(dateLayout), nil
}

func reconstructDate(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Date{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// DateTime is a field for timestamp values. Serialized values are
// rendered in UTC; unserialized values are normalized to UTC when the
// UTC parameter is set and to local time otherwise. Minimum and Maximum
// can each be a time.Time or a func() time.Time.
type DateTime struct {
	Base

	Minimum any
	Maximum any
	UTC     bool
}

var datetimeErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a datetime value"},
	"minimum": {"minimum value", "%(field)s must not occur before %(minimum)s"},
	"maximum": {"maximum value", "%(field)s must not occur after %(maximum)s"},
})

func (f *DateTime) Type() string { return "datetime" }

func (f *DateTime) Describe() map[string]any {
	params := map[string]any{"minimum": f.Minimum, "maximum": f.Maximum}
	if f.UTC {
		params["utc"] = true
	}
	return describeField(f, params)
}

func (f *DateTime) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func (f *DateTime) location() *time.Location {
	if f.UTC {
		return time.UTC
	}
	return time.Local
}

func (f *DateTime) normalize(value time.Time) time.Time {
	return value.In(f.location())
}

func (f *DateTime) validate(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	candidate := f.normalize(v)

	if minimum, ok := temporalBound(f.Minimum); ok {
		minimum = f.normalize(minimum)
		if candidate.Before(minimum) {
			return nil, fieldError(f, ancestry, "minimum", map[string]any{
				"minimum": minimum.Format(datetimeLayout),
			})
		}
	}
	if maximum, ok := temporalBound(f.Maximum); ok {
		maximum = f.normalize(maximum)
		if candidate.After(maximum) {
			return nil, fieldError(f, ancestry, "maximum", map[string]any{
				"maximum": maximum.Format(datetimeLayout),
			})
		}
	}
	return candidate, nil
}

func (f *DateTime) unserializeValue(value any, ancestry []string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse(datetimeLayout, v)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return parsed, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func (f *DateTime) serializeValue(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return v.UTC().Format(datetimeLayout), nil
}

func reconstructDateTime(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
		UTC        bool `mapstructure:"utc"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &DateTime{Base: p.base(), UTC: p.UTC}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}

// Time is a field for clock time values, canonicalized to the zero date
// in UTC. Minimum and Maximum can each be a time.Time or a func() time.Time.
type Time struct {
	Base

	Minimum any
	Maximum any
}

var timeErrors = baseErrors.with(errorTable{
	"invalid": {"invalid value", "%(field)s must be a time value"},
	"minimum": {"minimum value", "%(field)s must not occur before %(minimum)s"},
	"maximum": {"maximum value", "%(field)s must not occur after %(maximum)s"},
})

func (f *Time) Type() string { return "time" }

func (f *Time) Describe() map[string]any {
	return describeField(f, map[string]any{"minimum": f.Minimum, "maximum": f.Maximum})
}

func (f *Time) Clone() Field {
	clone := *f
	clone.Base = f.Base.clone()
	return &clone
}

func clockOnly(value time.Time) time.Time {
	return time.Date(0, time.January, 1, value.Hour(), value.Minute(), value.Second(), value.Nanosecond(), time.UTC)
}

func (f *Time) validate(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	candidate := clockOnly(v)

	if minimum, ok := temporalBound(f.Minimum); ok {
		minimum = clockOnly(minimum)
		if candidate.Before(minimum) {
			return nil, fieldError(f, ancestry, "minimum", map[string]any{
				"minimum": minimum.Format(timeLayout),
			})
		}
	}
	if maximum, ok := temporalBound(f.Maximum); ok {
		maximum = clockOnly(maximum)
		if candidate.After(maximum) {
			return nil, fieldError(f, ancestry, "maximum", map[string]any{
				"maximum": maximum.Format(timeLayout),
			})
		}
	}
	return candidate, nil
}

func (f *Time) unserializeValue(value any, ancestry []string) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse(timeLayout, v)
		if err != nil {
			return nil, invalidTypeError(f, ancestry, "invalid", nil)
		}
		return parsed, nil
	}
	return nil, invalidTypeError(f, ancestry, "invalid", nil)
}

func (f *Time) serializeValue(value any, ancestry []string) (any, error) {
	v, ok := value.(time.Time)
	if !ok {
		return nil, invalidTypeError(f, ancestry, "invalid", nil)
	}
	return v.Format(timeLayout), nil
}

func reconstructTime(description map[string]any) (Field, error) {
	var p struct {
		baseParams `mapstructure:",squash"`
	}
	unused, err := decodeParams(description, &p)
	if err != nil {
		return nil, err
	}
	field := &Time{Base: p.base()}
	field.Aspects = aspectsFromUnused(description, unused)
	return field, nil
}
