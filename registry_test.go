package scheme_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
)

func TestReconstruct(t *testing.T) {
	t.Run("Descriptions Round Trip", func(t *testing.T) {
		fields := map[string]scheme.Field{
			"any":     &scheme.Any{},
			"binary":  &scheme.Binary{MaxLength: scheme.IntPtr(64)},
			"boolean": &scheme.Boolean{Base: scheme.Base{Name: "flag", Default: true}},
			"date":    &scheme.Date{},
			"datetime": &scheme.DateTime{
				Base: scheme.Base{Description: "when it happened"},
			},
			"decimal": &scheme.Decimal{},
			"email":   &scheme.Email{Multiple: true},
			"enumeration": &scheme.Enumeration{
				Enumeration: []any{"draft", "published", int64(3)},
			},
			"error":   &scheme.ErrorField{},
			"float":   &scheme.Float{Minimum: scheme.Float64Ptr(0), Maximum: scheme.Float64Ptr(1)},
			"integer": &scheme.Integer{Base: scheme.Base{Required: true}, Minimum: scheme.Int64Ptr(0)},
			"map": &scheme.Map{
				Key:          &scheme.Token{},
				Value:        &scheme.Integer{},
				RequiredKeys: []string{"total"},
			},
			"sequence": &scheme.Sequence{
				Item:      &scheme.Text{},
				MinLength: scheme.IntPtr(1),
				Unique:    true,
			},
			"structure": &scheme.Structure{
				Base: scheme.Base{Name: "account"},
				Fields: map[string]scheme.Field{
					"name": &scheme.Text{Base: scheme.Base{Required: true}},
					"age":  &scheme.Integer{},
				},
			},
			"text":  &scheme.Text{MinLength: scheme.IntPtr(2), Pattern: regexp.MustCompile(`^[a-z]+$`)},
			"time":  &scheme.Time{},
			"token": &scheme.Token{Segments: scheme.IntPtr(2)},
			"tuple": &scheme.Tuple{Values: []scheme.Field{&scheme.Text{}, &scheme.Boolean{}}},
			"union": &scheme.Union{Fields: []scheme.Field{&scheme.Integer{}, &scheme.Text{}}},
			"url":   &scheme.Url{},
			"uuid":  &scheme.UUID{},
		}

		for name, field := range fields {
			t.Run(name, func(t *testing.T) {
				description := field.Describe()
				rebuilt, err := scheme.Reconstruct(description)
				require.NoError(t, err)
				require.Equal(t, description, rebuilt.Describe())
			})
		}
	})

	t.Run("Polymorphic Structures Round Trip", func(t *testing.T) {
		description := shapeSchema().Describe()
		rebuilt, err := scheme.Reconstruct(description)
		require.NoError(t, err)
		require.Equal(t, description, rebuilt.Describe())
	})

	t.Run("The Legacy Type Key Is Honored", func(t *testing.T) {
		field, err := scheme.Reconstruct(map[string]any{"fieldtype": "integer", "name": "age"})
		require.NoError(t, err)
		require.IsType(t, &scheme.Integer{}, field)
	})

	t.Run("Defective Descriptions Are Rejected", func(t *testing.T) {
		_, err := scheme.Reconstruct(nil)
		require.Error(t, err)

		_, err = scheme.Reconstruct(map[string]any{"name": "age"})
		require.Error(t, err)

		_, err = scheme.Reconstruct(map[string]any{"__type__": "wibble"})
		require.Error(t, err)
	})

	t.Run("Numbers Decode Weakly", func(t *testing.T) {
		// Descriptions decoded from JSON carry float64 numbers.
		field, err := scheme.Reconstruct(map[string]any{
			"__type__":   "text",
			"min_length": float64(3),
		})
		require.NoError(t, err)
		require.Equal(t, 3, field.Describe()["min_length"])
	})

	t.Run("Unrecognized Keys Survive As Aspects", func(t *testing.T) {
		field, err := scheme.Reconstruct(map[string]any{
			"__type__": "integer",
			"origin":   "docs",
		})
		require.NoError(t, err)
		require.Equal(t, "docs", field.Describe()["origin"])
	})
}

func TestVisit(t *testing.T) {
	mark := func(any) any { return "visited" }

	t.Run("Sequences Yield Their Item", func(t *testing.T) {
		description := (&scheme.Sequence{Item: &scheme.Integer{}}).Describe()
		visited, err := scheme.Visit(description, mark)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"item": "visited"}, visited)
	})

	t.Run("Maps Yield Value And Key", func(t *testing.T) {
		description := (&scheme.Map{Key: &scheme.Token{}, Value: &scheme.Integer{}}).Describe()
		visited, err := scheme.Visit(description, mark)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"key": "visited", "value": "visited"}, visited)
	})

	t.Run("Structures Yield Their Fields", func(t *testing.T) {
		visited, err := scheme.Visit(accountSchema().Describe(), mark)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"structure": map[string]any{
			"name": "visited",
			"age":  "visited",
			"role": "visited",
		}}, visited)
	})

	t.Run("Polymorphic Structures Yield Fields Per Identity", func(t *testing.T) {
		visited, err := scheme.Visit(shapeSchema().Describe(), mark)
		require.NoError(t, err)

		variants := visited["structure"].(map[string]any)
		require.Equal(t, "visited", variants["circle"].(map[string]any)["radius"])
		require.Equal(t, "visited", variants["rect"].(map[string]any)["width"])
	})

	t.Run("Tuples And Unions Yield Their Members", func(t *testing.T) {
		tuple := (&scheme.Tuple{Values: []scheme.Field{&scheme.Text{}, &scheme.Boolean{}}}).Describe()
		visited, err := scheme.Visit(tuple, mark)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"values": []any{"visited", "visited"}}, visited)

		union := (&scheme.Union{Fields: []scheme.Field{&scheme.Integer{}}}).Describe()
		visited, err = scheme.Visit(union, mark)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"fields": []any{"visited"}}, visited)
	})

	t.Run("Scalars Yield Nothing", func(t *testing.T) {
		visited, err := scheme.Visit((&scheme.Integer{}).Describe(), mark)
		require.NoError(t, err)
		require.Empty(t, visited)
	})

	t.Run("Unknown Types Are Rejected", func(t *testing.T) {
		_, err := scheme.Visit(map[string]any{"__type__": "wibble"}, mark)
		require.Error(t, err)
	})
}
