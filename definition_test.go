package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/testutils"
)

func TestDefinitionField(t *testing.T) {
	t.Run("Field Values Pass Through", func(t *testing.T) {
		value := &scheme.Integer{Base: scheme.Base{Name: "age"}}
		got := testutils.MustProcess(t, &scheme.Definition{}, value, scheme.Incoming, false)
		require.Same(t, scheme.Field(value), got)
	})

	t.Run("Serializes To Descriptions", func(t *testing.T) {
		value := &scheme.Integer{Base: scheme.Base{Name: "age"}, Minimum: scheme.Int64Ptr(0)}
		got := testutils.MustProcess(t, &scheme.Definition{}, value, scheme.Outgoing, true)
		require.Equal(t, value.Describe(), got)
	})

	t.Run("Unserializes Descriptions", func(t *testing.T) {
		description := map[string]any{"__type__": "text", "name": "label", "min_length": 2}
		got := testutils.MustProcess(t, &scheme.Definition{}, description, scheme.Incoming, true)

		field, ok := got.(scheme.Field)
		require.True(t, ok)
		require.IsType(t, &scheme.Text{}, field)
		require.Equal(t, 2, field.Describe()["min_length"])
	})

	t.Run("Rejects Other Values", func(t *testing.T) {
		testutils.ExpectTokens(t, &scheme.Definition{}, "text", scheme.Incoming, false,
			map[string][]string{"": {"invalid"}})
	})

	t.Run("Rejects Unreconstructible Descriptions", func(t *testing.T) {
		testutils.ExpectTokens(t, &scheme.Definition{}, map[string]any{"__type__": "wibble"},
			scheme.Incoming, true,
			map[string][]string{"": {"invalid"}})
	})

	t.Run("Restricts To The Listed Types", func(t *testing.T) {
		field := &scheme.Definition{Fields: []string{"integer", "float"}}
		testutils.MustProcess(t, field, &scheme.Float{}, scheme.Incoming, false)
		testutils.ExpectTokens(t, field, &scheme.Text{}, scheme.Incoming, false,
			map[string][]string{"": {"invalidfield"}})
	})

	t.Run("Restriction Messages List The Types", func(t *testing.T) {
		field := &scheme.Definition{Fields: []string{"integer", "float"}}
		_, err := scheme.Process(field, &scheme.Text{}, scheme.Incoming, false)
		require.EqualError(t, err, "validation failed: (definition) must be one of float, integer")
	})

	t.Run("Unknown Type Restrictions Are Defects", func(t *testing.T) {
		field := &scheme.Definition{Fields: []string{"wibble"}}
		_, err := scheme.Process(field, &scheme.Text{}, scheme.Incoming, false)
		require.ErrorIs(t, err, scheme.ErrInvalidDefinition)
	})
}
