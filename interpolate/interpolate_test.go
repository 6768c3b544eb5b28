package interpolate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme/interpolate"
)

func TestEvaluate(t *testing.T) {
	params := map[string]any{
		"value":   int64(2),
		"ratio":   0.5,
		"word":    "hello",
		"items":   []any{"a", "b"},
		"account": map[string]any{"name": "alice"},
	}

	t.Run("Plain Text Passes Through", func(t *testing.T) {
		value, err := interpolate.Evaluate("hello", params)
		require.NoError(t, err)
		require.Equal(t, "hello", value)

		value, err = interpolate.Evaluate("", params)
		require.NoError(t, err)
		require.Equal(t, "", value)
	})

	t.Run("Partial Expressions Are Not Evaluated", func(t *testing.T) {
		value, err := interpolate.Evaluate("x ${value}", params)
		require.NoError(t, err)
		require.Equal(t, "x ${value}", value)
	})

	t.Run("Expressions Yield Typed Values", func(t *testing.T) {
		for expression, expected := range map[string]any{
			"${value}":           int64(2),
			"${value + 1}":       int64(3),
			"${2 + 3 * 4}":       int64(14),
			"${(2 + 3) * 4}":     int64(20),
			"${7 % 3}":           int64(1),
			"${-value}":          int64(-2),
			"${ratio * 2}":       1.0,
			"${4 / 2}":           2.0,
			"${'a' + 'b'}":       "ab",
			"${true}":            true,
			"${null}":            nil,
			"${[1] + [2]}":       []any{int64(1), int64(2)},
			"${items[1]}":        "b",
			"${items[-1]}":       "b",
			"${word[0]}":         "h",
			"${account.name}":    "alice",
			"${account['name']}": "alice",
		} {
			value, err := interpolate.Evaluate(expression, params)
			require.NoError(t, err, "evaluating %q", expression)
			require.Equal(t, expected, value, "evaluating %q", expression)
		}
	})

	t.Run("Division Always Yields A Float", func(t *testing.T) {
		value, err := interpolate.Evaluate("${value / 2}", params)
		require.NoError(t, err)
		require.Equal(t, 1.0, value)
	})

	t.Run("Unbound References Are Undefined", func(t *testing.T) {
		_, err := interpolate.Evaluate("${missing}", params)
		require.ErrorIs(t, err, interpolate.ErrUndefinedValue)

		_, err = interpolate.Evaluate("${missing + 1}", params)
		require.ErrorIs(t, err, interpolate.ErrUndefinedValue)

		_, err = interpolate.Evaluate("${account.nothing}", params)
		require.ErrorIs(t, err, interpolate.ErrUndefinedValue)
	})

	t.Run("Defective Expressions Are Rejected", func(t *testing.T) {
		for _, expression := range []string{
			"${1 / 0}",
			"${1 % 0}",
			"${'abc}",
			"${value @}",
			"${1 +}",
			"${'x'()}",
			"${items['x']}",
		} {
			_, err := interpolate.Evaluate(expression, params)
			require.Error(t, err, "evaluating %q", expression)
		}
	})
}

func TestRender(t *testing.T) {
	params := map[string]any{"name": "alice", "count": int64(3)}

	t.Run("Substitutes Every Expression", func(t *testing.T) {
		text, err := interpolate.Render("Hello ${name}, you have ${count} items", params)
		require.NoError(t, err)
		require.Equal(t, "Hello alice, you have 3 items", text)
	})

	t.Run("Undefined References Render As Nothing", func(t *testing.T) {
		text, err := interpolate.Render("Hi ${missing}!", params)
		require.NoError(t, err)
		require.Equal(t, "Hi !", text)
	})

	t.Run("Braces Within Strings Do Not Close The Expression", func(t *testing.T) {
		text, err := interpolate.Render("${'}' + '!'}", params)
		require.NoError(t, err)
		require.Equal(t, "}!", text)
	})

	t.Run("Unterminated Expressions Are Rejected", func(t *testing.T) {
		_, err := interpolate.Render("Hello ${name", params)
		require.Error(t, err)
	})

	t.Run("Globals Provide The Clock", func(t *testing.T) {
		text, err := interpolate.Render("${timestamp()}", nil)
		require.NoError(t, err)
		require.Regexp(t, `^\d{14}$`, text)

		text, err = interpolate.Render("${now('%Y')}", nil)
		require.NoError(t, err)
		require.Regexp(t, `^\d{4}$`, text)
	})
}

func TestFilters(t *testing.T) {
	t.Run("Pluralize Follows The Quantity", func(t *testing.T) {
		value, err := interpolate.Evaluate("${'match' | pluralize(2)}", nil)
		require.NoError(t, err)
		require.Equal(t, "matches", value)

		value, err = interpolate.Evaluate("${'match' | pluralize(1)}", nil)
		require.NoError(t, err)
		require.Equal(t, "match", value)

		value, err = interpolate.Evaluate("${'wolf' | pluralize}", nil)
		require.NoError(t, err)
		require.Equal(t, "wolves", value)
	})

	t.Run("Slugify Normalizes Titles", func(t *testing.T) {
		value, err := interpolate.Evaluate("${'My Fancy Title!' | slugify}", nil)
		require.NoError(t, err)
		require.Equal(t, "my-fancy-title", value)

		value, err = interpolate.Evaluate("${'My Fancy Title' | slugify('_')}", nil)
		require.NoError(t, err)
		require.Equal(t, "my_fancy_title", value)
	})

	t.Run("Unknown Filters Are Rejected", func(t *testing.T) {
		_, err := interpolate.Evaluate("${'x' | mystery}", nil)
		require.ErrorContains(t, err, "unknown filter")
	})

	t.Run("Custom Filters And Globals Register", func(t *testing.T) {
		ip := interpolate.New()
		ip.AddFilter("shout", func(value any, args ...any) (any, error) {
			return strings.ToUpper(value.(string)) + "!", nil
		})
		ip.AddGlobal("answer", func(args ...any) (any, error) {
			return int64(42), nil
		})

		value, err := ip.Evaluate("${'hey' | shout}", nil)
		require.NoError(t, err)
		require.Equal(t, "HEY!", value)

		value, err = ip.Evaluate("${answer() + 1}", nil)
		require.NoError(t, err)
		require.Equal(t, int64(43), value)
	})
}

func TestPluralize(t *testing.T) {
	for _, tc := range []struct {
		word     string
		quantity int
		expected string
	}{
		{"match", 1, "match"},
		{"match", 2, "matches"},
		{"knife", 2, "knives"},
		{"bureau", 2, "bureaux"},
		{"wolf", 2, "wolves"},
		{"box", 2, "boxes"},
		{"church", 2, "churches"},
		{"party", 2, "parties"},
		{"day", 2, "days"},
		{"item", 0, "items"},
	} {
		require.Equal(t, tc.expected, interpolate.Pluralize(tc.word, tc.quantity),
			"pluralizing %q with quantity %d", tc.word, tc.quantity)
	}
}

func TestSlugify(t *testing.T) {
	for _, tc := range []struct {
		value    string
		spacer   string
		expected string
	}{
		{"Hello World", "", "hello-world"},
		{"  Hello   World  ", "", "hello-world"},
		{"Über Café Menü", "", "uber-cafe-menu"},
		{"a_b-c d", ".", "a.b.c.d"},
		{"Rock & Roll!", "", "rock-roll"},
	} {
		require.Equal(t, tc.expected, interpolate.Slugify(tc.value, tc.spacer),
			"slugifying %q", tc.value)
	}
}
