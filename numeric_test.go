package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/testutils"
)

func TestIntegerField(t *testing.T) {
	testutils.Combinations(t, &scheme.Integer{}, int64(42), int64(42))

	t.Run("Canonicalizes Integer Kinds", func(t *testing.T) {
		for _, value := range []any{42, int32(42), uint(42), uint16(42)} {
			got := testutils.MustProcess(t, &scheme.Integer{}, value, scheme.Incoming, false)
			require.Equal(t, int64(42), got)
		}
	})

	t.Run("Unserializes Strings And Floats", func(t *testing.T) {
		cases := []struct {
			name string
			in   any
			want int64
		}{
			{"Decimal String", "17", int64(17)},
			{"Negative String", "-3", int64(-3)},
			{"Float Truncates", 6.9, int64(6)},
			{"Integral Float", float64(12), int64(12)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := testutils.MustProcess(t, &scheme.Integer{}, tc.in, scheme.Incoming, true)
				require.Equal(t, tc.want, got)
			})
		}
	})

	t.Run("Rejects Invalid Values", func(t *testing.T) {
		for _, value := range []any{"seventeen", "1.5", true, []any{1}} {
			testutils.ExpectTokens(t, &scheme.Integer{}, value, scheme.Incoming, true,
				map[string][]string{"": {"invalid"}})
		}
	})

	t.Run("Unserialized Strings Stay Invalid", func(t *testing.T) {
		testutils.ExpectTokens(t, &scheme.Integer{}, "17", scheme.Incoming, false,
			map[string][]string{"": {"invalid"}})
	})

	t.Run("Bounds", func(t *testing.T) {
		field := &scheme.Integer{Minimum: scheme.Int64Ptr(10), Maximum: scheme.Int64Ptr(100)}

		got := testutils.MustProcess(t, field, int64(10), scheme.Incoming, false)
		require.Equal(t, int64(10), got)

		testutils.ExpectTokens(t, field, int64(9), scheme.Incoming, false,
			map[string][]string{"": {"minimum"}})
		testutils.ExpectTokens(t, field, int64(101), scheme.Incoming, false,
			map[string][]string{"": {"maximum"}})
	})
}

func TestFloatField(t *testing.T) {
	testutils.Combinations(t, &scheme.Float{}, 3.25, 3.25)

	t.Run("Unserializes Strings And Integers", func(t *testing.T) {
		cases := []struct {
			name string
			in   any
			want float64
		}{
			{"Decimal String", "2.5", 2.5},
			{"Integer String", "4", 4.0},
			{"Integer Widens", int64(3), 3.0},
			{"Float32 Widens", float32(0.5), 0.5},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := testutils.MustProcess(t, &scheme.Float{}, tc.in, scheme.Incoming, true)
				require.Equal(t, tc.want, got)
			})
		}
	})

	t.Run("Rejects Integers When Unserialized", func(t *testing.T) {
		testutils.ExpectTokens(t, &scheme.Float{}, int64(3), scheme.Incoming, false,
			map[string][]string{"": {"invalid"}})
	})

	t.Run("Rejects Invalid Values", func(t *testing.T) {
		for _, value := range []any{"two point five", true, map[string]any{}} {
			testutils.ExpectTokens(t, &scheme.Float{}, value, scheme.Incoming, true,
				map[string][]string{"": {"invalid"}})
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		field := &scheme.Float{Minimum: scheme.Float64Ptr(0.5), Maximum: scheme.Float64Ptr(1.5)}

		got := testutils.MustProcess(t, field, 1.0, scheme.Incoming, false)
		require.Equal(t, 1.0, got)

		testutils.ExpectTokens(t, field, 0.25, scheme.Incoming, false,
			map[string][]string{"": {"minimum"}})
		testutils.ExpectTokens(t, field, 2.0, scheme.Incoming, false,
			map[string][]string{"": {"maximum"}})
	})
}
