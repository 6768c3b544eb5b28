package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/testutils"
)

func TestTupleField(t *testing.T) {
	field := &scheme.Tuple{Values: []scheme.Field{
		&scheme.Text{},
		&scheme.Integer{},
		&scheme.Boolean{},
	}}

	t.Run("Processes Positions In Order", func(t *testing.T) {
		got := testutils.MustProcess(t, field, []any{"  label ", "7", true}, scheme.Incoming, true)
		require.Equal(t, []any{"label", int64(7), true}, got)
	})

	t.Run("Reports Failures Per Position", func(t *testing.T) {
		testutils.ExpectTokens(t, field, []any{"label", "seven", 1}, scheme.Incoming, true,
			map[string][]string{
				"[1]": {"invalid"},
				"[2]": {"invalid"},
			})
	})

	t.Run("Enforces Exact Length", func(t *testing.T) {
		testutils.ExpectTokens(t, field, []any{"label", int64(7)}, scheme.Incoming, true,
			map[string][]string{"": {"length"}})
		testutils.ExpectTokens(t, field, []any{"label", int64(7), true, "extra"}, scheme.Incoming, true,
			map[string][]string{"": {"length"}})
	})

	t.Run("Rejects Non-Sequences", func(t *testing.T) {
		testutils.ExpectTokens(t, field, map[string]any{}, scheme.Incoming, true,
			map[string][]string{"": {"invalid"}})
	})
}
