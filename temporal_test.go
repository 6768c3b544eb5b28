package scheme_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/testutils"
)

func TestDateField(t *testing.T) {
	march1 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	testutils.Combinations(t, &scheme.Date{}, march1, "2024-03-01")

	t.Run("Canonicalizes To Midnight UTC", func(t *testing.T) {
		late := time.Date(2024, time.March, 1, 15, 30, 45, 0, time.UTC)
		got := testutils.MustProcess(t, &scheme.Date{}, late, scheme.Incoming, false)
		require.Equal(t, march1, got)
	})

	t.Run("Rejects Malformed Dates", func(t *testing.T) {
		for _, value := range []any{"03/01/2024", "2024-03-01T00:00:00Z", 20240301} {
			testutils.ExpectTokens(t, &scheme.Date{}, value, scheme.Incoming, true,
				map[string][]string{"": {"invalid"}})
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		field := &scheme.Date{
			Minimum: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Maximum: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		}

		got := testutils.MustProcess(t, field, march1, scheme.Incoming, false)
		require.Equal(t, march1, got)

		testutils.ExpectTokens(t, field, "2023-12-31", scheme.Incoming, true,
			map[string][]string{"": {"minimum"}})
		testutils.ExpectTokens(t, field, "2025-01-01", scheme.Incoming, true,
			map[string][]string{"": {"maximum"}})
	})

	t.Run("Callable Bounds", func(t *testing.T) {
		field := &scheme.Date{Maximum: func() time.Time {
			return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		}}

		got := testutils.MustProcess(t, field, march1, scheme.Incoming, false)
		require.Equal(t, march1, got)

		testutils.ExpectTokens(t, field, "2024-07-01", scheme.Incoming, true,
			map[string][]string{"": {"maximum"}})
	})
}

func TestDateTimeField(t *testing.T) {
	moment := time.Date(2024, time.March, 1, 12, 30, 45, 0, time.UTC)
	testutils.Combinations(t, &scheme.DateTime{UTC: true}, moment, "2024-03-01T12:30:45Z")

	t.Run("Normalizes To Local Time By Default", func(t *testing.T) {
		got := testutils.MustProcess(t, &scheme.DateTime{}, moment, scheme.Incoming, false)
		localized := got.(time.Time)
		require.True(t, localized.Equal(moment))
		require.Equal(t, time.Local, localized.Location())
	})

	t.Run("Serializes Offsets As UTC", func(t *testing.T) {
		offset := time.Date(2024, time.March, 1, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60))
		got := testutils.MustProcess(t, &scheme.DateTime{UTC: true}, offset, scheme.Outgoing, true)
		require.Equal(t, "2024-03-01T12:30:45Z", got)
	})

	t.Run("Rejects Malformed Timestamps", func(t *testing.T) {
		for _, value := range []any{"2024-03-01", "2024-03-01 12:30:45", 1709294400} {
			testutils.ExpectTokens(t, &scheme.DateTime{UTC: true}, value, scheme.Incoming, true,
				map[string][]string{"": {"invalid"}})
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		field := &scheme.DateTime{
			UTC:     true,
			Minimum: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			Maximum: func() time.Time { return time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC) },
		}

		got := testutils.MustProcess(t, field, moment, scheme.Incoming, false)
		require.Equal(t, moment, got)

		testutils.ExpectTokens(t, field, "2024-02-29T23:59:59Z", scheme.Incoming, true,
			map[string][]string{"": {"minimum"}})
		testutils.ExpectTokens(t, field, "2024-03-02T00:00:01Z", scheme.Incoming, true,
			map[string][]string{"": {"maximum"}})
	})
}

func TestTimeField(t *testing.T) {
	clock := time.Date(0, time.January, 1, 14, 30, 45, 0, time.UTC)
	testutils.Combinations(t, &scheme.Time{}, clock, "14:30:45")

	t.Run("Drops The Date Component", func(t *testing.T) {
		stamped := time.Date(2024, time.June, 15, 14, 30, 45, 0, time.UTC)
		got := testutils.MustProcess(t, &scheme.Time{}, stamped, scheme.Incoming, false)
		require.Equal(t, clock, got)
	})

	t.Run("Rejects Malformed Times", func(t *testing.T) {
		for _, value := range []any{"2:30pm", "14:30", true} {
			testutils.ExpectTokens(t, &scheme.Time{}, value, scheme.Incoming, true,
				map[string][]string{"": {"invalid"}})
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		field := &scheme.Time{
			Minimum: time.Date(0, time.January, 1, 9, 0, 0, 0, time.UTC),
			Maximum: time.Date(0, time.January, 1, 17, 0, 0, 0, time.UTC),
		}

		got := testutils.MustProcess(t, field, clock, scheme.Incoming, false)
		require.Equal(t, clock, got)

		testutils.ExpectTokens(t, field, "08:59:59", scheme.Incoming, true,
			map[string][]string{"": {"minimum"}})
		testutils.ExpectTokens(t, field, "17:00:01", scheme.Incoming, true,
			map[string][]string{"": {"maximum"}})
	})
}
