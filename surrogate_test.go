package scheme_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/testutils"
)

const reportIdentity = "test/surrogates:report"

func registerReportSurrogate(t *testing.T) {
	t.Helper()
	scheme.RegisterSurrogate(reportIdentity, scheme.SurrogateImplementation{
		Schemas: []scheme.Field{
			&scheme.Structure{Fields: map[string]scheme.Field{
				"name": &scheme.Text{Base: scheme.Base{Required: true}},
			}},
			&scheme.Structure{Fields: map[string]scheme.Field{
				"name":  &scheme.Text{Base: scheme.Base{Required: true}},
				"limit": &scheme.Integer{Base: scheme.Base{Default: int64(10)}},
			}},
		},
		Acquire: func(version int, params map[string]any) (map[string]any, error) {
			return map[string]any{"name": fmt.Sprintf("report-v%d", version)}, nil
		},
	})
	t.Cleanup(func() {
		scheme.RegisterSurrogate(reportIdentity, scheme.SurrogateImplementation{})
	})
}

func TestConstructSurrogate(t *testing.T) {
	registerReportSurrogate(t)

	t.Run("Map Subjects Are Extracted Through The Schema", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage", "stray": true}, nil, 0, nil)
		require.NoError(t, err)
		require.Equal(t, &scheme.Surrogate{
			Values:   map[string]any{"name": "usage"},
			Identity: reportIdentity,
			Version:  2,
		}, surrogate)
	})

	t.Run("Versions Select Their Schema", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage", "limit": int64(5)}, nil, 1, nil)
		require.NoError(t, err)
		require.Equal(t, 1, surrogate.Version)
		require.NotContains(t, surrogate.Values, "limit")
	})

	t.Run("Out Of Range Versions Are Rejected", func(t *testing.T) {
		_, err := scheme.ConstructSurrogate(reportIdentity, map[string]any{"name": "usage"}, nil, 9, nil)
		require.Error(t, err)
	})

	t.Run("Params Merge Into The Values", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage"}, nil, 0, map[string]any{"note": "monthly"})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "usage", "note": "monthly"}, surrogate.Values)
	})

	t.Run("Null Subjects Take Their Values From Params", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate("test/surrogates:bare", nil, nil, 0,
			map[string]any{"name": "usage"})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "usage"}, surrogate.Values)

		_, err = scheme.ConstructSurrogate("test/surrogates:bare", nil, nil, 0, nil)
		require.Error(t, err)
	})

	t.Run("Arbitrary Subjects Are Extracted Loosely", func(t *testing.T) {
		type report struct {
			Name string `mapstructure:"name"`
		}
		surrogate, err := scheme.ConstructSurrogate(reportIdentity, report{Name: "usage"}, nil, 0, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "usage"}, surrogate.Values)
	})

	t.Run("Dynamic Schemas Conflict With Inherent Ones", func(t *testing.T) {
		_, err := scheme.ConstructSurrogate(reportIdentity, map[string]any{"name": "usage"},
			&scheme.Structure{Fields: map[string]scheme.Field{"name": &scheme.Text{}}}, 0, nil)
		require.Error(t, err)
	})

	t.Run("Contribute Amends The Values", func(t *testing.T) {
		scheme.RegisterSurrogate("test/surrogates:stamped", scheme.SurrogateImplementation{
			Schemas: []scheme.Field{
				&scheme.Structure{Fields: map[string]scheme.Field{"name": &scheme.Text{}}},
			},
			Contribute: func(values map[string]any, version int) {
				values["stamped"] = true
			},
		})
		t.Cleanup(func() {
			scheme.RegisterSurrogate("test/surrogates:stamped", scheme.SurrogateImplementation{})
		})

		surrogate, err := scheme.ConstructSurrogate("test/surrogates:stamped",
			map[string]any{"name": "usage"}, nil, 0, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "usage", "stamped": true}, surrogate.Values)
	})
}

func TestAcquireSurrogate(t *testing.T) {
	registerReportSurrogate(t)

	t.Run("Zero Versions Select The Newest Schema", func(t *testing.T) {
		surrogate, err := scheme.AcquireSurrogate(reportIdentity, 0, nil)
		require.NoError(t, err)
		require.Equal(t, 2, surrogate.Version)
		require.Equal(t, map[string]any{"name": "report-v2"}, surrogate.Values)
	})

	t.Run("Explicit Versions Are Honored", func(t *testing.T) {
		surrogate, err := scheme.AcquireSurrogate(reportIdentity, 1, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "report-v1"}, surrogate.Values)
	})

	t.Run("Unregistered Identities Cannot Be Acquired", func(t *testing.T) {
		_, err := scheme.AcquireSurrogate("test/surrogates:unknown", 0, nil)
		require.Error(t, err)
	})

	t.Run("Implementations Without Acquire Hooks Cannot Be Acquired", func(t *testing.T) {
		scheme.RegisterSurrogate("test/surrogates:inert", scheme.SurrogateImplementation{
			Schemas: []scheme.Field{
				&scheme.Structure{Fields: map[string]scheme.Field{"name": &scheme.Text{}}},
			},
		})
		t.Cleanup(func() {
			scheme.RegisterSurrogate("test/surrogates:inert", scheme.SurrogateImplementation{})
		})

		_, err := scheme.AcquireSurrogate("test/surrogates:inert", 0, nil)
		require.Error(t, err)
	})
}

func TestSurrogateWireForm(t *testing.T) {
	registerReportSurrogate(t)

	t.Run("Versioned Surrogates Carry Their Version Past One", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage"}, nil, 0, nil)
		require.NoError(t, err)

		serialized, err := surrogate.Serialize()
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"_":           reportIdentity,
			"__version__": 2,
			"name":        "usage",
		}, serialized)
	})

	t.Run("First Versions Are Implicit", func(t *testing.T) {
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage"}, nil, 1, nil)
		require.NoError(t, err)

		serialized, err := surrogate.Serialize()
		require.NoError(t, err)
		require.Equal(t, map[string]any{"_": reportIdentity, "name": "usage"}, serialized)
	})

	t.Run("Dynamic Schemas Are Embedded", func(t *testing.T) {
		schema := &scheme.Structure{Fields: map[string]scheme.Field{"name": &scheme.Text{}}}
		surrogate, err := scheme.ConstructSurrogate("test/surrogates:dynamic",
			map[string]any{"name": "usage"}, schema, 0, nil)
		require.NoError(t, err)

		serialized, err := surrogate.Serialize()
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"_":          "test/surrogates:dynamic",
			"__schema__": schema.Describe(),
			"name":       "usage",
		}, serialized)
	})

	t.Run("Unserializing Applies The Versioned Schema", func(t *testing.T) {
		surrogate, err := scheme.UnserializeSurrogate(map[string]any{
			"_":           reportIdentity,
			"__version__": 2,
			"name":        "usage",
		}, nil)
		require.NoError(t, err)
		require.Equal(t, &scheme.Surrogate{
			Values:   map[string]any{"name": "usage", "limit": int64(10)},
			Identity: reportIdentity,
			Version:  2,
		}, surrogate)
	})

	t.Run("Missing Versions Unserialize As The First", func(t *testing.T) {
		surrogate, err := scheme.UnserializeSurrogate(map[string]any{
			"_":    reportIdentity,
			"name": "usage",
		}, nil)
		require.NoError(t, err)
		require.Equal(t, 1, surrogate.Version)
	})

	t.Run("Embedded Schemas Are Reconstructed", func(t *testing.T) {
		schema := &scheme.Structure{Fields: map[string]scheme.Field{"name": &scheme.Text{}}}
		surrogate, err := scheme.UnserializeSurrogate(map[string]any{
			"_":          "test/surrogates:dynamic",
			"__schema__": schema.Describe(),
			"name":       "usage",
		}, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "usage"}, surrogate.Values)
		require.NotNil(t, surrogate.Schema)
		require.Equal(t, schema.Describe(), surrogate.Schema.Describe())
	})

	t.Run("Unknown Identities Unserialize Schemaless", func(t *testing.T) {
		surrogate, err := scheme.UnserializeSurrogate(map[string]any{
			"_":     "test/surrogates:mystery",
			"count": int64(3),
		}, nil)
		require.NoError(t, err)
		require.Equal(t, &scheme.Surrogate{
			Values:   map[string]any{"count": int64(3)},
			Identity: "test/surrogates:mystery",
		}, surrogate)
	})

	t.Run("Invalid Versions Are Rejected", func(t *testing.T) {
		_, err := scheme.UnserializeSurrogate(map[string]any{
			"_":           reportIdentity,
			"__version__": 9,
			"name":        "usage",
		}, nil)
		require.Error(t, err)
	})
}

func TestSurrogateField(t *testing.T) {
	registerReportSurrogate(t)

	t.Run("Round Trips Through The Wire Form", func(t *testing.T) {
		field := &scheme.SurrogateField{}
		wire := map[string]any{
			"_":           reportIdentity,
			"__version__": 2,
			"name":        "usage",
			"limit":       int64(7),
		}

		got := testutils.MustProcess(t, field, wire, scheme.Incoming, true)
		surrogate, ok := got.(*scheme.Surrogate)
		require.True(t, ok)
		require.Equal(t, map[string]any{"name": "usage", "limit": int64(7)}, surrogate.Values)

		serialized := testutils.MustProcess(t, field, surrogate, scheme.Outgoing, true)
		require.Equal(t, wire, serialized)
	})

	t.Run("Restricts To The Listed Identities", func(t *testing.T) {
		field := &scheme.SurrogateField{Surrogates: []string{"test/surrogates:b", "test/surrogates:a"}}
		surrogate, err := scheme.ConstructSurrogate(reportIdentity,
			map[string]any{"name": "usage"}, nil, 0, nil)
		require.NoError(t, err)

		testutils.ExpectTokens(t, field, surrogate, scheme.Incoming, false,
			map[string][]string{"": {"invalid-surrogate"}})

		_, err = scheme.Process(field, surrogate, scheme.Incoming, false)
		require.EqualError(t, err,
			"validation failed: (surrogate) must be one of test/surrogates:a, test/surrogates:b")
	})

	t.Run("Rejects Other Values", func(t *testing.T) {
		testutils.ExpectTokens(t, &scheme.SurrogateField{}, "value", scheme.Incoming, false,
			map[string][]string{"": {"invalid"}})
	})
}

func TestInterpolateSurrogate(t *testing.T) {
	registerReportSurrogate(t)

	t.Run("Renders Template Values Through The Schema", func(t *testing.T) {
		surrogate, err := scheme.InterpolateSurrogate(map[string]any{
			"_":    reportIdentity,
			"name": "Report for ${audience}",
		}, map[string]any{"audience": "ops"})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "Report for ops"}, surrogate.Values)
		require.Equal(t, 2, surrogate.Version)
	})

	t.Run("Embedded Schemas Drive Interpolation", func(t *testing.T) {
		schema := &scheme.Structure{Fields: map[string]scheme.Field{
			"count": &scheme.Integer{},
		}}
		surrogate, err := scheme.InterpolateSurrogate(map[string]any{
			"_":          "test/surrogates:dynamic",
			"__schema__": schema.Describe(),
			"count":      "${doubled * 2}",
		}, map[string]any{"doubled": int64(4)})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"count": int64(8)}, surrogate.Values)
	})

	t.Run("Schemaless Identities Cannot Interpolate", func(t *testing.T) {
		_, err := scheme.InterpolateSurrogate(map[string]any{
			"_":    "test/surrogates:mystery",
			"name": "${value}",
		}, map[string]any{"value": "x"})
		require.Error(t, err)
	})
}
