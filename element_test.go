package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
)

type testAccount struct {
	Name string `mapstructure:"name"`
	Age  int64  `mapstructure:"age"`
	Role string `mapstructure:"role"`
}

func TestElement(t *testing.T) {
	t.Run("Unserializes Into Instances", func(t *testing.T) {
		element, err := scheme.NewElement[testAccount](accountSchema())
		require.NoError(t, err)

		account, err := element.Unserialize(`{"name": "alice", "age": 30}`, "json")
		require.NoError(t, err)
		require.Equal(t, &testAccount{Name: "alice", Age: 30, Role: "member"}, account)
	})

	t.Run("Serializes Instances", func(t *testing.T) {
		element, err := scheme.NewElement[testAccount](accountSchema())
		require.NoError(t, err)

		serialized, err := element.Serialize(&testAccount{Name: "alice", Age: 30, Role: "admin"}, "")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"name": "alice", "age": int64(30), "role": "admin"}, serialized)
	})

	t.Run("Named Fields Cover Single Attributes", func(t *testing.T) {
		type document struct {
			Title string `mapstructure:"title"`
		}
		element, err := scheme.NewElement[document](&scheme.Text{Base: scheme.Base{Name: "title"}})
		require.NoError(t, err)

		doc, err := element.Unserialize(`"hello"`, "json")
		require.NoError(t, err)
		require.Equal(t, &document{Title: "hello"}, doc)

		serialized, err := element.Serialize(&document{Title: "greetings"}, "")
		require.NoError(t, err)
		require.Equal(t, "greetings", serialized)
	})

	t.Run("Unnamed Schemas Are Rejected", func(t *testing.T) {
		_, err := scheme.NewElement[testAccount](&scheme.Text{})
		require.ErrorIs(t, err, scheme.ErrInvalidDefinition)
	})
}

type testShape struct {
	Kind   string  `mapstructure:"kind"`
	ID     int64   `mapstructure:"id"`
	Radius float64 `mapstructure:"radius"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

func TestPolymorphicElement(t *testing.T) {
	t.Run("Identities Dispatch To Registered Constructors", func(t *testing.T) {
		element, err := scheme.NewElement[testShape](shapeSchema())
		require.NoError(t, err)
		require.NoError(t, element.RegisterImplementation("circle", func(values map[string]any) any {
			radius, _ := values["radius"].(float64)
			return &testShape{Kind: "custom-circle", Radius: radius * 2}
		}))

		shape, err := element.Unserialize(`{"kind": "circle", "id": 1, "radius": 2.5}`, "json")
		require.NoError(t, err)
		require.Equal(t, &testShape{Kind: "custom-circle", Radius: 5.0}, shape)
	})

	t.Run("Unregistered Identities Instantiate The Element Type", func(t *testing.T) {
		element, err := scheme.NewElement[testShape](shapeSchema())
		require.NoError(t, err)

		shape, err := element.Unserialize(`{"kind": "rect", "id": 2, "width": 3}`, "json")
		require.NoError(t, err)
		require.Equal(t, &testShape{Kind: "rect", ID: 2, Width: 3.0}, shape)
	})

	t.Run("Plain Schemas Cannot Register Implementations", func(t *testing.T) {
		element, err := scheme.NewElement[testAccount](accountSchema())
		require.NoError(t, err)

		err = element.RegisterImplementation("anything", func(map[string]any) any { return nil })
		require.ErrorIs(t, err, scheme.ErrInvalidDefinition)
	})
}

type testWorker struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
}

func TestElementKeyAttr(t *testing.T) {
	schema := &scheme.Structure{Fields: map[string]scheme.Field{
		"host": &scheme.Text{Base: scheme.Base{Required: true}},
	}}
	element, err := scheme.NewElement[testWorker](schema)
	require.NoError(t, err)
	element.KeyAttr = "name"

	pool := &scheme.Map{Value: schema}
	processed, err := scheme.Process(pool,
		map[string]any{"primary": map[string]any{"host": "db1.internal"}}, scheme.Incoming, true)
	require.NoError(t, err)

	instantiated, err := scheme.Instantiate(pool, processed, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"primary": &testWorker{Name: "primary", Host: "db1.internal"},
	}, instantiated)
}
