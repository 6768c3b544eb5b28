package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/pkg/adapters/memory"
	"github.com/aretw0/scheme/pkg/ports"
	"github.com/aretw0/scheme/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountSchema() scheme.Field {
	return &scheme.Structure{
		Base: scheme.Base{Name: "account"},
		Fields: map[string]scheme.Field{
			"name": &scheme.Text{Nonempty: true},
			"age":  &scheme.Integer{Minimum: ptr(int64(0))},
		},
	}
}

func ptr[T any](v T) *T { return &v }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	document, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	assert.Equal(t, "account", document.Name)
	assert.Equal(t, 1, document.Version)
	assert.Equal(t, "structure", document.Description["__type__"])

	field, err := r.Get(ctx, "account")
	require.NoError(t, err)
	assert.Equal(t, "structure", field.Type())

	names, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"account"}, names)
}

func TestRegistry_VersionBumps(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	first, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := registry.New()

	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrSchemaNotFound)
}

func TestRegistry_RegisterDescription(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	_, err := r.RegisterDescription(ctx, "tag", map[string]any{
		"__type__": "text",
		"nonempty": true,
	})
	require.NoError(t, err)

	field, err := r.Get(ctx, "tag")
	require.NoError(t, err)
	assert.Equal(t, "text", field.Type())
}

func TestRegistry_RegisterDescriptionInvalid(t *testing.T) {
	r := registry.New()

	_, err := r.RegisterDescription(context.Background(), "broken", map[string]any{
		"__type__": "no-such-type",
	})
	assert.Error(t, err)
}

func TestRegistry_Validate(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	_, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)

	processed, err := r.Validate(ctx, "account", map[string]any{
		"name": "alice",
		"age":  "30",
	})
	require.NoError(t, err)

	value, ok := processed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", value["name"])
	assert.Equal(t, int64(30), value["age"])

	_, err = r.Validate(ctx, "account", map[string]any{"age": -1})
	var validation *scheme.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestRegistry_Delete(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	_, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, "account"))

	_, err = r.Get(ctx, "account")
	assert.ErrorIs(t, err, ports.ErrSchemaNotFound)
}

func TestRegistry_ReusesCachedField(t *testing.T) {
	r := registry.New()
	ctx := context.Background()

	_, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)

	first, err := r.Get(ctx, "account")
	require.NoError(t, err)
	second, err := r.Get(ctx, "account")
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged schema should come from the cache")

	// A new version invalidates the cached field.
	_, err = r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	third, err := r.Get(ctx, "account")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

// watchableStore wraps the memory store with a canned change feed.
type watchableStore struct {
	ports.Store
	changes chan string
}

func (s *watchableStore) Watch(ctx context.Context) (<-chan string, error) {
	return s.changes, nil
}

func TestRegistry_WatchUnsupportedStore(t *testing.T) {
	r := registry.New()

	_, err := r.Watch(context.Background())
	assert.Error(t, err, "the memory store has no watch capability")
}

func TestRegistry_WatchStoreInvalidatesCache(t *testing.T) {
	store := &watchableStore{Store: memory.NewStore(), changes: make(chan string)}
	r := registry.New(registry.WithStore(store))
	ctx := context.Background()

	_, err := r.Register(ctx, "account", accountSchema())
	require.NoError(t, err)
	first, err := r.Get(ctx, "account")
	require.NoError(t, err)

	require.NoError(t, r.WatchStore(ctx))
	store.changes <- "account"

	// The report is consumed asynchronously; eventually Get rebuilds the
	// field instead of returning the cached one.
	assert.Eventually(t, func() bool {
		field, err := r.Get(ctx, "account")
		return err == nil && field != first
	}, time.Second, 10*time.Millisecond)
}
