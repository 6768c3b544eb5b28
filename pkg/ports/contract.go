package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a Store
// implementation adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	name := "contract-test-schema-" + time.Now().Format("20060102150405")

	document := func(name string) *Document {
		return &Document{
			Name: name,
			Description: map[string]any{
				"__type__": "structure",
				"structure": map[string]any{
					"alpha": map[string]any{"__type__": "integer", "required": true},
				},
			},
			Version:   1,
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Put and Get", func(t *testing.T) {
		err := store.Put(ctx, document(name))
		require.NoError(t, err, "Put should not return error")

		loaded, err := store.Get(ctx, name)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, name, loaded.Name)
		assert.Equal(t, 1, loaded.Version)
		assert.Equal(t, "structure", loaded.Description["__type__"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, ErrSchemaNotFound)
	})

	t.Run("Put Replaces", func(t *testing.T) {
		updated := document(name)
		updated.Version = 2
		require.NoError(t, store.Put(ctx, updated))

		loaded, err := store.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Version)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, document(name)))

		err := store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, name)
		assert.ErrorIs(t, err, ErrSchemaNotFound, "Get after Delete should return ErrSchemaNotFound")
	})

	t.Run("List", func(t *testing.T) {
		name1 := name + "-1"
		name2 := name + "-2"
		require.NoError(t, store.Put(ctx, document(name1)))
		require.NoError(t, store.Put(ctx, document(name2)))

		defer func() {
			_ = store.Delete(ctx, name1)
			_ = store.Delete(ctx, name2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, name1)
		assert.Contains(t, names, name2)
	})
}
