package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scheme/pkg/adapters/memory"
	"github.com/aretw0/scheme/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	document := &ports.Document{
		Name:        "account",
		Description: map[string]any{"__type__": "integer"},
		Version:     1,
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Put(ctx, document))

	// Mutating the caller's document after Put must not leak into the
	// store, nor must mutating a loaded copy.
	document.Description["__type__"] = "text"

	loaded, err := store.Get(ctx, "account")
	require.NoError(t, err)
	assert.Equal(t, "integer", loaded.Description["__type__"])

	loaded.Description["__type__"] = "boolean"

	again, err := store.Get(ctx, "account")
	require.NoError(t, err)
	assert.Equal(t, "integer", again.Description["__type__"])
}
