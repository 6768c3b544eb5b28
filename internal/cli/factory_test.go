package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/internal/logging"
)

func TestNewRegistry(t *testing.T) {
	t.Run("Defaults to memory", func(t *testing.T) {
		reg, closer, err := NewRegistry(Options{}, logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer() })

		_, err = reg.Register(context.Background(), "tag", &scheme.Text{})
		assert.NoError(t, err)
	})

	t.Run("File store round trip", func(t *testing.T) {
		dir := t.TempDir()
		reg, closer, err := NewRegistry(Options{Store: "file", Dir: dir, Extension: "yaml"}, logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer() })

		_, err = reg.Register(context.Background(), "tag", &scheme.Text{})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "tag.yaml"))
	})

	t.Run("SQLite store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schemas.db")
		reg, closer, err := NewRegistry(Options{Store: "sqlite", SQLitePath: path}, logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer() })

		_, err = reg.Register(context.Background(), "tag", &scheme.Text{})
		assert.NoError(t, err)
	})

	t.Run("Unknown store", func(t *testing.T) {
		_, _, err := NewRegistry(Options{Store: "warehouse"}, logging.NewNop())
		assert.ErrorContains(t, err, "unknown store")
	})
}
