// Package cli wires stores and registries for the scheme commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/scheme/pkg/adapters/file"
	"github.com/aretw0/scheme/pkg/adapters/redis"
	"github.com/aretw0/scheme/pkg/adapters/sqlite"
	"github.com/aretw0/scheme/pkg/registry"
)

// Options carries the store configuration shared by the scheme
// commands.
type Options struct {
	// Store selects the backend: memory, file, redis or sqlite.
	Store string

	// Dir is the schema directory for the file store.
	Dir string

	// Extension is the on-disk encoding for the file store, json or
	// yaml.
	Extension string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SQLitePath is the database file for the sqlite store.
	SQLitePath string
}

// NewRegistry initializes a schema registry with standard CLI
// conventions. The returned closer releases the store's resources and
// is safe to call on every path.
func NewRegistry(opts Options, logger *slog.Logger) (*registry.Registry, func() error, error) {
	closer := func() error { return nil }
	regOpts := []registry.Option{registry.WithLogger(logger)}

	switch opts.Store {
	case "", "memory":
		// The default in-memory store suits one-shot commands.
	case "file":
		fileOpts := []file.Option{}
		if opts.Extension != "" {
			fileOpts = append(fileOpts, file.WithExtension(opts.Extension))
		}
		regOpts = append(regOpts, registry.WithStore(file.New(opts.Dir, fileOpts...)))
	case "redis":
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		regOpts = append(regOpts,
			registry.WithStore(store),
			registry.WithLocker(redis.NewLocker(store.Client(), "scheme:lock:")),
		)
		closer = store.Close
	case "sqlite":
		store, err := sqlite.New(opts.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		regOpts = append(regOpts, registry.WithStore(store))
		closer = store.Close
	default:
		return nil, nil, fmt.Errorf("unknown store %q: supported stores are memory, file, redis and sqlite", opts.Store)
	}

	return registry.New(regOpts...), closer, nil
}
