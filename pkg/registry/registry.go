// Package registry manages named, versioned schemas over a pluggable
// document store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/scheme"
	"github.com/aretw0/scheme/pkg/adapters/memory"
	"github.com/aretw0/scheme/pkg/ports"
)

// Registry holds named schemas, persisting their descriptions through a
// ports.Store and rebuilding fields from them on demand. Safe for
// concurrent use.
type Registry struct {
	store   ports.Store
	locker  ports.DistributedLocker
	logger  *slog.Logger
	lockTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedSchema
}

type cachedSchema struct {
	version int
	field   scheme.Field
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore sets the document store. Defaults to an in-memory store.
func WithStore(store ports.Store) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLocker sets a distributed locker used to coordinate version bumps
// across instances sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Registry) {
		r.locker = locker
	}
}

// New creates a Registry with the given options.
func New(opts ...Option) *Registry {
	r := &Registry{
		store:   memory.NewStore(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		lockTTL: 5 * time.Second,
		cache:   make(map[string]*cachedSchema),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register describes field and persists it under name, bumping the
// stored version.
func (r *Registry) Register(ctx context.Context, name string, field scheme.Field) (*ports.Document, error) {
	if name == "" {
		return nil, errors.New("registry: schema name cannot be empty")
	}
	if field == nil {
		return nil, errors.New("registry: schema field cannot be nil")
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "schema:"+name, r.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("registry: failed to lock schema %q: %w", name, err)
		}
		defer func() { _ = unlock(ctx) }()
	}

	version := 1
	existing, err := r.store.Get(ctx, name)
	switch {
	case err == nil:
		version = existing.Version + 1
	case !errors.Is(err, ports.ErrSchemaNotFound):
		return nil, fmt.Errorf("registry: failed to read schema %q: %w", name, err)
	}

	document := &ports.Document{
		Name:        name,
		Description: field.Describe(),
		Version:     version,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := r.store.Put(ctx, document); err != nil {
		return nil, fmt.Errorf("registry: failed to store schema %q: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = &cachedSchema{version: version, field: field.Clone()}
	r.mu.Unlock()

	r.logger.Info("registered schema", "name", name, "version", version)
	return document, nil
}

// RegisterDescription rebuilds a field from a portable description and
// registers it, normalizing the stored form.
func (r *Registry) RegisterDescription(ctx context.Context, name string, description map[string]any) (*ports.Document, error) {
	field, err := scheme.Reconstruct(description)
	if err != nil {
		return nil, fmt.Errorf("registry: invalid schema description: %w", err)
	}
	return r.Register(ctx, name, field)
}

// Get returns the schema field registered under name.
func (r *Registry) Get(ctx context.Context, name string) (scheme.Field, error) {
	document, err := r.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ports.ErrSchemaNotFound) {
			return nil, fmt.Errorf("%w: %q", ports.ErrSchemaNotFound, name)
		}
		return nil, fmt.Errorf("registry: failed to read schema %q: %w", name, err)
	}

	r.mu.RLock()
	cached := r.cache[name]
	r.mu.RUnlock()
	if cached != nil && cached.version == document.Version {
		return cached.field, nil
	}

	field, err := scheme.Reconstruct(document.Description)
	if err != nil {
		return nil, fmt.Errorf("registry: stored schema %q is invalid: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = &cachedSchema{version: document.Version, field: field}
	r.mu.Unlock()
	return field, nil
}

// Describe returns the stored document for name.
func (r *Registry) Describe(ctx context.Context, name string) (*ports.Document, error) {
	document, err := r.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ports.ErrSchemaNotFound) {
			return nil, fmt.Errorf("%w: %q", ports.ErrSchemaNotFound, name)
		}
		return nil, fmt.Errorf("registry: failed to read schema %q: %w", name, err)
	}
	return document, nil
}

// List returns the registered schema names, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list schemas: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the schema registered under name.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("registry: failed to delete schema %q: %w", name, err)
	}

	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()

	r.logger.Info("deleted schema", "name", name)
	return nil
}

// Validate processes value against the named schema as an incoming
// serialized payload and returns the processed value. Validation
// failures are *scheme.ValidationError values.
func (r *Registry) Validate(ctx context.Context, name string, value any) (any, error) {
	field, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return scheme.Process(field, value, scheme.Incoming, true)
}

// Serialize processes value against the named schema as an outgoing
// payload, optionally encoding it to the named format.
func (r *Registry) Serialize(ctx context.Context, name string, value any, formatName string) (any, error) {
	field, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return scheme.Serialize(field, value, formatName)
}

// Watch reports the names of schemas changing in the store. It fails
// when the store has no ports.Watcher capability; the feed closes when
// ctx is canceled.
func (r *Registry) Watch(ctx context.Context) (<-chan string, error) {
	watcher, ok := r.store.(ports.Watcher)
	if !ok {
		return nil, errors.New("registry: store does not support watching")
	}

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to watch store: %w", err)
	}
	return changes, nil
}

// WatchStore invalidates cached schemas as the store reports changes.
// It returns immediately when the store cannot watch; the feed stops
// when ctx is canceled.
func (r *Registry) WatchStore(ctx context.Context) error {
	changes, err := r.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for name := range changes {
			r.mu.Lock()
			delete(r.cache, name)
			r.mu.Unlock()
			r.logger.Debug("schema changed in store", "name", name)
		}
	}()
	return nil
}
