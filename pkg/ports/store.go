package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSchemaNotFound is returned when a named schema does not exist in a
// store.
var ErrSchemaNotFound = errors.New("schema not found")

// Document is a named schema description as held by a Store. The
// description is the portable form produced by scheme.Field.Describe,
// so any backend that can hold a JSON document can hold a schema.
type Document struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description map[string]any `json:"description" yaml:"description" mapstructure:"description"`
	Version     int            `json:"version" yaml:"version" mapstructure:"version"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at" mapstructure:"updated_at"`
}

// Store defines the interface for persisting schema documents.
type Store interface {
	// Put persists the document under its name, replacing any existing
	// version.
	Put(ctx context.Context, document *Document) error

	// Get retrieves the document for a given name.
	// Returns ErrSchemaNotFound if the schema does not exist.
	Get(ctx context.Context, name string) (*Document, error)

	// Delete removes the document for a given name.
	Delete(ctx context.Context, name string) error

	// List returns the names of the stored schemas.
	List(ctx context.Context) ([]string, error)
}

// Watcher is an optional capability of stores whose backing medium can
// change underneath the registry, such as files edited on disk.
type Watcher interface {
	// Watch returns a channel carrying the names of schemas that changed.
	// The channel is closed when ctx is canceled.
	Watch(ctx context.Context) (<-chan string, error)
}
