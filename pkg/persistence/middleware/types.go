// Package middleware provides wrappers that add behavior around a
// ports.Store, such as encryption at rest.
package middleware

import "github.com/aretw0/scheme/pkg/ports"

// Middleware wraps a Store to add behavior. Wrapping hides optional
// capabilities of the underlying store, such as ports.Watcher.
type Middleware func(ports.Store) ports.Store
