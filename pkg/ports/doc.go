/*
Package ports defines the driven ports (interfaces) for the schema registry.

These interfaces decouple the registry from external implementations, allowing
schema documents to live in various storage backends and change feeds.

# Key Interfaces

  - Store: Responsible for persisting and loading schema Documents.
  - Watcher: Optional capability of stores whose backing medium can change
    underneath the registry (e.g. files edited on disk).
  - DistributedLocker: Provides distributed locking for coordinating schema
    updates across multiple instances.
*/
package ports
