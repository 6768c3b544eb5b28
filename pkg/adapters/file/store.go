// Package file persists schema documents as files in a directory, one
// document per schema. The directory can be watched so edits made
// outside the process surface as schema changes.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/scheme/pkg/ports"
)

// Edits often land as a create followed by writes or a rename, so
// watch events are coalesced before reporting.
const debounceWindow = 200 * time.Millisecond

// Store implements ports.Store using the local filesystem.
type Store struct {
	BasePath string

	ext    string
	ignore []string
}

type Option func(*Store)

// WithExtension selects the on-disk encoding by extension, ".json"
// (the default) or ".yaml".
func WithExtension(ext string) Option {
	return func(s *Store) {
		s.ext = ext
	}
}

// WithIgnore adds doublestar patterns, matched against base names,
// for files List and Watch skip.
func WithIgnore(patterns ...string) Option {
	return func(s *Store) {
		s.ignore = append(s.ignore, patterns...)
	}
}

// New creates a new Store rooted at basePath. If basePath is empty, it
// defaults to ".scheme/schemas".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".scheme", "schemas")
	}

	store := &Store{
		BasePath: basePath,
		ext:      ".json",
	}
	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) path(name string) string {
	return filepath.Join(s.BasePath, name+s.ext)
}

func (s *Store) yamlEncoded() bool {
	return s.ext == ".yaml" || s.ext == ".yml"
}

func (s *Store) encode(document *ports.Document) ([]byte, error) {
	if s.yamlEncoded() {
		return yaml.Marshal(document)
	}
	return json.MarshalIndent(document, "", "  ")
}

func (s *Store) decode(data []byte, document *ports.Document) error {
	if s.yamlEncoded() {
		return yaml.Unmarshal(data, document)
	}
	return json.Unmarshal(data, document)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	// Names become file names, so anything that would escape the base
	// directory is rejected.
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("schema name %q cannot contain path separators", name)
	}
	return nil
}

// Put persists the document to a file atomically. It writes to a
// temporary file first, syncs via fsync, and then renames it to the
// destination.
func (s *Store) Put(ctx context.Context, document *ports.Document) error {
	if err := validateName(document.Name); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure schema directory: %w", err)
	}

	destPath := s.path(document.Name)

	data, err := s.encode(document)
	if err != nil {
		return fmt.Errorf("failed to marshal schema document: %w", err)
	}

	// The temp file shares the destination directory so the rename stays
	// on one filesystem. Its dotted, extension-less name keeps it out of
	// List and Watch.
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+document.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()    // Ensure closed
		_ = os.Remove(tmpPath) // Remove if still present (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// Fsync so a crash after the rename cannot leave a truncated file.
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Close before renaming (cannot rename an open file on Windows).
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if the destination exists, so remove
	// it first. The delete-then-rename window is acceptable compared to
	// a partially written file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing schema file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Get retrieves the named document from its file.
func (s *Store) Get(ctx context.Context, name string) (*ports.Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var document ports.Document
	if err := s.decode(data, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema document: %w", err)
	}

	return &document, nil
}

// Delete removes the schema file. Deleting an absent name is not an
// error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete schema file: %w", err)
	}

	return nil
}

// List returns the stored schema names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := s.schemaName(entry.Name()); ok {
			names = append(names, name)
		}
	}

	return names, nil
}

// schemaName maps a directory entry back to a schema name, rejecting
// entries with foreign extensions and ignored patterns.
func (s *Store) schemaName(base string) (string, bool) {
	if !strings.HasSuffix(base, s.ext) {
		return "", false
	}
	for _, pattern := range s.ignore {
		if match, _ := doublestar.Match(pattern, base); match {
			return "", false
		}
	}
	return strings.TrimSuffix(base, s.ext), true
}

// Watch implements ports.Watcher. It reports the names of schemas
// whose files change until ctx is canceled.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure schema directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch schema directory: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		defer watcher.Close()

		pending := make(map[string]struct{})
		var flush <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				name, ok := s.schemaName(filepath.Base(event.Name))
				if !ok {
					continue
				}
				pending[name] = struct{}{}
				if flush == nil {
					flush = time.After(debounceWindow)
				}

			case <-flush:
				flush = nil
				for name := range pending {
					delete(pending, name)
					select {
					case ch <- name:
					case <-ctx.Done():
						return
					}
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return ch, nil
}
