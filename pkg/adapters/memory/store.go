package memory

import (
	"context"
	"sync"

	"github.com/aretw0/scheme/pkg/ports"
)

// Store implements ports.Store in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*ports.Document
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*ports.Document),
	}
}

// Put persists the document in memory.
func (s *Store) Put(ctx context.Context, document *ports.Document) error {
	// Copy to ensure isolation, similar to serialization
	copied := *document
	copied.Description = make(map[string]any, len(document.Description))
	for k, v := range document.Description {
		copied.Description[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[document.Name] = &copied
	return nil
}

// Get retrieves the document from memory.
func (s *Store) Get(ctx context.Context, name string) (*ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	document, ok := s.data[name]
	if !ok {
		return nil, ports.ErrSchemaNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	ret := *document
	ret.Description = make(map[string]any, len(document.Description))
	for k, v := range document.Description {
		ret.Description[k] = v
	}

	return &ret, nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored schema names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	return names, nil
}
