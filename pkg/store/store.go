package store

import (
	"context"
	"sync"

	"recipe-harvest/pkg/domain"
)

// RecipeStore is the persistence contract the pipeline consumes: a
// recent-window read for corpus dedup and an idempotent upsert keyed on
// source_url.
type RecipeStore interface {
	// ListRecent returns up to limit of the most recently stored recipes,
	// newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Recipe, error)
	// Upsert inserts or replaces the recipe stored under its SourceURL.
	Upsert(ctx context.Context, recipe *domain.Recipe) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// MemoryStore is an in-process RecipeStore. It backs tests and is the
// default when no database is configured, so a harvest can still run end to
// end and report its stats.
type MemoryStore struct {
	mu      sync.RWMutex
	byURL   map[string]*domain.Recipe
	ordered []string // insertion order of source URLs, oldest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byURL: make(map[string]*domain.Recipe)}
}

// ListRecent returns up to limit recipes, newest first.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Recipe
	for i := len(s.ordered) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.byURL[s.ordered[i]])
	}
	return out, nil
}

// Upsert stores the recipe under its SourceURL, replacing any previous
// version.
func (s *MemoryStore) Upsert(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[recipe.SourceURL]; !exists {
		s.ordered = append(s.ordered, recipe.SourceURL)
	}
	s.byURL[recipe.SourceURL] = recipe
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Len reports how many distinct recipes are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byURL)
}
