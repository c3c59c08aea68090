package todo

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a concurrent-safe, insertion-ordered in-memory collection of todos.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[int64]*Todo
	order []int64
}

// NewMemoryStore creates and returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]*Todo),
	}
}

// Create inserts t at the end of the collection.
// It returns ErrConflict if a todo with the same id is already stored.
func (s *MemoryStore) Create(ctx context.Context, t Todo) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[t.ID]; exists {
		return Todo{}, fmt.Errorf("create todo %d: %w", t.ID, ErrConflict)
	}

	stored := t
	s.items[t.ID] = &stored
	s.order = append(s.order, t.ID)
	return stored, nil
}

// List returns copies of the todos inside page, in insertion order.
// An offset past the end yields an empty, non-nil slice.
func (s *MemoryStore) List(ctx context.Context, page Page) ([]Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := min(max(page.Offset, 0), len(s.order))
	end := len(s.order)
	if page.Limit > 0 && page.Limit < end-start {
		end = start + page.Limit
	}

	todos := make([]Todo, 0, end-start)
	for _, id := range s.order[start:end] {
		todos = append(todos, *s.items[id])
	}
	return todos, nil
}

// Update replaces text and completed of the todo with the given id.
// The id itself never changes.
func (s *MemoryStore) Update(ctx context.Context, id int64, text string, completed bool) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.items[id]
	if !found {
		return Todo{}, fmt.Errorf("update todo %d: %w", id, ErrNotFound)
	}

	item.Text = text
	item.Completed = completed
	return *item, nil
}

// Delete removes the todo with the given id.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.items[id]; !found {
		return fmt.Errorf("delete todo %d: %w", id, ErrNotFound)
	}

	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Reset removes every todo and reports how many were dropped.
func (s *MemoryStore) Reset(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.order)
	s.items = make(map[int64]*Todo)
	s.order = nil
	return removed, nil
}

// Count returns the number of live todos.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
