// Package todo holds the Todo entity and the collection that owns it.
package todo

import (
	"context"
	"errors"
)

// MaxTextLength is the longest accepted todo text, in characters. Text is never empty.
const MaxTextLength = 255

// Store errors
var (
	ErrNotFound = errors.New("todo not found")
	ErrConflict = errors.New("todo with this id already exists")
)

// Todo is the single managed entity.
type Todo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Page selects a window of the insertion-ordered collection.
// A zero or negative Limit means no cap.
type Page struct {
	Offset int
	Limit  int
}

// Store defines the collection operations used by the API layer
type Store interface {
	Create(ctx context.Context, t Todo) (Todo, error)
	List(ctx context.Context, page Page) ([]Todo, error)
	Update(ctx context.Context, id int64, text string, completed bool) (Todo, error)
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) (int, error)
	Count() int
}
