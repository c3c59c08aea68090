package mocks

import (
	"context"

	"github.com/Harvey-AU/todo-service/internal/todo"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of todo.Store
type MockStore struct {
	mock.Mock
}

// Create mocks inserting a todo
func (m *MockStore) Create(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(todo.Todo), args.Error(1)
}

// List mocks reading a page of todos
func (m *MockStore) List(ctx context.Context, page todo.Page) ([]todo.Todo, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]todo.Todo), args.Error(1)
}

// Update mocks replacing text and completed of a todo
func (m *MockStore) Update(ctx context.Context, id int64, text string, completed bool) (todo.Todo, error) {
	args := m.Called(ctx, id, text, completed)
	return args.Get(0).(todo.Todo), args.Error(1)
}

// Delete mocks removing a todo
func (m *MockStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Reset mocks clearing the collection
func (m *MockStore) Reset(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Count mocks the live collection size
func (m *MockStore) Count() int {
	args := m.Called()
	return args.Int(0)
}
