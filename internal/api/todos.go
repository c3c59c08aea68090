package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/Harvey-AU/todo-service/internal/observability"
	"github.com/Harvey-AU/todo-service/internal/todo"
	"github.com/Harvey-AU/todo-service/internal/validate"
)

// maxBodyBytes caps create/update request bodies
const maxBodyBytes = 1 << 20

// Operation outcomes recorded in metrics
const (
	outcomeOK           = "ok"
	outcomeCreated      = "created"
	outcomeInvalidInput = "invalid_input"
	outcomeConflict     = "conflict"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

// TodosHandler handles requests to /todos
func (h *Handler) TodosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Gate.Require(auth.OpList, h.listTodos)(w, r)
	case http.MethodPost:
		h.Gate.Require(auth.OpCreate, h.createTodo)(w, r)
	default:
		MethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// TodoHandler handles requests to /todos/:id
func (h *Handler) TodoHandler(w http.ResponseWriter, r *http.Request) {
	segment := strings.TrimPrefix(r.URL.Path, "/todos/")

	switch r.Method {
	case http.MethodPut:
		h.Gate.Require(auth.OpUpdate, func(w http.ResponseWriter, r *http.Request) {
			h.updateTodo(w, r, segment)
		})(w, r)
	case http.MethodDelete:
		h.Gate.Require(auth.OpDelete, func(w http.ResponseWriter, r *http.Request) {
			h.deleteTodo(w, r, segment)
		})(w, r)
	default:
		MethodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

// createTodo handles POST /todos
func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	ctx, finish := h.startOperation(r.Context(), "create")
	logger := loggerWithRequest(r)

	t, err := validate.TodoBody(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		finish(outcomeInvalidInput)
		ValidationError(w, r, err)
		return
	}

	created, err := h.Store.Create(ctx, t)
	if err != nil {
		if errors.Is(err, todo.ErrConflict) {
			finish(outcomeConflict)
			Conflict(w, r, "Todo with this id already exists")
			return
		}
		finish(outcomeError)
		logger.Error().Err(err).Int64("todo_id", t.ID).Msg("Failed to create todo")
		InternalError(w, r, err)
		return
	}

	finish(outcomeCreated)
	logger.Info().Int64("todo_id", created.ID).Msg("Todo created")
	WriteCreated(w, r, created)
}

// listTodos handles GET /todos
func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	ctx, finish := h.startOperation(r.Context(), "list")
	logger := loggerWithRequest(r)

	page, err := validate.Pagination(r.URL.Query())
	if err != nil {
		finish(outcomeInvalidInput)
		ValidationError(w, r, err)
		return
	}

	todos, err := h.Store.List(ctx, page)
	if err != nil {
		finish(outcomeError)
		logger.Error().Err(err).Msg("Failed to list todos")
		InternalError(w, r, err)
		return
	}

	finish(outcomeOK)
	WriteOK(w, r, todos)
}

// updateTodo handles PUT /todos/:id
func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request, segment string) {
	ctx, finish := h.startOperation(r.Context(), "update")
	logger := loggerWithRequest(r)

	t, err := validate.TodoBody(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		finish(outcomeInvalidInput)
		ValidationError(w, r, err)
		return
	}

	id, ok := validate.PathID(segment)
	if !ok {
		finish(outcomeNotFound)
		NotFound(w, r, "Todo not found")
		return
	}

	if t.ID != id {
		finish(outcomeInvalidInput)
		ValidationError(w, r, &validate.Error{Field: "id", Message: "does not match the todo being updated"})
		return
	}

	updated, err := h.Store.Update(ctx, id, t.Text, t.Completed)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			finish(outcomeNotFound)
			NotFound(w, r, "Todo not found")
			return
		}
		finish(outcomeError)
		logger.Error().Err(err).Int64("todo_id", id).Msg("Failed to update todo")
		InternalError(w, r, err)
		return
	}

	finish(outcomeOK)
	logger.Info().Int64("todo_id", id).Msg("Todo updated")
	WriteOK(w, r, updated)
}

// deleteTodo handles DELETE /todos/:id
func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request, segment string) {
	ctx, finish := h.startOperation(r.Context(), "delete")
	logger := loggerWithRequest(r)

	id, ok := validate.PathID(segment)
	if !ok {
		finish(outcomeNotFound)
		NotFound(w, r, "Todo not found")
		return
	}

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			finish(outcomeNotFound)
			NotFound(w, r, "Todo not found")
			return
		}
		finish(outcomeError)
		logger.Error().Err(err).Int64("todo_id", id).Msg("Failed to delete todo")
		InternalError(w, r, err)
		return
	}

	finish(outcomeOK)
	logger.Info().Int64("todo_id", id).Msg("Todo deleted")
	WriteNoContent(w, r)
}

// startOperation opens a span for op and returns a func that records its outcome
func (h *Handler) startOperation(ctx context.Context, op string) (context.Context, func(outcome string)) {
	start := time.Now()
	ctx, span := observability.StartOperationSpan(ctx, op)

	return ctx, func(outcome string) {
		observability.RecordOperation(ctx, observability.OperationMetrics{
			Operation: op,
			Outcome:   outcome,
			Duration:  time.Since(start),
		})
		span.End()
	}
}
