package api

import (
	"net/http"

	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/Harvey-AU/todo-service/internal/todo"
)

// Version is the current API version (can be set via ldflags at build time)
var Version = "0.1.0"

// ServiceName identifies the service in health responses and logs
const ServiceName = "todo-service"

// Options tune handler behaviour from configuration
type Options struct {
	Env        string
	AllowReset bool
}

// Handler holds dependencies for API handlers
type Handler struct {
	Store   todo.Store
	Gate    *auth.Gate
	Options Options
}

// NewHandler creates a new API handler with dependencies
func NewHandler(store todo.Store, gate *auth.Gate, opts Options) *Handler {
	return &Handler{
		Store:   store,
		Gate:    gate,
		Options: opts,
	}
}

// NewGate builds an auth gate whose rejections go through the API error encoder
func NewGate(cfg auth.Config) *auth.Gate {
	return auth.NewGate(auth.NewAccountAuthenticator(cfg), cfg.Required, Unauthorised)
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	// Health check (no auth required)
	mux.HandleFunc("/health", h.HealthCheck)

	// Todo collection, gated per operation
	mux.HandleFunc("/todos", h.TodosHandler)
	mux.HandleFunc("/todos/", h.TodoHandler) // For /todos/:id

	// Admin endpoints (always gated)
	mux.HandleFunc("/admin/reset", h.AdminReset)
}

// HealthCheck handles basic health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r, http.MethodGet)
		return
	}

	WriteHealthy(w, r, ServiceName, Version, h.Store.Count())
}
