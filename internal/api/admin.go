package api

import (
	"net/http"

	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/Harvey-AU/todo-service/internal/util"
	"github.com/getsentry/sentry-go"
)

// AdminReset handles the admin collection reset endpoint.
// Requires valid credentials and explicit enablement; hidden in production.
func (h *Handler) AdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r, http.MethodPost)
		return
	}

	if h.Options.Env == "production" {
		NotFound(w, r, "Not found") // Return 404 in production to hide the endpoint
		return
	}

	h.Gate.Require(auth.OpAdmin, h.resetTodos)(w, r)
}

func (h *Handler) resetTodos(w http.ResponseWriter, r *http.Request) {
	logger := loggerWithRequest(r)

	if !h.Options.AllowReset {
		Forbidden(w, r, "Reset not enabled. Set ALLOW_RESET=true to enable")
		return
	}

	removed, err := h.Store.Reset(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reset todos")
		InternalError(w, r, err)
		return
	}

	logger.Warn().
		Int("removed", removed).
		Str("client_ip", util.ClientIP(r)).
		Str("client", util.DescribeClient(r.UserAgent())).
		Msg("Todo collection reset")

	// Audit trail
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("event_type", "admin_action")
		scope.SetTag("action", "todo_reset")
		scope.SetContext("admin_action", map[string]any{
			"endpoint":   "/admin/reset",
			"removed":    removed,
			"request_id": GetRequestID(r),
		})
		sentry.CaptureMessage("Todo collection reset")
	})

	WriteNoContent(w, r)
}
