package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mulambwane/safari-forms/internal/diagnostics"
	"github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// EmailChecker runs the mail transport check.
type EmailChecker interface {
	Run(ctx context.Context) (string, error)
	Credentials() diagnostics.Credentials
}

type emailTestMissing struct {
	Error string `json:"error"`
	diagnostics.Credentials
}

type emailTestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// EmailTestHandler exposes the mail diagnostic. When disabled every request
// gets 404.
type EmailTestHandler struct {
	checker EmailChecker
	enabled bool
	logger  *logging.Logger
}

// NewEmailTestHandler wraps checker behind the method guard. A nil checker
// or enabled=false yields a handler that always answers 404.
func NewEmailTestHandler(checker EmailChecker, enabled bool, origins middleware.OriginPolicy, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &EmailTestHandler{checker: checker, enabled: enabled && checker != nil, logger: logger}
	if !h.enabled {
		return h
	}
	return middleware.MethodGuard(origins, "Content-Type", http.MethodGet, http.MethodPost)(h)
}

func (h *EmailTestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	id, err := h.checker.Run(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, emailTestResponse{Success: true, Message: "Email test successful!", MessageID: id})
	case errors.Is(err, diagnostics.ErrTransportUnavailable):
		writeJSON(w, http.StatusInternalServerError, emailTestMissing{
			Error:       "Missing environment variables",
			Credentials: h.checker.Credentials(),
		})
	default:
		jsonError(w, "Email test failed: "+err.Error(), http.StatusInternalServerError)
	}
}
