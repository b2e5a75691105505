package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mulambwane/safari-forms/internal/chat"
	"github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/mulambwane/safari-forms/internal/observability/metrics"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// ChatReplier answers a visitor chat message.
type ChatReplier interface {
	Reply(ctx context.Context, message string) (chat.Reply, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler serves the website chat widget.
type ChatHandler struct {
	replier ChatReplier
	metrics *metrics.FormMetrics
	maxBody int64
	logger  *logging.Logger
}

// NewChatHandler returns the chat endpoint wrapped in its method guard.
func NewChatHandler(replier ChatReplier, m *metrics.FormMetrics, origins middleware.OriginPolicy, logger *logging.Logger) http.Handler {
	if replier == nil {
		panic("handlers: chat replier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &ChatHandler{replier: replier, metrics: m, maxBody: defaultMaxBodyBytes, logger: logger}
	return middleware.MethodGuard(origins, "Content-Type, Accept", http.MethodPost)(h)
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.replier.Reply(r.Context(), req.Message)
	switch {
	case err == nil:
		h.metrics.ObserveChatReply(reply.Source)
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
	case errors.Is(err, chat.ErrMessageRequired):
		jsonError(w, "Message is required", http.StatusBadRequest)
	case errors.Is(err, chat.ErrUnexpectedResponse):
		h.metrics.ObserveChatReply("error")
		jsonError(w, "Unexpected response format from AI", http.StatusInternalServerError)
	default:
		h.logger.Error("chat: reply failed", "error", err)
		h.metrics.ObserveChatReply("error")
		jsonError(w, "Failed to get response from AI", http.StatusBadGateway)
	}
}
