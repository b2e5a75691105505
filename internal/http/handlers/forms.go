package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mulambwane/safari-forms/internal/forms"
	"github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/mulambwane/safari-forms/internal/notify"
	"github.com/mulambwane/safari-forms/internal/observability/metrics"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

const defaultMaxBodyBytes = 64 << 10

// FormDispatcher sends the emails for a validated submission.
type FormDispatcher interface {
	Dispatch(ctx context.Context, sub *forms.Normalized) notify.Outcome
}

type formText struct {
	success       string
	failurePrefix string
}

var formTexts = map[forms.Kind]formText{
	forms.Contact: {
		success:       "Thank you! Your message has been sent successfully. Check your email for confirmation.",
		failurePrefix: "Failed to send message: ",
	},
	forms.Booking: {
		success:       "Booking request sent successfully! We will contact you within 24 hours. Check your email for confirmation.",
		failurePrefix: "Failed to send booking request: ",
	},
}

type formResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FormHandler accepts one kind of website form submission.
type FormHandler struct {
	kind       forms.Kind
	dispatcher FormDispatcher
	metrics    *metrics.FormMetrics
	maxBody    int64
	origins    middleware.OriginPolicy
	logger     *logging.Logger
}

// FormHandlerOption customizes a FormHandler.
type FormHandlerOption func(*FormHandler)

// WithFormMetrics records submission results and dispatch latency on m.
func WithFormMetrics(m *metrics.FormMetrics) FormHandlerOption {
	return func(h *FormHandler) { h.metrics = m }
}

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) FormHandlerOption {
	return func(h *FormHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithOriginPolicy replaces the default "*" allow-origin policy.
func WithOriginPolicy(p middleware.OriginPolicy) FormHandlerOption {
	return func(h *FormHandler) { h.origins = p }
}

// NewFormHandler returns the endpoint for kind, including its OPTIONS and
// method handling.
func NewFormHandler(kind forms.Kind, dispatcher FormDispatcher, logger *logging.Logger, opts ...FormHandlerOption) http.Handler {
	if dispatcher == nil {
		panic("handlers: form dispatcher cannot be nil")
	}
	if !kind.Valid() {
		panic("handlers: unknown form kind " + string(kind))
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &FormHandler{
		kind:       kind,
		dispatcher: dispatcher,
		maxBody:    defaultMaxBodyBytes,
		origins:    middleware.NewOriginPolicy(nil),
		logger:     logger.With("kind", string(kind)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return middleware.MethodGuard(h.origins, "Content-Type", http.MethodPost)(h)
}

func (h *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := string(h.kind)
	text := formTexts[h.kind]

	raw, err := forms.Decode(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.logger.Warn("form: invalid request body", "error", err)
		h.metrics.ObserveSubmission(kind, "bad_request")
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := forms.Validate(h.kind, raw)
	if !result.Valid() {
		h.logger.Info("form: validation failed", "reasons", result.Message())
		h.metrics.ObserveSubmission(kind, "invalid")
		jsonError(w, result.Message(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	outcome := h.dispatcher.Dispatch(r.Context(), result.Submission)
	h.metrics.ObserveDispatchLatency(kind, time.Since(start).Seconds())

	switch outcome.Status {
	case notify.StatusSent:
		h.metrics.ObserveSubmission(kind, "sent")
		writeJSON(w, http.StatusOK, formResponse{Success: true, Message: text.success})
	case notify.StatusTransportUnavailable:
		h.logger.Error("form: mail transport unavailable", "reason", outcome.Reason)
		h.metrics.ObserveSubmission(kind, "unavailable")
		jsonError(w, "Server configuration error", http.StatusInternalServerError)
	default:
		h.logger.Error("form: dispatch failed", "cause", outcome.Cause())
		h.metrics.ObserveSubmission(kind, "failed")
		jsonError(w, text.failurePrefix+outcome.Cause(), http.StatusInternalServerError)
	}
}
