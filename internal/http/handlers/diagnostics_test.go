package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mulambwane/safari-forms/internal/diagnostics"
	"github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

type stubChecker struct {
	id    string
	err   error
	creds diagnostics.Credentials
}

func (s stubChecker) Run(context.Context) (string, error)  { return s.id, s.err }
func (s stubChecker) Credentials() diagnostics.Credentials { return s.creds }

func TestEmailTestHandler(t *testing.T) {
	tests := []struct {
		name     string
		checker  stubChecker
		wantCode int
		wantBody string
	}{
		{
			name:     "success",
			checker:  stubChecker{id: "<abc@example.com>"},
			wantCode: http.StatusOK,
			wantBody: `{"success":true,"message":"Email test successful!","messageId":"<abc@example.com>"}`,
		},
		{
			name:     "missing credentials",
			checker:  stubChecker{err: diagnostics.ErrTransportUnavailable, creds: diagnostics.Credentials{HasUser: true}},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Missing environment variables","hasUser":true,"hasPass":false}`,
		},
		{
			name:     "send failure",
			checker:  stubChecker{err: errors.New("535 bad credentials")},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Email test failed: 535 bad credentials"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEmailTestHandler(tt.checker, true, middleware.NewOriginPolicy(nil), nil)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/email-test", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assertCommonHeaders(t, rec)
		})
	}
}

func TestEmailTestHandler_Disabled(t *testing.T) {
	h := NewEmailTestHandler(stubChecker{id: "x"}, false, middleware.NewOriginPolicy(nil), nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/email-test", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(func() bool { return true })(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","transport":"ready"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Health(nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","transport":"unavailable"}`, rec.Body.String())
}
