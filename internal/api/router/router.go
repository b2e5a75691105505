package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// netlifyPrefix is where the site's existing frontend posts its forms.
const netlifyPrefix = "/.netlify/functions"

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactHandler     http.Handler
	BookingHandler     http.Handler
	ChatHandler        http.Handler
	EmailTestHandler   http.Handler
	HealthHandler      http.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.HealthHandler != nil {
		r.Method(http.MethodGet, "/health", cfg.HealthHandler)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Each endpoint answers every method itself so OPTIONS and 405 replies
	// carry its own CORS headers and JSON error body.
	endpoints := []struct {
		name    string
		handler http.Handler
	}{
		{"contact", cfg.ContactHandler},
		{"booking", cfg.BookingHandler},
		{"chat", cfg.ChatHandler},
		{"email-test", cfg.EmailTestHandler},
	}
	for _, ep := range endpoints {
		if ep.handler == nil {
			continue
		}
		r.Handle("/api/"+ep.name, ep.handler)
		r.Handle(netlifyPrefix+"/"+ep.name, ep.handler)
	}

	return r
}
