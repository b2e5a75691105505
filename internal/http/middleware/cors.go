package middleware

import (
	"net/http"
	"strings"
)

// OriginPolicy decides the Access-Control-Allow-Origin value for a request.
// A "*" entry makes every response carry a literal "*".
type OriginPolicy struct {
	allowAny bool
	allow    map[string]struct{}
}

// NewOriginPolicy builds a policy from an allowlist. An empty list allows any origin.
func NewOriginPolicy(allowedOrigins []string) OriginPolicy {
	p := OriginPolicy{allow: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			p.allowAny = true
			continue
		}
		p.allow[origin] = struct{}{}
	}
	if len(p.allow) == 0 {
		p.allowAny = true
	}
	return p
}

// Apply sets the allow-origin header unless an earlier layer already did.
func (p OriginPolicy) Apply(w http.ResponseWriter, r *http.Request) {
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		return
	}
	if p.allowAny {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		return
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if _, ok := p.allow[origin]; ok && origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
}

// CORS applies the origin policy to every response. Preflight requests are
// answered by each endpoint's MethodGuard, which knows its own headers.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := NewOriginPolicy(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.Apply(w, r)
			next.ServeHTTP(w, r)
		})
	}
}
