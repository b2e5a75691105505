package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// MethodGuard gives an endpoint the website's function semantics:
// OPTIONS is answered with 200 and the CORS allow headers, any method not in
// allowed gets 405 {"error":"Method not allowed"}, everything else reaches next.
func MethodGuard(policy OriginPolicy, allowHeaders string, allowed ...string) func(http.Handler) http.Handler {
	permitted := make(map[string]struct{}, len(allowed))
	for _, m := range allowed {
		permitted[m] = struct{}{}
	}
	allowMethods := strings.Join(append(append([]string{}, allowed...), http.MethodOptions), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.Apply(w, r)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			if _, ok := permitted[r.Method]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusMethodNotAllowed)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
