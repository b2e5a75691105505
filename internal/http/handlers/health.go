package handlers

import "net/http"

type healthResponse struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
}

// Health reports liveness and whether a mail transport was built. It answers
// 200 even when mail is unavailable.
func Health(transportReady func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "unavailable"
		if transportReady != nil && transportReady() {
			status = "ready"
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Transport: status})
	}
}
