package handlers

import "net/http"

type healthBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health is the liveness probe. It reports nothing about scenario state; a
// missing or empty database only surfaces on the simulation endpoints.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, healthBody{Status: "ok", Service: "fleet-dispatch"})
}
