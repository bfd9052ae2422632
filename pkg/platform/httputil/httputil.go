// Package httputil holds small JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes `{"error": code, "error_description": description}`.
// The description is omitted for 5xx responses so internals do not leak.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if status < http.StatusInternalServerError && description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}
