// Package web holds the small JSON request/response helpers shared by all
// HTTP handlers.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// Msg writes a JSON error envelope of the form {"msg": ...}.
func Msg(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"msg": msg})
}

// Decode decodes a JSON request body into the given target.
func Decode(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
