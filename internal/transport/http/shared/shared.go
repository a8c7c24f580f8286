// Package shared holds the JSON helpers used by every HTTP handler so error
// envelopes and encoding stay consistent across the API.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "bloodline/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are swallowed;
// the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. The
// error field carries the machine-readable code; message is for humans.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		body["message"] = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Decode parses the request body into v, returning a coded error on
// malformed input.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
