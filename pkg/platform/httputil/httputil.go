// Package httputil centralizes JSON envelope writing so every handler returns
// the same error shape.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sealedger/pkg/domain-errors"
)

// statusFor maps domain error codes onto HTTP statuses. Codes the transport
// does not recognize fall back to 500.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeAuthorization:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidState:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeIO, dErrors.CodeExtraction, dErrors.CodeScoring,
		dErrors.CodeCommit, dErrors.CodeQuery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Internal
// errors omit the description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Message != "" {
		body["error_description"] = de.Message
	}
	WriteJSON(w, statusFor(code), body)
}
