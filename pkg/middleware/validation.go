package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

const maxBodySize = 1 << 20 // 1 MB

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse is the envelope every error is written in.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteError writes the JSON error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ValidateRequest rejects POST/PUT bodies that are empty or not JSON and caps
// the body size.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				WriteError(w, http.StatusUnsupportedMediaType, "INVALID_REQUEST", "Invalid Content-Type, expected application/json", nil)
				return
			}

			if r.ContentLength == 0 {
				WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body cannot be empty", nil)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}

		next.ServeHTTP(w, r)
	})
}
