package middleware

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rateshop/internal/token"
)

// TokenSource hands out the carrier bearer token.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// CarrierAuth rejects requests while no usable carrier token exists, so
// routes behind it only run when an outbound call can be authenticated.
func CarrierAuth(tokens TokenSource, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := tokens.GetToken(r.Context()); err != nil {
				logger.Warn("carrier token unavailable", zap.String("path", r.URL.Path), zap.Error(err))
				WriteTokenError(w, err, "Authentication middleware failed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteTokenError maps token errors to 401 AUTH_ERROR and anything else to
// 500 INTERNAL_ERROR with fallback as the message.
func WriteTokenError(w http.ResponseWriter, err error, fallback string) {
	if !token.IsAuthError(err) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, nil)
		return
	}

	var details interface{}
	var perr *token.ProviderError
	if errors.As(err, &perr) {
		details = map[string]interface{}{
			"statusCode": perr.StatusCode,
			"body":       perr.Body,
		}
	}
	WriteError(w, http.StatusUnauthorized, "AUTH_ERROR", err.Error(), details)
}
