package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rateshop/internal/api/dto"
	"rateshop/internal/rates/service"
	"rateshop/internal/token"
	"rateshop/pkg/middleware"
)

// Shopper returns carrier rates for a validated request.
type Shopper interface {
	Shop(ctx context.Context, req *dto.RateRequest) (json.RawMessage, error)
}

type RatesHandler struct {
	Rates  Shopper
	logger *zap.Logger
}

func NewRatesHandler(rates Shopper, logger *zap.Logger) *RatesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatesHandler{Rates: rates, logger: logger}
}

func (h *RatesHandler) Shop(w http.ResponseWriter, r *http.Request) {
	var req dto.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", map[string]string{"body": err.Error()})
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", dto.FieldErrors(err))
		return
	}

	resp, err := h.Rates.Shop(r.Context(), &req)
	if err != nil {
		h.logger.Error("rate shop failed", zap.Error(err))
		if token.IsAuthError(err) {
			middleware.WriteTokenError(w, err, "Failed to get rates")
			return
		}
		details := map[string]interface{}{"message": err.Error()}
		var cerr *service.CarrierError
		if errors.As(err, &cerr) {
			details["statusCode"] = cerr.StatusCode
			details["body"] = cerr.Body
		}
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get rates", details)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}
