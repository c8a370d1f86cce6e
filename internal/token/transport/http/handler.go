package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"rateshop/internal/api/dto"
	"rateshop/internal/token"
	"rateshop/pkg/middleware"
)

// Session is the part of token.Manager the auth routes drive.
type Session interface {
	GenerateToken(ctx context.Context, code, codeVerifier, redirectURI string) (string, error)
	ClearCache()
	Status() token.Status
}

type AuthHandler struct {
	Session Session
	logger  *zap.Logger
}

func NewAuthHandler(s Session, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Session: s, logger: logger}
}

type callbackResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

// Callback finishes the PKCE flow: it trades the authorization code for the
// first token pair of the process.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req dto.CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing: code, code_verifier, redirect_uri", nil)
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing: code, code_verifier, redirect_uri", dto.FieldErrors(err))
		return
	}

	accessToken, err := h.Session.GenerateToken(r.Context(), req.Code, req.CodeVerifier, req.RedirectURI)
	if err != nil {
		h.logger.Error("authorization code exchange failed", zap.Error(err))
		middleware.WriteTokenError(w, err, "Token exchange failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, callbackResponse{Success: true, AccessToken: accessToken})
}

func (h *AuthHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.Session.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.Session.Status())
}
