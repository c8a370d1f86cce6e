package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"rateshop/internal/token"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) GetToken(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func TestCarrierAuth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail bool
	}{
		{name: "token available", wantStatus: http.StatusOK},
		{name: "no credential", err: token.ErrNoCredential, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_ERROR"},
		{name: "refresh expired", err: token.ErrRefreshTokenExpired, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_ERROR"},
		{
			name:       "refresh rejected",
			err:        &token.ProviderError{Grant: token.GrantRefreshToken, StatusCode: 401, Body: "nope"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_ERROR",
			wantDetail: true,
		},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubTokens{token: "tok", err: tt.err}
			h := CarrierAuth(src, zaptest.NewLogger(t))(okHandler)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/rates/shop", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, 1, src.calls)
			if tt.wantCode == "" {
				return
			}
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantDetail {
				details, ok := body.Details.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, float64(401), details["statusCode"])
				assert.Equal(t, "nope", details["body"])
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{name: "json post", method: http.MethodPost, contentType: "application/json", body: `{}`, want: http.StatusOK},
		{name: "wrong content type", method: http.MethodPost, contentType: "text/plain", body: `x`, want: http.StatusUnsupportedMediaType},
		{name: "empty body", method: http.MethodPost, contentType: "application/json", want: http.StatusBadRequest},
		{name: "get passes", method: http.MethodGet, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour, zaptest.NewLogger(t))
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111"))
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)
	defer rl.Stop()

	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	rl.evictIdle(time.Now().Add(2 * time.Minute))
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
	assert.True(t, rl.Allow("a"))
}

func TestMetricsMiddleware(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
