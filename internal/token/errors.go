package token

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoCredential means no token was ever issued, or the cache was cleared.
	ErrNoCredential = errors.New("no carrier token available, authorization required")
	// ErrRefreshTokenExpired means the refresh token is past its lifetime.
	ErrRefreshTokenExpired = errors.New("refresh token expired, re-authentication required")
	// ErrTokenRefreshFailed matches any failed refresh attempt.
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	// ErrTokenExchangeFailed matches any failed authorization-code exchange.
	ErrTokenExchangeFailed = errors.New("token generation failed")
	// ErrMissingCredentials is returned by a CredentialSource with no id or secret.
	ErrMissingCredentials = errors.New("client id and secret are required")
)

const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// ProviderError is a non-2xx answer from the identity provider.
type ProviderError struct {
	Grant      string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Grant == GrantRefreshToken {
		return fmt.Sprintf("token refresh failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("token generation failed: %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrTokenRefreshFailed) and
// errors.Is(err, ErrTokenExchangeFailed) match by grant type.
func (e *ProviderError) Is(target error) bool {
	return grantSentinel(e.Grant) == target
}

// transportError is a failure to talk to the provider at all.
type transportError struct {
	grant string
	err   error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
func (e *transportError) Is(target error) bool {
	return grantSentinel(e.grant) == target
}

func grantSentinel(grant string) error {
	if grant == GrantRefreshToken {
		return ErrTokenRefreshFailed
	}
	return ErrTokenExchangeFailed
}

// IsAuthError reports whether err belongs to the token error taxonomy.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoCredential) ||
		errors.Is(err, ErrRefreshTokenExpired) ||
		errors.Is(err, ErrTokenRefreshFailed) ||
		errors.Is(err, ErrTokenExchangeFailed)
}
