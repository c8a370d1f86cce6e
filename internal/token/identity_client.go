package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"rateshop/internal/metrics"
)

// IdentityProvider mints carrier tokens.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*Grant, error)
	Refresh(ctx context.Context, refreshToken string) (*Grant, error)
}

// HTTPIdentityProvider talks to the carrier OAuth endpoints.
type HTTPIdentityProvider struct {
	TokenURL    string
	RefreshURL  string
	Credentials CredentialSource
	HTTPClient  *http.Client
}

func NewHTTPIdentityProvider(tokenURL, refreshURL string, creds CredentialSource, timeout time.Duration) *HTTPIdentityProvider {
	return &HTTPIdentityProvider{
		TokenURL:    tokenURL,
		RefreshURL:  refreshURL,
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// tokenResponse is the provider payload. The carrier sends lifetimes as
// strings ("14399"); plain numbers are accepted too.
type tokenResponse struct {
	AccessToken           string  `json:"access_token"`
	RefreshToken          string  `json:"refresh_token"`
	ExpiresIn             seconds `json:"expires_in"`
	RefreshTokenExpiresIn seconds `json:"refresh_token_expires_in"`
	TokenType             string  `json:"token_type"`
	Status                string  `json:"status"`
}

type seconds int64

func (s *seconds) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid lifetime %q", raw)
	}
	*s = seconds(n)
	return nil
}

func (s seconds) duration() time.Duration {
	return time.Duration(s) * time.Second
}

func (p *HTTPIdentityProvider) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*Grant, error) {
	form := url.Values{}
	form.Set("grant_type", GrantAuthorizationCode)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", codeVerifier)
	return p.requestToken(ctx, GrantAuthorizationCode, p.TokenURL, form)
}

func (p *HTTPIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	form := url.Values{}
	form.Set("grant_type", GrantRefreshToken)
	form.Set("refresh_token", refreshToken)
	return p.requestToken(ctx, GrantRefreshToken, p.RefreshURL, form)
}

func (p *HTTPIdentityProvider) requestToken(ctx context.Context, grant, endpoint string, form url.Values) (*Grant, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.IdentityProviderRequestsTotal.WithLabelValues(grant, status).Inc()
		metrics.IdentityProviderRequestDuration.WithLabelValues(grant).Observe(time.Since(start).Seconds())
	}()

	clientID, clientSecret, err := p.Credentials.ClientCredentials()
	if err != nil {
		return nil, &transportError{grant: grant, err: err}
	}
	if grant == GrantAuthorizationCode {
		form.Set("client_id", clientID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &transportError{grant: grant, err: errors.Wrap(err, "failed to create token request")}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", basicAuth(clientID, clientSecret))

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &transportError{grant: grant, err: errors.Wrap(err, "token request failed")}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{grant: grant, err: errors.Wrap(err, "failed to read token response")}
	}
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Grant: grant, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &transportError{grant: grant, err: errors.Wrap(err, "failed to decode token response")}
	}
	if tr.AccessToken == "" {
		return nil, &transportError{grant: grant, err: errors.New("token response has no access_token")}
	}

	return &Grant{
		AccessToken:     tr.AccessToken,
		RefreshToken:    tr.RefreshToken,
		AccessLifetime:  tr.ExpiresIn.duration(),
		RefreshLifetime: tr.RefreshTokenExpiresIn.duration(),
	}, nil
}
