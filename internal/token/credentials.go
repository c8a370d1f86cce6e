package token

import "encoding/base64"

// CredentialSource supplies the client id/secret pair used against the
// identity provider.
type CredentialSource interface {
	ClientCredentials() (clientID, clientSecret string, err error)
}

// StaticCredentials is a CredentialSource backed by configuration values.
type StaticCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c StaticCredentials) ClientCredentials() (string, string, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", "", ErrMissingCredentials
	}
	return c.ClientID, c.ClientSecret, nil
}

func basicAuth(clientID, clientSecret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+clientSecret))
}
