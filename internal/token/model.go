package token

import "time"

// Record is the carrier credential currently held by the manager.
// It is never modified after construction; refresh builds a new one.
type Record struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// Grant is what the identity provider returned for one token request.
// Lifetimes are relative to the moment the response was received.
type Grant struct {
	AccessToken     string
	RefreshToken    string
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

func newRecord(g *Grant, receivedAt time.Time) *Record {
	return &Record{
		AccessToken:   g.AccessToken,
		RefreshToken:  g.RefreshToken,
		AccessExpiry:  receivedAt.Add(g.AccessLifetime),
		RefreshExpiry: receivedAt.Add(g.RefreshLifetime),
	}
}

// usable reports whether the access token outlives now+margin.
func (r *Record) usable(now time.Time, margin time.Duration) bool {
	return r.AccessExpiry.After(now.Add(margin))
}

func (r *Record) refreshExpired(now time.Time) bool {
	return r.RefreshExpiry.Before(now)
}

// State is what GetToken will do next.
type State string

const (
	StateNoToken    State = "no_token"
	StateValid      State = "valid"
	StateNearExpiry State = "near_expiry"
	StateExpired    State = "expired"
)

// Status is a snapshot of the manager without token values.
type Status struct {
	State             State      `json:"state"`
	AccessExpiresAt   *time.Time `json:"access_expires_at,omitempty"`
	RefreshExpiresAt  *time.Time `json:"refresh_expires_at,omitempty"`
	RefreshInProgress bool       `json:"refresh_in_progress"`
}
