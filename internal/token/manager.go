package token

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"rateshop/internal/metrics"
)

// DefaultSafetyMargin is how long before expiry a cached access token stops
// being handed out.
const DefaultSafetyMargin = 5 * time.Minute

const refreshKey = "carrier-access-token"

// Manager owns the single carrier token of the process. It hands out the
// cached access token while it is fresh and lets exactly one caller refresh
// it when it is not; everyone else waits for that refresh.
//
// Manager is safe for concurrent use.
type Manager struct {
	provider IdentityProvider
	clock    Clock
	margin   time.Duration
	logger   *zap.Logger

	record     atomic.Pointer[Record]
	flight     singleflight.Group
	refreshing atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithSafetyMargin overrides DefaultSafetyMargin.
func WithSafetyMargin(d time.Duration) Option {
	return func(m *Manager) {
		m.margin = d
	}
}

// WithLogger sets the logger for refresh and exchange events.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func NewManager(provider IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		clock:    SystemClock{},
		margin:   DefaultSafetyMargin,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// GetToken returns an access token that is valid for at least the safety
// margin, refreshing it first when needed.
//
// A caller whose ctx ends while waiting gets ctx.Err(); the refresh keeps
// running for the remaining waiters.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rec := m.record.Load()
	if rec == nil {
		return "", ErrNoCredential
	}
	now := m.clock.Now()
	if rec.usable(now, m.margin) {
		return rec.AccessToken, nil
	}
	if rec.refreshExpired(now) {
		return "", ErrRefreshTokenExpired
	}

	refreshCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(refreshKey, func() (interface{}, error) {
		return m.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs inside the single flight. The record is checked again since
// an earlier flight or an exchange may have replaced it after the caller's
// own check.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.refreshing.Store(true)
	defer m.refreshing.Store(false)

	rec := m.record.Load()
	if rec == nil {
		return "", ErrNoCredential
	}
	now := m.clock.Now()
	if rec.usable(now, m.margin) {
		return rec.AccessToken, nil
	}
	if rec.refreshExpired(now) {
		return "", ErrRefreshTokenExpired
	}

	m.logger.Info("refreshing carrier access token",
		zap.Time("access_expiry", rec.AccessExpiry),
		zap.Time("refresh_expiry", rec.RefreshExpiry))

	grant, err := m.provider.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		m.logger.Warn("carrier token refresh failed", zap.Error(err))
		return "", err
	}
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()

	next := newRecord(grant, m.clock.Now())
	if !m.record.CompareAndSwap(rec, next) {
		// An exchange or ClearCache happened meanwhile; theirs stands.
		m.logger.Info("carrier token replaced during refresh, keeping the newer record")
	}
	if grant.AccessLifetime <= m.margin {
		m.logger.Warn("refreshed carrier token expires within the safety margin",
			zap.Duration("lifetime", grant.AccessLifetime),
			zap.Duration("margin", m.margin))
	}
	m.logger.Info("carrier access token refreshed", zap.Time("access_expiry", next.AccessExpiry))
	return next.AccessToken, nil
}

// GenerateToken exchanges a PKCE authorization code and installs the result,
// replacing whatever record is cached.
func (m *Manager) GenerateToken(ctx context.Context, code, codeVerifier, redirectURI string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	grant, err := m.provider.ExchangeCode(ctx, code, codeVerifier, redirectURI)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("failure").Inc()
		m.logger.Warn("carrier authorization code exchange failed", zap.Error(err))
		return "", err
	}
	metrics.TokenExchangesTotal.WithLabelValues("success").Inc()

	rec := newRecord(grant, m.clock.Now())
	m.record.Store(rec)
	m.logger.Info("carrier token issued",
		zap.Time("access_expiry", rec.AccessExpiry),
		zap.Time("refresh_expiry", rec.RefreshExpiry))
	return rec.AccessToken, nil
}

// ClearCache drops the cached record. GetToken fails with ErrNoCredential
// until GenerateToken succeeds again.
func (m *Manager) ClearCache() {
	m.record.Store(nil)
	m.logger.Info("carrier token cache cleared")
}

// Status reports what GetToken would do now, without network I/O.
func (m *Manager) Status() Status {
	st := Status{RefreshInProgress: m.refreshing.Load()}
	rec := m.record.Load()
	if rec == nil {
		st.State = StateNoToken
		return st
	}

	accessExpiry, refreshExpiry := rec.AccessExpiry, rec.RefreshExpiry
	st.AccessExpiresAt = &accessExpiry
	st.RefreshExpiresAt = &refreshExpiry

	now := m.clock.Now()
	switch {
	case rec.usable(now, m.margin):
		st.State = StateValid
	case rec.refreshExpired(now):
		st.State = StateExpired
	default:
		st.State = StateNearExpiry
	}
	return st
}
