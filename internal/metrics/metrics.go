package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)
	HTTPRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Identity provider
	IdentityProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_oauth_requests_total",
			Help: "Total number of carrier OAuth token requests",
		},
		[]string{"grant_type", "status"},
	)
	IdentityProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "carrier_oauth_request_duration_seconds",
			Help: "Duration of carrier OAuth token requests in seconds",
		},
		[]string{"grant_type"},
	)
	TokenRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_token_refreshes_total",
			Help: "Access token refreshes by outcome",
		},
		[]string{"result"},
	)
	TokenExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_token_exchanges_total",
			Help: "Authorization code exchanges by outcome",
		},
		[]string{"result"},
	)

	// Carrier rating API
	CarrierAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_api_requests_total",
			Help: "Total number of carrier API requests",
		},
		[]string{"endpoint", "status"},
	)
	CarrierAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "carrier_api_request_duration_seconds",
			Help: "Duration of carrier API requests in seconds",
		},
		[]string{"endpoint"},
	)
	CarrierCircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "carrier_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)
	prometheus.MustRegister(HTTPRateLimited)

	prometheus.MustRegister(IdentityProviderRequestsTotal)
	prometheus.MustRegister(IdentityProviderRequestDuration)
	prometheus.MustRegister(TokenRefreshesTotal)
	prometheus.MustRegister(TokenExchangesTotal)

	prometheus.MustRegister(CarrierAPIRequestsTotal)
	prometheus.MustRegister(CarrierAPIRequestDuration)
	prometheus.MustRegister(CarrierCircuitState)
}
