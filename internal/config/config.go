package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"rateshop/internal/token"
)

type Config struct {
	Port int

	ClientID     string
	ClientSecret string

	IdentityTokenURL   string
	IdentityRefreshURL string
	IdentityTimeout    time.Duration
	TokenSafetyMargin  time.Duration

	RatesURL       string
	RatesTimeout   time.Duration
	TransactionSrc string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	LogLevel  string
	LogPretty bool

	MetricsUser     string
	MetricsPassword string

	CORSOrigins []string
}

var ErrMissingClientCredentials = errors.New("CLIENT_ID and CLIENT_SECRET must be set")

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 3000)
	v.SetDefault("idp_token_url", "https://wwwcie.ups.com/security/v1/oauth/token")
	v.SetDefault("idp_refresh_url", "https://wwwcie.ups.com/security/v1/oauth/refresh")
	v.SetDefault("idp_timeout", "30s")
	v.SetDefault("token_safety_margin", token.DefaultSafetyMargin.String())
	v.SetDefault("rates_url", "https://wwwcie.ups.com/api/rating/v2403/Shop")
	v.SetDefault("rates_timeout", "30s")
	v.SetDefault("transaction_src", "rateshop")
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", "15m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("cors_origins", "http://localhost:3000")

	// Keys without defaults must be bound explicitly for AutomaticEnv.
	for _, key := range []string{"client_id", "client_secret", "metrics_user", "metrics_password"} {
		_ = v.BindEnv(key)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetInt("port"),
		ClientID:           v.GetString("client_id"),
		ClientSecret:       v.GetString("client_secret"),
		IdentityTokenURL:   v.GetString("idp_token_url"),
		IdentityRefreshURL: v.GetString("idp_refresh_url"),
		IdentityTimeout:    v.GetDuration("idp_timeout"),
		TokenSafetyMargin:  v.GetDuration("token_safety_margin"),
		RatesURL:           v.GetString("rates_url"),
		RatesTimeout:       v.GetDuration("rates_timeout"),
		TransactionSrc:     v.GetString("transaction_src"),
		RateLimitRequests:  v.GetInt("rate_limit_requests"),
		RateLimitWindow:    v.GetDuration("rate_limit_window"),
		LogLevel:           v.GetString("log_level"),
		LogPretty:          v.GetBool("log_pretty"),
		MetricsUser:        v.GetString("metrics_user"),
		MetricsPassword:    v.GetString("metrics_password"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingClientCredentials
	}
	if cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, errors.Errorf("invalid rate limit %d per %s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	return cfg, nil
}

// Credentials is the CredentialSource for the token manager.
func (c *Config) Credentials() token.StaticCredentials {
	return token.StaticCredentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
