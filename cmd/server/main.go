package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rateshop/internal/config"
	"rateshop/internal/metrics"
	ratesservice "rateshop/internal/rates/service"
	rateshttp "rateshop/internal/rates/transport/http"
	"rateshop/internal/token"
	tokenhttp "rateshop/internal/token/transport/http"
	"rateshop/pkg/logger"
	"rateshop/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "rateshop"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	metrics.InitMetrics()

	provider := token.NewHTTPIdentityProvider(cfg.IdentityTokenURL, cfg.IdentityRefreshURL, cfg.Credentials(), cfg.IdentityTimeout)
	tokens := token.NewManager(provider,
		token.WithSafetyMargin(cfg.TokenSafetyMargin),
		token.WithLogger(log.Named("token")),
	)
	ratesClient := ratesservice.NewClient(cfg.RatesURL, cfg.TransactionSrc, cfg.RatesTimeout, tokens, log.Named("rates"))

	authHandler := tokenhttp.NewAuthHandler(tokens, log.Named("auth"))
	ratesHandler := rateshttp.NewRatesHandler(ratesClient, log.Named("rates"))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, log.Named("ratelimit"))
	defer limiter.Stop()

	r := newRouter(cfg, routes{
		auth:   authHandler,
		rates:  ratesHandler,
		tokens: tokens,
	}, limiter, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig

		log.Info("shutdown signal received", zap.String("signal", s.String()))
		shutdown(server, log)
	}()

	log.Info("server starting", zap.Int("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func shutdown(server *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
