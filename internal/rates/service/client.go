package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"rateshop/internal/api/dto"
	"rateshop/internal/metrics"
)

const endpointShop = "shop"

// TokenSource hands out the carrier bearer token for one outbound call.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// CarrierError is a non-2xx answer from the rating API.
type CarrierError struct {
	StatusCode int
	Body       string
}

func (e *CarrierError) Error() string {
	return fmt.Sprintf("carrier API error: %d", e.StatusCode)
}

// Client calls the carrier rating API.
type Client struct {
	URL            string
	TransactionSrc string
	HTTPClient     *http.Client

	tokens TokenSource
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewClient(url, transactionSrc string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		URL:            url,
		TransactionSrc: transactionSrc,
		HTTPClient:     &http.Client{Timeout: timeout},
		tokens:         tokens,
		logger:         logger,
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "carrier-rating",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// 4xx answers count as successes.
		IsSuccessful: func(err error) bool {
			var cerr *CarrierError
			if errors.As(err, &cerr) {
				return cerr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CarrierCircuitState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return c
}

// Shop asks the carrier for rates across its services and returns the
// carrier's JSON unchanged.
func (c *Client) Shop(ctx context.Context, req *dto.RateRequest) (json.RawMessage, error) {
	// Token errors are returned before the breaker so they never trip it.
	bearer, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rate request")
	}

	start := time.Now()
	status := "error"
	result, err := c.cb.Execute(func() (interface{}, error) {
		body, code, err := c.doRequest(ctx, bearer, payload)
		if code != 0 {
			status = strconv.Itoa(code)
		}
		return body, err
	})
	metrics.CarrierAPIRequestsTotal.WithLabelValues(endpointShop, status).Inc()
	metrics.CarrierAPIRequestDuration.WithLabelValues(endpointShop).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("carrier rate request failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return nil, err
	}
	return result.(json.RawMessage), nil
}

func (c *Client) doRequest(ctx context.Context, bearer string, payload []byte) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("transId", uuid.NewString())
	req.Header.Set("transactionSrc", c.TransactionSrc)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &CarrierError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, resp.StatusCode, errors.New("carrier returned invalid JSON")
	}

	return json.RawMessage(body), resp.StatusCode, nil
}
