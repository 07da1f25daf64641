// Package provider implements the HTTP client for the external exchange-rate
// API. It issues exactly one request per call and maps transport and status
// outcomes onto the domain error taxonomy; retries, timeouts and circuit
// breaking live in the resilience layer above it.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fxgate/pkg/config"
	"fxgate/pkg/domain"
	fxprovider "fxgate/pkg/provider"
)

// ratesAPIResponse is the upstream payload. Extra fields are ignored and
// missing fields are tolerated; only the rate table is required.
type ratesAPIResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client fetches rate tables from the upstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a rate API client. The client sets no transport-level
// timeout of its own; each attempt is bounded by the deadline on the caller's
// context.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// FetchRates issues a single GET {baseURL}/{base} request.
func (c *Client) FetchRates(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	base = strings.ToUpper(base)
	url := fmt.Sprintf("%s/%s", c.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", base, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Connection failures and attempt deadlines both land here.
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransient, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := c.checkStatus(resp, base); err != nil {
		return nil, err
	}

	var payload ratesAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamTransient, err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table for %s", domain.ErrCurrencyNotFound, base)
	}

	asOf := time.Now().UTC()
	if payload.Date != "" {
		if parsed, err := time.Parse("2006-01-02", payload.Date); err == nil {
			asOf = parsed
		}
	}
	if payload.Base != "" {
		base = payload.Base
	}

	snap, err := domain.NewRateSnapshot(base, asOf, payload.Rates)
	if err != nil {
		return nil, fmt.Errorf("upstream returned unusable rates for %s: %w", base, err)
	}

	c.logger.Debug("Fetched rates from upstream", "base", snap.Base, "count", len(snap.Rates), "as_of", snap.AsOf)
	return snap, nil
}

func (c *Client) checkStatus(resp *http.Response, base string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d for %s", domain.ErrRateLimited, resp.StatusCode, base)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, base)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d for %s", domain.ErrUpstreamTransient, resp.StatusCode, base)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned status %d for %s: %s", resp.StatusCode, base, string(body))
	}
}

var _ fxprovider.RateFetcher = (*Client)(nil)
