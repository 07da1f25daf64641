package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxgate/pkg/config"
	"fxgate/pkg/domain"
)

func newTestClient(url string) *Client {
	return NewClient(
		config.UpstreamConfig{BaseURL: url},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestFetchRates_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AUD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"base": "AUD",
			"date": "2024-03-15",
			"rates": {"USD": 0.65, "eur": 0.61},
			"provider": "something-extra"
		}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).FetchRates(context.Background(), "aud")
	require.NoError(t, err)

	assert.Equal(t, "AUD", snap.Base)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), snap.AsOf)

	rate, ok := snap.Rate("usd")
	require.True(t, ok)
	assert.InEpsilon(t, 0.65, rate, 1e-9)

	// Lower-cased upstream keys are normalized.
	_, ok = snap.Rate("EUR")
	assert.True(t, ok)
}

func TestFetchRates_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"not found", http.StatusNotFound, domain.ErrCurrencyNotFound},
		{"server error", http.StatusInternalServerError, domain.ErrUpstreamTransient},
		{"bad gateway", http.StatusBadGateway, domain.ErrUpstreamTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchRates(context.Background(), "AUD")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchRates_UnexpectedStatusIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchRates(context.Background(), "AUD")
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestFetchRates_AttemptDeadlineIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).FetchRates(ctx, "AUD")
	require.ErrorIs(t, err, domain.ErrUpstreamTransient)
}

func TestFetchRates_ConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).FetchRates(context.Background(), "AUD")
	require.ErrorIs(t, err, domain.ErrUpstreamTransient)
}

func TestFetchRates_EmptyRateTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base": "XXX", "rates": {}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchRates(context.Background(), "XXX")
	require.ErrorIs(t, err, domain.ErrCurrencyNotFound)
}
