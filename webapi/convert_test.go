package webapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxgate/infra/cache"
	"fxgate/pkg/domain"
	"fxgate/pkg/provider"
	"fxgate/pkg/service/conversion"
)

func testApp(t *testing.T, fetch provider.FetchFunc) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rates := cache.New(cache.NewMemoryStore(), cache.NewMemoryStore(), fetch, time.Minute, 2*time.Minute, logger)
	return SetupApp(Deps{
		Conversion: conversion.New(rates, logger),
		Rates:      rates,
		Logger:     logger,
	})
}

func happyFetch(t *testing.T) provider.FetchFunc {
	t.Helper()
	return func(ctx context.Context, base string) (*domain.RateSnapshot, error) {
		return domain.NewRateSnapshot(base, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), map[string]float64{
			"USD": 0.65,
			"EUR": 0.61,
		})
	}
}

func doRequest(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestConvertEndpoint_Success(t *testing.T) {
	app := testApp(t, happyFetch(t))

	resp, body := doRequest(t, app, "/api/convert?from=AUD&to=USD&amount=10.123")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.InEpsilon(t, 6.58, data["converted_amount"], 1e-9)
	assert.InEpsilon(t, 0.65, data["rate"], 1e-9)
	assert.Equal(t, "upstream", data["source"])
}

func TestConvertEndpoint_MissingParams(t *testing.T) {
	app := testApp(t, happyFetch(t))

	resp, body := doRequest(t, app, "/api/convert?from=AUD&amount=10")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request", body["title"])
}

func TestConvertEndpoint_BadAmount(t *testing.T) {
	app := testApp(t, happyFetch(t))

	resp, _ := doRequest(t, app, "/api/convert?from=AUD&to=USD&amount=ten")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvertEndpoint_UpstreamDownIsGeneric503(t *testing.T) {
	app := testApp(t, func(ctx context.Context, base string) (*domain.RateSnapshot, error) {
		return nil, domain.ErrCircuitOpen
	})

	resp, body := doRequest(t, app, "/api/convert?from=AUD&to=USD&amount=10")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Exchange rate temporarily unavailable", body["title"])
	assert.NotContains(t, body["detail"], "circuit", "breaker internals must not leak")
}

func TestRatesEndpoint_ReportsServingTier(t *testing.T) {
	app := testApp(t, happyFetch(t))

	resp, body := doRequest(t, app, "/api/rates/AUD")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "upstream", data["source"])

	_, body = doRequest(t, app, "/api/rates/AUD")
	data = body["data"].(map[string]any)
	assert.Equal(t, "local", data["source"])
}

func TestRatesEndpoint_UnknownCurrency(t *testing.T) {
	app := testApp(t, func(ctx context.Context, base string) (*domain.RateSnapshot, error) {
		return nil, domain.ErrCurrencyNotFound
	})

	resp, _ := doRequest(t, app, "/api/rates/XXX")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp(t, happyFetch(t))

	resp, body := doRequest(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
