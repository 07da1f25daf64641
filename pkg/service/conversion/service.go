// Package conversion is the consumer-facing service: it turns a cached rate
// table into a converted amount. All the hard work happens below it; this
// layer owns only the lookup, the rounding rule, and the collapse of the
// internal error taxonomy into a single rate-unavailable condition.
package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxgate/infra/cache"
	"fxgate/pkg/domain"
)

// RateSource is the cache contract the service consumes.
type RateSource interface {
	GetRates(ctx context.Context, base string) (*domain.RateSnapshot, cache.Source, error)
}

// Result is a completed conversion.
type Result struct {
	Amount          float64      `json:"amount"`
	ConvertedAmount float64      `json:"converted_amount"`
	From            string       `json:"from"`
	To              string       `json:"to"`
	Rate            float64      `json:"rate"`
	AsOf            time.Time    `json:"as_of"`
	Source          cache.Source `json:"source"`
}

// Service converts amounts between currencies using cached rate tables.
type Service struct {
	rates  RateSource
	logger *slog.Logger
}

// New creates a conversion service on top of a rate source.
func New(rates RateSource, logger *slog.Logger) *Service {
	return &Service{rates: rates, logger: logger}
}

// Convert converts amount from one currency to another. Converted amounts
// are rounded to 2 decimal places, half away from zero. Same-currency
// conversions return the amount unchanged with rate 1 and never touch the
// cache or the upstream.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (*Result, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, amount)
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, domain.ErrInvalidCurrency
	}

	if from == to {
		return &Result{
			Amount:          amount,
			ConvertedAmount: amount,
			From:            from,
			To:              to,
			Rate:            1,
			AsOf:            time.Now().UTC(),
			Source:          cache.SourceInternal,
		}, nil
	}

	snap, src, err := s.rates.GetRates(ctx, from)
	if err != nil {
		s.logger.Warn("Rate lookup failed", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, from, to)
	}

	rate, ok := snap.Rate(to)
	if !ok {
		return nil, fmt.Errorf("%w: no %s rate in %s table", domain.ErrRateUnavailable, to, from)
	}

	// decimal.Round rounds half away from zero.
	converted, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		Float64()

	return &Result{
		Amount:          amount,
		ConvertedAmount: converted,
		From:            from,
		To:              to,
		Rate:            rate,
		AsOf:            snap.AsOf,
		Source:          src,
	}, nil
}
