package webapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"fxgate/infra/cache"
)

// RatesResponse is the payload for the rates endpoint.
type RatesResponse struct {
	Base   string             `json:"base"`
	AsOf   time.Time          `json:"as_of"`
	Rates  map[string]float64 `json:"rates"`
	Source cache.Source       `json:"source"`
}

// ConvertHandler handles GET /api/convert?from=&to=&amount=.
func ConvertHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from := c.Query("from")
		to := c.Query("to")
		rawAmount := c.Query("amount")

		if from == "" || to == "" || rawAmount == "" {
			return ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid request", "from, to and amount query parameters are required")
		}

		amount, err := strconv.ParseFloat(rawAmount, 64)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid request", "amount must be a number")
		}

		result, err := deps.Conversion.Convert(c.Context(), amount, from, to)
		if err != nil {
			return errorToResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Conversion successful", result)
	}
}

// RatesHandler handles GET /api/rates/:base. It is an ops surface over the
// cache; the source field reports which tier answered.
func RatesHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		base := c.Params("base")

		snap, src, err := deps.Rates.GetRates(c.Context(), base)
		if err != nil {
			deps.Logger.Warn("Rates fetch failed", "base", base, "error", err)
			return errorToResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Rates fetched successfully", RatesResponse{
			Base:   snap.Base,
			AsOf:   snap.AsOf,
			Rates:  snap.Rates,
			Source: src,
		})
	}
}
