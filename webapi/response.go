package webapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fxgate/pkg/domain"
)

// Response is the standard envelope for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON writes an RFC 9457 problem response.
func ErrorResponseJSON(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	})
}

// errorToResponse maps service errors onto HTTP responses. Everything that
// went wrong upstream collapses into one generic "temporarily unavailable"
// answer; retry counts and breaker state stay internal.
func errorToResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency):
		return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrCurrencyNotFound):
		return ErrorResponseJSON(c, fiber.StatusNotFound, "Unknown currency", err.Error())
	case errors.Is(err, domain.ErrRateUnavailable),
		errors.Is(err, domain.ErrCircuitOpen),
		errors.Is(err, domain.ErrUpstreamTransient),
		errors.Is(err, domain.ErrRateLimited):
		return ErrorResponseJSON(c, fiber.StatusServiceUnavailable,
			"Exchange rate temporarily unavailable",
			"Please retry later")
	default:
		return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Internal server error", "")
	}
}
