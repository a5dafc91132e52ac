package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errUnprocessable returns a 422 error for requests that parse but cannot
// possibly render: bad dimensions, unknown themes, unresolvable places.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUpstream returns a 503 when a remote dependency (geocoder, Overpass)
// is unreachable. The request may succeed on retry.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "upstream_unavailable", msg)
}

// renderError maps a poster pipeline failure onto the API error taxonomy.
// Unresolvable input is the client's problem; unreachable upstreams are not.
func renderError(c *fiber.Ctx, err error) error {
	var (
		notFound *domain.NotFoundError
		viewport *domain.InvalidViewportError
		geocode  *domain.GeocodingError
		fetch    *domain.FetchError
	)
	switch {
	case errors.As(err, &notFound):
		return errUnprocessable(c, notFound.Error())
	case errors.As(err, &viewport):
		return errUnprocessable(c, viewport.Error())
	case errors.As(err, &geocode):
		return errUpstream(c, geocode.Error())
	case errors.As(err, &fetch):
		return errUpstream(c, fetch.Error())
	}
	return errInternal(c, err.Error())
}
