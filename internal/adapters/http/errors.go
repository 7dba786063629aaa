package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, conflict, internal_error, etc.
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
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errBadGateway returns a 502 error for a failed upstream call.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

// errUnavailable returns a 503 error for an unconfigured feature.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errFromDomain maps a service error to a response. Errors that are not
// domain sentinels came from an upstream service.
func errFromDomain(c *fiber.Ctx, err error) error {
	return errFromDomainMsg(c, err, err.Error())
}

// errFromDiscovery is errFromDomain with the discovery wording for upstream failures.
func errFromDiscovery(c *fiber.Ctx, err error) error {
	return errFromDomainMsg(c, err, domain.MsgAIError(err))
}

func errFromDomainMsg(c *fiber.Ctx, err error, upstreamMsg string) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrPOIIndex):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrRouteIncomplete), errors.Is(err, domain.ErrNoPOIs):
		return errBadRequest(c, domain.UserMessage(err))
	case errors.Is(err, domain.ErrInvalidEndpoint), errors.Is(err, domain.ErrEmptyPrompt):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrTourInactive),
		errors.Is(err, domain.ErrTourActive), errors.Is(err, domain.ErrStaleResult):
		return errConflict(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("upstream call failed", slog.String("error", err.Error()))
		return errBadGateway(c, upstreamMsg)
	}
}
