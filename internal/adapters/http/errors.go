package http

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// retryAfterSeconds is advertised on 503 responses caused by storage failures.
const retryAfterSeconds = 2

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`            // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"`         // Human-readable message
	Field     string `json:"field,omitempty"` // Offending input field for validation errors
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return writeAPIError(c, APIError{Status: status, Code: code, Message: message})
}

func writeAPIError(c *fiber.Ctx, e APIError) error {
	e.RequestID = requestID(c)
	return c.Status(e.Status).JSON(e)
}

func badRequest(msg string) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Code: "bad_request", Message: msg}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnavailable returns a retryable 503.
func errUnavailable(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	return newError(c, fiber.StatusServiceUnavailable, "storage_unavailable", msg)
}

// writeDomainError maps service errors onto HTTP responses.
func writeDomainError(c *fiber.Ctx, err error, notFoundMsg string) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return writeAPIError(c, APIError{
			Status:  fiber.StatusBadRequest,
			Code:    "validation_error",
			Message: ve.Error(),
			Field:   ve.Field,
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, notFoundMsg)
	case errors.Is(err, domain.ErrStorage):
		LoggerFromCtx(c.UserContext()).Error("storage failure", "path", c.Path(), "error", err)
		return errUnavailable(c, "storage temporarily unavailable, retry later")
	default:
		slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
		return errInternal(c, "internal error")
	}
}
