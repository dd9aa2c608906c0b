// Package common holds the response envelope and request binding helpers
// shared by the HTTP handlers.
package common

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// Response defines the standard API response structure for success cases.
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
	Errors   any    `json:"errors,omitempty"`
}

// SuccessResponseJSON writes a success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON writes a problem+json response.
func ErrorResponseJSON(c *fiber.Ctx, status int, title string, detail any) error {
	pd := ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// DomainErrorJSON maps a service error to the right problem response. A
// validation error set is reported field-keyed with every violation.
func DomainErrorJSON(c *fiber.Ctx, title string, err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, title, verrs.ByField())
	}
	if errors.Is(err, domain.ErrNotFound) {
		return ErrorResponseJSON(c, fiber.StatusNotFound, title, err.Error())
	}
	return ErrorResponseJSON(c, fiber.StatusInternalServerError, title, err.Error())
}

// BindAndValidate parses the request body and validates it using
// go-playground/validator. On failure it writes the error response and
// returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
	}
	return &input, nil
}
