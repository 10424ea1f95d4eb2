package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"interview/app/middleware"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	var missing middleware.SessionNotFoundError
	if errors.As(err, &missing) {
		err = ErrNotFound(missing.ID, "session")
	}

	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	apiErr = NewError(code, err.Error())
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "code", code, "error", err)
	} else {
		slog.Debug("request rejected", "method", c.Method(), "path", c.Path(), "code", code, "error", err)
	}
	return c.Status(code).JSON(apiErr)
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid form request",
	}
}

func ErrMissingFile(field string) Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: fmt.Sprintf("multipart file %q is required", field),
	}
}

func ErrUnsupportedFile(ext string) Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: fmt.Sprintf("unsupported file type %q", ext),
	}
}

func ErrJobInfoNotSet() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "Job info not set. Please use /start-interview first.",
	}
}

func ErrNoQuestions() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "No questions generated yet.",
	}
}

func ErrInvalidQuestionID() Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: "Invalid question ID",
	}
}

func ErrReportFailed() Error {
	return Error{
		Code:    fiber.StatusInternalServerError,
		Message: "Failed to generate report",
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}

func ErrUnavailable(msg string) Error {
	return Error{
		Code:    fiber.StatusServiceUnavailable,
		Message: msg,
	}
}
