package serverutils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AppError is a failure with an HTTP status that services return to the
// transport layer.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func NotFound(format string, args ...any) *AppError {
	return NewAppError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

func BadRequest(format string, args ...any) *AppError {
	return NewAppError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *AppError {
	return NewAppError(http.StatusConflict, fmt.Sprintf(format, args...))
}

func BadGateway(format string, args ...any) *AppError {
	return NewAppError(http.StatusBadGateway, fmt.Sprintf(format, args...))
}

// ErrorHandlerMiddleware turns handler errors into the error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, detail := classify(err)
		return ctx.Status(code).JSON(ErrorResponse(code, detail))
	}
}

// FiberErrorHandler is installed as fiber.Config.ErrorHandler for errors
// raised outside the middleware chain (e.g. unmatched routes).
func FiberErrorHandler(ctx *fiber.Ctx, err error) error {
	code, detail := classify(err)
	return ctx.Status(code).JSON(ErrorResponse(code, detail))
}

func classify(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, validationMessage(validationErrs)
	}
	return http.StatusInternalServerError, err.Error()
}
