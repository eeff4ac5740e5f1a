package serverutils

import (
	"errors"

	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/rag/guard"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrNotFound lets services signal a 404 without importing fiber.
var ErrNotFound = errors.New("not found")

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := mapError(err)
		return ctx.Status(code).JSON(body)
	}
}

func mapError(err error) (int, ErrorBody) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, ErrorResponse(fe.Code, fe.Message)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fiber.StatusUnprocessableEntity, ErrorResponse(fiber.StatusUnprocessableEntity, "Validation failed", validationMessages(verrs)...)
	}

	var gerr *guard.ValidationError
	if errors.As(err, &gerr) {
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, "Invalid input", gerr.Problems...)
	}

	switch {
	case errors.Is(err, executor.ErrInputRejected):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, "Invalid input")
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, "Not found")
	case errors.Is(err, executor.ErrNoAnswer):
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Could not produce an answer")
	}
	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
}
