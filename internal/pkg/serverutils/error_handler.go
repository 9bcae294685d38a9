package serverutils

import (
	"errors"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by later handlers as a
// BaseResponse with the status mapped from the error kind.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	status, message := StatusAndMessage(err)
	return ctx.Status(status).JSON(ErrorResponse(status, message))
}

// StatusAndMessage maps an error to an HTTP status and a message that is
// safe to show a caller.
func StatusAndMessage(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return apperror.HTTPStatus(err), SafeMessage(err)
}

// SafeMessage hides the text of errors that carry no kind, since those may
// leak internals.
func SafeMessage(err error) string {
	if apperror.KindOf(err) == apperror.KindUnknown {
		return "Internal server error"
	}
	return apperror.Message(err)
}
