package serverutils

import (
	"crypto/subtle"
	"strings"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(ctx *fiber.Ctx) (string, bool) {
	header := ctx.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// SharedSecretMiddleware admits requests whose bearer token equals secret.
// An unset secret is a configuration error, never an open door.
func SharedSecretMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return apperror.New(apperror.KindConfiguration, "missing configuration: INGEST_SECRET")
		}
		token, ok := BearerToken(ctx)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return apperror.New(apperror.KindUnauthorized, "unauthorized")
		}
		return ctx.Next()
	}
}
