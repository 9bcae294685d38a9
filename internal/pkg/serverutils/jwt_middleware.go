package serverutils

import (
	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware verifies an HS256 access token (Supabase signs user sessions
// this way) and stores its subject under "user_id".
func JwtMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(ctx *fiber.Ctx) error {
		tokenStr, ok := BearerToken(ctx)
		if !ok {
			return apperror.New(apperror.KindUnauthorized, "missing token")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			return apperror.New(apperror.KindUnauthorized, "invalid token")
		}

		subject, _ := claims.GetSubject()
		ctx.Locals("user_id", subject)
		return ctx.Next()
	}
}
