package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIdLocal = "user_id"

// OptionalJwtMiddleware reads the user id from a bearer token when one is
// sent. Requests without a token pass through anonymously; a token that is
// present but invalid is rejected.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			return ctx.Next()
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || secret == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}
		if raw, ok := claims["user_id"].(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				ctx.Locals(userIdLocal, id)
			}
		}
		return ctx.Next()
	}
}

// UserId returns the authenticated user id, or nil for anonymous requests.
func UserId(ctx *fiber.Ctx) *uuid.UUID {
	if id, ok := ctx.Locals(userIdLocal).(uuid.UUID); ok {
		return &id
	}
	return nil
}
