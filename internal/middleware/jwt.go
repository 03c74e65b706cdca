package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/messenger-go-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and binds the
// authenticated identity (email address and display name) to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		email := extractEmailFromClaims(claims)
		if email == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token carries no identity")
		}

		c.Locals("user_email", email)
		if name := extractNameFromClaims(claims); name != "" {
			c.Locals("user_name", name)
		}

		return c.Next()
	}
}

func extractEmailFromClaims(claims jwt.MapClaims) string {
	keys := []string{"email", "sub"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if email, ok := value.(string); ok {
				email = strings.ToLower(strings.TrimSpace(email))
				if strings.Contains(email, "@") {
					return email
				}
			}
		}
	}

	return ""
}

func extractNameFromClaims(claims jwt.MapClaims) string {
	keys := []string{"name", "display_name"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if name, ok := value.(string); ok {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					return trimmed
				}
			}
		}
	}

	return ""
}
