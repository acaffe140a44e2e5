package middlewares

import (
	"fmt"
	"strings"

	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const userIDLocalKey = "user_id"

// AuthMiddleware validates the Bearer session token and stores the caller's
// user ID in the request locals. Requests without a valid identity get 401
// with the unauthorized code.
func AuthMiddleware(signingSecret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c)
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(signingSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return unauthorized(c)
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return unauthorized(c)
		}

		c.Locals(userIDLocalKey, subject)

		return c.Next()
	}
}

// UserIDFromContext returns the authenticated caller's user ID, or empty
// when the request skipped the auth middleware.
func UserIDFromContext(c fiber.Ctx) string {
	userID, _ := c.Locals(userIDLocalKey).(string)
	return userID
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": domain.ErrorCode_Unauthorized,
	})
}
