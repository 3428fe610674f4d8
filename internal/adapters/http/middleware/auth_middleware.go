package middleware

import (
	"errors"
	"strings"

	"payego/internal/core/services"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try Authorization header first, then the cookie
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken = utils.CopyString(c.Cookies("access_token"))
		}

		// 2. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Validate token
		claims, err := authService.Authenticate(c.Context(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, services.ErrTokenRevoked):
				return response.Unauthorized(c, "Access token revoked")
			default:
				return response.Unauthorized(c, "Invalid access token")
			}
		}

		// 4. Set user info in context
		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("token", accessToken)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := utils.CopyString(c.Get(fiber.HeaderAuthorization))
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
