package middleware

import (
	"strings"

	"go-dashboard/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// DevUserID is the identity injected when auth is skipped.
const DevUserID = "dev-user"

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			c.Locals(utils.UserClaimsKey, devClaims())
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(authHeader[7:])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// OptionalAuthMiddleware injects user claims when the request carries a
// valid token and lets anonymous requests through untouched. The token may
// come from the Authorization header or, for websocket upgrades, the
// "token" query parameter.
func OptionalAuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			c.Locals(utils.UserClaimsKey, devClaims())
			return c.Next()
		}

		token := TokenFromRequest(c)
		if token == "" {
			return c.Next()
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

func TokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query("token")
}

// ClaimsFrom returns the claims stored by the auth middlewares, or nil for
// anonymous requests.
func ClaimsFrom(c *fiber.Ctx) *utils.UserClaims {
	claims, _ := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	return claims
}

func devClaims() *utils.UserClaims {
	return &utils.UserClaims{UserID: DevUserID, Email: "dev@localhost"}
}
