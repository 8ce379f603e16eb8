package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/types"
)

// ClientKey is the fiber.Ctx local holding the authenticated client name.
const ClientKey = "client"

// AuthMiddleware rejects requests without a valid bearer token. The 401 body
// uses the backend's {"detail": ...} error shape.
func AuthMiddleware(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			return unauthorized(c)
		}

		claims, err := VerifyToken(tokenString, secretKey)
		if err != nil {
			util.PrintDebug("rejected token: " + err.Error())
			return unauthorized(c)
		}

		c.Locals(ClientKey, claims.Client)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorBody{Detail: "Unauthorized"})
}
