package middleware

import (
	"fmt"
	"time"

	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/logger"
	"github.com/calderaweb/pressroom/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminCookie is the cookie that carries the admin session token.
const AdminCookie = "admin_token"

const tokenTTL = 7 * 24 * time.Hour

// JWTSecret derives the signing secret from the admin password, so no
// separate secret has to be provisioned.
func JWTSecret(adminPassword string) []byte {
	return utils.HashBytes("jwt-secret-salt:" + adminPassword)
}

// IssueAdminToken mints a signed admin session token.
func IssueAdminToken(secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin": true,
		"exp":   time.Now().Add(tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// VerifyAdminToken reports whether the token is a valid admin session.
func VerifyAdminToken(tokenStr string, secret []byte) bool {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	isAdmin, _ := claims["admin"].(bool)
	return isAdmin
}

// RequireAdmin guards the admin surface. It accepts either the session
// cookie set by login or an X-API-Key header for machine clients. Every
// denial looks the same to the caller.
func RequireAdmin(cfg *config.Config) fiber.Handler {
	secret := JWTSecret(cfg.AdminPassword)

	return func(c *fiber.Ctx) error {
		if apiKey := c.Get("X-API-Key"); apiKey != "" && cfg.AdminAPIKey != "" && apiKey == cfg.AdminAPIKey {
			return c.Next()
		}

		token := c.Cookies(AdminCookie)
		if token != "" && VerifyAdminToken(token, secret) {
			return c.Next()
		}

		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Msg("Unauthorized admin access attempt")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized - Admin access required",
		})
	}
}
