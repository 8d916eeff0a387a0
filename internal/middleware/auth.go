package middleware

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/agentdeck/internal/logger"
)

// TokenCookie is the cookie the auth middleware accepts in place of an
// Authorization header, for browser websocket clients.
const TokenCookie = "agentdeck_token"

// AuthMiddleware checks a static bearer token.
type AuthMiddleware struct {
	mu    sync.RWMutex
	token []byte
	open  map[string]bool
}

// NewAuthMiddleware returns nil when token is empty; a nil middleware
// lets every request through.
func NewAuthMiddleware(token string) *AuthMiddleware {
	if token == "" {
		return nil
	}
	return &AuthMiddleware{
		token: []byte(token),
		open:  map[string]bool{"/health": true},
	}
}

// RequireAuth rejects requests without the configured token with 401.
func (am *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	if am == nil {
		return c.Next()
	}
	if am.open[c.Path()] {
		return c.Next()
	}

	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}
	if !am.Valid(token) {
		logger.Debugf("Auth failed for %s %s from %s", c.Method(), c.Path(), c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid token",
		})
	}
	return c.Next()
}

// Valid compares token against the configured one in constant time.
func (am *AuthMiddleware) Valid(token string) bool {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return subtle.ConstantTimeCompare([]byte(token), am.token) == 1
}

// SetToken rotates the accepted token. An empty token is ignored: auth
// cannot be switched off on a running server.
func (am *AuthMiddleware) SetToken(token string) bool {
	if am == nil || token == "" {
		return false
	}
	am.mu.Lock()
	am.token = []byte(token)
	am.mu.Unlock()
	return true
}

// extractToken tries the Authorization header, then the cookie, then the
// token query parameter used by websocket clients that cannot set headers.
func extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie := c.Cookies(TokenCookie); cookie != "" {
		return cookie
	}
	return c.Query("token")
}
