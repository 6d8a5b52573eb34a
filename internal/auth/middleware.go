package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
	"github.com/sukut-platform/go-portal/internal/web/session"
)

const (
	// TokenCookie is the cookie the SPA stores the session token under.
	TokenCookie = "portal_session"

	// sessionLocal is the fiber.Locals key the middleware stores session data under.
	sessionLocal = "session"
)

// TokenFromRequest extracts the session token from the Authorization header
// (preferred) or the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}

	return c.Cookies(TokenCookie)
}

// SessionFromCtx returns the session data placed by RequireAuth, or nil when
// the request is unauthenticated.
func SessionFromCtx(c *fiber.Ctx) *session.Data {
	data, _ := c.Locals(sessionLocal).(*session.Data)
	return data
}

// RequireAuth creates Fiber middleware that requires a valid session token.
// Invalid and expired tokens, revoked sessions and sessions whose user
// snapshot is no longer active all yield 401; none of them is an error.
func RequireAuth(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return unauthorized(c)
		}

		sessionID, err := issuer.Verify(token)
		if err != nil {
			return unauthorized(c)
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil || sessionData.User.ID == 0 {
			return unauthorized(c)
		}

		if sessionData.User.Status != models.UserStatusActive {
			return unauthorized(c)
		}

		if sessionData.Expired() {
			// storage TTL normally removes these before they are read
			_ = session.Delete(sessionID)

			return unauthorized(c)
		}

		c.Locals(sessionLocal, sessionData)

		return c.Next()
	}
}

// RequireAdmin creates Fiber middleware that requires the admin role.
// Must be registered after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData := SessionFromCtx(c)
		if sessionData == nil {
			return unauthorized(c)
		}

		if sessionData.User.Role != roles.Admin {
			log.Warn().
				Uint64("user_id", sessionData.User.ID).
				Str("path", c.Path()).
				Msg("non-admin user denied admin route")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
