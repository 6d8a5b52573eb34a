// Package logout revokes the session behind the caller's token.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/web/handler"
	"github.com/sukut-platform/go-portal/internal/web/session"
)

const (
	// Path is the logout endpoint.
	Path = handler.APIPath + "/logout"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	issuer *auth.TokenIssuer
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, issuer *auth.TokenIssuer) {
	if app == nil || cfg == nil || issuer == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.issuer = issuer

	app.Post(Path, s.Logout)
}

// Logout deletes the server-side session record, so the token is dead even
// before its embedded expiry passes. Unauthenticated calls still succeed.
func (s *Service) Logout(c *fiber.Ctx) error {
	if token := auth.TokenFromRequest(c); token != "" {
		if sessionID, err := s.issuer.Verify(token); err == nil {
			if err := session.Delete(sessionID); err != nil {
				log.Error().Err(err).Msg("failed to delete session")
			}
		}
	}

	// Clear the token cookie
	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		MaxAge:   -1,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"loggedOut": true})
}
