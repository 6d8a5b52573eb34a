// Package login provides the JSON login and session-restore endpoints.
package login

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/web/handler"
	"github.com/sukut-platform/go-portal/internal/web/session"
)

const (
	// Path is the login endpoint.
	Path = handler.APIPath + "/login"

	// SessionPath is the session-restore endpoint the SPA calls on page load.
	SessionPath = handler.APIPath + "/session"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	provider  *auth.LocalProvider
	issuer    *auth.TokenIssuer
	access    *access.Service
	validator *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// request is the login form payload.
type request struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// response is returned after a successful login or session restore.
type response struct {
	Token     string           `json:"token,omitempty"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      handler.UserView `json:"user"`
}

// Init initializes the login handler.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	provider *auth.LocalProvider,
	issuer *auth.TokenIssuer,
	accessService *access.Service,
) {
	if app == nil || cfg == nil || db == nil || provider == nil || issuer == nil || accessService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.provider = provider
	s.issuer = issuer
	s.access = accessService
	s.validator = validator.New()

	app.Post(Path, s.Login)
	app.Get(SessionPath, auth.RequireAuth(issuer), s.Session)
}

// Login handles the credential check and session creation.
func (s *Service) Login(c *fiber.Ctx) error {
	in := new(request)

	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := s.provider.Authenticate(in.Email, in.Password)

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return handler.Error(c, fiber.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrUserAccountInactive), errors.Is(err, auth.ErrUserAccountPending):
		return handler.Error(c, fiber.StatusForbidden, err.Error())
	case err != nil:
		log.Error().Err(err).Str("email", in.Email).Msg("login failed")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	expiresAt := time.Now().Add(s.cfg.Webserver.Session.ExpiryTime)

	userSession := &session.Data{
		User:      *user,
		ExpiresAt: expiresAt,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	token, err := s.issuer.Issue(user, sessionID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	cookieSettings := &fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Uint64("user_id", user.ID).Str("email", user.Email).Msg("user logged in")

	return c.JSON(response{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      handler.NewUserView(user, s.accessibleApps(user)),
	})
}

// Session restores the logged-in user from a valid token, so a page reload
// does not bounce the SPA back to the login form.
func (s *Service) Session(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)
	if sessionData == nil {
		return handler.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	// Refresh the snapshot; role or grants may have changed since login.
	user, err := s.provider.GetUserByID(sessionData.User.ID)
	if err != nil || user.Status != models.UserStatusActive {
		return handler.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return c.JSON(response{
		ExpiresAt: sessionData.ExpiresAt,
		User:      handler.NewUserView(user, s.accessibleApps(user)),
	})
}

// accessibleApps resolves the user's app set for the login payload.
// Resolution failures degrade to an empty list; the SPA refetches from
// /api/apps anyway.
func (s *Service) accessibleApps(user *models.User) []string {
	set, err := s.access.ResolveAccessibleApps(user)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to resolve accessible apps")
		return []string{}
	}

	return set.IDs(s.access.Catalog().IDs())
}
