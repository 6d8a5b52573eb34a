// Package profile serves the logged-in user's own account endpoints.
package profile

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path of the profile endpoints.
	Path = handler.APIPath + "/profile"
)

// Service is the profile handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	provider  *auth.LocalProvider
	access    *access.Service
	validator *validator.Validate
}

// Handler is the profile handler.
var Handler = Service{}

// updateRequest carries the profile fields a user may change themselves.
// Role, status, grants and groups are admin-only.
type updateRequest struct {
	FirstName  string `json:"firstName"  validate:"required"`
	LastName   string `json:"lastName"   validate:"required"`
	Company    string `json:"company"`
	Department string `json:"department"`
}

// passwordRequest carries a password change.
type passwordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// Init initializes the profile handler.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	provider *auth.LocalProvider,
	issuer *auth.TokenIssuer,
	accessService *access.Service,
) {
	if app == nil || cfg == nil || provider == nil || issuer == nil || accessService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.provider = provider
	s.access = accessService
	s.validator = validator.New()

	app.Get(Path, auth.RequireAuth(issuer), s.Get)
	app.Put(Path, auth.RequireAuth(issuer), s.Update)
	app.Post(Path+"/password", auth.RequireAuth(issuer), s.ChangePassword)
}

// Get returns the caller's account with the resolved app set.
func (s *Service) Get(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	user, err := s.provider.GetUserByID(sessionData.User.ID)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	set, err := s.access.ResolveAccessibleApps(user)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to resolve accessible apps")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(handler.NewUserView(user, set.IDs(s.access.Catalog().IDs())))
}

// Update changes the caller's own profile fields.
func (s *Service) Update(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	in := new(updateRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "first and last name are required")
	}

	err := s.provider.UpdateUser(
		sessionData.User.ID,
		sessionData.User.Email,
		in.FirstName,
		in.LastName,
		in.Company,
		in.Department,
	)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to update profile")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	user, err := s.provider.GetUserByID(sessionData.User.ID)
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(handler.NewUserView(user, nil))
}

// ChangePassword verifies the old password before setting the new one.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	in := new(passwordRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "new password must be at least 8 characters")
	}

	err := s.provider.ChangePassword(sessionData.User.ID, in.OldPassword, in.NewPassword)

	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return handler.Error(c, fiber.StatusBadRequest, auth.ErrInvalidOldPassword.Error())
	case err != nil:
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to change password")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{"changed": true})
}
