// Package bulk exposes the multi-user operation endpoint of the admin console.
package bulk

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
	// Path is the bulk-operation endpoint.
	Path = handler.APIPath + "/admin/bulk"
)

// Service is the bulk-operation handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	access    *access.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// request is one bulk operation over a set of user IDs.
type request struct {
	Type    string             `json:"type"    validate:"required"`
	UserIDs []uint64           `json:"userIds" validate:"required,min=1"`
	Payload access.BulkPayload `json:"payload"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, issuer *auth.TokenIssuer, accessService *access.Service) {
	if app == nil || cfg == nil || issuer == nil || accessService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.access = accessService
	s.validator = validator.New()

	app.Post(Path, auth.RequireAuth(issuer), auth.RequireAdmin(), s.Apply)
}

// Apply runs one operation across the selected users. Individual failures
// are skipped, not fatal; the summary reports both counts and a single
// aggregate audit entry is written.
func (s *Service) Apply(c *fiber.Ctx) error {
	in := new(request)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "type and at least one user ID are required")
	}

	op := access.BulkOperation{
		Type:    access.BulkType(in.Type),
		UserIDs: in.UserIDs,
		Payload: in.Payload,
	}

	summary, err := s.access.ApplyBulk(auth.SessionFromCtx(c).User.Email, op)

	switch {
	case errors.Is(err, access.ErrUnknownBulkType):
		return handler.Error(c, fiber.StatusBadRequest, "unknown bulk operation type: "+in.Type)
	case errors.Is(err, access.ErrEmptyChange),
		errors.Is(err, access.ErrUnknownRole),
		errors.Is(err, access.ErrUnknownStatus):
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		log.Error().Err(err).Str("type", in.Type).Msg("bulk operation failed")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(summary)
}
