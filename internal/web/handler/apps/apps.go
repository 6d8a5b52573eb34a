// Package apps serves the application catalog and the launch gate.
package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path of the catalog endpoints.
	Path = handler.APIPath + "/apps"
)

// Service is the catalog handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	access *access.Service
}

// Handler is the catalog handler.
var Handler = Service{}

// appView is one catalog entry as the dashboard renders it. Accessible is
// resolved per caller; locked entries stay visible but cannot be launched.
type appView struct {
	catalog.App
	Accessible bool `json:"accessible"`
}

// Init initializes the catalog handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, issuer *auth.TokenIssuer, accessService *access.Service) {
	if app == nil || cfg == nil || issuer == nil || accessService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.access = accessService

	app.Get(Path, auth.RequireAuth(issuer), s.List)
	app.Get(Path+"/:id", auth.RequireAuth(issuer), s.Get)
	app.Post(Path+"/:id/launch", auth.RequireAuth(issuer), s.Launch)
}

// List returns every catalog entry with the caller's access resolved.
func (s *Service) List(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	set, err := s.access.ResolveAccessibleApps(&sessionData.User)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to resolve accessible apps")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	all := s.access.Catalog().All()
	views := make([]appView, 0, len(all))

	for _, entry := range all {
		views = append(views, appView{
			App:        entry,
			Accessible: set.Contains(entry.ID, s.access.Catalog().Has),
		})
	}

	return c.JSON(fiber.Map{
		"apps":       views,
		"accessible": set.IDs(s.access.Catalog().IDs()),
	})
}

// Get returns a single catalog entry.
func (s *Service) Get(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	entry, ok := s.access.Catalog().Get(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusNotFound, "unknown application")
	}

	accessible, err := s.access.CanAccessApp(&sessionData.User, entry.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to resolve app access")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(appView{App: entry, Accessible: accessible})
}

// Launch gates opening an application. Unknown apps 404, apps the caller
// lacks 403, and non-active apps 409 regardless of access.
func (s *Service) Launch(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	entry, ok := s.access.Catalog().Get(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusNotFound, "unknown application")
	}

	accessible, err := s.access.CanAccessApp(&sessionData.User, entry.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Msg("failed to resolve app access")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	if !accessible {
		log.Warn().
			Uint64("user_id", sessionData.User.ID).
			Str("app", entry.ID).
			Msg("launch denied")

		return handler.Error(c, fiber.StatusForbidden, "you do not have access to this application")
	}

	switch entry.Status {
	case catalog.StatusComingSoon:
		return handler.Error(c, fiber.StatusConflict, "this application is coming soon")
	case catalog.StatusMaintenance:
		return handler.Error(c, fiber.StatusConflict, "this application is under maintenance")
	case catalog.StatusActive:
	}

	return c.JSON(fiber.Map{"url": entry.URL})
}
