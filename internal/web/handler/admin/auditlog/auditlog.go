// Package auditlog serves the admin audit-trail views: filtered listing
// and CSV export.
package auditlog

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path of the audit endpoints.
	Path = handler.APIPath + "/admin/audit"

	// exportLimit caps how many entries one CSV export contains.
	exportLimit = 10000
)

// Service is the audit-log handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	recorder *audit.Recorder
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, issuer *auth.TokenIssuer, recorder *audit.Recorder) {
	if app == nil || cfg == nil || issuer == nil || recorder == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.recorder = recorder

	admin := app.Group(Path, auth.RequireAuth(issuer), auth.RequireAdmin())

	admin.Get(handler.RootPath, s.List)
	admin.Get("/actions", s.Actions)
	admin.Get("/export", s.Export)
}

// List returns audit entries newest first, filtered by action kind and a
// free-text search over the subject and actor.
func (s *Service) List(c *fiber.Ctx) error {
	page := handler.ParsePagination(c)

	entries, total, err := s.recorder.List(c.Query("action"), c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list audit entries")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   total,
	})
}

// Actions returns the distinct action kinds present in the trail, for the
// filter dropdown.
func (s *Service) Actions(c *fiber.Ctx) error {
	actions, err := s.recorder.Actions()
	if err != nil {
		log.Error().Err(err).Msg("failed to list audit actions")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{"actions": actions})
}

// Export streams the filtered trail as CSV. Details maps are flattened to
// one JSON column.
func (s *Service) Export(c *fiber.Ctx) error {
	entries, _, err := s.recorder.List(c.Query("action"), c.Query("search"), exportLimit, 0)
	if err != nil {
		log.Error().Err(err).Msg("failed to export audit entries")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	var sb strings.Builder

	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"id", "timestamp", "user_id", "performed_by", "action", "details"}); err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	for _, entry := range entries {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			details = []byte("{}")
		}

		record := []string{
			entry.ID,
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.UserID,
			entry.PerformedBy,
			entry.Action,
			string(details),
		}

		if err := w.Write(record); err != nil {
			return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	filename := "audit-" + time.Now().UTC().Format("2006-01-02") + ".csv"

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.SendString(sb.String())
}
