// Package group provides permission-group management: named bundles of
// applications that can be granted to users as a unit.
package group

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/uniuri"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path for group administration.
	Path = handler.APIPath + "/admin/groups"

	// ListPath is the read-only list available to every logged-in user.
	ListPath = handler.APIPath + "/groups"

	// generatedIDLength is the length of generated group IDs.
	generatedIDLength = 12
)

// Service provides CRUD operations for permission groups.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	access    *access.Service
	recorder  *audit.Recorder
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// request is the payload for creating or updating a group. On create, a
// missing ID is generated; IDs are immutable afterwards.
type request struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Apps        []string `json:"apps"`
}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	issuer *auth.TokenIssuer,
	accessService *access.Service,
	recorder *audit.Recorder,
) {
	if app == nil || cfg == nil || db == nil || issuer == nil || accessService == nil || recorder == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.access = accessService
	s.recorder = recorder
	s.validator = validator.New()

	app.Get(ListPath, auth.RequireAuth(issuer), s.List)

	admin := app.Group(Path, auth.RequireAuth(issuer), auth.RequireAdmin())

	admin.Get(handler.RootPath, s.List)
	admin.Post(handler.RootPath, s.Create)
	admin.Get("/:id", s.Get)
	admin.Put("/:id", s.Update)
	admin.Delete("/:id", s.Delete)
}

// List returns all permission groups.
func (s *Service) List(c *fiber.Ctx) error {
	var groups []models.PermissionGroup
	if err := s.db.Order("id").Find(&groups).Error; err != nil {
		log.Error().Err(err).Msg("failed to list groups")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{"groups": groups})
}

// Get returns a single group with its member count.
func (s *Service) Get(c *fiber.Ctx) error {
	group, err := s.load(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "group not found")
	}

	var members int64
	if err := s.db.Model(&models.GroupMembership{}).
		Where("group_id = ?", group.ID).
		Count(&members).Error; err != nil {
		log.Error().Err(err).Str("group", group.ID).Msg("failed to count members")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{
		"group":   group,
		"members": members,
	})
}

// Create adds a permission group.
func (s *Service) Create(c *fiber.Ctx) error {
	in, msg := s.parse(c)
	if msg != "" {
		return handler.Error(c, fiber.StatusBadRequest, msg)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uniuri.NewLen(generatedIDLength)
	}

	group := models.PermissionGroup{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Apps:        in.Apps,
	}

	if err := s.db.Create(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return handler.Error(c, fiber.StatusConflict, "a group with this ID already exists")
		}

		log.Error().Err(err).Str("group", id).Msg("failed to create group")

		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, audit.ActionGroupCreated, map[string]any{
		"group": group.ID,
		"name":  group.Name,
		"apps":  group.Apps,
	})

	return c.Status(fiber.StatusCreated).JSON(group)
}

// Update edits a group's fields. Changing a group's apps takes effect for
// every member on their next access resolution.
func (s *Service) Update(c *fiber.Ctx) error {
	group, err := s.load(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "group not found")
	}

	in, msg := s.parse(c)
	if msg != "" {
		return handler.Error(c, fiber.StatusBadRequest, msg)
	}

	group.Name = in.Name
	group.Description = in.Description
	group.Icon = in.Icon
	group.Color = in.Color
	group.Apps = in.Apps

	if err := s.db.Save(group).Error; err != nil {
		log.Error().Err(err).Str("group", group.ID).Msg("failed to update group")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, audit.ActionGroupUpdated, map[string]any{
		"group": group.ID,
		"name":  group.Name,
		"apps":  group.Apps,
	})

	return c.JSON(group)
}

// Delete removes a group together with its memberships. A membership row
// whose group is gone would stop contributing apps anyway.
func (s *Service) Delete(c *fiber.Ctx) error {
	group, err := s.load(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "group not found")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", group.ID).
			Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}

		return tx.Delete(group).Error
	})
	if err != nil {
		log.Error().Err(err).Str("group", group.ID).Msg("failed to delete group")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, audit.ActionGroupDeleted, map[string]any{
		"group": group.ID,
		"name":  group.Name,
	})

	return c.JSON(fiber.Map{"deleted": true})
}

// load fetches a group by ID.
func (s *Service) load(id string) (*models.PermissionGroup, error) {
	var group models.PermissionGroup
	if err := s.db.First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &group, nil
}

// parse reads and validates the request body, checking every app ID against
// the catalog.
func (s *Service) parse(c *fiber.Ctx) (*request, string) {
	in := new(request)
	if err := c.BodyParser(in); err != nil {
		return nil, "invalid request body"
	}

	if err := s.validator.Struct(in); err != nil {
		return nil, "group name is required"
	}

	for _, id := range in.Apps {
		if !s.access.Catalog().Has(id) {
			return nil, "unknown application: " + id
		}
	}

	if in.Apps == nil {
		in.Apps = []string{}
	}

	return in, ""
}

// record appends an audit entry using the group ID as the subject.
func (s *Service) record(c *fiber.Ctx, action string, details map[string]any) {
	performedBy := auth.SessionFromCtx(c).User.Email

	groupID, _ := details["group"].(string)

	if err := s.recorder.Record(groupID, performedBy, action, details); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
