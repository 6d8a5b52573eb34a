// Package user provides the admin endpoints for managing user accounts:
// CRUD plus the per-user grant, revoke, role and status operations.
package user

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path for user administration.
	Path = handler.APIPath + "/admin/users"
)

// Service provides CRUD and permission operations for users.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	provider  *auth.LocalProvider
	access    *access.Service
	recorder  *audit.Recorder
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// createRequest is the payload for creating a user. The role's default
// groups, apps and features are applied to the new account.
type createRequest struct {
	Email      string `json:"email"     validate:"required,email"`
	Password   string `json:"password"  validate:"required,min=8"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName"  validate:"required"`
	Role       string `json:"role"      validate:"required"`
	Company    string `json:"company"`
	Department string `json:"department"`
}

// updateRequest is the payload for editing a user's profile fields.
type updateRequest struct {
	Email      string `json:"email"     validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName"  validate:"required"`
	Company    string `json:"company"`
	Department string `json:"department"`
}

// changeRequest names app and/or group IDs for a grant or revoke.
type changeRequest struct {
	Apps   []string `json:"apps"`
	Groups []string `json:"groups"`
}

// roleRequest carries a role change.
type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

// statusRequest carries a status change.
type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	provider *auth.LocalProvider,
	issuer *auth.TokenIssuer,
	accessService *access.Service,
	recorder *audit.Recorder,
) {
	if app == nil || cfg == nil || db == nil || provider == nil || issuer == nil ||
		accessService == nil || recorder == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.provider = provider
	s.access = accessService
	s.recorder = recorder
	s.validator = validator.New()

	admin := app.Group(Path, auth.RequireAuth(issuer), auth.RequireAdmin())

	admin.Get(handler.RootPath, s.List)
	admin.Post(handler.RootPath, s.Create)
	admin.Get("/:id", s.Get)
	admin.Put("/:id", s.Update)
	admin.Delete("/:id", s.Delete)
	admin.Post("/:id/grant", s.Grant)
	admin.Post("/:id/revoke", s.Revoke)
	admin.Put("/:id/role", s.UpdateRole)
	admin.Put("/:id/status", s.UpdateStatus)

	app.Get(handler.APIPath+"/admin/apps/:appId/users",
		auth.RequireAuth(issuer),
		auth.RequireAdmin(),
		s.UsersWithAccess,
	)
}

// UsersWithAccess reports which users can open the given application,
// whatever the source of that access (role, grant, wildcard or group).
func (s *Service) UsersWithAccess(c *fiber.Ctx) error {
	appID := c.Params("appId")
	if !s.access.Catalog().Has(appID) {
		return handler.Error(c, fiber.StatusNotFound, "unknown application")
	}

	var users []models.User
	if err := s.db.Preload("AppGrants").Preload("GroupMemberships").
		Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("failed to load users")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	ids, err := s.access.UsersWithAccess(appID, users)
	if err != nil {
		log.Error().Err(err).Str("app", appID).Msg("failed to resolve access report")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	idSet := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	matched := make([]models.User, 0, len(ids))

	for i := range users {
		if _, ok := idSet[users[i].ID]; ok {
			matched = append(matched, users[i])
		}
	}

	return c.JSON(fiber.Map{
		"app":   appID,
		"users": handler.NewUserViews(matched),
		"total": len(matched),
	})
}

// List returns users with pagination and optional status/search filters.
func (s *Service) List(c *fiber.Ctx) error {
	page := handler.ParsePagination(c)

	users, total, err := s.provider.ListUsers(
		models.UserStatus(c.Query("status")),
		c.Query("search"),
		page.Limit,
		page.Offset,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{
		"users": handler.NewUserViews(users),
		"total": total,
	})
}

// Get returns a single user with the resolved app set.
func (s *Service) Get(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	return s.respondWithUser(c, user.ID)
}

// Create adds a user and applies the role's default permission record.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(createRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user payload: "+err.Error())
	}

	if !s.access.Roles().IsValid(in.Role) {
		return handler.Error(c, fiber.StatusBadRequest, "unknown role: "+in.Role)
	}

	user, err := s.provider.CreateUser(
		in.Email, in.Password, in.FirstName, in.LastName, in.Role, in.Company, in.Department,
	)

	switch {
	case errors.Is(err, auth.ErrUserEmailExists):
		return handler.Error(c, fiber.StatusConflict, auth.ErrUserEmailExists.Error())
	case err != nil:
		log.Error().Err(err).Str("email", in.Email).Msg("failed to create user")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	if err := s.applyRoleDefaults(user); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to apply role defaults")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, user, audit.ActionUserCreated, map[string]any{
		"user": user.Email,
		"role": user.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(handler.NewUserView(user, nil))
}

// Update edits a user's profile fields. Role and status have their own
// endpoints so their side effects stay explicit.
func (s *Service) Update(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	in := new(updateRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user payload: "+err.Error())
	}

	err = s.provider.UpdateUser(user.ID, in.Email, in.FirstName, in.LastName, in.Company, in.Department)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to update user")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, user, audit.ActionUserUpdated, map[string]any{
		"user": in.Email,
	})

	updated, err := s.provider.GetUserByID(user.ID)
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(handler.NewUserView(updated, nil))
}

// Delete soft-deletes a user account. Admins cannot delete themselves.
func (s *Service) Delete(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	if user.ID == auth.SessionFromCtx(c).User.ID {
		return handler.Error(c, fiber.StatusBadRequest, "you cannot delete your own account")
	}

	if user.Role == roles.Admin {
		return handler.Error(c, fiber.StatusBadRequest, "admin accounts cannot be deleted")
	}

	if err := s.provider.DeleteUser(user.ID); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to delete user")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	s.record(c, user, audit.ActionUserDeleted, map[string]any{
		"user": user.Email,
	})

	return c.JSON(fiber.Map{"deleted": true})
}

// Grant adds apps and/or groups to a user's permission record.
func (s *Service) Grant(c *fiber.Ctx) error {
	return s.change(c, true)
}

// Revoke removes apps and/or groups from a user's permission record.
func (s *Service) Revoke(c *fiber.Ctx) error {
	return s.change(c, false)
}

func (s *Service) change(c *fiber.Ctx, grant bool) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	in := new(changeRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if msg := s.validateChange(in); msg != "" {
		return handler.Error(c, fiber.StatusBadRequest, msg)
	}

	req := access.ChangeRequest{Apps: in.Apps, Groups: in.Groups}
	performedBy := auth.SessionFromCtx(c).User.Email

	if grant {
		err = s.access.Grant(performedBy, user, req)
	} else {
		err = s.access.Revoke(performedBy, user, req)
	}

	switch {
	case errors.Is(err, access.ErrEmptyChange):
		return handler.Error(c, fiber.StatusBadRequest, access.ErrEmptyChange.Error())
	case err != nil:
		log.Error().Err(err).Uint64("user_id", user.ID).Bool("grant", grant).Msg("failed to change access")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return s.respondWithUser(c, user.ID)
}

// UpdateRole changes a user's role, resetting grants to the new role's
// defaults. Admins cannot change their own role.
func (s *Service) UpdateRole(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	if user.ID == auth.SessionFromCtx(c).User.ID {
		return handler.Error(c, fiber.StatusBadRequest, "you cannot change your own role")
	}

	in := new(roleRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "role is required")
	}

	err = s.access.UpdateRole(auth.SessionFromCtx(c).User.Email, user, in.Role)

	switch {
	case errors.Is(err, access.ErrUnknownRole):
		return handler.Error(c, fiber.StatusBadRequest, "unknown role: "+in.Role)
	case err != nil:
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to update role")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return s.respondWithUser(c, user.ID)
}

// UpdateStatus changes a user's lifecycle status. Admins cannot change
// their own status.
func (s *Service) UpdateStatus(c *fiber.Ctx) error {
	user, err := s.loadUser(c)
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "user not found")
	}

	if user.ID == auth.SessionFromCtx(c).User.ID {
		return handler.Error(c, fiber.StatusBadRequest, "you cannot change your own status")
	}

	in := new(statusRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "status is required")
	}

	err = s.access.UpdateStatus(auth.SessionFromCtx(c).User.Email, user, models.UserStatus(in.Status))

	switch {
	case errors.Is(err, access.ErrUnknownStatus):
		return handler.Error(c, fiber.StatusBadRequest, "unknown status: "+in.Status)
	case err != nil:
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to update status")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return s.respondWithUser(c, user.ID)
}

// loadUser resolves the :id route parameter to a user record.
func (s *Service) loadUser(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, access.ErrUserNotFound
	}

	return s.access.GetUser(id)
}

// validateChange checks app IDs against the catalog and group IDs against
// the database. The wildcard grant is always a valid app ID.
func (s *Service) validateChange(in *changeRequest) string {
	for _, id := range in.Apps {
		if id == models.WildcardAppID {
			continue
		}

		if !s.access.Catalog().Has(id) {
			return "unknown application: " + id
		}
	}

	if len(in.Groups) > 0 {
		var count int64
		if err := s.db.Model(&models.PermissionGroup{}).
			Where("id IN ?", in.Groups).
			Count(&count).Error; err == nil && count != int64(len(in.Groups)) {
			return "one or more permission groups do not exist"
		}
	}

	return ""
}

// respondWithUser reloads the user and returns the fresh view with the
// resolved app set.
func (s *Service) respondWithUser(c *fiber.Ctx, id uint64) error {
	user, err := s.provider.GetUserByID(id)
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	set, err := s.access.ResolveAccessibleApps(user)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to resolve accessible apps")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(handler.NewUserView(user, set.IDs(s.access.Catalog().IDs())))
}

// applyRoleDefaults seeds a new account with its role's default apps,
// groups and features.
func (s *Service) applyRoleDefaults(user *models.User) error {
	defaults := s.access.Roles().DefaultsFor(user.Role)

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range defaults.Apps {
			if err := tx.Create(&models.AppGrant{UserID: user.ID, AppID: id}).Error; err != nil {
				return err
			}
		}

		for _, id := range defaults.Groups {
			if err := tx.Create(&models.GroupMembership{UserID: user.ID, GroupID: id}).Error; err != nil {
				return err
			}
		}

		user.Features = defaults.Features

		// Struct update, so the features json serializer runs.
		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Select("Features").
			Updates(models.User{Features: defaults.Features}).Error
	})
}

// record appends an audit entry for an admin mutation. Audit failures are
// logged, not surfaced; the mutation itself already happened.
func (s *Service) record(c *fiber.Ctx, user *models.User, action string, details map[string]any) {
	performedBy := auth.SessionFromCtx(c).User.Email

	if err := s.recorder.Record(strconv.FormatUint(user.ID, 10), performedBy, action, details); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
