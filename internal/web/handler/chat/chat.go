// Package chat implements the team feed: messages, reactions, pins and the
// dismissable announcement banners.
package chat

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
	"github.com/sukut-platform/go-portal/internal/web/handler"
)

const (
	// Path is the base path of the chat endpoints.
	Path = handler.APIPath + "/chat/messages"

	// AnnouncementPath is the base path of the announcement endpoints.
	AnnouncementPath = handler.APIPath + "/announcements"
)

// Service is the chat handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	recorder  *audit.Recorder
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// messageRequest is the payload for posting a message.
type messageRequest struct {
	Content string   `json:"content" validate:"required,max=4000"`
	Type    string   `json:"type"`
	AppID   string   `json:"appId"`
	Tags    []string `json:"tags"`
}

// reactionRequest toggles one emoji reaction for the caller.
type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

// announcementRequest is the payload for publishing an announcement banner.
type announcementRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	Priority string `json:"priority"`
}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	issuer *auth.TokenIssuer,
	recorder *audit.Recorder,
) {
	if app == nil || cfg == nil || db == nil || issuer == nil || recorder == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.recorder = recorder
	s.validator = validator.New()

	chat := app.Group(Path, auth.RequireAuth(issuer))

	chat.Get(handler.RootPath, s.List)
	chat.Post(handler.RootPath, s.Post)
	chat.Post("/:id/reactions", s.React)
	chat.Put("/:id/pin", auth.RequireAdmin(), s.TogglePin)
	chat.Delete("/:id", s.Delete)

	ann := app.Group(AnnouncementPath, auth.RequireAuth(issuer))

	ann.Get(handler.RootPath, s.ListAnnouncements)
	ann.Post(handler.RootPath, auth.RequireAdmin(), s.PostAnnouncement)
	ann.Post("/:id/dismiss", s.Dismiss)
}

// List returns messages newest first, pinned ones separately, optionally
// filtered by application.
func (s *Service) List(c *fiber.Ctx) error {
	page := handler.ParsePagination(c)

	query := s.db.Model(&models.ChatMessage{})
	if appID := c.Query("appId"); appID != "" {
		query = query.Where("app_id = ?", appID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error().Err(err).Msg("failed to count messages")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&messages).Error; err != nil {
		log.Error().Err(err).Msg("failed to list messages")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	var pinned []models.ChatMessage
	if err := s.db.Where("pinned = ?", true).
		Order("created_at DESC").
		Find(&pinned).Error; err != nil {
		log.Error().Err(err).Msg("failed to list pinned messages")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"pinned":   pinned,
		"total":    total,
	})
}

// Post adds a message to the feed. The announcement type is reserved for
// admins; everything else is open to any logged-in user.
func (s *Service) Post(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	in := new(messageRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "message content is required")
	}

	msgType := models.MessageType(in.Type)
	if msgType == "" {
		msgType = models.MessageTypeComment
	}

	switch msgType {
	case models.MessageTypeComment, models.MessageTypeQuestion, models.MessageTypeUpdate:
	case models.MessageTypeAnnouncement:
		if sessionData.User.Role != roles.Admin {
			return handler.Error(c, fiber.StatusForbidden, "only admins can post announcements")
		}
	default:
		return handler.Error(c, fiber.StatusBadRequest, "unknown message type: "+in.Type)
	}

	if in.Tags == nil {
		in.Tags = []string{}
	}

	message := models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    sessionData.User.ID,
		UserName:  sessionData.User.FullName(),
		UserRole:  sessionData.User.Role,
		Content:   in.Content,
		Type:      msgType,
		AppID:     in.AppID,
		Tags:      in.Tags,
		Reactions: []models.Reaction{},
	}

	if err := s.db.Create(&message).Error; err != nil {
		log.Error().Err(err).Msg("failed to post message")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// React toggles the caller's emoji reaction on a message.
func (s *Service) React(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	in := new(reactionRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "emoji is required")
	}

	message, err := s.loadMessage(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "message not found")
	}

	kept := make([]models.Reaction, 0, len(message.Reactions))

	removed := false

	for _, r := range message.Reactions {
		if r.Emoji == in.Emoji && r.UserID == sessionData.User.ID {
			removed = true
			continue
		}

		kept = append(kept, r)
	}

	if !removed {
		kept = append(kept, models.Reaction{
			Emoji:    in.Emoji,
			UserID:   sessionData.User.ID,
			UserName: sessionData.User.FullName(),
		})
	}

	message.Reactions = kept

	if err := s.db.Save(message).Error; err != nil {
		log.Error().Err(err).Str("message", message.ID).Msg("failed to update reactions")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(message)
}

// TogglePin flips a message's pinned flag.
func (s *Service) TogglePin(c *fiber.Ctx) error {
	message, err := s.loadMessage(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "message not found")
	}

	message.Pinned = !message.Pinned

	if err := s.db.Save(message).Error; err != nil {
		log.Error().Err(err).Str("message", message.ID).Msg("failed to toggle pin")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(message)
}

// Delete removes a message. Authors may delete their own; admins any.
func (s *Service) Delete(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	message, err := s.loadMessage(c.Params("id"))
	if err != nil {
		return handler.Error(c, fiber.StatusNotFound, "message not found")
	}

	if message.UserID != sessionData.User.ID && sessionData.User.Role != roles.Admin {
		return handler.Error(c, fiber.StatusForbidden, "you can only delete your own messages")
	}

	if err := s.db.Delete(message).Error; err != nil {
		log.Error().Err(err).Str("message", message.ID).Msg("failed to delete message")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	return c.JSON(fiber.Map{"deleted": true})
}

// ListAnnouncements returns active banners with the caller's dismissed flag
// resolved.
func (s *Service) ListAnnouncements(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	var announcements []models.Announcement
	if err := s.db.Order("created_at DESC").Find(&announcements).Error; err != nil {
		log.Error().Err(err).Msg("failed to list announcements")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	type view struct {
		models.Announcement
		Dismissed bool `json:"dismissed"`
	}

	views := make([]view, 0, len(announcements))
	for i := range announcements {
		views = append(views, view{
			Announcement: announcements[i],
			Dismissed:    announcements[i].DismissedByUser(sessionData.User.ID),
		})
	}

	return c.JSON(fiber.Map{"announcements": views})
}

// PostAnnouncement publishes a banner and records it in the audit trail.
func (s *Service) PostAnnouncement(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	in := new(announcementRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "announcement content is required")
	}

	priority := models.AnnouncementPriority(in.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}

	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return handler.Error(c, fiber.StatusBadRequest, "unknown priority: "+in.Priority)
	}

	announcement := models.Announcement{
		ID:          uuid.NewString(),
		Content:     in.Content,
		Priority:    priority,
		CreatedBy:   sessionData.User.Email,
		DismissedBy: []uint64{},
		CreatedAt:   time.Now(),
	}

	if err := s.db.Create(&announcement).Error; err != nil {
		log.Error().Err(err).Msg("failed to post announcement")
		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	err := s.recorder.Record(
		announcement.ID,
		sessionData.User.Email,
		audit.ActionAnnouncementPosted,
		map[string]any{
			"priority": string(priority),
		},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to record audit entry")
	}

	return c.Status(fiber.StatusCreated).JSON(announcement)
}

// Dismiss hides a banner for the caller only. Dismissing twice is a no-op.
func (s *Service) Dismiss(c *fiber.Ctx) error {
	sessionData := auth.SessionFromCtx(c)

	var announcement models.Announcement
	if err := s.db.First(&announcement, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "announcement not found")
		}

		log.Error().Err(err).Msg("failed to load announcement")

		return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
	}

	if !announcement.DismissedByUser(sessionData.User.ID) {
		announcement.DismissedBy = append(announcement.DismissedBy, sessionData.User.ID)

		if err := s.db.Save(&announcement).Error; err != nil {
			log.Error().Err(err).Str("announcement", announcement.ID).Msg("failed to dismiss announcement")
			return handler.Error(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(fiber.Map{"dismissed": true})
}

// loadMessage fetches a message by ID.
func (s *Service) loadMessage(id string) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := s.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &message, nil
}
