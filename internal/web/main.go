// Package web assembles the portal's HTTP service: the Fiber app, the
// access-log middleware and every handler's routes.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/auth"
	"github.com/sukut-platform/go-portal/internal/config"
	fiberlogger "github.com/sukut-platform/go-portal/internal/logger/adapter/fiber"
	"github.com/sukut-platform/go-portal/internal/web/handler"
	"github.com/sukut-platform/go-portal/internal/web/handler/admin/auditlog"
	"github.com/sukut-platform/go-portal/internal/web/handler/admin/bulk"
	"github.com/sukut-platform/go-portal/internal/web/handler/admin/group"
	adminuser "github.com/sukut-platform/go-portal/internal/web/handler/admin/user"
	"github.com/sukut-platform/go-portal/internal/web/handler/apps"
	"github.com/sukut-platform/go-portal/internal/web/handler/chat"
	"github.com/sukut-platform/go-portal/internal/web/handler/login"
	"github.com/sukut-platform/go-portal/internal/web/handler/logout"
	"github.com/sukut-platform/go-portal/internal/web/handler/profile"
)

const (
	// CheckAliveURI is the load-balancer health check endpoint.
	CheckAliveURI = "/checkalive"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the portal.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, accessService *access.Service, recorder *audit.Recorder) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   jsonErrorHandler,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAliveURI,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	service.alive.Store(true)

	app.Get(CheckAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
		}

		return c.SendString("alive")
	})

	provider := auth.NewLocalProvider(db)
	issuer := auth.NewTokenIssuer(cfg.Webserver.TokenSecret, cfg.Webserver.Session.ExpiryTime)

	// init handlers (they register their own routes and guards)
	login.Handler.Init(app, cfg, db, provider, issuer, accessService)
	logout.Handler.Init(app, cfg, issuer)
	apps.Handler.Init(app, cfg, issuer, accessService)
	profile.Handler.Init(app, cfg, provider, issuer, accessService)
	adminuser.Handler.Init(app, cfg, db, provider, issuer, accessService, recorder)
	group.Handler.Init(app, cfg, db, issuer, accessService, recorder)
	bulk.Handler.Init(app, cfg, issuer, accessService)
	auditlog.Handler.Init(app, cfg, issuer, recorder)
	chat.Handler.Init(app, cfg, db, issuer, recorder)

	return service
}

// jsonErrorHandler keeps every error response in the API's JSON shape.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return handler.Error(c, code, err.Error())
}
