// Package daemon boots the portal: database, session store, registries and
// the web service.
package daemon

import (
	"fmt"

	"github.com/gofiber/storage"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/glebarez/sqlite"

	"github.com/sukut-platform/go-portal/internal/access"
	"github.com/sukut-platform/go-portal/internal/audit"
	"github.com/sukut-platform/go-portal/internal/catalog"
	"github.com/sukut-platform/go-portal/internal/config"
	"github.com/sukut-platform/go-portal/internal/db/dsn"
	"github.com/sukut-platform/go-portal/internal/db/models"
	"github.com/sukut-platform/go-portal/internal/roles"
	"github.com/sukut-platform/go-portal/internal/web"
	"github.com/sukut-platform/go-portal/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	cfg        *config.Config
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.AppGrant{},
		&models.GroupMembership{},
		&models.PermissionGroup{},
		&models.AuditEntry{},
		&models.ChatMessage{},
		&models.Announcement{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	cat := loadCatalog(cfg)
	reg := loadRoles(cfg)

	seed(cfg, db, reg)

	session.Init(openSessionStorage(cfg))

	recorder := audit.NewRecorder(db)
	accessService := access.NewService(db, cat, reg, recorder)

	return &Daemon{
		webService: web.New(cfg, db, accessService, recorder),
		cfg:        cfg,
	}
}

// openDialector picks the GORM driver for the configured engine.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.Engine {
	case "mysql":
		return gormmysql.Open(dsn.CreateMySQL(cfg))
	case "postgres":
		return gormpostgres.Open(dsn.CreatePostgres(cfg))
	case "sqlite":
		return sqlite.Open(cfg.DB.Path)
	default:
		log.Fatal().Str("engine", cfg.DB.Engine).Msg("unknown database engine")
		return nil
	}
}

// openSessionStorage creates the session store on the same engine as the
// database. The sqlite engine keeps sessions in memory; they do not survive
// a restart there.
func openSessionStorage(cfg *config.Config) storage.Storage {
	switch cfg.DB.Engine {
	case "mysql":
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.CreateMySQL(cfg),
			Table:         "sessions",
		})
	case "postgres":
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.CreatePostgres(cfg),
			Table:         "sessions",
		})
	default:
		return sessionmemory.New()
	}
}

// loadCatalog reads the application catalog file, falling back to the
// built-in catalog when none is configured.
func loadCatalog(cfg *config.Config) *catalog.Catalog {
	if cfg.Catalog.File == "" {
		return catalog.Default()
	}

	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Catalog.File).Msg("failed to load catalog")
		return nil
	}

	log.Info().Int("apps", cat.Len()).Str("file", cfg.Catalog.File).Msg("catalog loaded")

	return cat
}

// loadRoles reads the role registry file, falling back to the built-in
// registry when none is configured.
func loadRoles(cfg *config.Config) *roles.Registry {
	if cfg.Roles.File == "" {
		return roles.Default()
	}

	reg, err := roles.Load(cfg.Roles.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Roles.File).Msg("failed to load roles")
		return nil
	}

	log.Info().Strs("roles", reg.Names()).Str("file", cfg.Roles.File).Msg("roles loaded")

	return reg
}
