package config

import (
	"time"

	"github.com/sukut-platform/go-portal/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Catalog   Catalog
	Roles     Roles
	Webserver Webserver
}

// Catalog points at the application catalog configuration.
type Catalog struct {
	File string // path to the apps.toml catalog file, empty = built-in defaults
}

// Roles points at the role table configuration.
type Roles struct {
	File string // path to the roles.toml role table, empty = built-in defaults
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	TokenSecret  string  // HMAC secret for session tokens
	Session      Session // session settings
}
